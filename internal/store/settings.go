package store

import (
	"fmt"
	"time"

	"github.com/ws1993/Baby-Growth-Record/internal/kv"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// Settings returns a copy of the current settings, passphrase included.
// Use Settings().Sanitize() before handing them to anything outside the process.
func (s *Store) Settings() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.settings
}

func (s *Store) UpdateSettings(patch model.SettingsPatch) (model.Settings, error) {
	if err := model.ValidateStruct(patch); err != nil {
		return model.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	s.mu.Lock()
	next := s.st
	if patch.Theme != nil {
		next.settings.Theme = *patch.Theme
	}
	if patch.Language != nil {
		next.settings.Language = *patch.Language
	}
	if patch.AutoSync != nil {
		next.settings.AutoSync = *patch.AutoSync
	}
	err := s.commit(next, kv.KeySettings)
	out := s.st.settings
	s.mu.Unlock()
	if err != nil {
		return model.Settings{}, fmt.Errorf("update settings: %w", err)
	}
	s.emit(EntitySettings, ActionUpdated, "")
	return out, nil
}

// UpdateRemote replaces the remote endpoint and credentials.
func (s *Store) UpdateRemote(cfg model.RemoteConfig) error {
	if err := model.ValidateStruct(cfg); err != nil {
		return fmt.Errorf("update remote: %w", err)
	}
	return s.updateSettings("update remote", func(st *model.Settings) { st.Remote = cfg })
}

// SetPassphrase stores the sync passphrase. It never leaves this device.
func (s *Store) SetPassphrase(passphrase string) error {
	return s.updateSettings("set passphrase", func(st *model.Settings) { st.Passphrase = passphrase })
}

func (s *Store) IsRemoteConfigured() bool {
	return s.Settings().Remote.Configured()
}

func (s *Store) CanSync() bool {
	return s.Settings().CanSync()
}

func (s *Store) updateSettings(op string, fn func(*model.Settings)) error {
	s.mu.Lock()
	next := s.st
	fn(&next.settings)
	err := s.commit(next, kv.KeySettings)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.emit(EntitySettings, ActionUpdated, "")
	return nil
}

// MarkSynced records a successful sync at the given time and subtracts
// uploaded from the pending-change counter. Mutations made while the upload
// was in flight stay pending.
func (s *Store) MarkSynced(at time.Time, uploaded int) error {
	s.mu.Lock()
	next := s.st
	at = at.UTC()
	next.settings.LastSyncTime = &at
	next.settings.PendingChanges = max(next.settings.PendingChanges-uploaded, 0)
	err := s.commit(next, kv.KeySettings, kv.KeyLastSync)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}
	return nil
}

// CurrentMember returns the selected member. ok is false when none is selected.
func (s *Store) CurrentMember() (model.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexMember(s.st.members, s.st.current)
	if i < 0 {
		return model.Member{}, false
	}
	return s.st.members[i], true
}

// SetCurrentMember selects a member. An empty id clears the selection.
func (s *Store) SetCurrentMember(id string) error {
	s.mu.Lock()
	if id != "" && indexMember(s.st.members, id) < 0 {
		s.mu.Unlock()
		return fmt.Errorf("set current member %q: %w", id, model.ErrNotFound)
	}
	next := s.st
	next.current = id
	err := s.commit(next, kv.KeyCurrentMember)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("set current member: %w", err)
	}
	s.emit(EntityMember, ActionSelected, id)
	return nil
}
