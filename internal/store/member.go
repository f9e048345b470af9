package store

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ws1993/Baby-Growth-Record/internal/growth"
	"github.com/ws1993/Baby-Growth-Record/internal/kv"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// ListMembers returns all members in creation order.
func (s *Store) ListMembers() []model.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.members)
}

func (s *Store) GetMember(id string) (model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexMember(s.st.members, id)
	if i < 0 {
		return model.Member{}, fmt.Errorf("get member %q: %w", id, model.ErrNotFound)
	}
	return s.st.members[i], nil
}

func (s *Store) CreateMember(in model.MemberInput) (model.Member, error) {
	now := s.today()
	if err := model.ValidateMemberInput(in, now); err != nil {
		return model.Member{}, fmt.Errorf("create member: %w", err)
	}
	id, err := s.newID()
	if err != nil {
		return model.Member{}, fmt.Errorf("create member: %w", err)
	}
	m := model.Member{
		ID:        id,
		Name:      strings.TrimSpace(in.Name),
		Gender:    in.Gender,
		BirthDate: in.BirthDate,
		Avatar:    in.Avatar,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	next := s.st
	next.members = append(slices.Clone(s.st.members), m)
	next.settings.PendingChanges++
	err = s.commit(next, kv.KeyMembers, kv.KeySettings)
	s.mu.Unlock()
	if err != nil {
		return model.Member{}, fmt.Errorf("create member: %w", err)
	}

	s.logger.Debug("member created", "id", m.ID)
	s.emit(EntityMember, ActionCreated, m.ID)
	return m, nil
}

// UpdateMember applies patch to the member. A changed birth date recomputes
// the age of every record the member owns.
func (s *Store) UpdateMember(id string, patch model.MemberPatch) (model.Member, error) {
	now := s.today()

	s.mu.Lock()
	i := indexMember(s.st.members, id)
	if i < 0 {
		s.mu.Unlock()
		return model.Member{}, fmt.Errorf("update member %q: %w", id, model.ErrNotFound)
	}
	old := s.st.members[i]
	in := patch.Apply(old)
	if err := model.ValidateMemberInput(in, now); err != nil {
		s.mu.Unlock()
		return model.Member{}, fmt.Errorf("update member %q: %w", id, err)
	}

	m := old
	m.Name = strings.TrimSpace(in.Name)
	m.Gender = in.Gender
	m.BirthDate = in.BirthDate
	m.Avatar = in.Avatar
	m.UpdatedAt = now

	next := s.st
	next.members = slices.Clone(s.st.members)
	next.members[i] = m
	next.settings.PendingChanges++
	keys := []string{kv.KeyMembers, kv.KeySettings}
	if m.BirthDate != old.BirthDate {
		records, err := growth.RecomputeMember(m, s.st.records)
		if err != nil {
			s.mu.Unlock()
			return model.Member{}, fmt.Errorf("update member %q: %w", id, err)
		}
		next.records = records
		keys = append(keys, kv.KeyRecords)
	}
	err := s.commit(next, keys...)
	s.mu.Unlock()
	if err != nil {
		return model.Member{}, fmt.Errorf("update member %q: %w", id, err)
	}

	s.emit(EntityMember, ActionUpdated, m.ID)
	return m, nil
}

// DeleteMember removes the member and every record it owns. It returns the
// number of records removed with it.
func (s *Store) DeleteMember(id string) (int, error) {
	s.mu.Lock()
	i := indexMember(s.st.members, id)
	if i < 0 {
		s.mu.Unlock()
		return 0, fmt.Errorf("delete member %q: %w", id, model.ErrNotFound)
	}

	next := s.st
	next.members = slices.Delete(slices.Clone(s.st.members), i, i+1)
	next.records = make([]model.Record, 0, len(s.st.records))
	for _, r := range s.st.records {
		if r.MemberID != id {
			next.records = append(next.records, r)
		}
	}
	removed := len(s.st.records) - len(next.records)
	if next.current == id {
		next.current = ""
	}
	next.settings.PendingChanges++
	err := s.commit(next, kv.KeyMembers, kv.KeyRecords, kv.KeySettings, kv.KeyCurrentMember)
	s.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("delete member %q: %w", id, err)
	}

	s.logger.Info("member deleted", "id", id, "records_removed", removed)
	s.emit(EntityMember, ActionDeleted, id)
	return removed, nil
}
