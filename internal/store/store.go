// Package store is the authoritative in-memory owner of members, records and
// settings. Every mutation is validated, derived fields are recomputed, and
// the new state is flushed through a kv.Adapter before it becomes visible.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ws1993/Baby-Growth-Record/internal/kv"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// Change describes a successful mutation. Observers re-read the views they
// care about; the change itself carries no entity data.
type Change struct {
	Entity string
	Action string
	ID     string
}

const (
	EntityMember   = "member"
	EntityRecord   = "record"
	EntitySettings = "settings"
	EntityData     = "data"

	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionMerged   = "merged"
	ActionSelected = "selected"
)

// state is one immutable generation of the store's data. Mutations build a
// new state from copies and swap it in only after a successful flush.
type state struct {
	members  []model.Member
	records  []model.Record
	settings model.Settings
	current  string
}

type Store struct {
	mu     sync.RWMutex
	st     state
	kv     kv.Adapter
	logger *slog.Logger

	now    func() time.Time
	newID  func() (string, error)
	notify func(Change)
}

type Option func(*Store)

// WithClock replaces time.Now for timestamps and birth date checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithNotifier registers a callback invoked after each successful mutation.
func WithNotifier(fn func(Change)) Option {
	return func(s *Store) { s.notify = fn }
}

// WithIDGenerator replaces the UUIDv7 identifier source.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(s *Store) { s.newID = fn }
}

// Open loads the persisted collections from adapter. Missing keys start empty.
func Open(adapter kv.Adapter, logger *slog.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		kv:     adapter,
		logger: logger,
		now:    time.Now,
		newID:  newUUID,
		notify: func(Change) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	if !adapter.IsAvailable() {
		return nil, fmt.Errorf("open store: %w", model.ErrStorageUnavailable)
	}
	st, err := load(adapter)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s.st = st
	s.logger.Info("store loaded", "members", len(st.members), "records", len(st.records))
	return s, nil
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}

func load(adapter kv.Adapter) (state, error) {
	st := state{settings: model.DefaultSettings()}
	if err := readJSON(adapter, kv.KeyMembers, &st.members); err != nil {
		return st, err
	}
	if err := readJSON(adapter, kv.KeyRecords, &st.records); err != nil {
		return st, err
	}
	if err := readJSON(adapter, kv.KeySettings, &st.settings); err != nil {
		return st, err
	}
	var last time.Time
	if err := readJSON(adapter, kv.KeyLastSync, &last); err != nil {
		return st, err
	}
	if !last.IsZero() {
		st.settings.LastSyncTime = &last
	}
	var current string
	if err := readJSON(adapter, kv.KeyCurrentMember, &current); err != nil {
		return st, err
	}
	if indexMember(st.members, current) >= 0 {
		st.current = current
	}
	sortRecords(st.records)
	return st, nil
}

func readJSON(adapter kv.Adapter, key string, dst any) error {
	data, ok, err := adapter.Read(key)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", model.ErrStorageUnavailable, key, err)
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// commit flushes the given keys of next and, on success, makes next the
// current state. The caller must hold s.mu.
func (s *Store) commit(next state, keys ...string) error {
	values := make(map[string][]byte, len(keys))
	for _, key := range keys {
		v, err := encodeKey(next, key)
		if err != nil {
			return err
		}
		values[key] = v
	}
	if err := s.kv.WriteMany(values); err != nil {
		s.logger.Error("flush failed", "keys", keys, "error", err)
		return fmt.Errorf("%w: %v", model.ErrStorageUnavailable, err)
	}
	s.st = next
	return nil
}

func encodeKey(st state, key string) ([]byte, error) {
	var v any
	switch key {
	case kv.KeyMembers:
		v = nonNil(st.members)
	case kv.KeyRecords:
		v = nonNil(st.records)
	case kv.KeySettings:
		v = st.settings
	case kv.KeyCurrentMember:
		if st.current == "" {
			return nil, nil
		}
		v = st.current
	case kv.KeyLastSync:
		if st.settings.LastSyncTime == nil {
			return nil, nil
		}
		v = st.settings.LastSyncTime
	default:
		return nil, fmt.Errorf("encode unknown key %q", key)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return data, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// emit runs the notifier. It must be called without holding s.mu.
func (s *Store) emit(entity, action, id string) {
	s.notify(Change{Entity: entity, Action: action, ID: id})
}

func (s *Store) today() time.Time {
	return s.now().UTC()
}

// Now is the store's clock in UTC.
func (s *Store) Now() time.Time {
	return s.today()
}

// PendingChanges returns the number of mutations not yet uploaded.
func (s *Store) PendingChanges() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.settings.PendingChanges
}

func indexMember(members []model.Member, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(members, func(m model.Member) bool { return m.ID == id })
}

func indexRecord(records []model.Record, id string) int {
	return slices.IndexFunc(records, func(r model.Record) bool { return r.ID == id })
}

// sortRecords orders records newest observation first; records on the same
// date are ordered newest creation first.
func sortRecords(records []model.Record) {
	slices.SortStableFunc(records, func(a, b model.Record) int {
		if a.Date != b.Date {
			if a.Date > b.Date {
				return -1
			}
			return 1
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if a.CreatedAt.After(b.CreatedAt) {
				return -1
			}
			return 1
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
}
