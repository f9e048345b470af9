package store

import (
	"fmt"
	"slices"

	"github.com/ws1993/Baby-Growth-Record/internal/growth"
	"github.com/ws1993/Baby-Growth-Record/internal/kv"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// ListRecords returns every record, newest observation first.
func (s *Store) ListRecords() []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.st.records)
}

func (s *Store) GetRecord(id string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexRecord(s.st.records, id)
	if i < 0 {
		return model.Record{}, fmt.Errorf("get record %q: %w", id, model.ErrNotFound)
	}
	return s.st.records[i], nil
}

// CreateRecord adds a measurement for an existing member. Derived fields of
// the new record and of the member's later records are recomputed.
func (s *Store) CreateRecord(in model.RecordInput) (model.Record, error) {
	if err := model.ValidateRecordInput(in); err != nil {
		return model.Record{}, fmt.Errorf("create record: %w", err)
	}
	id, err := s.newID()
	if err != nil {
		return model.Record{}, fmt.Errorf("create record: %w", err)
	}
	now := s.today()

	s.mu.Lock()
	mi := indexMember(s.st.members, in.MemberID)
	if mi < 0 {
		s.mu.Unlock()
		return model.Record{}, fmt.Errorf("create record: member %q: %w", in.MemberID, model.ErrNotFound)
	}
	rec := model.Record{
		ID:        id,
		MemberID:  in.MemberID,
		Date:      in.Date,
		Height:    in.Height,
		Weight:    in.Weight,
		CreatedAt: now,
		UpdatedAt: now,
	}
	records, err := growth.RecomputeMember(s.st.members[mi], append(slices.Clone(s.st.records), rec))
	if err != nil {
		s.mu.Unlock()
		return model.Record{}, fmt.Errorf("create record: %w", err)
	}
	sortRecords(records)

	next := s.st
	next.records = records
	next.settings.PendingChanges++
	err = s.commit(next, kv.KeyRecords, kv.KeySettings)
	created := records[indexRecord(records, id)]
	s.mu.Unlock()
	if err != nil {
		return model.Record{}, fmt.Errorf("create record: %w", err)
	}

	s.logger.Debug("record created", "id", id, "member_id", rec.MemberID)
	s.emit(EntityRecord, ActionCreated, id)
	return created, nil
}

// UpdateRecord applies patch to the record. Moving a record to another member
// recomputes both members' records.
func (s *Store) UpdateRecord(id string, patch model.RecordPatch) (model.Record, error) {
	now := s.today()

	s.mu.Lock()
	i := indexRecord(s.st.records, id)
	if i < 0 {
		s.mu.Unlock()
		return model.Record{}, fmt.Errorf("update record %q: %w", id, model.ErrNotFound)
	}
	old := s.st.records[i]
	in := patch.Apply(old)
	if err := model.ValidateRecordInput(in); err != nil {
		s.mu.Unlock()
		return model.Record{}, fmt.Errorf("update record %q: %w", id, err)
	}
	mi := indexMember(s.st.members, in.MemberID)
	if mi < 0 {
		s.mu.Unlock()
		return model.Record{}, fmt.Errorf("update record %q: member %q: %w", id, in.MemberID, model.ErrNotFound)
	}

	rec := old
	rec.MemberID = in.MemberID
	rec.Date = in.Date
	rec.Height = in.Height
	rec.Weight = in.Weight
	rec.UpdatedAt = now

	records := slices.Clone(s.st.records)
	records[i] = rec
	records, err := growth.RecomputeMember(s.st.members[mi], records)
	if err == nil && old.MemberID != rec.MemberID {
		if oi := indexMember(s.st.members, old.MemberID); oi >= 0 {
			records, err = growth.RecomputeMember(s.st.members[oi], records)
		}
	}
	if err != nil {
		s.mu.Unlock()
		return model.Record{}, fmt.Errorf("update record %q: %w", id, err)
	}
	sortRecords(records)

	next := s.st
	next.records = records
	next.settings.PendingChanges++
	err = s.commit(next, kv.KeyRecords, kv.KeySettings)
	updated := records[indexRecord(records, id)]
	s.mu.Unlock()
	if err != nil {
		return model.Record{}, fmt.Errorf("update record %q: %w", id, err)
	}

	s.emit(EntityRecord, ActionUpdated, id)
	return updated, nil
}

// DeleteRecord removes the record and recomputes the change values of the
// member's remaining records.
func (s *Store) DeleteRecord(id string) error {
	s.mu.Lock()
	i := indexRecord(s.st.records, id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete record %q: %w", id, model.ErrNotFound)
	}
	old := s.st.records[i]
	records := slices.Delete(slices.Clone(s.st.records), i, i+1)
	if mi := indexMember(s.st.members, old.MemberID); mi >= 0 {
		var err error
		records, err = growth.RecomputeMember(s.st.members[mi], records)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("delete record %q: %w", id, err)
		}
	}

	next := s.st
	next.records = records
	next.settings.PendingChanges++
	err := s.commit(next, kv.KeyRecords, kv.KeySettings)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("delete record %q: %w", id, err)
	}

	s.emit(EntityRecord, ActionDeleted, id)
	return nil
}
