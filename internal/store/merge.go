package store

import (
	"fmt"
	"slices"

	"github.com/ws1993/Baby-Growth-Record/internal/growth"
	"github.com/ws1993/Baby-Growth-Record/internal/kv"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// Snapshot is a consistent copy of the store taken under one lock.
type Snapshot struct {
	Members  []model.Member
	Records  []model.Record
	Settings model.Settings
	// Pending is the pending-change counter at the time of the snapshot.
	Pending int
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Members:  slices.Clone(s.st.members),
		Records:  slices.Clone(s.st.records),
		Settings: s.st.settings,
		Pending:  s.st.settings.PendingChanges,
	}
}

// Merge folds incoming members and records into the store. An incoming entity
// replaces the local one with the same id only when its UpdatedAt is strictly
// newer. Every member touched by the merge has its records re-derived. The
// merge is applied and flushed as a whole or not at all; it does not count as
// a pending change.
func (s *Store) Merge(members []model.Member, records []model.Record) (model.MergeResult, error) {
	var res model.MergeResult

	s.mu.Lock()
	nextMembers := slices.Clone(s.st.members)
	nextRecords := slices.Clone(s.st.records)
	affected := make(map[string]bool)

	for _, in := range members {
		i := indexMember(nextMembers, in.ID)
		switch {
		case i < 0:
			nextMembers = append(nextMembers, in)
			affected[in.ID] = true
			res.MembersAdded++
		case in.UpdatedAt.After(nextMembers[i].UpdatedAt):
			nextMembers[i] = in
			affected[in.ID] = true
			res.MembersReplaced++
		default:
			res.MembersKept++
		}
	}

	var problems []string
	for _, in := range records {
		if indexMember(nextMembers, in.MemberID) < 0 {
			problems = append(problems, fmt.Sprintf("record %s: unknown member %s", in.ID, in.MemberID))
			continue
		}
		i := indexRecord(nextRecords, in.ID)
		switch {
		case i < 0:
			nextRecords = append(nextRecords, in)
			affected[in.MemberID] = true
			res.RecordsAdded++
		case in.UpdatedAt.After(nextRecords[i].UpdatedAt):
			affected[nextRecords[i].MemberID] = true
			affected[in.MemberID] = true
			nextRecords[i] = in
			res.RecordsReplaced++
		default:
			res.RecordsKept++
		}
	}
	if len(problems) > 0 {
		s.mu.Unlock()
		return model.MergeResult{}, fmt.Errorf("merge: %w", &model.ImportValidationError{Problems: problems})
	}

	for _, m := range nextMembers {
		if !affected[m.ID] {
			continue
		}
		var err error
		nextRecords, err = growth.RecomputeMember(m, nextRecords)
		if err != nil {
			s.mu.Unlock()
			return model.MergeResult{}, fmt.Errorf("merge: %w", err)
		}
	}
	sortRecords(nextRecords)

	if !res.Changed() {
		s.mu.Unlock()
		return res, nil
	}

	next := s.st
	next.members = nextMembers
	next.records = nextRecords
	err := s.commit(next, kv.KeyMembers, kv.KeyRecords)
	s.mu.Unlock()
	if err != nil {
		return model.MergeResult{}, fmt.Errorf("merge: %w", err)
	}

	s.logger.Info("merge applied",
		"members_added", res.MembersAdded, "members_replaced", res.MembersReplaced,
		"records_added", res.RecordsAdded, "records_replaced", res.RecordsReplaced)
	s.emit(EntityData, ActionMerged, "")
	return res, nil
}
