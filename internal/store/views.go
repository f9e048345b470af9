package store

import (
	"fmt"
	"slices"

	"github.com/ws1993/Baby-Growth-Record/internal/growth"
	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// Views are recomputed from the current state on every call.

// RecordsForMember returns the member's records, newest observation first.
func (s *Store) RecordsForMember(memberID string) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if indexMember(s.st.members, memberID) < 0 {
		return nil, fmt.Errorf("records for member %q: %w", memberID, model.ErrNotFound)
	}
	return filterMember(s.st.records, memberID), nil
}

// LatestRecord returns the member's most recent record. ok is false when the
// member has no records.
func (s *Store) LatestRecord(memberID string) (rec model.Record, ok bool, err error) {
	records, err := s.RecordsForMember(memberID)
	if err != nil || len(records) == 0 {
		return model.Record{}, false, err
	}
	return records[0], true, nil
}

// ChartSeries returns the member's measurements oldest first.
func (s *Store) ChartSeries(memberID string) ([]model.ChartPoint, error) {
	records, err := s.RecordsForMember(memberID)
	if err != nil {
		return nil, err
	}
	points := make([]model.ChartPoint, 0, len(records))
	for _, r := range slices.Backward(records) {
		points = append(points, model.ChartPoint{
			Date:      r.Date,
			Height:    r.Height,
			Weight:    r.Weight,
			BMI:       r.BMI,
			AgeMonths: r.AgeMonths,
		})
	}
	return points, nil
}

// MemberStats summarises the member's record count, date span and ranges.
func (s *Store) MemberStats(memberID string) (model.MemberStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexMember(s.st.members, memberID)
	if i < 0 {
		return model.MemberStats{}, fmt.Errorf("member stats %q: %w", memberID, model.ErrNotFound)
	}
	return growth.SummarizeMember(s.st.members[i], s.st.records), nil
}

// RecordStats reports the height and weight trends of the member.
func (s *Store) RecordStats(memberID string) (model.RecordStats, error) {
	records, err := s.RecordsForMember(memberID)
	if err != nil {
		return model.RecordStats{}, err
	}
	return growth.Trends(records), nil
}

func filterMember(records []model.Record, memberID string) []model.Record {
	out := make([]model.Record, 0)
	for _, r := range records {
		if r.MemberID == memberID {
			out = append(out, r)
		}
	}
	return out
}
