package growth

import (
	"fmt"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// Derive fills the derived fields of rec: BMI, age at observation and the
// change against the nearest earlier record of the same member in history.
// history may contain rec itself and records of other members; both are
// ignored when looking for the previous record. The change fields are nil
// when no earlier record exists.
//
// Finding the previous record scans history, so deriving every record of a
// member is quadratic in its record count. That is fine at the scale of one
// family's measurements.
func Derive(member model.Member, rec model.Record, history []model.Record) (model.Record, error) {
	if rec.MemberID != member.ID {
		return rec, fmt.Errorf("derive record %s: member %s: %w", rec.ID, rec.MemberID, model.ErrNotFound)
	}
	bmi, err := BMI(rec.Weight, rec.Height)
	if err != nil {
		return rec, err
	}
	birth, err := member.Birth()
	if err != nil {
		return rec, fmt.Errorf("%w: member %s birthDate %q", model.ErrValidation, member.ID, member.BirthDate)
	}
	observed, err := rec.Observed()
	if err != nil {
		return rec, fmt.Errorf("%w: record %s date %q", model.ErrValidation, rec.ID, rec.Date)
	}

	rec.BMI = bmi
	rec.AgeMonths = AgeInMonths(birth, observed)
	rec.HeightChange, rec.WeightChange, rec.BMIChange = nil, nil, nil

	prev, ok := Previous(rec, history)
	if !ok {
		return rec, nil
	}
	prevBMI, err := BMI(prev.Weight, prev.Height)
	if err != nil {
		return rec, fmt.Errorf("previous record %s: %w", prev.ID, err)
	}
	rec.HeightChange = ptr(Delta(rec.Height, prev.Height))
	rec.WeightChange = ptr(Delta(rec.Weight, prev.Weight))
	rec.BMIChange = ptr(Delta(bmi, prevBMI))
	return rec, nil
}

// Previous returns the record of the same member with the latest date strictly
// before rec's date. Among several records on that date the most recently
// created one wins.
func Previous(rec model.Record, history []model.Record) (model.Record, bool) {
	var (
		best  model.Record
		found bool
	)
	for _, h := range history {
		if h.ID == rec.ID || h.MemberID != rec.MemberID || h.Date >= rec.Date {
			continue
		}
		if !found || h.Date > best.Date || (h.Date == best.Date && createdAfter(h, best)) {
			best, found = h, true
		}
	}
	return best, found
}

// RecomputeMember re-derives every record that belongs to member and returns
// the full slice with those records replaced. Records of other members are
// returned untouched. The input slice is not modified.
func RecomputeMember(member model.Member, records []model.Record) ([]model.Record, error) {
	out := make([]model.Record, len(records))
	copy(out, records)
	for i, r := range records {
		if r.MemberID != member.ID {
			continue
		}
		d, err := Derive(member, r, records)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func createdAfter(a, b model.Record) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func ptr(v float64) *float64 { return &v }
