package growth

import (
	"math"
	"sort"
	"time"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// stableThreshold is the smallest first-to-last change treated as a trend.
const stableThreshold = 0.1

// SummarizeMember builds the record count, date span and measurement ranges
// for one member.
func SummarizeMember(member model.Member, records []model.Record) model.MemberStats {
	stats := model.MemberStats{ID: member.ID, Name: member.Name}
	for _, r := range records {
		if r.MemberID != member.ID {
			continue
		}
		stats.RecordCount++
		if stats.FirstRecordDate == "" || r.Date < stats.FirstRecordDate {
			stats.FirstRecordDate = r.Date
		}
		if r.Date > stats.LastRecordDate {
			stats.LastRecordDate = r.Date
		}
		stats.HeightRange = widen(stats.HeightRange, r.Height)
		stats.WeightRange = widen(stats.WeightRange, r.Weight)
	}
	return stats
}

func widen(r *model.Range, v float64) *model.Range {
	if r == nil {
		return &model.Range{Min: v, Max: v}
	}
	r.Min = math.Min(r.Min, v)
	r.Max = math.Max(r.Max, v)
	return r
}

// Trends compares the earliest and latest records of a series and averages
// the gain per month between them.
func Trends(records []model.Record) model.RecordStats {
	stats := model.RecordStats{
		TotalRecords: len(records),
		HeightTrend:  model.TrendStable,
		WeightTrend:  model.TrendStable,
	}
	if len(records) < 2 {
		return stats
	}

	sorted := make([]model.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })
	first, last := sorted[0], sorted[len(sorted)-1]

	dh := last.Height - first.Height
	dw := last.Weight - first.Weight
	stats.HeightTrend = trend(dh)
	stats.WeightTrend = trend(dw)

	from, err1 := first.Observed()
	to, err2 := last.Observed()
	if err1 != nil || err2 != nil {
		return stats
	}
	if months := monthsBetween(from, to); months > 0 {
		stats.AverageHeightGain = Round1(dh / months)
		stats.AverageWeightGain = Round1(dw / months)
	}
	return stats
}

func trend(delta float64) model.Trend {
	switch {
	case delta >= stableThreshold:
		return model.TrendIncreasing
	case delta <= -stableThreshold:
		return model.TrendDecreasing
	default:
		return model.TrendStable
	}
}

// monthsBetween measures a span in average-length months (30.44 days).
func monthsBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24 / 30.44
}
