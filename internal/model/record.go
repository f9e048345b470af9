package model

import "time"

// Record is one growth measurement. BMI, AgeMonths and the change fields are
// derived and are recomputed whenever height, weight or date change.
type Record struct {
	ID           string    `json:"id"`
	MemberID     string    `json:"memberId"`
	Date         string    `json:"date"`
	Height       float64   `json:"height"`
	Weight       float64   `json:"weight"`
	BMI          float64   `json:"bmi"`
	AgeMonths    int       `json:"ageMonths"`
	HeightChange *float64  `json:"heightChange,omitempty"`
	WeightChange *float64  `json:"weightChange,omitempty"`
	BMIChange    *float64  `json:"bmiChange,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Observed returns the parsed observation date.
func (r Record) Observed() (time.Time, error) {
	return time.Parse(DateLayout, r.Date)
}

type RecordInput struct {
	MemberID string  `json:"memberId" validate:"required"`
	Date     string  `json:"date" validate:"required,datetime=2006-01-02"`
	Height   float64 `json:"height"`
	Weight   float64 `json:"weight"`
}

type RecordPatch struct {
	MemberID *string  `json:"memberId,omitempty"`
	Date     *string  `json:"date,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
}

// Apply merges the patch over the record's current input fields.
func (p RecordPatch) Apply(r Record) RecordInput {
	in := RecordInput{MemberID: r.MemberID, Date: r.Date, Height: r.Height, Weight: r.Weight}
	if p.MemberID != nil {
		in.MemberID = *p.MemberID
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.Height != nil {
		in.Height = *p.Height
	}
	if p.Weight != nil {
		in.Weight = *p.Weight
	}
	return in
}

// ChartPoint is one entry of a chart-ready series, oldest first.
type ChartPoint struct {
	Date      string  `json:"date"`
	Height    float64 `json:"height"`
	Weight    float64 `json:"weight"`
	BMI       float64 `json:"bmi"`
	AgeMonths int     `json:"ageMonths"`
}

type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

type RecordStats struct {
	TotalRecords      int     `json:"totalRecords"`
	HeightTrend       Trend   `json:"heightTrend"`
	WeightTrend       Trend   `json:"weightTrend"`
	AverageHeightGain float64 `json:"averageHeightGain"` // cm per month
	AverageWeightGain float64 `json:"averageWeightGain"` // kg per month
}
