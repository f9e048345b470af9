package model

import "time"

// DateLayout is the calendar date format used for birth and observation dates.
const DateLayout = "2006-01-02"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Member struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Gender    Gender    `json:"gender"`
	BirthDate string    `json:"birthDate"`
	Avatar    string    `json:"avatar,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Birth returns the parsed birth date.
func (m Member) Birth() (time.Time, error) {
	return time.Parse(DateLayout, m.BirthDate)
}

// MemberInput carries the caller-settable member fields for create and update.
type MemberInput struct {
	Name      string `json:"name" validate:"required,max=100"`
	Gender    Gender `json:"gender" validate:"required,oneof=male female"`
	BirthDate string `json:"birthDate" validate:"required,datetime=2006-01-02"`
	Avatar    string `json:"avatar,omitempty" validate:"omitempty,max=2048"`
}

// MemberPatch is a partial update; nil fields keep their current value.
type MemberPatch struct {
	Name      *string `json:"name,omitempty"`
	Gender    *Gender `json:"gender,omitempty"`
	BirthDate *string `json:"birthDate,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}

// Apply merges the patch over the member's current input fields.
func (p MemberPatch) Apply(m Member) MemberInput {
	in := MemberInput{Name: m.Name, Gender: m.Gender, BirthDate: m.BirthDate, Avatar: m.Avatar}
	if p.Name != nil {
		in.Name = *p.Name
	}
	if p.Gender != nil {
		in.Gender = *p.Gender
	}
	if p.BirthDate != nil {
		in.BirthDate = *p.BirthDate
	}
	if p.Avatar != nil {
		in.Avatar = *p.Avatar
	}
	return in
}

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// MemberStats summarises the records of one member.
type MemberStats struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	RecordCount     int    `json:"recordCount"`
	FirstRecordDate string `json:"firstRecordDate,omitempty"`
	LastRecordDate  string `json:"lastRecordDate,omitempty"`
	HeightRange     *Range `json:"heightRange,omitempty"`
	WeightRange     *Range `json:"weightRange,omitempty"`
}
