package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs the struct tag rules and reports every failing field
// as a single ErrValidation.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	name := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	case "datetime":
		return name + " must be a date in YYYY-MM-DD format"
	case "url":
		return name + " must be a valid URL"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	}
	return fmt.Sprintf("%s failed %q", name, fe.Tag())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// ValidateMemberInput checks the member invariants: required fields, a known
// gender and a real birth date that is not after today.
func ValidateMemberInput(in MemberInput, today time.Time) error {
	in.Name = strings.TrimSpace(in.Name)
	if err := ValidateStruct(in); err != nil {
		return err
	}
	birth, err := time.Parse(DateLayout, in.BirthDate)
	if err != nil {
		return fmt.Errorf("%w: birthDate is not a valid calendar date", ErrValidation)
	}
	if birth.After(truncateDay(today)) {
		return fmt.Errorf("%w: birthDate must not be in the future", ErrValidation)
	}
	return nil
}

// ValidateRecordInput checks required fields and the date format. Measurement
// positivity is enforced by the growth package with ErrInvalidMeasurement.
func ValidateRecordInput(in RecordInput) error {
	return ValidateStruct(in)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
