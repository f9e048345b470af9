// Package growth derives BMI, age in months and change-from-previous values
// for growth records. Everything here is a pure function of its inputs.
package growth

import (
	"fmt"
	"math"

	"github.com/ws1993/Baby-Growth-Record/internal/model"
)

// BMI returns weight / (height/100)^2 rounded to one decimal. Weight is in
// kilograms and height in centimetres.
func BMI(weight, height float64) (float64, error) {
	if !positive(weight) || !positive(height) {
		return 0, fmt.Errorf("bmi(%v, %v): %w", weight, height, model.ErrInvalidMeasurement)
	}
	m := height / 100
	return Round1(weight / (m * m)), nil
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Delta returns current - previous rounded to one decimal.
func Delta(current, previous float64) float64 {
	return Round1(current - previous)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1) && !math.IsNaN(v)
}

type Category string

const (
	CategoryUnderweight Category = "underweight"
	CategoryNormal      Category = "normal"
	CategoryOverweight  Category = "overweight"
	CategoryObese       Category = "obese"
)

// Classify buckets a BMI with the adult thresholds 18.5 / 24 / 28. Children
// need age and gender specific percentiles; this is only a coarse hint.
func Classify(bmi float64) Category {
	switch {
	case bmi < 18.5:
		return CategoryUnderweight
	case bmi < 24:
		return CategoryNormal
	case bmi < 28:
		return CategoryOverweight
	default:
		return CategoryObese
	}
}
