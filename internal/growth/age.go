package growth

import (
	"fmt"
	"time"
)

// AgeInMonths returns the whole months between birth and observed. A month
// only counts once the observation's day of month reaches the birth's. The
// result is never negative, so observations recorded before the birth date
// yield 0.
func AgeInMonths(birth, observed time.Time) int {
	by, bm, bd := birth.Date()
	oy, om, od := observed.Date()

	months := (oy-by)*12 + int(om-bm)
	if od < bd {
		months--
	}
	return max(months, 0)
}

// FormatAge renders an age in months as "5 months", "1 year" or "2 years 3 months".
func FormatAge(months int) string {
	if months < 12 {
		return plural(months, "month")
	}
	years, rest := months/12, months%12
	if rest == 0 {
		return plural(years, "year")
	}
	return plural(years, "year") + " " + plural(rest, "month")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
