package models

import "time"

// Quarter identifies one of the four assessment periods in a year.
type Quarter string

const (
	Q1 Quarter = "Q1"
	Q2 Quarter = "Q2"
	Q3 Quarter = "Q3"
	Q4 Quarter = "Q4"
)

// QuarterOf maps a calendar month to its quarter.
func QuarterOf(month time.Month) Quarter {
	switch {
	case month <= time.March:
		return Q1
	case month <= time.June:
		return Q2
	case month <= time.September:
		return Q3
	default:
		return Q4
	}
}

// PeriodOf returns the quarter and year a point in time falls into.
func PeriodOf(t time.Time) (Quarter, int) {
	return QuarterOf(t.Month()), t.Year()
}

// LastMonth reports whether the month is the final month of a quarter.
func LastMonth(month time.Month) bool {
	return month%3 == 0
}
