package models

import (
	"testing"
	"time"
)

func TestQuarterOf(t *testing.T) {
	cases := []struct {
		month time.Month
		want  Quarter
	}{
		{time.January, Q1},
		{time.February, Q1},
		{time.March, Q1},
		{time.April, Q2},
		{time.May, Q2},
		{time.June, Q2},
		{time.July, Q3},
		{time.August, Q3},
		{time.September, Q3},
		{time.October, Q4},
		{time.November, Q4},
		{time.December, Q4},
	}

	for _, tc := range cases {
		if got := QuarterOf(tc.month); got != tc.want {
			t.Errorf("QuarterOf(%s) = %s, want %s", tc.month, got, tc.want)
		}
	}
}

func TestPeriodOf(t *testing.T) {
	quarter, year := PeriodOf(time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC))
	if quarter != Q4 || year != 2025 {
		t.Errorf("PeriodOf = %s/%d, want Q4/2025", quarter, year)
	}

	// Quarter boundaries belong to the later quarter
	quarter, _ = PeriodOf(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC))
	if quarter != Q2 {
		t.Errorf("April 1 = %s, want Q2", quarter)
	}
}

func TestLastMonth(t *testing.T) {
	lasts := map[time.Month]bool{
		time.March: true, time.June: true, time.September: true, time.December: true,
	}
	for month := time.January; month <= time.December; month++ {
		if got := LastMonth(month); got != lasts[month] {
			t.Errorf("LastMonth(%s) = %v, want %v", month, got, lasts[month])
		}
	}
}
