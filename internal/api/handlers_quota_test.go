package api

import (
	"testing"
	"time"
)

func TestStartOfMonth(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{
			time.Date(2025, 3, 17, 14, 30, 5, 0, time.UTC),
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
			time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			// Local zones normalize to UTC before truncation.
			time.Date(2025, 6, 1, 0, 30, 0, 0, time.FixedZone("ahead", 2*3600)),
			time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		if got := startOfMonth(tc.in); !got.Equal(tc.want) {
			t.Errorf("startOfMonth(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestStartOfMonthIsMonotonicWithinMonth(t *testing.T) {
	first := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2025, 7, 31, 23, 0, 0, 0, time.UTC)
	if !startOfMonth(first).Equal(startOfMonth(last)) {
		t.Error("counting window should not shift within a month")
	}
}
