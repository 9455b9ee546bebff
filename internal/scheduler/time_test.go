package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestClockMinutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		clock   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 1440, false},
		{"24:01", 0, true},
		{"25:00", 0, true},
		{"12:60", 0, true},
		{"9h30", 0, true},
		{"", 0, true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.clock, func(t *testing.T) {
			t.Parallel()

			got, err := ClockMinutes(tc.clock)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidClock) {
					t.Fatalf("expected ErrInvalidClock, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ClockMinutes(%q) returned error: %v", tc.clock, err)
			}
			if got != tc.want {
				t.Errorf("ClockMinutes(%q) = %d, want %d", tc.clock, got, tc.want)
			}
		})
	}
}

func TestValidRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		start, end string
		want       bool
	}{
		{"09:00", "10:00", true},
		{"23:00", "24:00", true},
		{"00:00", "24:00", true},
		{"10:00", "10:00", false},
		{"11:00", "10:00", false},
		{"24:00", "24:00", false},
		{"bogus", "10:00", false},
		{"09:00", "bogus", false},
	}

	for _, tc := range tests {
		if got := ValidRange(tc.start, tc.end); got != tc.want {
			t.Errorf("ValidRange(%q, %q) = %v, want %v", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestCombineDateTime(t *testing.T) {
	t.Parallel()

	got, err := CombineDateTime("2024-06-10", "10:30", time.UTC)
	if err != nil {
		t.Fatalf("CombineDateTime returned error: %v", err)
	}
	want := time.Date(2024, 6, 10, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}

	endOfDay, err := CombineDateTime("2024-06-10", "24:00", time.UTC)
	if err != nil {
		t.Fatalf("CombineDateTime returned error: %v", err)
	}
	nextMidnight := time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC)
	if !endOfDay.Equal(nextMidnight) {
		t.Errorf("24:00 resolved to %s, want %s", endOfDay, nextMidnight)
	}

	if _, err := CombineDateTime("10/06/2024", "10:00", time.UTC); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestFormatDateBR(t *testing.T) {
	t.Parallel()

	if got := FormatDateBR("2024-06-10"); got != "10/06/2024" {
		t.Errorf("FormatDateBR = %q", got)
	}
	// Malformed input passes through untouched.
	if got := FormatDateBR("junho"); got != "junho" {
		t.Errorf("FormatDateBR passthrough = %q", got)
	}
}

func TestFormatTimestampBR(t *testing.T) {
	t.Parallel()

	instant := time.Date(2024, 6, 10, 14, 5, 9, 0, time.UTC)
	if got := FormatTimestampBR(instant); got != "10/06/2024 14:05:09" {
		t.Errorf("FormatTimestampBR = %q", got)
	}
}
