package util

import (
	"math"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"45", 45 * time.Second},
		{"45.5", 45500 * time.Millisecond},
		{"1:30", 90 * time.Second},
		{"1-30", 90 * time.Second},
		{"01:02:03", time.Hour + 2*time.Minute + 3*time.Second},
		{"1-02-03", time.Hour + 2*time.Minute + 3*time.Second},
		{"0:07.25", 7250 * time.Millisecond},
	}

	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1:2:3:4", "-5", "1::2", "1.5:30", "1:-3", "inf", "nan", "inf:00", "1e30", "99999999999999:00"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Errorf("ParseTimestamp(%q) expected error", in)
		}
	}
}

func TestSecondsToDuration(t *testing.T) {
	if d, ok := SecondsToDuration(1.5); !ok || d != 1500*time.Millisecond {
		t.Errorf("SecondsToDuration(1.5) = %v, %v", d, ok)
	}
	for _, secs := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1, 1e30} {
		if d, ok := SecondsToDuration(secs); ok {
			t.Errorf("SecondsToDuration(%v) = %v, want rejection", secs, d)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00:00"},
		{20 * time.Second, "0:00:20"},
		{3*time.Minute + 25*time.Second, "0:03:25"},
		{2*time.Hour + 5*time.Second + 900*time.Millisecond, "2:00:05"},
		{-time.Second, "0:00:00"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(90*time.Second + 500*time.Millisecond); got != "00:01:30.500" {
		t.Errorf("FormatDuration = %q", got)
	}
}
