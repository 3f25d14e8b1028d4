package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatDuration converts time.Duration to ffmpeg timestamp format
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}

// FormatClock renders a duration as H:MM:SS, dropping fractions of a second.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// ParseTimestamp parses a clock style timestamp: SS.mmm, MM:SS or HH:MM:SS.
// A hyphen is accepted in place of the colon (MM-SS, HH-MM-SS).
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid timestamp format: empty")
	}

	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) == 0 || len(parts) > 3 || strings.Count(s, ":")+strings.Count(s, "-") != len(parts)-1 {
		return 0, fmt.Errorf("invalid timestamp format: %s", s)
	}

	var totalSeconds float64
	for i, part := range parts {
		value, err := strconv.ParseFloat(part, 64)
		if err != nil || value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		// only the seconds field may carry a fraction
		if i < len(parts)-1 && value != float64(int64(value)) {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		totalSeconds = totalSeconds*60 + value
	}

	d, ok := SecondsToDuration(totalSeconds)
	if !ok {
		return 0, fmt.Errorf("timestamp out of range: %s", s)
	}
	return d, nil
}

// maxSeconds is the largest whole second count a time.Duration can hold
const maxSeconds = float64(math.MaxInt64 / int64(time.Second))

// SecondsToDuration converts a second count to a Duration. It reports false
// for NaN, infinities and values outside [0, maxSeconds].
func SecondsToDuration(secs float64) (time.Duration, bool) {
	if math.IsNaN(secs) || math.IsInf(secs, 0) || secs < 0 || secs > maxSeconds {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30/1")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
