package timerange

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sec(n float64) time.Duration {
	return time.Duration(n * float64(time.Second))
}

func TestParseSingle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Range
	}{
		{"start and end", "10 20", Range{sec(10), sec(20)}},
		{"end omitted", "10", Range{sec(10), sec(15)}},
		{"clock form", "1:00 1:30", Range{sec(60), sec(90)}},
		{"hyphen clock", "1-00 1-30", Range{sec(60), sec(90)}},
		{"compound", "1m 1m30s", Range{sec(60), sec(90)}},
		{"hours", "1h2m3s", Range{sec(3723), sec(3728)}},
		{"fraction", "2.5 4", Range{sec(2.5), sec(4)}},
		{"surrounding space", "  7   9 ", Range{sec(7), sec(9)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text, time.Hour)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0])
			assert.Less(t, got[0].Start, got[0].End)
		})
	}
}

func TestParseSingleIgnoresDuration(t *testing.T) {
	// the requested range is clamped later, not rejected here
	got, err := Parse("30 40", 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []Range{{sec(30), sec(40)}}, got)
}

func TestParseRepeating(t *testing.T) {
	got, err := Parse("- 5 3", 20*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []Range{{sec(3), sec(8)}, {sec(11), sec(16)}}, got)
}

func TestParseRepeatingProperties(t *testing.T) {
	cases := []struct {
		text     string
		length   time.Duration
		gap      time.Duration
		duration time.Duration
	}{
		{"- 5", sec(5), sec(5), sec(61)},
		{"- 10 2", sec(10), sec(2), sec(125)},
		{"- 1m 30s", time.Minute, sec(30), time.Hour},
		{"- 3 0", sec(3), 0, sec(20)},
		{"-4 1", sec(4), sec(1), sec(30)},
	}

	for _, c := range cases {
		t.Run(c.text, func(t *testing.T) {
			got, err := Parse(c.text, c.duration)
			require.NoError(t, err)
			require.NotEmpty(t, got)

			assert.Equal(t, c.gap, got[0].Start)
			for i, r := range got {
				assert.Equal(t, c.length, r.Length())
				assert.LessOrEqual(t, r.End, c.duration)
				if i > 0 {
					assert.Equal(t, c.gap, r.Start-got[i-1].End)
				}
			}
		})
	}
}

func TestParseRepeatingTooShort(t *testing.T) {
	got, err := Parse("- 5 3", 7*time.Second)
	require.NoError(t, err)
	assert.Empty(t, got)

	// start+length must stay strictly below the duration
	got, err = Parse("- 5 3", 8*time.Second)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseRepeatingHugeValues(t *testing.T) {
	for _, text := range []string{"- 9223372036 1", "- 1 9223372036", "- 9223372036 9223372036"} {
		got, err := Parse(text, time.Hour)
		require.NoError(t, err, text)
		assert.Empty(t, got, text)
	}

	got, err := Parse("- 1 1000000000", time.Duration(math.MaxInt64))
	require.NoError(t, err)
	for _, r := range got {
		assert.True(t, r.Start >= 0 && r.Start < r.End, "%v", r)
	}
}

func TestParseRepeatingCap(t *testing.T) {
	p := &Parser{MaxSegments: 10}
	got, err := p.Parse("- 1 0", time.Hour)
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.True(t, p.Truncated(got))
}

func TestParseIdempotent(t *testing.T) {
	for _, text := range []string{"10 20", "- 5 3", "1:30"} {
		first, err := Parse(text, time.Minute)
		require.NoError(t, err)
		second, err := Parse(text, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		text  string
		token string
	}{
		{"abc", "abc"},
		{"10 xyz", "xyz"},
		{"20 10", "10"},
		{"1 2 3", "3"},
		{"- abc", "abc"},
		{"- 5 zz", "zz"},
		{"- 0", "0"},
		{"-", "-"},
		{"5q", "5q"},
		{"1::2", "1::2"},
		{"inf", "inf"},
		{"nan", "nan"},
		{"infinity", "infinity"},
		{"1e30", "1e30"},
		{"10 1e30", "1e30"},
		{"99999999999999:00", "99999999999999:00"},
		{"999999999999w", "999999999999w"},
		{"- inf", "inf"},
		{"9223372036", "9223372036"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := Parse(tt.text, time.Minute)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected ParseError, got %T", err)
			assert.Equal(t, tt.token, perr.Token)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("   ", time.Minute)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseDuration(t *testing.T) {
	tests := map[string]time.Duration{
		"90":       sec(90),
		"1h":       time.Hour,
		"2min":     2 * time.Minute,
		"1m30s":    sec(90),
		"1.5m":     sec(90),
		"500ms":    500 * time.Millisecond,
		"00:01:05": sec(65),
		"1d":       24 * time.Hour,
	}
	for in, want := range tests {
		got, err := ParseDuration(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, got, in)
		}
	}
}
