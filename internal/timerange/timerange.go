// Package timerange turns free-text clip requests into (start, end) ranges.
//
// Two grammars are understood:
//
//	<start> [<end>]        a single clip; end defaults to start + 5s
//	- <length> [<gap>]     repeating clips of length, separated by gap
//	                       (default 5s), starting at gap and stopping
//	                       before a clip would pass the video duration
package timerange

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultClip        = 5 * time.Second
	DefaultGap         = 5 * time.Second
	DefaultMaxSegments = 200
)

// Range is a sub-clip expressed as offsets from the start of the video.
type Range struct {
	Start time.Duration
	End   time.Duration
}

// Length returns End - Start
func (r Range) Length() time.Duration {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("%gs-%gs", r.Start.Seconds(), r.End.Seconds())
}

// ParseError identifies the request token that could not be understood.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return e.Reason
	}
	return fmt.Sprintf("%q: %s", e.Token, e.Reason)
}

// Parser holds the request defaults.
type Parser struct {
	DefaultClip time.Duration
	DefaultGap  time.Duration
	// MaxSegments caps how many ranges a repeating request may expand to.
	// Zero or negative means DefaultMaxSegments.
	MaxSegments int
}

// NewParser returns a parser with the standard defaults.
func NewParser() *Parser {
	return &Parser{
		DefaultClip: DefaultClip,
		DefaultGap:  DefaultGap,
		MaxSegments: DefaultMaxSegments,
	}
}

// Parse expands text into ordered ranges for a video of the given duration.
func Parse(text string, duration time.Duration) ([]Range, error) {
	return NewParser().Parse(text, duration)
}

// Parse expands text into ordered ranges for a video of the given duration.
// A repeating request may legitimately produce zero ranges.
func (p *Parser) Parse(text string, duration time.Duration) ([]Range, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, &ParseError{Reason: "empty request"}
	}

	if strings.HasPrefix(tokens[0], "-") {
		// "-10 3" is read the same as "- 10 3"
		if tokens[0] != "-" {
			tokens = append([]string{"-", strings.TrimPrefix(tokens[0], "-")}, tokens[1:]...)
		}
		return p.parseRepeating(tokens[1:], duration)
	}
	return p.parseSingle(tokens)
}

func (p *Parser) parseSingle(tokens []string) ([]Range, error) {
	if len(tokens) > 2 {
		return nil, &ParseError{Token: tokens[2], Reason: "unexpected token"}
	}

	start, err := ParseDuration(tokens[0])
	if err != nil {
		return nil, err
	}

	end := start + p.clip()
	if end < start {
		return nil, &ParseError{Token: tokens[0], Reason: "duration out of range"}
	}
	if len(tokens) == 2 {
		end, err = ParseDuration(tokens[1])
		if err != nil {
			return nil, err
		}
		if end <= start {
			return nil, &ParseError{Token: tokens[1], Reason: "end must be after start"}
		}
	}

	return []Range{{Start: start, End: end}}, nil
}

func (p *Parser) parseRepeating(tokens []string, duration time.Duration) ([]Range, error) {
	switch {
	case len(tokens) == 0:
		return nil, &ParseError{Token: "-", Reason: "missing clip length"}
	case len(tokens) > 2:
		return nil, &ParseError{Token: tokens[2], Reason: "unexpected token"}
	}

	length, err := ParseDuration(tokens[0])
	if err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, &ParseError{Token: tokens[0], Reason: "clip length must be positive"}
	}

	gap := p.gap()
	if len(tokens) == 2 {
		if gap, err = ParseDuration(tokens[1]); err != nil {
			return nil, err
		}
	}

	limit := p.MaxSegments
	if limit <= 0 {
		limit = DefaultMaxSegments
	}

	// comparisons are written against duration so huge lengths or gaps
	// cannot overflow
	var ranges []Range
	for start := gap; start < duration && length < duration-start && len(ranges) < limit; {
		end := start + length
		ranges = append(ranges, Range{Start: start, End: end})
		if gap >= duration-end {
			break
		}
		start = end + gap
	}
	return ranges, nil
}

// Truncated reports whether a repeating expansion reached the segment cap,
// in which case later segments may have been dropped.
func (p *Parser) Truncated(ranges []Range) bool {
	limit := p.MaxSegments
	if limit <= 0 {
		limit = DefaultMaxSegments
	}
	return len(ranges) >= limit
}

func (p *Parser) clip() time.Duration {
	if p.DefaultClip <= 0 {
		return DefaultClip
	}
	return p.DefaultClip
}

func (p *Parser) gap() time.Duration {
	if p.DefaultGap <= 0 {
		return DefaultGap
	}
	return p.DefaultGap
}
