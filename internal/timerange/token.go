package timerange

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/keagan/clipbot/pkg/util"
)

var (
	compoundPattern = regexp.MustCompile(`^(?:\d+(?:\.\d+)?[a-z]+)+$`)
	unitPattern     = regexp.MustCompile(`(\d+(?:\.\d+)?)([a-z]+)`)
)

var units = map[string]time.Duration{
	"w": 7 * 24 * time.Hour, "wk": 7 * 24 * time.Hour, "wks": 7 * 24 * time.Hour, "week": 7 * 24 * time.Hour, "weeks": 7 * 24 * time.Hour,
	"d": 24 * time.Hour, "day": 24 * time.Hour, "days": 24 * time.Hour,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"ms": time.Millisecond,
}

// ParseDuration parses a single duration token. Accepted forms:
//
//	90        plain seconds (fractions allowed)
//	1:30      clock form, also 1-30 and 1:02:03
//	1h2m3s    compound units (w, d, h, m, s, ms and their long names)
func ParseDuration(token string) (time.Duration, error) {
	tok := strings.ToLower(strings.TrimSpace(token))
	if tok == "" {
		return 0, &ParseError{Token: token, Reason: "empty duration"}
	}

	if strings.ContainsAny(tok, ":-") {
		d, err := util.ParseTimestamp(tok)
		if err != nil {
			return 0, &ParseError{Token: token, Reason: "malformed clock time"}
		}
		return d, nil
	}

	if secs, err := strconv.ParseFloat(tok, 64); err == nil {
		if secs < 0 {
			return 0, &ParseError{Token: token, Reason: "negative duration"}
		}
		return toDuration(token, secs)
	}

	if !compoundPattern.MatchString(tok) {
		return 0, &ParseError{Token: token, Reason: "not a duration"}
	}

	var total float64
	for _, m := range unitPattern.FindAllStringSubmatch(tok, -1) {
		unit, ok := units[m[2]]
		if !ok {
			return 0, &ParseError{Token: token, Reason: fmt.Sprintf("unknown unit %q", m[2])}
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, &ParseError{Token: token, Reason: "not a duration"}
		}
		total += value * unit.Seconds()
	}
	return toDuration(token, total)
}

func toDuration(token string, secs float64) (time.Duration, error) {
	d, ok := util.SecondsToDuration(secs)
	if !ok {
		return 0, &ParseError{Token: token, Reason: "duration out of range"}
	}
	return d, nil
}
