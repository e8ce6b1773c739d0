// Package patterns provides shared regex patterns for DCL log line parsing.
package patterns

import (
	"regexp"
	"strconv"
)

// Patterns for locating a fuel cell record inside a free-form DCL log line.
var (
	// DateTimePattern matches the DCL controller timestamp prefixed to each
	// line: YYYY/MM/DD HH:MM:SS.mmm. Group 1 is the whole timestamp, groups
	// 2-8 the calendar components.
	DateTimePattern = regexp.MustCompile(`((\d{4})/(\d{2})/(\d{2}) (\d{2}):(\d{2}):(\d{2})\.(\d{3}))`)

	// NonDataPattern matches the marker the datalogger writes when the fuel
	// cell produced no data for the interval.
	NonDataPattern = regexp.MustCompile(`.+ No_FC_Data`)

	// StartDataPattern matches the start-of-payload anchor: a space, an
	// optionally signed integer, and a comma.
	StartDataPattern = regexp.MustCompile(` [+-]?[0-9]+,`)

	// EndDataPattern matches the end-of-payload anchor: a colon, the integer
	// checksum, a space, and the trailing hex token.
	EndDataPattern = regexp.MustCompile(`: ?[+-]?[0-9]+ [0-9A-Fa-f]+`)
)

// Capture group indices for DateTimePattern submatches.
const (
	TimestampGroup    = 1
	YearGroup         = 2
	MonthGroup        = 3
	DayGroup          = 4
	HourGroup         = 5
	MinuteGroup       = 6
	SecondsGroup      = 7
	MillisecondsGroup = 8
)

// TimestampMatch holds the captured DCL timestamp and its components.
type TimestampMatch struct {
	Raw         string // Verbatim timestamp text.
	Year        int
	Month       int
	Day         int
	Hour        int
	Minute      int
	Second      int
	Millisecond int
}

// MatchTimestamp extracts the DCL controller timestamp from a line.
// Returns false when the line carries no well-formed timestamp.
func MatchTimestamp(line string) (*TimestampMatch, bool) {
	m := DateTimePattern.FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	return &TimestampMatch{
		Raw:         m[TimestampGroup],
		Year:        mustInt(m[YearGroup]),
		Month:       mustInt(m[MonthGroup]),
		Day:         mustInt(m[DayGroup]),
		Hour:        mustInt(m[HourGroup]),
		Minute:      mustInt(m[MinuteGroup]),
		Second:      mustInt(m[SecondsGroup]),
		Millisecond: mustInt(m[MillisecondsGroup]),
	}, true
}

// mustInt converts a digits-only capture. The pattern guarantees the input.
func mustInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
