package dcl

import "fmt"

// WarningReason is the reason code for one recoverable line failure. The
// strings are the exact phrases the DCL datalogger tooling has always used,
// so downstream log scrapers keep matching.
type WarningReason string

const (
	ReasonNoData       WarningReason = "No fuel cell data on line"
	ReasonBadTimestamp WarningReason = "Bad/Missing Timestamp on line"
	ReasonNoStart      WarningReason = "No data found on line"
	ReasonNoTerminator WarningReason = "No terminator found on line"
	ReasonBadFields    WarningReason = "Improper format line"
	ReasonBadChecksum  WarningReason = "Bad checksum line"
)

// Warning describes one malformed input line. Exactly one Warning is emitted
// per failed line and no particle is generated for it.
type Warning struct {
	Line   int           // 1-based input line number.
	Reason WarningReason // One of the six reason codes.
}

// Message renders the warning in the historical diagnostic format.
func (w Warning) Message() string {
	return fmt.Sprintf("%s %d - No particle generated", w.Reason, w.Line)
}

// WarningFunc receives per-line diagnostics. It must never halt the scan.
// A nil WarningFunc discards diagnostics.
type WarningFunc func(Warning)
