package dcl

import "time"

// NTPEpochOffset is the number of seconds between the NTP epoch (1900-01-01)
// and the Unix epoch (1970-01-01).
const NTPEpochOffset = 2208988800

// TimestampToNTP converts DCL calendar components to NTP-epoch seconds.
// The calendar fields are treated as UTC with no timezone or DST adjustment;
// the millisecond component contributes the fractional part.
func TimestampToNTP(year, month, day, hour, min, sec, msec int) float64 {
	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	elapsed := float64(t.Unix()) + float64(msec)/1000.0
	return elapsed + NTPEpochOffset
}

// UnixToNTP converts Unix-epoch seconds to NTP-epoch seconds.
func UnixToNTP(unix float64) float64 { return unix + NTPEpochOffset }

// NTPToTime converts NTP-epoch seconds back to a time.Time in UTC. Useful for
// storage sinks that want a native timestamp column.
func NTPToTime(ntp float64) time.Time {
	unix := ntp - NTPEpochOffset
	sec := int64(unix)
	nsec := int64((unix - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
