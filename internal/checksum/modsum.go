// Package checksum provides the additive checksum used by the fuel cell
// datalogger to protect the comma-delimited field payload.
package checksum

// Modulus keeps the running sum a 16 bit value.
const Modulus = 32768

// Sum computes the additive checksum of data: the sum of the unsigned byte
// values, reduced modulo 32768 after every addition. The payload format is
// ASCII, so byte values and character values coincide; callers must pass the
// raw payload bytes, not a decoded rune sequence.
func Sum(data []byte) int {
	sum := 0
	for _, b := range data {
		sum += int(b)
		sum %= Modulus
	}
	return sum
}

// SumString computes the additive checksum of the payload text.
func SumString(payload string) int {
	return Sum([]byte(payload))
}

// Verify reports whether the transmitted checksum matches the checksum
// computed over the payload text.
func Verify(payload string, transmitted int) bool {
	return SumString(payload) == transmitted
}

// IsHexDigit returns true if c is a valid hexadecimal digit (0-9, A-F, a-f).
// The line terminator token after the checksum is hex.
func IsHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}
