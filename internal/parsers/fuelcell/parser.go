// Package fuelcell parses fuel cell engineering records embedded in DCL log
// files.
//
// Composition of a properly formed line of data:
//
//	The DCL timestamp:
//	-----------------------
//	YYYY/MM/DD HH:MM:SS.SSS
//
//	Free text follows the timestamp (power system status, battery readouts
//	and so on), then the fuel cell data, comma separated:
//	---------------------------------------------------------------------
//	4112,33557475,4308795,31356,13465,4260,10819,589,162678,46,21,100,
//	15778,4,906397,-147897,661,-142057,660,85540,643,569,479,67108864,
//	101728580,8472576,2097216:8002
//
//	The value after the colon is the checksum for just the fuel cell data.
//	The last entry on each line is a hexadecimal token, which is not used.
package fuelcell

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"fuelcell_parser/internal/checksum"
	"fuelcell_parser/internal/dcl"
	"fuelcell_parser/internal/patterns"
	"fuelcell_parser/internal/registry"
)

func init() {
	registry.Register(dcl.TypeRecovered.String(), func(r io.Reader, warn dcl.WarningFunc) (registry.Parser, error) {
		return NewParser(Config{Particle: dcl.TypeRecovered}, r, warn)
	})
	registry.Register(dcl.TypeTelemetered.String(), func(r io.Reader, warn dcl.WarningFunc) (registry.Parser, error) {
		return NewParser(Config{Particle: dcl.TypeTelemetered}, r, warn)
	})
}

// Config selects the particle variant the parser emits.
type Config struct {
	Particle dcl.ParticleType
}

// Parser is a single pass line parser for fuel cell engineering DCL files.
// It holds no state across lines except the line counter used in diagnostics
// and the output buffer.
type Parser struct {
	particle dcl.ParticleType
	in       io.Reader
	warn     dcl.WarningFunc
	records  []*dcl.Particle
}

// NewParser builds a parser for one input stream. The particle variant is
// mandatory; a missing or unknown variant is a fatal configuration error
// raised before any line is processed. The parser never closes r.
func NewParser(cfg Config, r io.Reader, warn dcl.WarningFunc) (*Parser, error) {
	if cfg.Particle == "" {
		return nil, &dcl.ConfigError{Missing: "engineering data particle class"}
	}
	if !cfg.Particle.Valid() {
		return nil, &dcl.ConfigError{Missing: "known engineering data particle class"}
	}
	return &Parser{
		particle: cfg.Particle,
		in:       r,
		warn:     warn,
	}, nil
}

// Records returns the particles emitted so far, in input line order.
func (p *Parser) Records() []*dcl.Particle { return p.records }

// ParseFile consumes the stream line by line until end of stream. Malformed
// lines produce exactly one warning each and are skipped; only a stream read
// error aborts the scan.
func (p *Parser) ParseFile() error {
	sc := bufio.NewScanner(p.in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineCount := 0
	for sc.Scan() {
		lineCount++
		p.parseLine(sc.Text(), lineCount)
	}
	return sc.Err()
}

// parseLine runs the gate pipeline on one line. Every failed gate resolves to
// exactly one warning; a line that passes all gates emits exactly one
// particle.
func (p *Parser) parseLine(line string, lineCount int) {
	// Check to see if this record contains fuel cell data.
	if patterns.NonDataPattern.MatchString(line) {
		p.logWarning(dcl.ReasonNoData, lineCount)
		return
	}

	// Is the record properly time stamped?
	dtg, ok := patterns.MatchTimestamp(line)
	if !ok {
		p.logWarning(dcl.ReasonBadTimestamp, lineCount)
		return
	}

	// An integer followed by a comma marks the start of the fuel cell data.
	loc := patterns.StartDataPattern.FindStringIndex(line)
	if loc == nil {
		p.logWarning(dcl.ReasonNoStart, lineCount)
		return
	}
	dataString := line[loc[0]+1:]

	// The colon near the end of the line marks the end of the actual fuel
	// cell data, followed by the checksum for that data, a space, and a
	// hexadecimal token. If any of those elements are missing, the data is
	// suspect.
	if !patterns.EndDataPattern.MatchString(dataString) {
		p.logWarning(dcl.ReasonNoTerminator, lineCount)
		return
	}

	// Split the data at spaces; there should be only one. Nominally the two
	// pieces are the comma delimited data with its colon delimited checksum,
	// and the hex line terminator. An extraneous space inside the comma
	// delimited data yields more pieces: drop the last piece and pack the
	// others back together. The removed spaces are not restored, so the
	// transmitted checksum must match the packed text.
	dataPart := strings.Split(dataString, " ")
	var theData string
	if len(dataPart) == 2 {
		theData = dataPart[0]
	} else {
		theData = strings.Join(dataPart[:len(dataPart)-1], "")
	}

	dataPlusChecksum := strings.Split(theData, ":")
	if len(dataPlusChecksum) < 2 {
		p.logWarning(dcl.ReasonBadChecksum, lineCount)
		return
	}
	actualData := dataPlusChecksum[0]
	readChecksum, err := strconv.Atoi(dataPlusChecksum[1])
	if err != nil {
		p.logWarning(dcl.ReasonBadChecksum, lineCount)
		return
	}

	if !checksum.Verify(actualData, readChecksum) {
		p.logWarning(dcl.ReasonBadChecksum, lineCount)
		return
	}

	theFields := strings.Split(actualData, ",")
	values, ok := goodFields(theFields)
	if !ok {
		p.logWarning(dcl.ReasonBadFields, lineCount)
		return
	}

	timestamp := dcl.TimestampToNTP(dtg.Year, dtg.Month, dtg.Day,
		dtg.Hour, dtg.Minute, dtg.Second, dtg.Millisecond)

	p.records = append(p.records, dcl.NewParticle(p.particle, timestamp, dtg.Raw, values))
}

// logWarning reports one malformed line through the diagnostic channel.
func (p *Parser) logWarning(reason dcl.WarningReason, lineCount int) {
	if p.warn == nil {
		return
	}
	p.warn(dcl.Warning{Line: lineCount, Reason: reason})
}

// goodFields validates and decodes the field array: exactly 27 tokens, each a
// non-empty integer literal with at most one leading minus sign.
func goodFields(fieldArray []string) ([dcl.NumFields]int64, bool) {
	var values [dcl.NumFields]int64

	if len(fieldArray) != dcl.NumFields {
		return values, false
	}

	for i, field := range fieldArray {
		if len(field) == 0 {
			return values, false
		}
		digits := field
		if field[0] == '-' {
			digits = field[1:]
		}
		if len(digits) == 0 || !allDigits(digits) {
			return values, false
		}
		v, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return values, false
		}
		values[i] = v
	}

	return values, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
