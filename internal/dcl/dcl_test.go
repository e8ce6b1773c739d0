package dcl

import (
	"encoding/json"
	"testing"
)

func TestFieldTableComplete(t *testing.T) {
	if len(FieldTable) != NumFields {
		t.Fatalf("FieldTable has %d entries, want %d", len(FieldTable), NumFields)
	}
	seen := make(map[FieldKey]bool, NumFields)
	for i, key := range FieldTable {
		if key == "" {
			t.Errorf("FieldTable[%d] is empty", i)
		}
		if seen[key] {
			t.Errorf("FieldTable[%d] duplicates %q", i, key)
		}
		seen[key] = true
	}
	// Wire order is fixed: spot-check the ends and the middle.
	if FieldTable[0] != DatalogManagerVersion {
		t.Errorf("FieldTable[0] = %q", FieldTable[0])
	}
	if FieldTable[13] != FuelCellState {
		t.Errorf("FieldTable[13] = %q", FieldTable[13])
	}
	if FieldTable[NumFields-1] != FuelCellErrorMask {
		t.Errorf("FieldTable[last] = %q", FieldTable[NumFields-1])
	}
}

func TestParticleTypeValid(t *testing.T) {
	if !TypeRecovered.Valid() || !TypeTelemetered.Valid() {
		t.Error("known particle types reported invalid")
	}
	if ParticleType("fuelcell_eng_dcl_bogus").Valid() {
		t.Error("unknown particle type reported valid")
	}
	if TypeRecovered.String() != "fuelcell_eng_dcl_recovered" {
		t.Errorf("TypeRecovered = %q", TypeRecovered.String())
	}
	if TypeTelemetered.String() != "fuelcell_eng_dcl_telemetered" {
		t.Errorf("TypeTelemetered = %q", TypeTelemetered.String())
	}
}

func TestParticleValues(t *testing.T) {
	var values [NumFields]int64
	for i := range values {
		values[i] = int64(i + 1)
	}
	p := NewParticle(TypeRecovered, 3634986125.5, "2015/03/10 14:22:05.500", values)

	if got, ok := p.Value(DatalogManagerVersion); !ok || got != 1 {
		t.Errorf("Value(DatalogManagerVersion) = %d, %v", got, ok)
	}
	if got, ok := p.Value(FuelCellErrorMask); !ok || got != NumFields {
		t.Errorf("Value(FuelCellErrorMask) = %d, %v", got, ok)
	}
	if _, ok := p.Value(FieldKey("not_a_field")); ok {
		t.Error("Value accepted unknown key")
	}

	m := p.Values()
	if len(m) != NumFields {
		t.Errorf("Values() has %d entries, want %d", len(m), NumFields)
	}
}

func TestParticleJSON(t *testing.T) {
	var values [NumFields]int64
	values[0] = 4112
	values[NumFields-1] = 2097216
	p := NewParticle(TypeTelemetered, 3634986125.5, "2015/03/10 14:22:05.500", values)

	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if m["particle_type"] != "fuelcell_eng_dcl_telemetered" {
		t.Errorf("particle_type = %v", m["particle_type"])
	}
	if m["ntp_timestamp"] != 3634986125.5 {
		t.Errorf("ntp_timestamp = %v", m["ntp_timestamp"])
	}
	if m[string(DatalogManagerVersion)] != float64(4112) {
		t.Errorf("datalog_manager_version = %v", m[string(DatalogManagerVersion)])
	}
	if m[string(FuelCellErrorMask)] != float64(2097216) {
		t.Errorf("fuel_cell_error_mask = %v", m[string(FuelCellErrorMask)])
	}
}

func TestTimestampToNTP(t *testing.T) {
	got := TimestampToNTP(2015, 3, 10, 14, 22, 5, 500)
	if got != 3634986125.5 {
		t.Errorf("TimestampToNTP = %v, want 3634986125.5", got)
	}
	// Converting the same instant twice yields the same value.
	if again := TimestampToNTP(2015, 3, 10, 14, 22, 5, 500); again != got {
		t.Errorf("conversion not stable: %v vs %v", again, got)
	}
	// Unix epoch maps to the NTP era offset exactly.
	if got := TimestampToNTP(1970, 1, 1, 0, 0, 0, 0); got != NTPEpochOffset {
		t.Errorf("epoch = %v, want %d", got, NTPEpochOffset)
	}
}

func TestNTPRoundTrip(t *testing.T) {
	ntp := TimestampToNTP(2015, 3, 10, 14, 22, 5, 500)
	tm := NTPToTime(ntp)
	unix := float64(tm.Unix()) + float64(tm.Nanosecond())/1e9
	if got := UnixToNTP(unix); got != ntp {
		t.Errorf("round trip = %v, want %v", got, ntp)
	}
	if tm.Year() != 2015 || tm.Month() != 3 || tm.Day() != 10 {
		t.Errorf("NTPToTime date = %v", tm)
	}
}

func TestWarningMessage(t *testing.T) {
	w := Warning{Line: 7, Reason: ReasonBadChecksum}
	if got := w.Message(); got != "Bad checksum line 7 - No particle generated" {
		t.Errorf("Message = %q", got)
	}
	w = Warning{Line: 1, Reason: ReasonNoData}
	if got := w.Message(); got != "No fuel cell data on line 1 - No particle generated" {
		t.Errorf("Message = %q", got)
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Missing: "engineering data particle class"}
	if err.Error() == "" {
		t.Error("empty error string")
	}
}
