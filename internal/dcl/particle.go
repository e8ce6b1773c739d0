// Package dcl provides the particle types emitted for DCL-logged instrument data.
package dcl

import (
	"encoding/json"
	"fmt"
)

// ParticleType identifies which particle variant a parser emits. The two
// variants carry identical payloads; the tag records how the source file
// reached shore (recovered from the instrument vs. telemetered live).
type ParticleType string

const (
	TypeRecovered   ParticleType = "fuelcell_eng_dcl_recovered"
	TypeTelemetered ParticleType = "fuelcell_eng_dcl_telemetered"
)

// Valid reports whether t is one of the two known particle variants.
func (t ParticleType) Valid() bool {
	return t == TypeRecovered || t == TypeTelemetered
}

func (t ParticleType) String() string { return string(t) }

// FieldKey names one engineering quantity in a fuel cell record.
type FieldKey string

// Field keys, in no particular order. Positional meaning is defined by
// FieldTable below.
const (
	DCLControllerTimestamp             FieldKey = "dcl_controller_timestamp"
	DatalogManagerVersion              FieldKey = "datalog_manager_version"
	SystemSoftwareVersion              FieldKey = "system_software_version"
	TotalRunTime                       FieldKey = "total_run_time"
	FuelCellVoltage                    FieldKey = "fuel_cell_voltage"
	FuelCellCurrent                    FieldKey = "fuel_cell_current"
	ReformerTemperature                FieldKey = "reformer_temperature"
	FuelCellH2Pressure                 FieldKey = "fuel_cell_h2_pressure"
	FuelCellTemperature                FieldKey = "fuel_cell_temperature"
	ReformerFuelPressure               FieldKey = "reformer_fuel_pressure"
	FuelPumpPWMDrivePercent            FieldKey = "fuel_pump_pwm_drive_percent"
	AirPumpPWMDrivePercent             FieldKey = "air_pump_pwm_drive_percent"
	CoolantPumpPWMDrivePercent         FieldKey = "coolant_pump_pwm_drive_percent"
	AirPumpTachCount                   FieldKey = "air_pump_tach_count"
	FuelCellState                      FieldKey = "fuel_cell_state"
	FuelRemaining                      FieldKey = "fuel_remaining"
	PowerToBattery1                    FieldKey = "power_to_battery1"
	Battery1ConverterTemperature       FieldKey = "battery1_converter_temperature"
	PowerToBattery2                    FieldKey = "power_to_battery2"
	Battery2ConverterTemperature       FieldKey = "battery2_converter_temperature"
	BalanceOfPlantPower                FieldKey = "balance_of_plant_power"
	BalanceOfPlantConverterTemperature FieldKey = "balance_of_plant_converter_temperature"
	PowerBoardTemperature              FieldKey = "power_board_temperature"
	ControlBoardTemperature            FieldKey = "control_board_temperature"
	PowerManagerStatus                 FieldKey = "power_manager_status"
	PowerManagerErrorMask              FieldKey = "power_manager_error_mask"
	ReformerErrorMask                  FieldKey = "reformer_error_mask"
	FuelCellErrorMask                  FieldKey = "fuel_cell_error_mask"
)

// NumFields is the number of integer fields in one fuel cell record.
const NumFields = 27

// FieldTable maps ordinal position in the comma-delimited payload to the
// field name. The array length pins the table to exactly NumFields entries.
var FieldTable = [NumFields]FieldKey{
	DatalogManagerVersion,
	SystemSoftwareVersion,
	TotalRunTime,
	FuelCellVoltage,
	FuelCellCurrent,
	ReformerTemperature,
	FuelCellH2Pressure,
	FuelCellTemperature,
	ReformerFuelPressure,
	FuelPumpPWMDrivePercent,
	AirPumpPWMDrivePercent,
	CoolantPumpPWMDrivePercent,
	AirPumpTachCount,
	FuelCellState,
	FuelRemaining,
	PowerToBattery1,
	Battery1ConverterTemperature,
	PowerToBattery2,
	Battery2ConverterTemperature,
	BalanceOfPlantPower,
	BalanceOfPlantConverterTemperature,
	PowerBoardTemperature,
	ControlBoardTemperature,
	PowerManagerStatus,
	PowerManagerErrorMask,
	ReformerErrorMask,
	FuelCellErrorMask,
}

// Particle is one decoded fuel cell engineering record. Immutable once built;
// NTPTimestamp is the emission/ordering key.
type Particle struct {
	typ          ParticleType
	ntpTimestamp float64
	dclTimestamp string
	values       [NumFields]int64
}

// NewParticle builds a particle from positionally ordered values. The DCL
// timestamp string is stored verbatim.
func NewParticle(typ ParticleType, ntpTimestamp float64, dclTimestamp string, values [NumFields]int64) *Particle {
	return &Particle{
		typ:          typ,
		ntpTimestamp: ntpTimestamp,
		dclTimestamp: dclTimestamp,
		values:       values,
	}
}

// Type returns the particle variant tag.
func (p *Particle) Type() ParticleType { return p.typ }

// NTPTimestamp returns the record timestamp as NTP-epoch seconds.
func (p *Particle) NTPTimestamp() float64 { return p.ntpTimestamp }

// DCLTimestamp returns the original DCL controller timestamp text.
func (p *Particle) DCLTimestamp() string { return p.dclTimestamp }

// Value returns the integer value of the named field. The ok result is false
// for DCLControllerTimestamp (a string field) and unknown keys.
func (p *Particle) Value(key FieldKey) (int64, bool) {
	for i, k := range FieldTable {
		if k == key {
			return p.values[i], true
		}
	}
	return 0, false
}

// ValueAt returns the integer value at ordinal position i.
func (p *Particle) ValueAt(i int) int64 { return p.values[i] }

// Values returns the field name to value mapping for all integer fields.
func (p *Particle) Values() map[FieldKey]int64 {
	m := make(map[FieldKey]int64, NumFields)
	for i, k := range FieldTable {
		m[k] = p.values[i]
	}
	return m
}

// MarshalJSON emits the particle as a flat object using the original field
// names, plus the variant tag and the NTP timestamp.
func (p *Particle) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, NumFields+3)
	m["particle_type"] = string(p.typ)
	m["ntp_timestamp"] = p.ntpTimestamp
	m[string(DCLControllerTimestamp)] = p.dclTimestamp
	for i, k := range FieldTable {
		m[string(k)] = p.values[i]
	}
	return json.Marshal(m)
}

// ConfigError is the fatal error raised when a parser is constructed without
// a usable particle configuration. It aborts before any line is processed.
type ConfigError struct {
	Missing string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration missing %s", e.Missing)
}
