package sunspec_modbus

import (
	"fmt"
)

const (
	MaxMeters        = 3
	MeterBlockLength = 103
	// registers actually decoded from a meter block
	meterDecodedLength = 36
)

// meter block base addresses, one per meter index
var meterBaseAddresses = [MaxMeters]uint16{40190, 40364, 40539}

// MeterBaseAddress returns the block base address of meter index (1-3).
func MeterBaseAddress(index int) (uint16, error) {
	if index < 1 || index > MaxMeters {
		return 0, fmt.Errorf("sunspec: invalid meter index %d, must be 1-%d", index, MaxMeters)
	}
	return meterBaseAddresses[index-1], nil
}

// register offsets inside a meter block (SunSpec models 201-204)
const (
	mtrCurrent        = 0
	mtrCurrentA       = 1
	mtrCurrentB       = 2
	mtrCurrentC       = 3
	mtrCurrentSF      = 4
	mtrVoltageLN      = 5
	mtrVoltageAN      = 6
	mtrVoltageBN      = 7
	mtrVoltageCN      = 8
	mtrVoltageLL      = 9
	mtrVoltageAB      = 10
	mtrVoltageBC      = 11
	mtrVoltageCA      = 12
	mtrVoltageSF      = 13
	mtrFrequency      = 14
	mtrFrequencySF    = 15
	mtrRealPower      = 16
	mtrRealPowerA     = 17
	mtrRealPowerB     = 18
	mtrRealPowerC     = 19
	mtrRealPowerSF    = 20
	mtrApparentPower  = 21
	mtrApparentPowerA = 22
	mtrApparentPowerB = 23
	mtrApparentPowerC = 24
	mtrApparentSF     = 25
	mtrReactivePower  = 26
	mtrReactivePowerA = 27
	mtrReactivePowerB = 28
	mtrReactivePowerC = 29
	mtrReactiveSF     = 30
	mtrPowerFactor    = 31
	mtrPowerFactorA   = 32
	mtrPowerFactorB   = 33
	mtrPowerFactorC   = 34
	mtrPowerFactorSF  = 35
)

// meter field names
const (
	FieldMeterCurrent        = "AC Total Current"
	FieldMeterCurrentA       = "AC Current phase A"
	FieldMeterCurrentB       = "AC Current phase B"
	FieldMeterCurrentC       = "AC Current phase C"
	FieldMeterVoltageLN      = "AC Voltage phase L-N"
	FieldMeterVoltageAN      = "AC Voltage phase A-N"
	FieldMeterVoltageBN      = "AC Voltage phase B-N"
	FieldMeterVoltageCN      = "AC Voltage phase C-N"
	FieldMeterVoltageLL      = "AC Voltage phase L-L"
	FieldMeterVoltageAB      = "AC Voltage phase A-B"
	FieldMeterVoltageBC      = "AC Voltage phase B-C"
	FieldMeterVoltageCA      = "AC Voltage phase C-A"
	FieldMeterFrequency      = "AC Frequency"
	FieldMeterRealPower      = "AC Total Real Power"
	FieldMeterRealPowerA     = "AC Real Power Phase A"
	FieldMeterRealPowerB     = "AC Real Power Phase B"
	FieldMeterRealPowerC     = "AC Real Power Phase C"
	FieldMeterApparentPower  = "AC Total Apparent Power"
	FieldMeterApparentPowerA = "AC Apparent Power Phase A"
	FieldMeterApparentPowerB = "AC Apparent Power Phase B"
	FieldMeterApparentPowerC = "AC Apparent Power Phase C"
	FieldMeterReactivePower  = "AC Total Reactive Power"
	FieldMeterReactivePowerA = "AC Reactive Power Phase A"
	FieldMeterReactivePowerB = "AC Reactive Power Phase B"
	FieldMeterReactivePowerC = "AC Reactive Power Phase C"
	FieldMeterPowerFactor    = "AC Average Power Factor"
	FieldMeterPowerFactorA   = "AC Power Factor Phase A"
	FieldMeterPowerFactorB   = "AC Power Factor Phase B"
	FieldMeterPowerFactorC   = "AC Power Factor Phase C"
)

// MeterMeasurements holds one decoded meter block. Every field is always
// reported.
type MeterMeasurements struct {
	Index int

	Current  float64
	CurrentA float64
	CurrentB float64
	CurrentC float64

	VoltageLN float64
	VoltageAN float64
	VoltageBN float64
	VoltageCN float64
	VoltageLL float64
	VoltageAB float64
	VoltageBC float64
	VoltageCA float64

	Frequency float64

	RealPower  float64
	RealPowerA float64
	RealPowerB float64
	RealPowerC float64

	ApparentPower  float64
	ApparentPowerA float64
	ApparentPowerB float64
	ApparentPowerC float64

	ReactivePower  float64
	ReactivePowerA float64
	ReactivePowerB float64
	ReactivePowerC float64

	PowerFactor  float64
	PowerFactorA float64
	PowerFactorB float64
	PowerFactorC float64
}

func (m MeterMeasurements) Fields() map[string]any {
	return map[string]any{
		FieldMeterCurrent:        m.Current,
		FieldMeterCurrentA:       m.CurrentA,
		FieldMeterCurrentB:       m.CurrentB,
		FieldMeterCurrentC:       m.CurrentC,
		FieldMeterVoltageLN:      m.VoltageLN,
		FieldMeterVoltageAN:      m.VoltageAN,
		FieldMeterVoltageBN:      m.VoltageBN,
		FieldMeterVoltageCN:      m.VoltageCN,
		FieldMeterVoltageLL:      m.VoltageLL,
		FieldMeterVoltageAB:      m.VoltageAB,
		FieldMeterVoltageBC:      m.VoltageBC,
		FieldMeterVoltageCA:      m.VoltageCA,
		FieldMeterFrequency:      m.Frequency,
		FieldMeterRealPower:      m.RealPower,
		FieldMeterRealPowerA:     m.RealPowerA,
		FieldMeterRealPowerB:     m.RealPowerB,
		FieldMeterRealPowerC:     m.RealPowerC,
		FieldMeterApparentPower:  m.ApparentPower,
		FieldMeterApparentPowerA: m.ApparentPowerA,
		FieldMeterApparentPowerB: m.ApparentPowerB,
		FieldMeterApparentPowerC: m.ApparentPowerC,
		FieldMeterReactivePower:  m.ReactivePower,
		FieldMeterReactivePowerA: m.ReactivePowerA,
		FieldMeterReactivePowerB: m.ReactivePowerB,
		FieldMeterReactivePowerC: m.ReactivePowerC,
		FieldMeterPowerFactor:    m.PowerFactor,
		FieldMeterPowerFactorA:   m.PowerFactorA,
		FieldMeterPowerFactorB:   m.PowerFactorB,
		FieldMeterPowerFactorC:   m.PowerFactorC,
	}
}
