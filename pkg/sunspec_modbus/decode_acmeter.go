package sunspec_modbus

import (
	"fmt"
)

// DecodeMeter decodes a meter block read at MeterBaseAddress(index).
// Magnitudes are signed and never filtered.
func DecodeMeter(index int, block []uint16) (*MeterMeasurements, error) {
	if len(block) < meterDecodedLength {
		return nil, fmt.Errorf("%w: meter %d block has %d registers, want %d", ErrShortBlock, index, len(block), meterDecodedLength)
	}

	m := MeterMeasurements{Index: index}

	sf := block[mtrCurrentSF]
	m.Current = applySFint16(block[mtrCurrent], sf)
	m.CurrentA = applySFint16(block[mtrCurrentA], sf)
	m.CurrentB = applySFint16(block[mtrCurrentB], sf)
	m.CurrentC = applySFint16(block[mtrCurrentC], sf)

	sf = block[mtrVoltageSF]
	m.VoltageLN = applySFint16(block[mtrVoltageLN], sf)
	m.VoltageAN = applySFint16(block[mtrVoltageAN], sf)
	m.VoltageBN = applySFint16(block[mtrVoltageBN], sf)
	m.VoltageCN = applySFint16(block[mtrVoltageCN], sf)
	m.VoltageLL = applySFint16(block[mtrVoltageLL], sf)
	m.VoltageAB = applySFint16(block[mtrVoltageAB], sf)
	m.VoltageBC = applySFint16(block[mtrVoltageBC], sf)
	m.VoltageCA = applySFint16(block[mtrVoltageCA], sf)

	m.Frequency = applySFint16(block[mtrFrequency], block[mtrFrequencySF])

	sf = block[mtrRealPowerSF]
	m.RealPower = applySFint16(block[mtrRealPower], sf)
	m.RealPowerA = applySFint16(block[mtrRealPowerA], sf)
	m.RealPowerB = applySFint16(block[mtrRealPowerB], sf)
	m.RealPowerC = applySFint16(block[mtrRealPowerC], sf)

	sf = block[mtrApparentSF]
	m.ApparentPower = applySFint16(block[mtrApparentPower], sf)
	m.ApparentPowerA = applySFint16(block[mtrApparentPowerA], sf)
	m.ApparentPowerB = applySFint16(block[mtrApparentPowerB], sf)
	m.ApparentPowerC = applySFint16(block[mtrApparentPowerC], sf)

	sf = block[mtrReactiveSF]
	m.ReactivePower = applySFint16(block[mtrReactivePower], sf)
	m.ReactivePowerA = applySFint16(block[mtrReactivePowerA], sf)
	m.ReactivePowerB = applySFint16(block[mtrReactivePowerB], sf)
	m.ReactivePowerC = applySFint16(block[mtrReactivePowerC], sf)

	sf = block[mtrPowerFactorSF]
	m.PowerFactor = applySFint16(block[mtrPowerFactor], sf)
	m.PowerFactorA = applySFint16(block[mtrPowerFactorA], sf)
	m.PowerFactorB = applySFint16(block[mtrPowerFactorB], sf)
	m.PowerFactorC = applySFint16(block[mtrPowerFactorC], sf)

	return &m, nil
}
