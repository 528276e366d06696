package sunspec_modbus

import (
	"fmt"
)

type InverterDecodeOptions struct {
	// LiteralStatusGating gates Status on the DC current scale factor
	// register and writes the operating state into both Status and
	// Status_Vendor. When false each field is gated on and taken from its
	// own register.
	LiteralStatusGating bool
}

func DefaultInverterDecodeOptions() InverterDecodeOptions {
	return InverterDecodeOptions{LiteralStatusGating: true}
}

// DecodeInverter decodes a 40 register inverter block read at
// InverterBaseAddress. Magnitudes are unsigned and dropped when they hold
// the Sentinel value.
func DecodeInverter(block []uint16, opts InverterDecodeOptions) (*InverterMeasurements, error) {
	if len(block) < int(InverterBlockLength) {
		return nil, fmt.Errorf("%w: inverter block has %d registers, want %d", ErrShortBlock, len(block), InverterBlockLength)
	}

	m := InverterMeasurements{
		OperatingState: block[invState],
	}

	// AC current
	sf := block[invACCurrentSF]
	m.ACCurrent = sentinelSF(block[invACCurrent], sf)
	m.ACCurrentA = sentinelSF(block[invACCurrentA], sf)
	m.ACCurrentB = sentinelSF(block[invACCurrentB], sf)
	m.ACCurrentC = sentinelSF(block[invACCurrentC], sf)

	// AC voltage
	sf = block[invACVoltageSF]
	m.ACVoltageAB = sentinelSF(block[invACVoltageAB], sf)
	m.ACVoltageBC = sentinelSF(block[invACVoltageBC], sf)
	m.ACVoltageCA = sentinelSF(block[invACVoltageCA], sf)
	m.ACVoltageAN = sentinelSF(block[invACVoltageAN], sf)
	m.ACVoltageBN = sentinelSF(block[invACVoltageBN], sf)
	m.ACVoltageCN = sentinelSF(block[invACVoltageCN], sf)

	m.ACPower = sentinelSF(block[invACPower], block[invACPowerSF])
	m.ACFrequency = sentinelSF(block[invACFrequency], block[invACFrequencySF])
	m.ACApparentPower = sentinelSF(block[invACVA], block[invACVASF])
	m.ACReactivePower = sentinelSF(block[invACVAR], block[invACVARSF])
	m.ACPowerFactor = sentinelSF(block[invACPF], block[invACPFSF])

	// lifetime energy has an unsigned scale factor and no sentinel check
	energy := uint32(block[invACEnergyHi])<<16 + uint32(block[invACEnergyLo])
	m.ACEnergyWh = applySFuint32(energy, block[invACEnergySF])

	// DC side
	m.DCCurrent = sentinelSF(block[invDCCurrent], block[invDCCurrentSF])
	m.DCVoltage = sentinelSF(block[invDCVoltage], block[invDCVoltageSF])
	m.DCPower = sentinelSF(block[invDCPower], block[invDCPowerSF])

	m.Temperature = sentinelSF(block[invTempSink], block[invTempSF])

	if opts.LiteralStatusGating {
		if block[invDCCurrentSF] != Sentinel {
			m.Status = rawValue(block[invState])
		}
		if block[invStateVendor] != Sentinel {
			m.StatusVendor = rawValue(block[invState])
		}
	} else {
		if block[invState] != Sentinel {
			m.Status = rawValue(block[invState])
		}
		if block[invStateVendor] != Sentinel {
			m.StatusVendor = rawValue(block[invStateVendor])
		}
	}

	return &m, nil
}

func sentinelSF(raw uint16, sf uint16) *float64 {
	if raw == Sentinel {
		return nil
	}
	v := applySF(raw, sf)
	return &v
}

func rawValue(raw uint16) *float64 {
	v := float64(raw)
	return &v
}
