package sunspec_modbus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInverterBlock(t *testing.T) {

	require := require.New(t)

	m, err := DecodeInverter(TestInverterBlock(), DefaultInverterDecodeOptions())
	require.NoError(err)

	expected := map[string]any{
		FieldACCurrent:       12.34,
		FieldACCurrentA:      4.11,
		FieldACCurrentB:      4.12,
		FieldACCurrentC:      4.11,
		FieldACVoltageAB:     400.2,
		FieldACVoltageBC:     401.0,
		FieldACVoltageCA:     399.8,
		FieldACVoltageAN:     231.0,
		FieldACVoltageBN:     231.5,
		FieldACVoltageCN:     230.8,
		FieldACPower:         3200.0,
		FieldACFrequency:     50.0,
		FieldACApparentPower: 3250.0,
		FieldACReactivePower: 120.0,
		FieldACPowerFactor:   98.5,
		FieldACEnergy:        100000.0,
		FieldDCCurrent:       8.2,
		FieldDCVoltage:       400.0,
		FieldDCPower:         3300.0,
		FieldTemperature:     45.12,
		FieldStatus:          4.0,
		FieldStatusVendor:    4.0,
	}
	require.Equal(expected, m.Fields())
	require.Equal(uint16(InverterStatusMPPT), m.OperatingState)
}

func TestDecodeInverterSentinel(t *testing.T) {

	assert := assert.New(t)

	block := TestInverterBlock()
	block[invACCurrentSF] = uint16(0xFFFE)
	block[invACCurrent] = 1234
	block[invACCurrentB] = Sentinel
	block[invACPower] = Sentinel

	m, err := DecodeInverter(block, DefaultInverterDecodeOptions())
	assert.NoError(err)

	fields := m.Fields()
	assert.Equal(12.34, fields[FieldACCurrent], "total current still present")
	assert.NotContains(fields, FieldACCurrentB, "phase B dropped")
	assert.NotContains(fields, FieldACPower, "power dropped")
	assert.Contains(fields, FieldACCurrentA)
	assert.Contains(fields, FieldACCurrentC)
	assert.Len(fields, 20)
}

func TestDecodeInverterEverySentinelField(t *testing.T) {

	assert := assert.New(t)

	gated := map[int]string{
		invACCurrent:   FieldACCurrent,
		invACCurrentA:  FieldACCurrentA,
		invACCurrentB:  FieldACCurrentB,
		invACCurrentC:  FieldACCurrentC,
		invACVoltageAB: FieldACVoltageAB,
		invACVoltageBC: FieldACVoltageBC,
		invACVoltageCA: FieldACVoltageCA,
		invACVoltageAN: FieldACVoltageAN,
		invACVoltageBN: FieldACVoltageBN,
		invACVoltageCN: FieldACVoltageCN,
		invACPower:     FieldACPower,
		invACFrequency: FieldACFrequency,
		invACVA:        FieldACApparentPower,
		invACVAR:       FieldACReactivePower,
		invACPF:        FieldACPowerFactor,
		invDCCurrent:   FieldDCCurrent,
		invDCVoltage:   FieldDCVoltage,
		invDCPower:     FieldDCPower,
		invTempSink:    FieldTemperature,
	}
	for offset, name := range gated {
		block := TestInverterBlock()
		block[offset] = Sentinel
		m, err := DecodeInverter(block, DefaultInverterDecodeOptions())
		assert.NoError(err)
		fields := m.Fields()
		assert.NotContains(fields, name, "sentinel at offset %d", offset)
		assert.Len(fields, 21, "only %s is dropped", name)

		block[offset] = Sentinel - 1
		m, err = DecodeInverter(block, DefaultInverterDecodeOptions())
		assert.NoError(err)
		assert.Contains(m.Fields(), name, "non sentinel at offset %d", offset)
	}
}

func TestDecodeInverterLifetimeEnergy(t *testing.T) {

	assert := assert.New(t)

	block := TestInverterBlock()
	block[invACEnergyHi] = 0x0001
	block[invACEnergyLo] = 0x86A0
	block[invACEnergySF] = 0

	m, err := DecodeInverter(block, DefaultInverterDecodeOptions())
	assert.NoError(err)
	assert.Equal(100000.0, m.ACEnergyWh)

	// no sentinel check on energy
	block[invACEnergyHi] = Sentinel
	block[invACEnergyLo] = Sentinel
	m, err = DecodeInverter(block, DefaultInverterDecodeOptions())
	assert.NoError(err)
	assert.Equal(float64(0xFFFFFFFF), m.Fields()[FieldACEnergy])

	// the energy scale factor is read unsigned
	block[invACEnergyHi] = 0
	block[invACEnergyLo] = 5
	block[invACEnergySF] = 3
	m, err = DecodeInverter(block, DefaultInverterDecodeOptions())
	assert.NoError(err)
	assert.Equal(5000.0, m.ACEnergyWh)
}

func TestDecodeInverterLiteralStatusGating(t *testing.T) {

	assert := assert.New(t)

	block := TestInverterBlock()
	block[invState] = InverterStatusThrottled
	block[invStateVendor] = 17

	m, err := DecodeInverter(block, InverterDecodeOptions{LiteralStatusGating: true})
	assert.NoError(err)
	assert.Equal(5.0, m.Fields()[FieldStatus])
	assert.Equal(5.0, m.Fields()[FieldStatusVendor], "vendor field carries the operating state")

	// status is gated on the DC current scale factor register
	block[invDCCurrentSF] = Sentinel
	m, err = DecodeInverter(block, InverterDecodeOptions{LiteralStatusGating: true})
	assert.NoError(err)
	assert.NotContains(m.Fields(), FieldStatus)
	assert.Contains(m.Fields(), FieldStatusVendor)

	block[invStateVendor] = Sentinel
	m, err = DecodeInverter(block, InverterDecodeOptions{LiteralStatusGating: true})
	assert.NoError(err)
	assert.NotContains(m.Fields(), FieldStatusVendor)
}

func TestDecodeInverterCorrectedStatusGating(t *testing.T) {

	assert := assert.New(t)

	block := TestInverterBlock()
	block[invState] = InverterStatusThrottled
	block[invStateVendor] = 17
	block[invDCCurrentSF] = Sentinel

	m, err := DecodeInverter(block, InverterDecodeOptions{LiteralStatusGating: false})
	assert.NoError(err)
	assert.Equal(5.0, m.Fields()[FieldStatus])
	assert.Equal(17.0, m.Fields()[FieldStatusVendor])

	block[invState] = Sentinel
	m, err = DecodeInverter(block, InverterDecodeOptions{LiteralStatusGating: false})
	assert.NoError(err)
	assert.NotContains(m.Fields(), FieldStatus)
	assert.Equal(17.0, m.Fields()[FieldStatusVendor])
}

func TestDecodeInverterShortBlock(t *testing.T) {

	assert := assert.New(t)

	m, err := DecodeInverter(make([]uint16, 39), DefaultInverterDecodeOptions())
	assert.Nil(m)
	assert.True(errors.Is(err, ErrShortBlock))
}

func TestInverterStatusToString(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("mppt_tracking", InverterStatusToString(InverterStatusMPPT))
	assert.Equal("unknown(42)", InverterStatusToString(42))
}
