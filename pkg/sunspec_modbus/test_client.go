package sunspec_modbus

import (
	"errors"
	"fmt"
)

// TestRegisterSource serves canned register values from memory. Registers
// not present in the map fail with an illegal data address exception.
type TestRegisterSource struct {
	Registers map[uint16]uint16
	// Failures forces ReadBlock to fail for the given block base address
	Failures map[uint16]error
	Reads    []uint16
	Opened   bool
	Closed   bool
}

func CreateTestRegisterSource() *TestRegisterSource {
	return &TestRegisterSource{
		Registers: map[uint16]uint16{},
		Failures:  map[uint16]error{},
	}
}

func (src *TestRegisterSource) Open() error {
	src.Opened = true
	return nil
}

func (src *TestRegisterSource) Close() error {
	src.Closed = true
	return nil
}

func (src *TestRegisterSource) Address() string {
	return "test://inverter"
}

func (src *TestRegisterSource) ReadBlock(addr uint16, quantity uint16) ([]uint16, error) {
	src.Reads = append(src.Reads, addr)
	if err, ok := src.Failures[addr]; ok {
		return nil, newReadError(err, addr, quantity)
	}
	out := make([]uint16, quantity)
	for i := range out {
		v, ok := src.Registers[addr+uint16(i)]
		if !ok {
			return nil, &ReadError{Code: CodeExceptionError, Addr: addr, Quantity: quantity,
				Err: fmt.Errorf("illegal data address %d", addr+uint16(i))}
		}
		out[i] = v
	}
	return out, nil
}

// SetBlock stores block starting at addr.
func (src *TestRegisterSource) SetBlock(addr uint16, block []uint16) {
	for i, v := range block {
		src.Registers[addr+uint16(i)] = v
	}
}

// Fail makes every read of the block at addr fail with the given code.
func (src *TestRegisterSource) Fail(addr uint16, code int) {
	src.Failures[addr] = &ReadError{Code: code, Err: errors.New("simulated failure")}
}

// TestInverterBlock returns a 40 register inverter block of a three phase
// inverter producing 3.2 kW.
func TestInverterBlock() []uint16 {
	block := make([]uint16, InverterBlockLength)
	block[invDID] = 103
	block[invLength] = 50
	block[invACCurrent] = 1234
	block[invACCurrentA] = 411
	block[invACCurrentB] = 412
	block[invACCurrentC] = 411
	block[invACCurrentSF] = uint16(0xFFFE) // -2
	block[invACVoltageAB] = 4002
	block[invACVoltageBC] = 4010
	block[invACVoltageCA] = 3998
	block[invACVoltageAN] = 2310
	block[invACVoltageBN] = 2315
	block[invACVoltageCN] = 2308
	block[invACVoltageSF] = uint16(0xFFFF) // -1
	block[invACPower] = 3200
	block[invACPowerSF] = 0
	block[invACFrequency] = 49998
	block[invACFrequencySF] = uint16(0xFFFD) // -3
	block[invACVA] = 3250
	block[invACVASF] = 0
	block[invACVAR] = 120
	block[invACVARSF] = 0
	block[invACPF] = 9850
	block[invACPFSF] = uint16(0xFFFE) // -2
	block[invACEnergyHi] = 0x0001
	block[invACEnergyLo] = 0x86A0
	block[invACEnergySF] = 0
	block[invDCCurrent] = 820
	block[invDCCurrentSF] = uint16(0xFFFE) // -2
	block[invDCVoltage] = 4000
	block[invDCVoltageSF] = uint16(0xFFFF) // -1
	block[invDCPower] = 3300
	block[invDCPowerSF] = 0
	block[invTempSink] = 4512
	block[invTempSF] = uint16(0xFFFE) // -2
	block[invState] = InverterStatusMPPT
	block[invStateVendor] = 0
	return block
}

// TestMeterBlock returns a 103 register meter block of a meter exporting
// about 1.5 kW.
func TestMeterBlock() []uint16 {
	block := make([]uint16, MeterBlockLength)
	neg := func(v int16) uint16 { return uint16(v) }
	block[mtrCurrent] = neg(-650)
	block[mtrCurrentA] = neg(-220)
	block[mtrCurrentB] = neg(-215)
	block[mtrCurrentC] = neg(-215)
	block[mtrCurrentSF] = neg(-2)
	block[mtrVoltageLN] = 2310
	block[mtrVoltageAN] = 2312
	block[mtrVoltageBN] = 2308
	block[mtrVoltageCN] = 2310
	block[mtrVoltageLL] = 4001
	block[mtrVoltageAB] = 4003
	block[mtrVoltageBC] = 3999
	block[mtrVoltageCA] = 4001
	block[mtrVoltageSF] = neg(-1)
	block[mtrFrequency] = 5000
	block[mtrFrequencySF] = neg(-2)
	block[mtrRealPower] = neg(-1500)
	block[mtrRealPowerA] = neg(-500)
	block[mtrRealPowerB] = neg(-500)
	block[mtrRealPowerC] = neg(-500)
	block[mtrRealPowerSF] = 0
	block[mtrApparentPower] = 1530
	block[mtrApparentPowerA] = 510
	block[mtrApparentPowerB] = 510
	block[mtrApparentPowerC] = 510
	block[mtrApparentSF] = 0
	block[mtrReactivePower] = neg(-300)
	block[mtrReactivePowerA] = neg(-100)
	block[mtrReactivePowerB] = neg(-100)
	block[mtrReactivePowerC] = neg(-100)
	block[mtrReactiveSF] = 0
	block[mtrPowerFactor] = neg(-98)
	block[mtrPowerFactorA] = neg(-98)
	block[mtrPowerFactorB] = neg(-98)
	block[mtrPowerFactorC] = neg(-98)
	block[mtrPowerFactorSF] = neg(-2)
	return block
}
