package sunspec_modbus

import (
	"errors"
	"fmt"
)

const (
	SUNSPEC_MARKER_ADDR      = 40000
	SUNSPEC_COMMON_ADDR      = 40002
	SUNSPEC_WK_COMMON        = 1
	SUNSPEC_WK_INVERTERS_MIN = 101
	SUNSPEC_WK_INVERTERS_MAX = 103
	SUNSPEC_WK_METERS_MIN    = 201
	SUNSPEC_WK_METERS_MAX    = 204
	SUNSPEC_END_BLOCK        = 0xFFFF

	maxSurveyBlocks = 20
)

type DeviceInfo struct {
	Manufacturer string
	Model        string
	Version      string
	Serial       string
	// SunSpec model ids in register order, common block first
	Models []uint16
}

type modbusBlock struct {
	id       uint16
	baseAddr uint16
	length   uint16
}

func (block *modbusBlock) isEndBlock() bool {
	return block.id == SUNSPEC_END_BLOCK
}

func surveyModbusBlock(reader BlockReader, baseAddr uint16) (*modbusBlock, error) {
	regs, err := reader.ReadBlock(baseAddr, 2)
	if err != nil {
		return nil, err
	}
	if len(regs) < 2 {
		return nil, fmt.Errorf("%w: model header at %d", ErrShortBlock, baseAddr)
	}
	return &modbusBlock{
		id:       regs[0],
		length:   regs[1],
		baseAddr: baseAddr,
	}, nil
}

// Survey checks the SunSpec marker, reads the common model and lists the
// models exposed by the device.
func Survey(reader BlockReader) (*DeviceInfo, error) {

	// check SunSpec
	str, err := readString(reader, SUNSPEC_MARKER_ADDR, 2)
	if err != nil {
		return nil, err
	}
	if str != "SunS" {
		return nil, errors.New("could not find a SunSpec device")
	}

	common, err := surveyModbusBlock(reader, SUNSPEC_COMMON_ADDR)
	if err != nil {
		return nil, err
	}
	if common.id != SUNSPEC_WK_COMMON {
		return nil, fmt.Errorf("sunspec: expected common model at %d, found model %d", SUNSPEC_COMMON_ADDR, common.id)
	}

	// Mn(16) Md(16) Opt(8) Vr(8) SN(16)
	regs, err := reader.ReadBlock(common.baseAddr+2, 64)
	if err != nil {
		return nil, err
	}
	if len(regs) < 64 {
		return nil, fmt.Errorf("%w: common model has %d registers", ErrShortBlock, len(regs))
	}
	info := DeviceInfo{
		Manufacturer: wordsToString(regs[0:16]),
		Model:        wordsToString(regs[16:32]),
		Version:      wordsToString(regs[40:48]),
		Serial:       wordsToString(regs[48:64]),
		Models:       []uint16{common.id},
	}

	// walk the remaining model headers
	baseAddr := common.baseAddr + common.length + 2
	for n := 0; n < maxSurveyBlocks; n++ {
		block, err := surveyModbusBlock(reader, baseAddr)
		if err != nil {
			return &info, err
		}
		if block.isEndBlock() {
			break
		}
		info.Models = append(info.Models, block.id)
		baseAddr = baseAddr + block.length + 2
	}
	return &info, nil
}

func (info DeviceInfo) HasInverter() bool {
	for _, id := range info.Models {
		if id >= SUNSPEC_WK_INVERTERS_MIN && id <= SUNSPEC_WK_INVERTERS_MAX {
			return true
		}
	}
	return false
}

func (info DeviceInfo) MeterCount() int {
	n := 0
	for _, id := range info.Models {
		if id >= SUNSPEC_WK_METERS_MIN && id <= SUNSPEC_WK_METERS_MAX {
			n++
		}
	}
	return n
}
