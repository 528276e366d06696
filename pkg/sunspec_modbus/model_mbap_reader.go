package sunspec_modbus

import (
	"encoding/binary"
	"slices"
	"time"

	"go.uber.org/zap"
)

// BlockReader reads a contiguous run of holding registers.
type BlockReader interface {
	ReadBlock(addr uint16, quantity uint16) ([]uint16, error)
}

// RegisterSource is a long-lived connection to a SunSpec device.
// Implementations open lazily and reconnect on the next read after an
// unrecoverable error.
type RegisterSource interface {
	BlockReader
	Open() error
	Close() error
	Address() string
}

type ModbusInstrument struct {
	RecordTime func(fnName string, readTime time.Duration)
}

func RecordTimer(name string, instrument []ModbusInstrument) func() {
	if instrument == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordTime(name, duration)
		}
	}
}

func traceLoggerInstrumentation(logger *zap.Logger) *ModbusInstrument {
	return &ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			logger.Debug("modbus timing", zap.String("fn", fnName), zap.Int64("millis", readTime.Milliseconds()))
		},
	}
}

func buildInstruments(logger *zap.Logger, instrumentation *ModbusInstrument) []ModbusInstrument {
	var inst []ModbusInstrument
	if logger != nil {
		if logInst := traceLoggerInstrumentation(logger); logInst != nil {
			inst = append(inst, *logInst)
		}
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}
	return inst
}

// readString reads size registers and decodes them as a NUL padded string.
func readString(reader BlockReader, address uint16, size uint16) (string, error) {
	regs, err := reader.ReadBlock(address, size)
	if err != nil {
		return "", err
	}
	return wordsToString(regs), nil
}

func wordsToString(regs []uint16) string {
	bytes := make([]byte, 2*len(regs))
	for i, r := range regs {
		binary.BigEndian.PutUint16(bytes[2*i:], r)
	}
	f := slices.Index(bytes, 0x00)
	if f >= 0 {
		return string(bytes[:f])
	}
	return string(bytes)
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = binary.BigEndian.Uint16(data[2*i:])
	}
	return out
}
