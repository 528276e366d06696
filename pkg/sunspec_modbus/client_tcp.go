package sunspec_modbus

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// ModbusClient is the default RegisterSource, backed by simonvetter/modbus.
type ModbusClient struct {
	client     *modbus.ModbusClient
	instrument []ModbusInstrument
	url        string
	open       bool
}

func CreateModbusTCPRegisterSource(host string, port uint, unitId uint8, timeout time.Duration,
	logger *zap.Logger, instrumentation *ModbusInstrument) (*ModbusClient, error) {
	url := fmt.Sprintf("tcp://%s:%d", host, port)
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     url,
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger = logger.With(zap.String("target", url), zap.Uint8("unitId", unitId))
	}

	// set device address
	if unitId > 0 {
		err = client.SetUnitId(unitId)
		if err != nil {
			return nil, err
		}
	}

	return &ModbusClient{
		client:     client,
		instrument: buildInstruments(logger, instrumentation),
		url:        url,
	}, nil
}

func (reader *ModbusClient) Open() error {
	if reader.open {
		return nil
	}
	defer RecordTimer("Open", reader.instrument)()
	if err := reader.client.Open(); err != nil {
		return &ReadError{Code: CodeConnectError, Err: err}
	}
	reader.open = true
	return nil
}

func (reader *ModbusClient) Close() error {
	if !reader.open {
		return nil
	}
	reader.open = false
	return reader.client.Close()
}

func (reader *ModbusClient) Address() string {
	return reader.url
}

// ReadBlock reads quantity holding registers starting at addr. The link is
// opened on demand and dropped after errors that leave it in an unknown
// state, so the next read reconnects.
func (reader *ModbusClient) ReadBlock(addr uint16, quantity uint16) ([]uint16, error) {
	if err := reader.Open(); err != nil {
		return nil, newReadError(err, addr, quantity)
	}
	regs, err := reader.readRegisters(addr, quantity, modbus.HOLDING_REGISTER)
	if err != nil {
		if !isRecoverableError(err) {
			reader.Close()
		}
		return nil, newReadError(err, addr, quantity)
	}
	return regs, nil
}

func (reader *ModbusClient) readRegisters(addr uint16, quantity uint16, regType modbus.RegType) ([]uint16, error) {
	defer RecordTimer("ReadRegisters", reader.instrument)()
	return reader.client.ReadRegisters(addr, quantity, regType)
}
