package sunspec_modbus

import (
	"fmt"
	"time"

	"github.com/goburrow/modbus"
	"go.uber.org/zap"
)

// GoburrowClient is a RegisterSource backed by goburrow/modbus. The TCP
// handler dials on first use and after Close.
type GoburrowClient struct {
	handler    *modbus.TCPClientHandler
	client     modbus.Client
	instrument []ModbusInstrument
	address    string
}

func CreateGoburrowRegisterSource(host string, port uint, unitId uint8, timeout time.Duration,
	logger *zap.Logger, instrumentation *ModbusInstrument) *GoburrowClient {
	address := fmt.Sprintf("%s:%d", host, port)
	handler := modbus.NewTCPClientHandler(address)
	handler.Timeout = timeout
	handler.SlaveId = unitId

	if logger != nil {
		logger = logger.With(zap.String("target", address), zap.Uint8("unitId", unitId))
	}

	return &GoburrowClient{
		handler:    handler,
		client:     modbus.NewClient(handler),
		instrument: buildInstruments(logger, instrumentation),
		address:    address,
	}
}

func (reader *GoburrowClient) Open() error {
	defer RecordTimer("Open", reader.instrument)()
	if err := reader.handler.Connect(); err != nil {
		return &ReadError{Code: CodeConnectError, Err: err}
	}
	return nil
}

func (reader *GoburrowClient) Close() error {
	return reader.handler.Close()
}

func (reader *GoburrowClient) Address() string {
	return reader.address
}

func (reader *GoburrowClient) ReadBlock(addr uint16, quantity uint16) ([]uint16, error) {
	data, err := reader.readHoldingRegisters(addr, quantity)
	if err != nil {
		if !isRecoverableError(err) {
			reader.handler.Close()
		}
		return nil, newReadError(err, addr, quantity)
	}
	if len(data) != 2*int(quantity) {
		return nil, &ReadError{Code: CodeRecvError, Addr: addr, Quantity: quantity,
			Err: fmt.Errorf("modbus: got %d bytes, want %d", len(data), 2*int(quantity))}
	}
	return unpackRegisters(data), nil
}

func (reader *GoburrowClient) readHoldingRegisters(addr uint16, quantity uint16) ([]byte, error) {
	defer RecordTimer("ReadHoldingRegisters", reader.instrument)()
	return reader.client.ReadHoldingRegisters(addr, quantity)
}
