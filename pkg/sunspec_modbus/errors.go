package sunspec_modbus

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"

	gbmodbus "github.com/goburrow/modbus"
	"github.com/simonvetter/modbus"
)

// Read error codes, numbered like pyModbusTCP's last_error().
const (
	CodeUnknownError   = -1
	CodeNoError        = 0
	CodeResolveError   = 1
	CodeConnectError   = 2
	CodeSendError      = 3
	CodeRecvError      = 4
	CodeTimeoutError   = 5
	CodeFrameError     = 6
	CodeExceptionError = 7
)

var ErrShortBlock = errors.New("sunspec: short register block")

// ReadError is returned by every RegisterSource when a block read fails.
type ReadError struct {
	Code     int
	Addr     uint16
	Quantity uint16
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("modbus read %d/%d failed (code %d): %v", e.Addr, e.Quantity, e.Code, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the read error code carried by err.
func ErrorCode(err error) int {
	if err == nil {
		return CodeNoError
	}
	var readErr *ReadError
	if errors.As(err, &readErr) {
		return readErr.Code
	}
	return classifyError(err)
}

func newReadError(err error, addr uint16, quantity uint16) *ReadError {
	var readErr *ReadError
	if errors.As(err, &readErr) {
		return &ReadError{Code: readErr.Code, Addr: addr, Quantity: quantity, Err: readErr.Err}
	}
	return &ReadError{Code: classifyError(err), Addr: addr, Quantity: quantity, Err: err}
}

func classifyError(err error) int {
	if err == nil {
		return CodeNoError
	}
	if errors.Is(err, modbus.ErrRequestTimedOut) {
		return CodeTimeoutError
	}
	if isModbusException(err) {
		return CodeExceptionError
	}
	if errors.Is(err, modbus.ErrShortFrame) || errors.Is(err, modbus.ErrProtocolError) ||
		errors.Is(err, modbus.ErrBadCRC) || errors.Is(err, modbus.ErrBadUnitId) ||
		errors.Is(err, modbus.ErrBadTransactionId) || errors.Is(err, modbus.ErrUnknownProtocolId) {
		return CodeRecvError
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CodeTimeoutError
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CodeResolveError
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return CodeConnectError
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch opErr.Op {
		case "dial":
			return CodeConnectError
		case "write":
			return CodeSendError
		case "read":
			return CodeRecvError
		}
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, syscall.ECONNRESET) {
		return CodeRecvError
	}
	if errors.Is(err, syscall.EPIPE) {
		return CodeSendError
	}
	return CodeUnknownError
}

func isModbusException(err error) bool {
	var gbErr *gbmodbus.ModbusError
	if errors.As(err, &gbErr) {
		return true
	}
	return errors.Is(err, modbus.ErrIllegalFunction) ||
		errors.Is(err, modbus.ErrIllegalDataAddress) ||
		errors.Is(err, modbus.ErrIllegalDataValue) ||
		errors.Is(err, modbus.ErrServerDeviceFailure) ||
		errors.Is(err, modbus.ErrAcknowledge) ||
		errors.Is(err, modbus.ErrServerDeviceBusy) ||
		errors.Is(err, modbus.ErrMemoryParityError) ||
		errors.Is(err, modbus.ErrGWPathUnavailable) ||
		errors.Is(err, modbus.ErrGWTargetFailedToRespond)
}

// isRecoverableError reports whether the link can be kept open after err.
func isRecoverableError(err error) bool {
	switch classifyError(err) {
	case CodeExceptionError, CodeTimeoutError:
		return true
	}
	return false
}
