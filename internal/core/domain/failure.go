package domain

import (
	"fmt"

	"github.com/berfenger/solaredge2influx/pkg/sunspec_modbus"
)

type FailureKind int

const (
	FailureUnclassified FailureKind = iota
	FailureConnectionRefused
	FailureTransport
	FailureTimeout
	FailureWriteRejected
)

func (k FailureKind) String() string {
	switch k {
	case FailureConnectionRefused:
		return "connection_refused"
	case FailureTransport:
		return "transport_error"
	case FailureTimeout:
		return "timeout"
	case FailureWriteRejected:
		return "write_rejected"
	default:
		return "unclassified"
	}
}

// ClassifyReadCode maps a register source error code to a failure kind.
// Frame errors, modbus exceptions and unknown codes are unclassified.
func ClassifyReadCode(code int) FailureKind {
	switch code {
	case sunspec_modbus.CodeConnectError:
		return FailureConnectionRefused
	case sunspec_modbus.CodeSendError, sunspec_modbus.CodeRecvError:
		return FailureTransport
	case sunspec_modbus.CodeTimeoutError:
		return FailureTimeout
	default:
		return FailureUnclassified
	}
}

// ClassifyReadError maps a read error to a failure kind using its code.
func ClassifyReadError(err error) FailureKind {
	return ClassifyReadCode(sunspec_modbus.ErrorCode(err))
}

// WriteError is returned by a SampleWriter when the sink rejects a sample.
type WriteError struct {
	Sink string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s write failed: %v", e.Sink, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
