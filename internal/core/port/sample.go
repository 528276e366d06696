package port

import (
	"context"

	"github.com/berfenger/solaredge2influx/internal/core/domain"
	"github.com/berfenger/solaredge2influx/pkg/sunspec_modbus"
)

// RegisterSource is the Modbus side of the poll loop.
type RegisterSource = sunspec_modbus.RegisterSource

// SampleWriter persists samples. Write is called once per device and
// iteration; implementations return a *domain.WriteError on rejection.
type SampleWriter interface {
	Write(ctx context.Context, sample domain.Sample) error
}

// PollObserver receives poll loop events, used for metrics.
type PollObserver interface {
	IterationStarted()
	SampleWritten(device string)
	PollFailed(device string, kind domain.FailureKind)
}
