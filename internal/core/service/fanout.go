package service

import (
	"context"

	"github.com/berfenger/solaredge2influx/internal/core/domain"
	"github.com/berfenger/solaredge2influx/internal/core/port"

	"go.uber.org/multierr"
)

// FanOutWriter writes every sample to all sinks in order. A sink failure
// does not stop the remaining sinks; errors are combined.
type FanOutWriter struct {
	writers []port.SampleWriter
}

func NewFanOutWriter(writers ...port.SampleWriter) *FanOutWriter {
	return &FanOutWriter{writers: writers}
}

func (w *FanOutWriter) Write(ctx context.Context, sample domain.Sample) error {
	var err error
	for _, writer := range w.writers {
		err = multierr.Append(err, writer.Write(ctx, sample.Clone()))
	}
	return err
}

func (w *FanOutWriter) Len() int {
	return len(w.writers)
}
