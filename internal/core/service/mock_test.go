package service

import (
	"context"
	"sync"

	"github.com/berfenger/solaredge2influx/internal/core/domain"
)

type recordingWriter struct {
	mu      sync.Mutex
	samples []domain.Sample
	ctxs    []context.Context
	err     error
}

func (w *recordingWriter) Write(ctx context.Context, sample domain.Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ctxs = append(w.ctxs, ctx)
	if w.err != nil {
		return w.err
	}
	w.samples = append(w.samples, sample)
	return nil
}

type panicWriter struct{}

func (panicWriter) Write(context.Context, domain.Sample) error {
	panic("sink exploded")
}

type countingObserver struct {
	iterations int
	written    []string
	failures   map[string]domain.FailureKind
}

func (o *countingObserver) IterationStarted() { o.iterations++ }

func (o *countingObserver) SampleWritten(device string) { o.written = append(o.written, device) }

func (o *countingObserver) PollFailed(device string, kind domain.FailureKind) {
	if o.failures == nil {
		o.failures = map[string]domain.FailureKind{}
	}
	o.failures[device] = kind
}
