package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/berfenger/solaredge2influx/internal/core/domain"
	"github.com/berfenger/solaredge2influx/internal/core/port"
	"github.com/berfenger/solaredge2influx/pkg/sunspec_modbus"

	"go.uber.org/zap"
)

const (
	BLOCK_INVERTER = "inverter"
	BLOCK_METER    = "meter"

	DEFAULT_POLL_INTERVAL = 5 * time.Second
)

type PollerConfig struct {
	Meters        int
	Interval      time.Duration
	DecodeOptions sunspec_modbus.InverterDecodeOptions
}

// PollFailure is one failed device step of an iteration.
type PollFailure struct {
	Device string
	Kind   domain.FailureKind
	Err    error
}

type IterationResult struct {
	Written  []string
	Failures []PollFailure
}

// Health is a snapshot of the loop progress, safe to read from other goroutines.
type Health struct {
	Iterations        uint64
	LastIteration     time.Time
	LastInverterWrite time.Time
}

type Poller struct {
	source   port.RegisterSource
	writer   port.SampleWriter
	observer port.PollObserver
	cfg      PollerConfig
	logger   *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	healthMu sync.Mutex
	health   Health
}

type deviceBlock struct {
	name     string
	index    int
	addr     uint16
	quantity uint16
}

func (b deviceBlock) device() string {
	return fmt.Sprintf("%s/%d", b.name, b.index)
}

func NewPoller(source port.RegisterSource, writer port.SampleWriter, cfg PollerConfig, logger *zap.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DEFAULT_POLL_INTERVAL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		source:   source,
		writer:   writer,
		observer: noopObserver{},
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "poller")),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// WithObserver sets the receiver of loop events.
func (p *Poller) WithObserver(observer port.PollObserver) *Poller {
	if observer != nil {
		p.observer = observer
	}
	return p
}

func (p *Poller) Interval() time.Duration {
	return p.cfg.Interval
}

func (p *Poller) Health() Health {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()
	return p.health
}

// Run polls until ctx is cancelled. Cancellation is only observed while
// sleeping between iterations, so an iteration in flight always completes.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poll loop started", zap.String("address", p.source.Address()),
		zap.Int("meters", p.cfg.Meters), zap.Duration("interval", p.cfg.Interval))
	for {
		p.Iterate(ctx)
		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			p.logger.Info("poll loop stopped", zap.Error(err))
			return err
		}
	}
}

// Iterate runs one pass: the inverter first, then meters 1..N in order.
// Failures are logged and reported in the result, never returned.
func (p *Poller) Iterate(ctx context.Context) IterationResult {
	p.observer.IterationStarted()
	writeCtx := context.WithoutCancel(ctx)

	result := IterationResult{}
	blocks := []deviceBlock{{
		name:     BLOCK_INVERTER,
		index:    1,
		addr:     sunspec_modbus.InverterBaseAddress,
		quantity: sunspec_modbus.InverterBlockLength,
	}}
	for i := 1; i <= p.cfg.Meters; i++ {
		addr, err := sunspec_modbus.MeterBaseAddress(i)
		if err != nil {
			p.recordFailure(&result, deviceBlock{name: BLOCK_METER, index: i}, domain.FailureUnclassified, err)
			p.logger.Error("unhandled error during poll", zap.Int("index", i), zap.Error(err))
			continue
		}
		blocks = append(blocks, deviceBlock{
			name:     BLOCK_METER,
			index:    i,
			addr:     addr,
			quantity: sunspec_modbus.MeterBlockLength,
		})
	}

	for _, block := range blocks {
		p.pollDevice(writeCtx, block, &result)
	}

	p.healthMu.Lock()
	p.health.Iterations++
	p.health.LastIteration = p.now()
	p.healthMu.Unlock()

	return result
}

func (p *Poller) pollDevice(ctx context.Context, block deviceBlock, result *IterationResult) {
	logger := p.logger.With(
		zap.String("address", p.source.Address()),
		zap.String("block", block.name),
		zap.Uint16("register", block.addr),
		zap.Int("index", block.index),
	)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			p.recordFailure(result, block, domain.FailureUnclassified, err)
			logger.Error("unhandled error during poll", zap.Error(err))
		}
	}()

	regs, err := p.source.ReadBlock(block.addr, block.quantity)
	if err != nil {
		kind := domain.ClassifyReadError(err)
		p.recordFailure(result, block, kind, err)
		logReadFailure(logger, kind, err)
		return
	}

	logger.Debug("read block", zap.Uint16s("registers", regs))

	sample, err := p.decode(logger, block, regs)
	if err != nil {
		p.recordFailure(result, block, domain.FailureUnclassified, err)
		logger.Error("unhandled error during poll", zap.Error(err))
		return
	}
	logger.Debug("writing sample", zap.Time("time", sample.Time), zap.Any("fields", sample.Fields))

	if err := p.writer.Write(ctx, sample); err != nil {
		p.recordFailure(result, block, domain.FailureWriteRejected, err)
		logger.Error("failed to write sample", zap.Error(err))
		return
	}

	result.Written = append(result.Written, block.device())
	p.observer.SampleWritten(block.device())
	if sample.IsInverter() {
		p.healthMu.Lock()
		p.health.LastInverterWrite = sample.Time
		p.healthMu.Unlock()
	}
}

func (p *Poller) decode(logger *zap.Logger, block deviceBlock, regs []uint16) (domain.Sample, error) {
	switch block.name {
	case BLOCK_INVERTER:
		m, err := sunspec_modbus.DecodeInverter(regs, p.cfg.DecodeOptions)
		if err != nil {
			return domain.Sample{}, err
		}
		logger.Debug("inverter state", zap.String("state", sunspec_modbus.InverterStatusToString(m.OperatingState)))
		return domain.NewInverterSample(m, p.now()), nil
	default:
		m, err := sunspec_modbus.DecodeMeter(block.index, regs)
		if err != nil {
			return domain.Sample{}, err
		}
		return domain.NewMeterSample(m, p.now()), nil
	}
}

func (p *Poller) recordFailure(result *IterationResult, block deviceBlock, kind domain.FailureKind, err error) {
	result.Failures = append(result.Failures, PollFailure{Device: block.device(), Kind: kind, Err: err})
	p.observer.PollFailed(block.device(), kind)
}

func logReadFailure(logger *zap.Logger, kind domain.FailureKind, err error) {
	fields := []zap.Field{zap.Int("code", sunspec_modbus.ErrorCode(err)), zap.Error(err)}
	switch kind {
	case domain.FailureConnectionRefused:
		logger.Error("failed to connect to SolarEdge inverter", fields...)
	case domain.FailureTransport:
		logger.Error("send or receive error", fields...)
	case domain.FailureTimeout:
		logger.Error("timeout during send or receive operation", fields...)
	default:
		logger.Error("unhandled error during poll", fields...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type noopObserver struct{}

func (noopObserver) IterationStarted()                     {}
func (noopObserver) SampleWritten(string)                  {}
func (noopObserver) PollFailed(string, domain.FailureKind) {}
