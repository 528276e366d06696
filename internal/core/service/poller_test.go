package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/berfenger/solaredge2influx/internal/core/domain"
	"github.com/berfenger/solaredge2influx/pkg/sunspec_modbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func testSource(meters int) *sunspec_modbus.TestRegisterSource {
	src := sunspec_modbus.CreateTestRegisterSource()
	src.SetBlock(sunspec_modbus.InverterBaseAddress, sunspec_modbus.TestInverterBlock())
	for i := 1; i <= meters; i++ {
		addr, _ := sunspec_modbus.MeterBaseAddress(i)
		src.SetBlock(addr, sunspec_modbus.TestMeterBlock())
	}
	return src
}

func testPoller(src *sunspec_modbus.TestRegisterSource, writer *recordingWriter, meters int) (*Poller, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewPoller(src, writer, PollerConfig{
		Meters:        meters,
		Interval:      5 * time.Second,
		DecodeOptions: sunspec_modbus.DefaultInverterDecodeOptions(),
	}, zap.New(core))
	p.now = func() time.Time { return fixedNow }
	return p, logs
}

func TestIterateWritesInverterThenMeters(t *testing.T) {

	require := require.New(t)

	src := testSource(3)
	writer := &recordingWriter{}
	p, logs := testPoller(src, writer, 3)

	res := p.Iterate(context.Background())

	require.Empty(res.Failures)
	require.Equal([]string{"inverter/1", "meter/1", "meter/2", "meter/3"}, res.Written)
	require.Equal([]uint16{40069, 40190, 40364, 40539}, src.Reads)
	require.Len(writer.samples, 4)
	require.Equal(map[string]string{"inverter": "1"}, writer.samples[0].Tags)
	require.Equal(map[string]string{"meter": "2"}, writer.samples[2].Tags)
	require.Equal(fixedNow, writer.samples[0].Time)
	require.Equal(0, logs.Len())

	health := p.Health()
	require.Equal(uint64(1), health.Iterations)
	require.Equal(fixedNow, health.LastInverterWrite)
}

func TestIterateConnectionRefused(t *testing.T) {

	require := require.New(t)

	src := testSource(0)
	src.Fail(sunspec_modbus.InverterBaseAddress, sunspec_modbus.CodeConnectError)
	writer := &recordingWriter{}
	p, logs := testPoller(src, writer, 0)

	res := p.Iterate(context.Background())

	require.Empty(writer.samples, "no write happens")
	require.Empty(res.Written)
	require.Len(res.Failures, 1)
	require.Equal(domain.FailureConnectionRefused, res.Failures[0].Kind)

	require.Equal(1, logs.Len(), "exactly one log event")
	entry := logs.All()[0]
	require.Equal("failed to connect to SolarEdge inverter", entry.Message)
	require.Equal(zapcore.ErrorLevel, entry.Level)
	ctxMap := entry.ContextMap()
	require.Equal("test://inverter", ctxMap["address"])
	require.Equal("inverter", ctxMap["block"])
	require.Equal(int64(2), ctxMap["code"])
	require.True(p.Health().LastInverterWrite.IsZero())
}

func TestRunContinuesAfterConnectionRefused(t *testing.T) {

	require := require.New(t)

	src := testSource(0)
	src.Fail(sunspec_modbus.InverterBaseAddress, sunspec_modbus.CodeConnectError)
	writer := &recordingWriter{}
	p, logs := testPoller(src, writer, 0)

	ctx, cancel := context.WithCancel(context.Background())
	var sleeps []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		if len(sleeps) == 3 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	err := p.Run(ctx)
	require.ErrorIs(err, context.Canceled)
	require.Equal([]time.Duration{5 * time.Second, 5 * time.Second, 5 * time.Second}, sleeps)
	require.Len(src.Reads, 3, "one read per iteration")
	require.Empty(writer.samples)
	require.Equal(3, logs.FilterMessage("failed to connect to SolarEdge inverter").Len())
	require.Equal(uint64(3), p.Health().Iterations)
}

func TestIterateReadFailureMessages(t *testing.T) {

	assert := assert.New(t)

	cases := map[int]string{
		sunspec_modbus.CodeSendError:      "send or receive error",
		sunspec_modbus.CodeRecvError:      "send or receive error",
		sunspec_modbus.CodeTimeoutError:   "timeout during send or receive operation",
		sunspec_modbus.CodeExceptionError: "unhandled error during poll",
	}
	for code, message := range cases {
		src := testSource(1)
		src.Fail(40190, code)
		writer := &recordingWriter{}
		p, logs := testPoller(src, writer, 1)

		res := p.Iterate(context.Background())

		assert.Equal([]string{"inverter/1"}, res.Written, "code %d", code)
		assert.Equal(1, logs.Len(), "code %d", code)
		assert.Equal(message, logs.All()[0].Message, "code %d", code)
		assert.Equal("meter", logs.All()[0].ContextMap()["block"])
		assert.Equal(int64(1), logs.All()[0].ContextMap()["index"])
		assert.Equal(domain.ClassifyReadCode(code), res.Failures[0].Kind)
	}
}

func TestIterateInverterFailureStillPollsMeters(t *testing.T) {

	require := require.New(t)

	src := testSource(2)
	src.Fail(sunspec_modbus.InverterBaseAddress, sunspec_modbus.CodeTimeoutError)
	writer := &recordingWriter{}
	p, _ := testPoller(src, writer, 2)

	res := p.Iterate(context.Background())
	require.Equal([]string{"meter/1", "meter/2"}, res.Written)
}

func TestIterateWriteRejected(t *testing.T) {

	require := require.New(t)

	src := testSource(1)
	writer := &recordingWriter{err: &domain.WriteError{Sink: "influxdb", Err: errors.New("400 bad request")}}
	p, logs := testPoller(src, writer, 1)

	res := p.Iterate(context.Background())

	require.Len(res.Failures, 2)
	require.Equal(domain.FailureWriteRejected, res.Failures[0].Kind)
	require.Equal(domain.FailureWriteRejected, res.Failures[1].Kind)
	require.Equal(2, logs.FilterMessage("failed to write sample").Len())
	require.Len(src.Reads, 2, "write failure does not skip the meters")
}

func TestIteratePanicIsRecovered(t *testing.T) {

	require := require.New(t)

	core, logs := observer.New(zapcore.InfoLevel)
	obs := &countingObserver{}
	p := NewPoller(testSource(1), panicWriter{}, PollerConfig{Meters: 1}, zap.New(core)).WithObserver(obs)

	var res IterationResult
	require.NotPanics(func() { res = p.Iterate(context.Background()) })
	require.Len(res.Failures, 2)
	require.Equal(domain.FailureUnclassified, res.Failures[0].Kind)
	require.Equal(2, logs.FilterMessage("unhandled error during poll").Len())
	require.Equal(domain.FailureUnclassified, obs.failures["meter/1"])
}

func TestIterateShortBlock(t *testing.T) {

	require := require.New(t)

	src := sunspec_modbus.CreateTestRegisterSource()
	src.SetBlock(sunspec_modbus.InverterBaseAddress, make([]uint16, sunspec_modbus.InverterBlockLength))
	writer := &recordingWriter{}
	p, _ := testPoller(src, writer, 0)

	res := p.Iterate(context.Background())
	require.Len(writer.samples, 1, "a zero block decodes")

	p.source = &shortSource{src}
	res = p.Iterate(context.Background())
	require.Len(res.Failures, 1)
	require.True(errors.Is(res.Failures[0].Err, sunspec_modbus.ErrShortBlock))
}

func TestIterateWritesSurviveCancellation(t *testing.T) {

	require := require.New(t)

	writer := &recordingWriter{}
	p, _ := testPoller(testSource(0), writer, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := p.Iterate(ctx)

	require.Equal([]string{"inverter/1"}, res.Written)
	require.NoError(writer.ctxs[0].Err(), "writes are not cancelled")
}

func TestIterateObserver(t *testing.T) {

	assert := assert.New(t)

	src := testSource(1)
	src.Fail(40190, sunspec_modbus.CodeRecvError)
	obs := &countingObserver{}
	p, _ := testPoller(src, &recordingWriter{}, 1)
	p.WithObserver(obs)

	p.Iterate(context.Background())
	p.Iterate(context.Background())

	assert.Equal(2, obs.iterations)
	assert.Equal([]string{"inverter/1", "inverter/1"}, obs.written)
	assert.Equal(domain.FailureTransport, obs.failures["meter/1"])
}

func TestIterateLogsInverterState(t *testing.T) {

	require := require.New(t)

	src := testSource(1)
	core, logs := observer.New(zapcore.DebugLevel)
	p := NewPoller(src, &recordingWriter{}, PollerConfig{Meters: 1}, zap.New(core))

	p.Iterate(context.Background())

	states := logs.FilterMessage("inverter state")
	require.Equal(1, states.Len(), "only the inverter block logs a state")
	require.Equal("mppt_tracking", states.All()[0].ContextMap()["state"])
	require.Equal("inverter", states.All()[0].ContextMap()["block"])
}

func TestSleepContext(t *testing.T) {

	assert := assert.New(t)

	assert.NoError(sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(sleepContext(ctx, time.Hour), context.Canceled)
}

type shortSource struct {
	*sunspec_modbus.TestRegisterSource
}

func (s *shortSource) ReadBlock(addr uint16, quantity uint16) ([]uint16, error) {
	regs, err := s.TestRegisterSource.ReadBlock(addr, quantity)
	if err != nil {
		return nil, err
	}
	return regs[:len(regs)-1], nil
}
