package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/berfenger/solaredge2influx/internal/config"
	"github.com/berfenger/solaredge2influx/internal/core/port"
	"github.com/berfenger/solaredge2influx/internal/core/service"
	"github.com/berfenger/solaredge2influx/internal/influx"
	"github.com/berfenger/solaredge2influx/internal/metrics"
	"github.com/berfenger/solaredge2influx/internal/mqtt"
	"github.com/berfenger/solaredge2influx/internal/server"
	"github.com/berfenger/solaredge2influx/pkg/sunspec_modbus"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	startupTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.DateTime,
	})))

	// load and print config
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	slog.Info("Starting up solaredge monitoring", "version", versioninfo.Short())
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("exiting with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	promMetrics := metrics.New()

	source, err := registerSource(cfg, logger, promMetrics.ModbusInstrument())
	if err != nil {
		return err
	}
	defer source.Close()

	service.LogSurvey(source, logger)

	writer, closeWriters := sampleWriters(ctx, cfg, logger)
	defer closeWriters()

	poller := service.NewPoller(source, writer, service.PollerConfig{
		Meters:   cfg.InverterModbusTcp.Meters,
		Interval: cfg.MonitorConfig.PollInterval(),
		DecodeOptions: sunspec_modbus.InverterDecodeOptions{
			LiteralStatusGating: cfg.MonitorConfig.LiteralStatusGating,
		},
	}, logger).WithObserver(promMetrics)

	if cfg.HTTP.Enable {
		apiServer := server.NewServer(*cfg, poller, promMetrics.Handler())
		go func() {
			if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", zap.Error(err))
			}
		}()
		defer gracefulShutdown(apiServer, logger)
	}

	return poller.Run(ctx)
}

func gracefulShutdown(apiServer *http.Server, logger *zap.Logger) {
	logger.Info("shutting down gracefully")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
}

func registerSource(cfg *config.Config, logger *zap.Logger, instrument *sunspec_modbus.ModbusInstrument) (sunspec_modbus.RegisterSource, error) {
	tcp := cfg.InverterModbusTcp
	slog.Info("Connecting to Solaredge inverter", "host", tcp.Host, "port", tcp.Port, "unitid", tcp.UnitId,
		"meters", tcp.Meters, "driver", tcp.Driver)

	modbusLogger := logger.With(zap.String("component", "modbus"))
	switch tcp.Driver {
	case config.DRIVER_GOBURROW:
		return sunspec_modbus.CreateGoburrowRegisterSource(tcp.Host, tcp.Port, uint8(tcp.UnitId), tcp.Timeout(),
			modbusLogger, instrument), nil
	default:
		return sunspec_modbus.CreateModbusTCPRegisterSource(tcp.Host, tcp.Port, uint8(tcp.UnitId), tcp.Timeout(),
			modbusLogger, instrument)
	}
}

func sampleWriters(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.SampleWriter, func()) {
	slog.Info("Writing data to influxDb", "url", cfg.InfluxDB.URL(), "database", cfg.InfluxDB.Database)

	influxWriter := influx.NewWriter(cfg.InfluxDB, cfg.ClientDebug, logger)
	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()
	if cfg.InfluxDB.CreateDatabase {
		if err := influxWriter.EnsureDatabase(startCtx); err != nil {
			logger.Error("error during connection to InfluxDB", zap.String("url", cfg.InfluxDB.URL()), zap.Error(err))
		}
	} else if err := influxWriter.Ping(startCtx); err != nil {
		logger.Warn("InfluxDB is not reachable", zap.String("url", cfg.InfluxDB.URL()), zap.Error(err))
	}

	if !cfg.MQTT.Enable {
		return influxWriter, func() { influxWriter.Close() }
	}

	slog.Info("Publishing data to MQTT", "broker", cfg.MQTT.BrokerURL(), "base_topic", cfg.MQTT.BaseTopic)
	var publisher *mqtt.Publisher
	client := mqtt.CreateMQTTClient(cfg.MQTT, mqtt.OptsFromConfig(cfg.MQTT),
		func(c mqtt.PahoClient) { publisher.OnConnect(c) },
		func(c mqtt.PahoClient, err error) { publisher.OnConnectionLost(c, err) })
	publisher = mqtt.NewPublisher(client, logger)
	if err := client.Connect(startupTimeout); err != nil {
		logger.Warn("could not connect to MQTT broker, retrying in background", zap.Error(err))
	}

	return service.NewFanOutWriter(influxWriter, publisher), func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("could not publish offline state", zap.Error(err))
		}
		influxWriter.Close()
	}
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	cfg.InfluxDB.Token = "*redacted*"
	slog.Info("Using", "config", cfg)
}
