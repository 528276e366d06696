package service

import (
	"github.com/berfenger/solaredge2influx/internal/core/port"
	"github.com/berfenger/solaredge2influx/pkg/sunspec_modbus"

	"go.uber.org/zap"
)

// LogSurvey reads the SunSpec identification of source and logs it. A failed
// survey is only logged, the poll loop does not depend on it.
func LogSurvey(source port.RegisterSource, logger *zap.Logger) *sunspec_modbus.DeviceInfo {
	logger = logger.With(zap.String("component", "survey"), zap.String("address", source.Address()))
	info, err := sunspec_modbus.Survey(source)
	if err != nil {
		logger.Warn("could not survey SunSpec device", zap.Error(err))
		return nil
	}
	logger.Info("found SunSpec device",
		zap.String("manufacturer", info.Manufacturer),
		zap.String("model", info.Model),
		zap.String("version", info.Version),
		zap.String("serial", info.Serial),
		zap.Uint16s("models", info.Models),
		zap.Int("meters", info.MeterCount()))
	if !info.HasInverter() {
		logger.Warn("SunSpec device does not expose an inverter model", zap.Uint16s("models", info.Models))
	}
	return info
}
