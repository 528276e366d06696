package util

import (
	"github.com/berfenger/solaredge2influx/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		InverterModbusTcp: config.InverterModbusTCPConfig{
			Host:          "-.-.-.-",
			Port:          502,
			UnitId:        1,
			Meters:        1,
			Driver:        config.DRIVER_SIMONVETTER,
			TimeoutMillis: 1000,
		},
		InfluxDB: config.InfluxDBConfig{
			Host:           "localhost",
			Port:           8086,
			Database:       "solaredge",
			CreateDatabase: true,
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "solaredge",
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalMillis:  5000,
			LiteralStatusGating: true,
		},
		HTTP: config.HTTPConfig{
			Enable: true,
			Port:   8080,
		},
	}
}
