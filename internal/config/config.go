package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

const (
	DRIVER_SIMONVETTER = "simonvetter"
	DRIVER_GOBURROW    = "goburrow"

	MAX_METERS = 3
)

type Config struct {
	LogLevel zapcore.Level
	// ClientDebug enables the InfluxDB client debug log (-dd)
	ClientDebug bool

	InverterModbusTcp InverterModbusTCPConfig `mapstructure:"inverter_modbus_tcp"`
	InfluxDB          InfluxDBConfig          `mapstructure:"influxdb"`
	MQTT              MQTTConfig              `mapstructure:"mqtt"`
	MonitorConfig     MonitorConfig           `mapstructure:"monitor"`
	HTTP              HTTPConfig              `mapstructure:"http"`
	HttpLog           bool                    `mapstructure:"http_log"`
}

type InverterModbusTCPConfig struct {
	Host          string
	Port          uint
	UnitId        uint `mapstructure:"unit_id"`
	Meters        int
	Driver        string
	TimeoutMillis uint32 `mapstructure:"timeout_millis"`
}

func (c InverterModbusTCPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

type InfluxDBConfig struct {
	Host           string
	Port           uint
	Database       string
	Token          string
	Org            string
	CreateDatabase bool `mapstructure:"create_database"`
}

func (c InfluxDBConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

type MonitorConfig struct {
	PollIntervalMillis  uint32 `mapstructure:"poll_interval_millis"`
	LiteralStatusGating bool   `mapstructure:"literal_status_gating"`
}

func (c MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

type MQTTConfig struct {
	Enable    bool
	Host      string
	Port      int
	Username  string
	Password  string
	BaseTopic string `mapstructure:"base_topic"`
}

func (c MQTTConfig) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}

type HTTPConfig struct {
	Enable bool
	Port   uint
}

// Validate checks bounds and normalizes the MQTT base topic.
func (cfg *Config) Validate() error {
	if cfg.InverterModbusTcp.Host == "" {
		return errors.New("missing SolarEdge IP address")
	}
	if cfg.InverterModbusTcp.Meters < 0 || cfg.InverterModbusTcp.Meters > MAX_METERS {
		return fmt.Errorf("config param inverter_modbus_tcp.meters should be between 0 and %d", MAX_METERS)
	}
	switch cfg.InverterModbusTcp.Driver {
	case DRIVER_SIMONVETTER, DRIVER_GOBURROW:
	default:
		return fmt.Errorf("unknown modbus driver %q", cfg.InverterModbusTcp.Driver)
	}
	if cfg.InverterModbusTcp.UnitId > 255 {
		return errors.New("config param inverter_modbus_tcp.unit_id should be <= 255")
	}
	if cfg.InverterModbusTcp.TimeoutMillis == 0 {
		return errors.New("config param inverter_modbus_tcp.timeout_millis should be > 0")
	}
	if cfg.MonitorConfig.PollIntervalMillis < 1000 {
		return errors.New("config param monitor.poll_interval_millis should be >= 1000")
	}
	if cfg.InfluxDB.Database == "" {
		return errors.New("config param influxdb.database should not be empty")
	}

	// check and fix base topic
	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	return nil
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
