package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ENV_PREFIX = "solaredge"

// Load resolves the configuration from, highest first: command line, SOLAREDGE_*
// environment, the YAML file named by CONFIG_FILE and defaults.
func Load(args []string) (*Config, error) {

	// alias PORT => SOLAREDGE_HTTP_PORT
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SOLAREDGE_HTTP_PORT") == "" {
		os.Setenv("SOLAREDGE_HTTP_PORT", port)
	}

	v := viper.New()
	setConfigDefaults(v)

	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}
	if host := flags.Arg(0); host != "" {
		v.Set("inverter_modbus_tcp.host", host)
	}

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// if defined, load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.LogLevel = parseLogLevel(v.GetString("log_level"))
	debug, _ := flags.GetCount("debug")
	if debug >= 1 {
		cfg.LogLevel = zap.DebugLevel
	}
	cfg.ClientDebug = debug >= 2

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("solaredge2influx", pflag.ContinueOnError)
	flags.String("influxdb", "localhost", "InfluxDB host")
	flags.Uint("influxport", 8086, "InfluxDB port")
	flags.String("influxdb-name", "solaredge", "InfluxDB database name")
	flags.Uint("port", 502, "ModBus TCP port number to use")
	flags.Uint("unitid", 1, "ModBus unit id to use in communication")
	flags.Int("meters", 0, "Number of ModBus meters attached to inverter (0-3)")
	flags.String("driver", DRIVER_SIMONVETTER, "ModBus driver, simonvetter or goburrow")
	flags.CountP("debug", "d", "Debug logging, repeat for InfluxDB client debug")
	flags.Usage = func() {
		os.Stderr.WriteString("usage: solaredge2influx [flags] <SolarEdge IP>\n")
		flags.PrintDefaults()
	}
	return flags
}

var flagKeys = map[string]string{
	"influxdb":      "influxdb.host",
	"influxport":    "influxdb.port",
	"influxdb-name": "influxdb.database",
	"port":          "inverter_modbus_tcp.port",
	"unitid":        "inverter_modbus_tcp.unit_id",
	"meters":        "inverter_modbus_tcp.meters",
	"driver":        "inverter_modbus_tcp.driver",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}

func parseLogLevel(level string) zapcore.Level {
	switch level {
	case "trace":
		return zap.DebugLevel
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "error":
		return zap.ErrorLevel
	case "warn":
		return zap.WarnLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("inverter_modbus_tcp.host", "")
	v.SetDefault("inverter_modbus_tcp.port", 502)
	v.SetDefault("inverter_modbus_tcp.unit_id", 1)
	v.SetDefault("inverter_modbus_tcp.meters", 0)
	v.SetDefault("inverter_modbus_tcp.driver", DRIVER_SIMONVETTER)
	v.SetDefault("inverter_modbus_tcp.timeout_millis", 1000)
	v.SetDefault("influxdb.host", "localhost")
	v.SetDefault("influxdb.port", 8086)
	v.SetDefault("influxdb.database", "solaredge")
	v.SetDefault("influxdb.token", "")
	v.SetDefault("influxdb.org", "")
	v.SetDefault("influxdb.create_database", true)
	v.SetDefault("mqtt.enable", false)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.base_topic", "solaredge")
	v.SetDefault("monitor.poll_interval_millis", 5000)
	v.SetDefault("monitor.literal_status_gating", true)
	v.SetDefault("http.enable", true)
	v.SetDefault("http.port", 8080)
	v.SetDefault("http_log", false)
}
