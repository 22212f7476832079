// Package config loads daemon settings from flags, an optional YAML file,
// and THERMOSTAT_* environment variables.
// Precedence (highest first): flags set on the command line, environment,
// config file, flag defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sweeney/pi-thermostat/internal/gpio"
	"github.com/sweeney/pi-thermostat/internal/lcd"
	"github.com/sweeney/pi-thermostat/internal/logic"
	"github.com/sweeney/pi-thermostat/internal/sensor"
	"github.com/sweeney/pi-thermostat/internal/serial"
)

// EnvPrefix prefixes environment overrides, e.g. THERMOSTAT_MQTT_BROKER.
const EnvPrefix = "THERMOSTAT"

// Config is the full daemon configuration.
type Config struct {
	Variant    string        `mapstructure:"variant"`
	Tick       time.Duration `mapstructure:"tick"`
	Farewell   time.Duration `mapstructure:"farewell"`
	Heartbeat  time.Duration `mapstructure:"heartbeat"`
	Debug      bool          `mapstructure:"debug"`
	PrintState bool          `mapstructure:"print_state"`
	HTTP       string        `mapstructure:"http"`

	Setpoint SetpointConfig `mapstructure:"setpoint"`
	Pins     PinsConfig     `mapstructure:"pins"`
	I2C      I2CConfig      `mapstructure:"i2c"`
	Serial   SerialConfig   `mapstructure:"serial"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Influx   InfluxConfig   `mapstructure:"influx"`
}

// SetpointConfig holds the initial setpoint and an optional clamp.
// Min and Max both zero leave the setpoint unbounded.
type SetpointConfig struct {
	Initial int `mapstructure:"initial"`
	Min     int `mapstructure:"min"`
	Max     int `mapstructure:"max"`
}

// PinsConfig holds BCM pin numbers and GPIO options.
type PinsConfig struct {
	Chip     string        `mapstructure:"chip"`
	Red      int           `mapstructure:"red"`
	Blue     int           `mapstructure:"blue"`
	Cycle    int           `mapstructure:"cycle"`
	Up       int           `mapstructure:"up"`
	Down     int           `mapstructure:"down"`
	Debounce time.Duration `mapstructure:"debounce"`
	LCD      lcd.Pins      `mapstructure:"lcd"`
}

// I2CConfig selects the sensor bus.
type I2CConfig struct {
	Bus     string `mapstructure:"bus"`
	Address uint16 `mapstructure:"address"`
}

// SerialConfig configures the telemetry UART. Empty Port disables it.
type SerialConfig struct {
	Port    string        `mapstructure:"port"`
	Baud    int           `mapstructure:"baud"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// MQTTConfig configures the broker connection. Empty Broker disables it.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Prefix   string `mapstructure:"prefix"`
}

// InfluxConfig configures the history sink. Empty URL disables it.
type InfluxConfig struct {
	URL    string `mapstructure:"url"`
	Token  string `mapstructure:"token"`
	Org    string `mapstructure:"org"`
	Bucket string `mapstructure:"bucket"`
}

// binding ties a command-line flag to a config key.
type binding struct {
	key  string
	flag string
}

var bindings = []binding{
	{"variant", "variant"},
	{"tick", "tick"},
	{"farewell", "farewell"},
	{"heartbeat", "heartbeat"},
	{"debug", "debug"},
	{"print_state", "print-state"},
	{"http", "http"},
	{"setpoint.initial", "setpoint"},
	{"setpoint.min", "setpoint-min"},
	{"setpoint.max", "setpoint-max"},
	{"pins.chip", "gpio-chip"},
	{"pins.red", "pin-red"},
	{"pins.blue", "pin-blue"},
	{"pins.cycle", "pin-cycle"},
	{"pins.up", "pin-up"},
	{"pins.down", "pin-down"},
	{"pins.debounce", "debounce"},
	{"pins.lcd.rs", "pin-lcd-rs"},
	{"pins.lcd.e", "pin-lcd-e"},
	{"pins.lcd.d4", "pin-lcd-d4"},
	{"pins.lcd.d5", "pin-lcd-d5"},
	{"pins.lcd.d6", "pin-lcd-d6"},
	{"pins.lcd.d7", "pin-lcd-d7"},
	{"i2c.bus", "i2c-bus"},
	{"i2c.address", "i2c-address"},
	{"serial.port", "serial-port"},
	{"serial.baud", "serial-baud"},
	{"serial.timeout", "serial-timeout"},
	{"mqtt.broker", "broker"},
	{"mqtt.client_id", "client-id"},
	{"mqtt.prefix", "topic-prefix"},
	{"influx.url", "influx-url"},
	{"influx.token", "influx-token"},
	{"influx.org", "influx-org"},
	{"influx.bucket", "influx-bucket"},
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("thermostat", pflag.ContinueOnError)
	fs.String("config", "", "Path to a YAML config file")
	fs.String("variant", string(logic.VariantThermostat), `Controller variant ("thermostat" or "scale")`)
	fs.Duration("tick", time.Second, "Display refresh interval")
	fs.Duration("farewell", 2*time.Second, "How long the goodbye screen is shown on exit")
	fs.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	fs.Bool("debug", false, "Enable debug logging")
	fs.Bool("print-state", false, "Print one sensor reading and exit")
	fs.String("http", ":8080", "HTTP status address (empty to disable)")

	fs.Int("setpoint", logic.DefaultSetpoint, "Initial setpoint (degrees F)")
	fs.Int("setpoint-min", 0, "Lowest allowed setpoint (0 with max 0 for unbounded)")
	fs.Int("setpoint-max", 0, "Highest allowed setpoint (0 with min 0 for unbounded)")

	fs.String("gpio-chip", gpio.DefaultChip, "GPIO character device for LEDs and buttons")
	fs.Int("pin-red", gpio.DefaultPinRed, "BCM pin for the red (heat) LED")
	fs.Int("pin-blue", gpio.DefaultPinBlue, "BCM pin for the blue (cool) LED")
	fs.Int("pin-cycle", gpio.DefaultPinCycle, "BCM pin for the mode button")
	fs.Int("pin-up", gpio.DefaultPinUp, "BCM pin for the setpoint up button")
	fs.Int("pin-down", gpio.DefaultPinDown, "BCM pin for the setpoint down button")
	fs.Duration("debounce", 50*time.Millisecond, "Button debounce period (0 to disable)")
	fs.Int("pin-lcd-rs", lcd.DefaultPins.RS, "BCM pin for LCD RS")
	fs.Int("pin-lcd-e", lcd.DefaultPins.E, "BCM pin for LCD E")
	fs.Int("pin-lcd-d4", lcd.DefaultPins.D4, "BCM pin for LCD D4")
	fs.Int("pin-lcd-d5", lcd.DefaultPins.D5, "BCM pin for LCD D5")
	fs.Int("pin-lcd-d6", lcd.DefaultPins.D6, "BCM pin for LCD D6")
	fs.Int("pin-lcd-d7", lcd.DefaultPins.D7, "BCM pin for LCD D7")

	fs.String("i2c-bus", sensor.DefaultBus, "I2C bus name (empty for the first bus)")
	fs.Uint16("i2c-address", sensor.DefaultAddress, "SHT4x I2C address")

	fs.String("serial-port", serial.DefaultPort, "Telemetry serial port (empty to disable)")
	fs.Int("serial-baud", serial.DefaultBaud, "Telemetry baud rate")
	fs.Duration("serial-timeout", serial.DefaultTimeout, "Serial read timeout")

	fs.String("broker", "", "MQTT broker address, e.g. tcp://192.168.1.200:1883 (empty to disable)")
	fs.String("client-id", "pi-thermostat", "MQTT client id prefix")
	fs.String("topic-prefix", "home/thermostat", "MQTT topic prefix")

	fs.String("influx-url", "", "InfluxDB URL (empty to disable history)")
	fs.String("influx-token", "", "InfluxDB token")
	fs.String("influx-org", "", "InfluxDB organization")
	fs.String("influx-bucket", "thermostat", "InfluxDB bucket")
	return fs
}

// Load parses args (without the program name) and returns the merged config.
func Load(args []string) (*Config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	for _, b := range bindings {
		if err := v.BindPFlag(b.key, fs.Lookup(b.flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", b.flag, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Usage returns the flag help text.
func Usage() string {
	return newFlagSet().FlagUsages()
}

// Validate checks settings that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if !logic.Variant(c.Variant).Valid() {
		return fmt.Errorf("unknown variant %q", c.Variant)
	}
	if c.Tick <= 0 {
		return errors.New("tick must be positive")
	}
	if c.Farewell < 0 {
		return errors.New("farewell must not be negative")
	}
	if (c.Setpoint.Min == 0) != (c.Setpoint.Max == 0) {
		return fmt.Errorf("setpoint clamp needs both min and max, got min %d max %d", c.Setpoint.Min, c.Setpoint.Max)
	}
	if c.Limits().Bounded() {
		if c.Setpoint.Min >= c.Setpoint.Max {
			return fmt.Errorf("setpoint min %d must be below max %d", c.Setpoint.Min, c.Setpoint.Max)
		}
		if c.Setpoint.Initial < c.Setpoint.Min || c.Setpoint.Initial > c.Setpoint.Max {
			return fmt.Errorf("initial setpoint %d outside [%d, %d]", c.Setpoint.Initial, c.Setpoint.Min, c.Setpoint.Max)
		}
	}
	if c.Serial.Port != "" && c.Serial.Baud <= 0 {
		return errors.New("serial baud must be positive")
	}
	if c.Influx.URL != "" && (c.Influx.Org == "" || c.Influx.Bucket == "") {
		return errors.New("influx org and bucket are required when influx url is set")
	}
	return nil
}

// VariantValue returns the configured variant.
func (c *Config) VariantValue() logic.Variant {
	return logic.Variant(c.Variant)
}

// Limits returns the configured setpoint clamp.
func (c *Config) Limits() logic.Limits {
	return logic.Limits{Min: c.Setpoint.Min, Max: c.Setpoint.Max}
}

// ButtonPins returns the configured button pins.
func (c *Config) ButtonPins() gpio.ButtonPins {
	return gpio.ButtonPins{Cycle: c.Pins.Cycle, Up: c.Pins.Up, Down: c.Pins.Down}
}
