// Package logic contains the pure thermostat control logic.
// This package has NO external dependencies (no GPIO, I2C, serial, MQTT, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"math"
	"time"
)

// Mode is the operating state of the controller.
type Mode int

const (
	ModeOff Mode = iota
	ModeHeat
	ModeCool
	ModeCelsius
	ModeFahrenheit
)

// String returns the display and telemetry name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "Off"
	case ModeHeat:
		return "Heat"
	case ModeCool:
		return "Cool"
	case ModeCelsius:
		return "Celsius"
	case ModeFahrenheit:
		return "Fahrenheit"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Next returns the mode that follows m in its variant's cycle.
// Off -> Heat -> Cool -> Off, Celsius <-> Fahrenheit.
func (m Mode) Next() Mode {
	switch m {
	case ModeOff:
		return ModeHeat
	case ModeHeat:
		return ModeCool
	case ModeCool:
		return ModeOff
	case ModeCelsius:
		return ModeFahrenheit
	case ModeFahrenheit:
		return ModeCelsius
	}
	panic(fmt.Sprintf("logic: undeclared mode %d", int(m)))
}

// Variant selects which set of modes the controller cycles through.
type Variant string

const (
	VariantThermostat Variant = "thermostat"
	VariantScale      Variant = "scale"
)

// InitialMode returns the mode the variant starts in.
func (v Variant) InitialMode() Mode {
	if v == VariantScale {
		return ModeCelsius
	}
	return ModeOff
}

// Modes returns the variant's modes in cycle order.
func (v Variant) Modes() []Mode {
	if v == VariantScale {
		return []Mode{ModeCelsius, ModeFahrenheit}
	}
	return []Mode{ModeOff, ModeHeat, ModeCool}
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v == VariantThermostat || v == VariantScale
}

// Command is a user request delivered by a button or a remote client.
type Command string

const (
	CommandCycle Command = "cycle"
	CommandUp    Command = "up"
	CommandDown  Command = "down"
)

// ParseCommand converts a wire payload into a Command.
func ParseCommand(s string) (Command, error) {
	switch c := Command(s); c {
	case CommandCycle, CommandUp, CommandDown:
		return c, nil
	}
	return "", fmt.Errorf("unknown command %q", s)
}

// Sample is a single sensor reading.
type Sample struct {
	Celsius  float64
	Humidity float64 // relative humidity, percent
	Time     time.Time
}

// Fahrenheit returns the sample temperature in degrees Fahrenheit.
func (s Sample) Fahrenheit() float64 {
	return CtoF(s.Celsius)
}

// CtoF converts degrees Celsius to degrees Fahrenheit.
func CtoF(c float64) float64 {
	return c*9/5 + 32
}

// Level is the output state of a single LED.
type Level int

const (
	LevelOff Level = iota
	LevelOn
	LevelPulse
)

func (l Level) String() string {
	switch l {
	case LevelOn:
		return "ON"
	case LevelPulse:
		return "PULSE"
	default:
		return "OFF"
	}
}

// LightPlan is the desired state of both indicator LEDs.
type LightPlan struct {
	Red  Level // heat indicator
	Blue Level // cool indicator
}

// PlanLights decides the LED output for a mode, setpoint and temperature.
// The temperature is floored before comparison against the integer setpoint.
func PlanLights(mode Mode, setpoint int, tempF float64) LightPlan {
	var plan LightPlan
	temp := int(math.Floor(tempF))

	switch mode {
	case ModeHeat:
		if temp < setpoint {
			plan.Red = LevelPulse
		} else {
			plan.Red = LevelOn
		}
	case ModeCool:
		if temp > setpoint {
			plan.Blue = LevelPulse
		} else {
			plan.Blue = LevelOn
		}
	}
	return plan
}

// Record is a telemetry record emitted on a fixed cadence.
type Record struct {
	Time       time.Time
	Mode       Mode
	Fahrenheit float64
	Setpoint   int
}

// Line formats the record as a serial telemetry line, without the trailing newline.
func (r Record) Line() string {
	return fmt.Sprintf("%s,%.1f,%d", r.Mode, r.Fahrenheit, r.Setpoint)
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    Counts
}

// Counts tracks activity since startup.
type Counts struct {
	Ticks        int
	Commands     int
	Telemetry    int
	SensorErrors int
	SinkErrors   int
}
