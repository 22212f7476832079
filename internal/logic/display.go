package logic

import (
	"fmt"
	"strings"
	"time"
)

// Display geometry of the character LCD.
const (
	Columns = 16
	Rows    = 2
)

// Multiplexer cadences, in ticks.
const (
	// WindowTicks is the length of the thermostat display window. The first
	// ReadingTicks positions show the live reading, the rest show mode:setpoint.
	WindowTicks  = 10
	ReadingTicks = 5

	// TelemetryTicks is the number of ticks between telemetry records.
	TelemetryTicks = 30
)

// TimeLayout formats the first display line.
const TimeLayout = "Jan 02  15:04:05"

// Frame is the content of the two display lines.
type Frame struct {
	Line1 string
	Line2 string
}

// String joins the lines the way they appear on the display.
func (f Frame) String() string {
	return f.Line1 + "\n" + f.Line2
}

// Fit pads or truncates s to exactly Columns characters.
func Fit(s string) string {
	r := []rune(s)
	if len(r) > Columns {
		return string(r[:Columns])
	}
	return s + strings.Repeat(" ", Columns-len(r))
}

// FarewellFrame is shown while the program exits.
var FarewellFrame = Frame{Line1: " Goodbye!", Line2: " See you later"}

// ErrorFrame is shown when the sensor cannot be read.
func ErrorFrame(now time.Time) Frame {
	return Frame{Line1: now.Format(TimeLayout), Line2: "Sensor error"}
}

// Step is what a single tick asks the caller to do.
type Step struct {
	// Position is the 1-based position within the display window.
	Position int
	// ShowReading selects the live reading over mode:setpoint.
	ShowReading bool
	// RefreshLights asks for the LED plan to be recomputed.
	RefreshLights bool
	// EmitTelemetry asks for a telemetry record to be emitted.
	EmitTelemetry bool
}

// Multiplexer counts ticks to decide display content and periodic work.
type Multiplexer struct {
	window    int // last window position, 0..WindowTicks-1
	telemetry int // ticks since the last record
}

// NewMultiplexer creates a multiplexer at the start of a window.
func NewMultiplexer() *Multiplexer {
	return &Multiplexer{}
}

// Next advances one tick.
func (m *Multiplexer) Next() Step {
	m.window++
	step := Step{
		Position:    m.window,
		ShowReading: m.window <= ReadingTicks,
	}
	if m.window >= WindowTicks {
		step.RefreshLights = true
		m.window = 0
	}

	m.telemetry++
	if m.telemetry >= TelemetryTicks {
		step.EmitTelemetry = true
		m.telemetry = 0
	}
	return step
}

// Compose builds the display frame for a tick.
func Compose(now time.Time, mode Mode, setpoint int, sample Sample, step Step) Frame {
	f := Frame{Line1: now.Format(TimeLayout)}

	switch mode {
	case ModeCelsius:
		f.Line2 = fmt.Sprintf("T:%.1fC H:%.1f%%", sample.Celsius, sample.Humidity)
	case ModeFahrenheit:
		f.Line2 = fmt.Sprintf("T:%.1fF H:%.1f%%", sample.Fahrenheit(), sample.Humidity)
	default:
		if step.ShowReading {
			f.Line2 = fmt.Sprintf("T:%.1fF", sample.Fahrenheit())
		} else {
			f.Line2 = fmt.Sprintf("%s:%dF", mode, setpoint)
		}
	}
	return f
}
