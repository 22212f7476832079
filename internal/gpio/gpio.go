// Package gpio drives the indicator LEDs and watches the push buttons.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"time"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

// Lights drives the red (heat) and blue (cool) indicator LEDs.
type Lights interface {
	// Set applies the plan to both LEDs.
	Set(plan logic.LightPlan) error

	// Close turns both LEDs off and releases their lines.
	Close() error
}

// Buttons delivers presses until closed.
type Buttons interface {
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinRed   = 18
	DefaultPinBlue  = 23
	DefaultPinCycle = 24
	DefaultPinUp    = 25
	DefaultPinDown  = 12
)

// DefaultChip is the GPIO character device on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// ButtonPins holds the BCM pins of the three buttons.
type ButtonPins struct {
	Cycle int
	Up    int
	Down  int
}

// Binding maps a button pin to the command it sends.
type Binding struct {
	Pin     int
	Command logic.Command
}

// Bindings returns the buttons wired for a variant.
// The scale variant only uses the cycle button.
func Bindings(variant logic.Variant, pins ButtonPins) []Binding {
	b := []Binding{{Pin: pins.Cycle, Command: logic.CommandCycle}}
	if variant == logic.VariantThermostat {
		b = append(b,
			Binding{Pin: pins.Up, Command: logic.CommandUp},
			Binding{Pin: pins.Down, Command: logic.CommandDown},
		)
	}
	return b
}

// Pulse timing for software PWM.
const (
	PulsePeriod = 10 * time.Millisecond // PWM period (100 Hz)
	PulseFade   = time.Second           // fade in, then fade out, each this long
)

// PulseDuty returns the pulse brightness (0..1) at elapsed time into a
// pulse: a triangle wave rising over fade and falling over fade.
func PulseDuty(elapsed, fade time.Duration) float64 {
	if fade <= 0 {
		return 1
	}
	phase := elapsed % (2 * fade)
	b := float64(phase) / float64(fade)
	if b > 1 {
		b = 2 - b
	}
	return b
}
