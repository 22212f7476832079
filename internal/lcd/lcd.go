// Package lcd drives the 16x2 character display.
// The real implementation uses an HD44780 in 4-bit mode over GPIO via periph.io.
package lcd

import "github.com/sweeney/pi-thermostat/internal/logic"

// Display shows two lines of text.
type Display interface {
	// Show replaces the display content with the frame.
	// Lines longer than the display are truncated.
	Show(frame logic.Frame) error

	// Clear blanks the display.
	Clear() error

	// Close clears the display and releases its pins.
	Close() error
}

// Pins holds the BCM pin numbers the display is wired to.
type Pins struct {
	RS int
	E  int
	D4 int
	D5 int
	D6 int
	D7 int
}

// DefaultPins matches the wiring of the thermostat board.
var DefaultPins = Pins{RS: 17, E: 27, D4: 5, D5: 6, D6: 13, D7: 26}
