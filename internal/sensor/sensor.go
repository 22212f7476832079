// Package sensor reads temperature and relative humidity from an SHT4x sensor.
// The real implementation uses periph.io over the Linux I2C bus.
// The fake implementation allows testing without hardware.
package sensor

import "github.com/sweeney/pi-thermostat/internal/logic"

// Reader reads temperature and humidity samples.
type Reader interface {
	// Read returns a fresh sample. Samples are never cached.
	Read() (logic.Sample, error)

	// Close releases the bus.
	Close() error
}

// Defaults for the Raspberry Pi wiring.
const (
	DefaultBus     = "" // first available I2C bus
	DefaultAddress = 0x44
)
