//go:build linux

package sensor

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/sht4x"
	"periph.io/x/host/v3"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

// RealReader reads an SHT4x on an I2C bus.
type RealReader struct {
	bus i2c.BusCloser
	dev *sht4x.Dev
	now func() time.Time
}

// NewRealReader opens the named I2C bus ("" for the first one) and binds
// the sensor at addr.
func NewRealReader(busName string, addr uint16) (*RealReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	dev, err := sht4x.New(bus, i2c.Addr(addr))
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("bind sht4x at %#x: %w", addr, err)
	}

	return &RealReader{bus: bus, dev: dev, now: time.Now}, nil
}

// Read takes a high-precision measurement.
func (r *RealReader) Read() (logic.Sample, error) {
	var env physic.Env
	if err := r.dev.Sense(&env); err != nil {
		return logic.Sample{}, fmt.Errorf("sense: %w", err)
	}
	return logic.Sample{
		Celsius:  env.Temperature.Celsius(),
		Humidity: float64(env.Humidity) / float64(physic.PercentRH),
		Time:     r.now(),
	}, nil
}

// Close halts the sensor and releases the bus.
func (r *RealReader) Close() error {
	var errs []error
	if r.dev != nil {
		if err := r.dev.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt sht4x: %w", err))
		}
	}
	if r.bus != nil {
		if err := r.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close i2c bus: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
