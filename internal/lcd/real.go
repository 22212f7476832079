//go:build linux

package lcd

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/hd44780"
	"periph.io/x/host/v3"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

// RealDisplay is an HD44780 character LCD.
type RealDisplay struct {
	dev  *hd44780.Dev
	pins []gpio.PinIO
}

// NewRealDisplay initializes the display on the given pins and clears it.
func NewRealDisplay(p Pins) (*RealDisplay, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}

	lookup := func(n int) (gpio.PinIO, error) {
		pin := gpioreg.ByName(fmt.Sprintf("GPIO%d", n))
		if pin == nil {
			return nil, fmt.Errorf("no such pin GPIO%d", n)
		}
		return pin, nil
	}

	var pins []gpio.PinIO
	for _, n := range []int{p.D4, p.D5, p.D6, p.D7, p.RS, p.E} {
		pin, err := lookup(n)
		if err != nil {
			releasePins(pins)
			return nil, err
		}
		pins = append(pins, pin)
	}

	data := []gpio.PinOut{pins[0], pins[1], pins[2], pins[3]}
	dev, err := hd44780.New(data, pins[4], pins[5])
	if err != nil {
		releasePins(pins)
		return nil, fmt.Errorf("init hd44780: %w", err)
	}

	d := &RealDisplay{dev: dev, pins: pins}
	if err := d.Clear(); err != nil {
		if rerr := releasePins(pins); rerr != nil {
			return nil, fmt.Errorf("%w; %v", err, rerr)
		}
		return nil, err
	}
	return d, nil
}

// Show writes both lines, padded to the display width.
func (d *RealDisplay) Show(frame logic.Frame) error {
	for row, line := range []string{frame.Line1, frame.Line2} {
		if err := d.dev.SetCursor(uint8(row), 0); err != nil {
			return fmt.Errorf("set cursor row %d: %w", row, err)
		}
		if err := d.dev.Print(logic.Fit(line)); err != nil {
			return fmt.Errorf("print row %d: %w", row, err)
		}
	}
	return nil
}

// Clear blanks the display.
func (d *RealDisplay) Clear() error {
	if err := d.dev.Halt(); err != nil {
		return fmt.Errorf("clear display: %w", err)
	}
	return nil
}

// Close clears the display and drives its pins low.
func (d *RealDisplay) Close() error {
	var errs []error
	if err := d.Clear(); err != nil {
		errs = append(errs, err)
	}
	if err := releasePins(d.pins); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
