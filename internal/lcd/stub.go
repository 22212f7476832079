//go:build !linux

package lcd

import (
	"errors"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

// RealDisplay is not available on non-Linux platforms.
type RealDisplay struct{}

// NewRealDisplay returns an error on non-Linux platforms.
func NewRealDisplay(p Pins) (*RealDisplay, error) {
	return nil, errors.New("lcd: not supported on this platform (requires Linux)")
}

func (d *RealDisplay) Show(frame logic.Frame) error { return errors.New("lcd: not supported") }
func (d *RealDisplay) Clear() error                  { return nil }
func (d *RealDisplay) Close() error                  { return nil }
