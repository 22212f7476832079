//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

// RealLights is not available on non-Linux platforms.
type RealLights struct{}

// NewRealLights returns an error on non-Linux platforms.
func NewRealLights(chip string, pinRed, pinBlue int) (*RealLights, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (r *RealLights) Set(plan logic.LightPlan) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealLights) Close() error {
	return nil
}

// RealButtons is not available on non-Linux platforms.
type RealButtons struct{}

// NewRealButtons returns an error on non-Linux platforms.
func NewRealButtons(chip string, bindings []Binding, debounce time.Duration, handler func(logic.Command)) (*RealButtons, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Close is not implemented on non-Linux platforms.
func (b *RealButtons) Close() error {
	return nil
}
