package lcd

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// releasePins drives every pin low so the panel is left dark. It keeps
// going past failures and reports them together.
func releasePins(pins []gpio.PinIO) error {
	var errs []error
	for _, pin := range pins {
		if err := pin.Out(gpio.Low); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", pin, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("release errors: %v", errs)
	}
	return nil
}
