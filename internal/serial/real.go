package serial

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Open opens the named port at baud, no parity, 8 data bits, one stop bit.
func Open(name string, baud int, timeout time.Duration) (*Writer, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}

	return NewWriter(port), nil
}
