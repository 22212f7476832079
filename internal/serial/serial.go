// Package serial writes telemetry lines to a UART.
package serial

import (
	"fmt"
	"io"
	"time"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

// Port line settings. The receiving end expects 115200 8N1.
const (
	DefaultPort    = "/dev/ttyS0"
	DefaultBaud    = 115200
	DefaultTimeout = time.Second
)

// Writer emits telemetry records as text lines on a byte stream.
type Writer struct {
	w io.WriteCloser
}

// NewWriter wraps an open port.
func NewWriter(w io.WriteCloser) *Writer {
	return &Writer{w: w}
}

// FormatLine returns the wire form of a record: "<mode>,<tempF>,<setpoint>\n".
func FormatLine(rec logic.Record) []byte {
	return []byte(rec.Line() + "\n")
}

// Publish writes one record.
func (s *Writer) Publish(rec logic.Record) error {
	line := FormatLine(rec)
	n, err := s.w.Write(line)
	if err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	if n != len(line) {
		return fmt.Errorf("serial write: short write %d of %d bytes", n, len(line))
	}
	return nil
}

// Close closes the underlying port.
func (s *Writer) Close() error {
	return s.w.Close()
}
