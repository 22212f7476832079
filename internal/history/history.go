// Package history stores telemetry records in InfluxDB.
// Writes go through a circuit breaker so an unreachable database costs one
// failed write per open period rather than one per record.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sony/gobreaker"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

// Measurement is the InfluxDB measurement name for telemetry points.
const Measurement = "thermostat"

// PointWriter writes a single point. influxdb2's api.WriteAPIBlocking satisfies it.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Config configures the breaker and write timeout.
type Config struct {
	Timeout      time.Duration // per-write timeout
	MaxFailures  uint32        // consecutive failures that open the breaker
	OpenDuration time.Duration // how long the breaker stays open
}

// DefaultConfig is used for zero fields.
var DefaultConfig = Config{
	Timeout:      5 * time.Second,
	MaxFailures:  3,
	OpenDuration: time.Minute,
}

// Writer publishes records as InfluxDB points.
type Writer struct {
	api     PointWriter
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	close   func()
}

// ErrOpen is returned while the breaker rejects writes.
var ErrOpen = gobreaker.ErrOpenState

// New wraps a point writer. closeFn, if non-nil, runs on Close.
func New(api PointWriter, cfg Config, closeFn func()) *Writer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig.Timeout
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = DefaultConfig.MaxFailures
	}
	if cfg.OpenDuration <= 0 {
		cfg.OpenDuration = DefaultConfig.OpenDuration
	}

	maxFailures := cfg.MaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "influxdb",
		Timeout: cfg.OpenDuration,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
	})

	return &Writer{api: api, cb: cb, timeout: cfg.Timeout, close: closeFn}
}

// Open connects to an InfluxDB v2 server.
func Open(url, token, org, bucket string, cfg Config) *Writer {
	client := influxdb2.NewClient(url, token)
	return New(client.WriteAPIBlocking(org, bucket), cfg, client.Close)
}

// NewPoint converts a record into a point.
func NewPoint(rec logic.Record) *write.Point {
	return influxdb2.NewPoint(
		Measurement,
		map[string]string{"mode": rec.Mode.String()},
		map[string]interface{}{
			"temperature_f": rec.Fahrenheit,
			"setpoint":      rec.Setpoint,
		},
		rec.Time,
	)
}

// Publish writes one record.
func (w *Writer) Publish(rec logic.Record) error {
	_, err := w.cb.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()
		return nil, w.api.WritePoint(ctx, NewPoint(rec))
	})
	if errors.Is(err, gobreaker.ErrOpenState) {
		return err
	}
	if err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

// State returns the breaker state ("closed", "half-open", "open").
func (w *Writer) State() string {
	return w.cb.State().String()
}

// Close releases the client.
func (w *Writer) Close() error {
	if w.close != nil {
		w.close()
	}
	return nil
}
