package thermostat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/sweeney/pi-thermostat/internal/gpio"
	"github.com/sweeney/pi-thermostat/internal/history"
	"github.com/sweeney/pi-thermostat/internal/lcd"
	"github.com/sweeney/pi-thermostat/internal/logic"
	"github.com/sweeney/pi-thermostat/internal/sensor"
	"github.com/sweeney/pi-thermostat/internal/serial"
)

// gateSink blocks every Publish until release is closed.
type gateSink struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once

	mu  sync.Mutex
	got []logic.Record
}

func newGateSink() *gateSink {
	return &gateSink{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gateSink) Publish(rec logic.Record) error {
	g.once.Do(func() { close(g.started) })
	<-g.release
	g.mu.Lock()
	defer g.mu.Unlock()
	g.got = append(g.got, rec)
	return nil
}

func (g *gateSink) records() []logic.Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]logic.Record(nil), g.got...)
}

// stalledAPI never completes a write before its context expires.
type stalledAPI struct{}

func (stalledAPI) WritePoint(ctx context.Context, _ ...*write.Point) error {
	<-ctx.Done()
	return ctx.Err()
}

func newHeatController(sinks []NamedSink) *Controller {
	machine := logic.NewMachine(logic.VariantThermostat, logic.DefaultSetpoint, logic.Limits{})
	ctrl := New(machine, sensor.NewFakeReader(sensor.Celsius(20)), lcd.NewFakeDisplay(), gpio.NewFakeLights(), sinks, nil, nil)
	ctrl.Handle(logic.CommandCycle, t0)
	return ctrl
}

func TestSlowHistoryDoesNotDelayTicks(t *testing.T) {
	hist := history.New(stalledAPI{}, history.Config{Timeout: time.Second, MaxFailures: 3, OpenDuration: time.Minute}, nil)
	async := NewAsyncSink("history", hist, 4, nil)
	port := serial.NewFakePort()
	ctrl := newHeatController([]NamedSink{
		{Name: "serial", Sink: serial.NewWriter(port)},
		{Name: "history", Sink: async},
	})

	start := time.Now()
	for i := 1; i <= 90; i++ {
		ctrl.Tick(t0.Add(time.Duration(i) * time.Second))
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("90 ticks took %v behind a stalled database", elapsed)
	}
	if lines := port.Lines(); len(lines) != 3 {
		t.Errorf("serial should stay inline, got %d lines", len(lines))
	}

	if err := async.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := async.Failures(); got != 3 {
		t.Errorf("expected 3 timed out writes, got %d", got)
	}
}

func TestAsyncSinkDropsWhenFull(t *testing.T) {
	gate := newGateSink()
	async := NewAsyncSink("mqtt", gate, 1, nil)
	ctrl := newHeatController([]NamedSink{{Name: "mqtt", Sink: async}})

	tick := 0
	run := func(n int) {
		for i := 0; i < n; i++ {
			tick++
			ctrl.Tick(t0.Add(time.Duration(tick) * time.Second))
		}
	}

	run(30)
	select {
	case <-gate.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first record")
	}
	run(60) // second record fills the queue, third is dropped

	if got := ctrl.Counts().SinkErrors; got != 1 {
		t.Errorf("expected 1 dropped record, got %d", got)
	}
	if got := ctrl.Counts().Telemetry; got != 3 {
		t.Errorf("expected 3 telemetry records, got %d", got)
	}

	close(gate.release)
	if err := async.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := len(gate.records()); got != 2 {
		t.Errorf("expected 2 delivered records, got %d", got)
	}
}

func TestAsyncSinkPublishReportsBusy(t *testing.T) {
	gate := newGateSink()
	async := NewAsyncSink("mqtt", gate, 1, nil)
	rec := logic.Record{Mode: logic.ModeHeat, Fahrenheit: 68, Setpoint: 72}

	if err := async.Publish(rec); err != nil {
		t.Fatalf("first Publish: %v", err)
	}
	<-gate.started
	if err := async.Publish(rec); err != nil {
		t.Fatalf("second Publish should queue: %v", err)
	}
	if err := async.Publish(rec); !errors.Is(err, ErrSinkBusy) {
		t.Errorf("expected ErrSinkBusy, got %v", err)
	}

	close(gate.release)
	if err := async.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestAsyncSinkCountsFailures(t *testing.T) {
	hist := history.NewFakeHistory()
	hist.PublishError = errors.New("bucket not found")
	async := NewAsyncSink("history", hist, 4, nil)

	for i := 0; i < 3; i++ {
		if err := async.Publish(logic.Record{Mode: logic.ModeCool}); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if err := async.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := async.Failures(); got != 3 {
		t.Errorf("expected 3 failures, got %d", got)
	}
}

func TestAsyncSinkCloseGivesUpOnStuckSink(t *testing.T) {
	gate := newGateSink()
	async := NewAsyncSink("mqtt", gate, 2, nil)
	async.drain = 50 * time.Millisecond

	async.Publish(logic.Record{Mode: logic.ModeHeat})
	async.Publish(logic.Record{Mode: logic.ModeHeat})

	if err := async.Close(); err == nil {
		t.Error("expected error when the sink never returns")
	}
	close(gate.release)
	if err := async.Close(); err != nil {
		t.Errorf("second Close after release: %v", err)
	}
}
