package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Variant: logic.VariantThermostat, TickMs: 1000, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.TickMs != 1000 {
		t.Errorf("Config.TickMs: got %d, want 1000", snap.Config.TickMs)
	}
	if snap.Mode != logic.ModeOff {
		t.Errorf("Mode: got %s, want Off", snap.Mode)
	}
	if snap.HaveSample {
		t.Error("expected HaveSample=false initially")
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestNewTrackerScaleStartsInCelsius(t *testing.T) {
	tr := NewTracker(time.Now(), Config{Variant: logic.VariantScale})
	if got := tr.Snapshot().Mode; got != logic.ModeCelsius {
		t.Errorf("Mode: got %s, want Celsius", got)
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{Variant: logic.VariantThermostat})

	lights := logic.LightPlan{Red: logic.LevelPulse}
	tr.Update(logic.ModeHeat, 74, lights, logic.Counts{Ticks: 30, Telemetry: 1})

	snap := tr.Snapshot()
	if snap.Mode != logic.ModeHeat {
		t.Errorf("Mode: got %s, want Heat", snap.Mode)
	}
	if snap.Setpoint != 74 {
		t.Errorf("Setpoint: got %d, want 74", snap.Setpoint)
	}
	if snap.Lights != lights {
		t.Errorf("Lights: got %+v", snap.Lights)
	}
	if snap.Counts.Ticks != 30 || snap.Counts.Telemetry != 1 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
}

func TestSetSample(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	s := logic.Sample{Celsius: 21.5, Humidity: 40}
	tr.SetSample(s)

	snap := tr.Snapshot()
	if !snap.HaveSample {
		t.Fatal("expected HaveSample=true")
	}
	if snap.Sample != s {
		t.Errorf("Sample: got %+v", snap.Sample)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{})
	tr.now = func() time.Time { return start.Add(90 * time.Second) }

	if got := tr.Snapshot().Uptime(); got != 90*time.Second {
		t.Errorf("Uptime: got %v, want 90s", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func(n int) {
			defer wg.Done()
			tr.Update(logic.ModeCool, n, logic.LightPlan{}, logic.Counts{Ticks: n})
		}(i)
		go func() {
			defer wg.Done()
			tr.SetMQTTConnected(true)
		}()
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{Variant: logic.VariantThermostat, TickMs: 1000, HeartbeatMs: 900000, Broker: "tcp://b:1883", HTTPAddr: ":8080"})
	tr.now = func() time.Time { return start.Add(time.Minute) }
	tr.Update(logic.ModeHeat, 72, logic.LightPlan{Red: logic.LevelPulse}, logic.Counts{Ticks: 60, Telemetry: 2})
	tr.SetSample(logic.Sample{Celsius: 20, Humidity: 41.26, Time: start})

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &sj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	s := sj.Status
	if s.Event != "" || s.Reason != "" {
		t.Errorf("web JSON should not carry event fields, got %q/%q", s.Event, s.Reason)
	}
	if s.Variant != "thermostat" || s.Mode != "Heat" {
		t.Errorf("variant/mode: got %q/%q", s.Variant, s.Mode)
	}
	if s.Setpoint == nil || *s.Setpoint != 72 {
		t.Errorf("Setpoint: got %v", s.Setpoint)
	}
	if s.Reading == nil {
		t.Fatal("expected reading")
	}
	if s.Reading.Fahrenheit != 68 || s.Reading.Humidity != 41.3 {
		t.Errorf("Reading: got %+v", *s.Reading)
	}
	if s.Lights.Red != "PULSE" || s.Lights.Blue != "OFF" {
		t.Errorf("Lights: got %+v", s.Lights)
	}
	if s.UptimeSeconds != 60 {
		t.Errorf("UptimeSeconds: got %d, want 60", s.UptimeSeconds)
	}
	if s.Counts.Telemetry != 2 {
		t.Errorf("Counts.Telemetry: got %d", s.Counts.Telemetry)
	}
}

func TestFormatJSONScaleOmitsSetpoint(t *testing.T) {
	tr := NewTracker(time.Now(), Config{Variant: logic.VariantScale})

	var sj StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &sj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sj.Status.Setpoint != nil {
		t.Errorf("scale variant should omit setpoint, got %d", *sj.Status.Setpoint)
	}
	if sj.Status.Reading != nil {
		t.Error("expected no reading before first sample")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(time.Now(), Config{Variant: logic.VariantThermostat})

	var sj StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &sj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGTERM" {
		t.Errorf("event: got %q/%q", sj.Status.Event, sj.Status.Reason)
	}
}
