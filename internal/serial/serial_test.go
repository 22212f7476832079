package serial

import (
	"errors"
	"testing"
	"time"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

func TestFormatLine(t *testing.T) {
	rec := logic.Record{Mode: logic.ModeHeat, Fahrenheit: 68.4, Setpoint: 72}

	got := string(FormatLine(rec))
	if got != "Heat,68.4,72\n" {
		t.Errorf("got %q, want %q", got, "Heat,68.4,72\n")
	}
}

func TestWriterPublish(t *testing.T) {
	port := NewFakePort()
	w := NewWriter(port)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	recs := []logic.Record{
		{Time: now, Mode: logic.ModeOff, Fahrenheit: 70.04, Setpoint: 72},
		{Time: now, Mode: logic.ModeCool, Fahrenheit: 80.26, Setpoint: 75},
	}
	for _, r := range recs {
		if err := w.Publish(r); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	want := []string{"Off,70.0,72", "Cool,80.3,75"}
	got := port.Lines()
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWriterPublishError(t *testing.T) {
	port := NewFakePort()
	port.WriteError = errors.New("device gone")
	w := NewWriter(port)

	err := w.Publish(logic.Record{Mode: logic.ModeHeat})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, port.WriteError) {
		t.Errorf("expected wrapped device error, got %v", err)
	}
}

func TestWriterClose(t *testing.T) {
	port := NewFakePort()
	w := NewWriter(port)

	if err := w.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !port.Closed {
		t.Error("port should be closed")
	}
}

func TestFakePortNoLines(t *testing.T) {
	if got := NewFakePort().Lines(); got != nil {
		t.Errorf("expected no lines, got %v", got)
	}
}
