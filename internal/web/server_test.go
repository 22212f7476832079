package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sweeney/pi-thermostat/internal/logic"
	"github.com/sweeney/pi-thermostat/internal/status"
)

func newTestServer(t *testing.T, variant logic.Variant) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		Variant:     variant,
		TickMs:      1000,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		SerialPort:  "/dev/ttyS0",
		HTTPAddr:    ":8080",
	}
	tr := status.NewTracker(start, cfg)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func getBody(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, logic.VariantThermostat)
	tr.Update(logic.ModeCool, 70, logic.LightPlan{Blue: logic.LevelPulse}, logic.Counts{Ticks: 31, Commands: 2, Telemetry: 1})
	tr.SetSample(logic.Sample{Celsius: 25, Humidity: 50})
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if sj.Status.Mode != "Cool" {
		t.Errorf("Mode: got %q, want Cool", sj.Status.Mode)
	}
	if sj.Status.Setpoint == nil || *sj.Status.Setpoint != 70 {
		t.Errorf("Setpoint: got %v, want 70", sj.Status.Setpoint)
	}
	if sj.Status.Reading == nil || sj.Status.Reading.Fahrenheit != 77 {
		t.Errorf("Reading: got %+v", sj.Status.Reading)
	}
	if sj.Status.Lights.Blue != "PULSE" {
		t.Errorf("Lights.Blue: got %q, want PULSE", sj.Status.Lights.Blue)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if sj.Status.MQTT.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("MQTT.Broker: got %q", sj.Status.MQTT.Broker)
	}
	if sj.Status.Counts.Commands != 2 {
		t.Errorf("Counts.Commands: got %d, want 2", sj.Status.Counts.Commands)
	}
	if sj.Status.Config.TickMs != 1000 {
		t.Errorf("Config.TickMs: got %d, want 1000", sj.Status.Config.TickMs)
	}
}

func TestJSONBeforeFirstSample(t *testing.T) {
	ts, _ := newTestServer(t, logic.VariantThermostat)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	var sj status.StatusJSON
	json.NewDecoder(resp.Body).Decode(&sj)

	if sj.Status.Reading != nil {
		t.Errorf("expected no reading, got %+v", sj.Status.Reading)
	}
	if sj.Status.Mode != "Off" {
		t.Errorf("Mode: got %q, want Off", sj.Status.Mode)
	}
}

func TestHTMLEndpointRoot(t *testing.T) {
	ts, tr := newTestServer(t, logic.VariantThermostat)
	tr.Update(logic.ModeHeat, 72, logic.LightPlan{Red: logic.LevelOn}, logic.Counts{})
	tr.SetSample(logic.Sample{Celsius: 20, Humidity: 40})

	resp, body := getBody(t, ts.URL+"/")

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type: got %q, want text/html", ct)
	}
	for _, want := range []string{"Heat", "72F", "68.0F"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHTMLScaleHidesSetpoint(t *testing.T) {
	ts, _ := newTestServer(t, logic.VariantScale)

	_, body := getBody(t, ts.URL+"/index.html")
	if strings.Contains(body, `id="setpoint"`) {
		t.Error("scale page should not show a setpoint")
	}
	if !strings.Contains(body, "Celsius") {
		t.Error("scale page should show Celsius mode")
	}
}

func TestNotFoundForUnknownPath(t *testing.T) {
	ts, _ := newTestServer(t, logic.VariantThermostat)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts, tr := newTestServer(t, logic.VariantThermostat)
	tr.Update(logic.ModeHeat, 72, logic.LightPlan{Red: logic.LevelPulse}, logic.Counts{Ticks: 60, Telemetry: 2})
	tr.SetSample(logic.Sample{Celsius: 20, Humidity: 40})

	resp, body := getBody(t, ts.URL+"/metrics")
	if resp.StatusCode != 200 {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	for _, want := range []string{
		"thermostat_temperature_fahrenheit 68",
		"thermostat_setpoint_fahrenheit 72",
		`thermostat_mode{mode="Heat"} 1`,
		`thermostat_mode{mode="Off"} 0`,
		`thermostat_led_level{led="red"} 2`,
		`thermostat_events_total{kind="telemetry"} 2`,
		"thermostat_mqtt_connected 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestCollectorOmitsReadingBeforeSample(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{Variant: logic.VariantScale})
	c := NewCollector(tr)

	if n := testutil.CollectAndCount(c, "thermostat_temperature_fahrenheit"); n != 0 {
		t.Errorf("expected no temperature before first sample, got %d", n)
	}
	if n := testutil.CollectAndCount(c, "thermostat_setpoint_fahrenheit"); n != 0 {
		t.Errorf("scale variant should not export a setpoint, got %d", n)
	}
	if n := testutil.CollectAndCount(c, "thermostat_mode"); n != 2 {
		t.Errorf("expected 2 scale modes, got %d", n)
	}
}

func TestStateChangesReflectedInResponse(t *testing.T) {
	ts, tr := newTestServer(t, logic.VariantThermostat)

	resp1, _ := http.Get(ts.URL + "/index.json")
	var sj1 status.StatusJSON
	json.NewDecoder(resp1.Body).Decode(&sj1)
	resp1.Body.Close()
	if sj1.Status.MQTT.Connected {
		t.Error("expected MQTT disconnected initially")
	}

	tr.Update(logic.ModeHeat, 75, logic.LightPlan{}, logic.Counts{Commands: 4})
	tr.SetMQTTConnected(true)

	resp2, _ := http.Get(ts.URL + "/index.json")
	var sj2 status.StatusJSON
	json.NewDecoder(resp2.Body).Decode(&sj2)
	resp2.Body.Close()

	if sj2.Status.Mode != "Heat" {
		t.Errorf("Mode: got %q, want Heat", sj2.Status.Mode)
	}
	if sj2.Status.Setpoint == nil || *sj2.Status.Setpoint != 75 {
		t.Errorf("Setpoint: got %v, want 75", sj2.Status.Setpoint)
	}
	if !sj2.Status.MQTT.Connected {
		t.Error("expected MQTT connected after update")
	}
}
