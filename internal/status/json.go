package status

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Variant       string       `json:"variant"`
	Mode          string       `json:"mode"`
	Setpoint      *int         `json:"setpoint,omitempty"`
	Reading       *ReadingJSON `json:"reading,omitempty"`
	Lights        LightsJSON   `json:"lights"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"counts"`
	Config        ConfigJSON   `json:"config"`
}

// ReadingJSON is the latest sensor reading.
type ReadingJSON struct {
	Celsius    float64 `json:"celsius"`
	Fahrenheit float64 `json:"fahrenheit"`
	Humidity   float64 `json:"humidity"`
	Timestamp  string  `json:"timestamp"`
}

// LightsJSON reports LED levels.
type LightsJSON struct {
	Red  string `json:"red"`
	Blue string `json:"blue"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	Ticks        int `json:"ticks"`
	Commands     int `json:"commands"`
	Telemetry    int `json:"telemetry"`
	SensorErrors int `json:"sensor_errors"`
	SinkErrors   int `json:"sink_errors"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker,omitempty"`
	SerialPort  string `json:"serial_port,omitempty"`
	HTTPAddr    string `json:"http_addr"`
	History     bool   `json:"history"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Variant:       string(snap.Config.Variant),
		Mode:          snap.Mode.String(),
		Lights:        LightsJSON{Red: snap.Lights.Red.String(), Blue: snap.Lights.Blue.String()},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Ticks:        snap.Counts.Ticks,
			Commands:     snap.Counts.Commands,
			Telemetry:    snap.Counts.Telemetry,
			SensorErrors: snap.Counts.SensorErrors,
			SinkErrors:   snap.Counts.SinkErrors,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			SerialPort:  snap.Config.SerialPort,
			HTTPAddr:    snap.Config.HTTPAddr,
			History:     snap.Config.History,
		},
	}
	if snap.Config.Variant != logic.VariantScale {
		sp := snap.Setpoint
		inner.Setpoint = &sp
	}
	if snap.HaveSample {
		inner.Reading = &ReadingJSON{
			Celsius:    round1(snap.Sample.Celsius),
			Fahrenheit: round1(snap.Sample.Fahrenheit()),
			Humidity:   round1(snap.Sample.Humidity),
			Timestamp:  snap.Sample.Time.UTC().Format(time.RFC3339),
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
