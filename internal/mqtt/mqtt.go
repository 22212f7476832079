// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "home/thermostat"

// Topics holds the topics the daemon uses under a prefix.
type Topics struct {
	Telemetry string // telemetry records
	System    string // lifecycle events (retained)
	Command   string // inbound commands
}

// NewTopics derives the topic set from prefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{
		Telemetry: prefix + "/telemetry",
		System:    prefix + "/system",
		Command:   prefix + "/command",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a telemetry record to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(rec logic.Record) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT telemetry payload structure.
type Payload struct {
	Thermostat TelemetryPayload `json:"thermostat"`
}

// TelemetryPayload contains one telemetry record.
type TelemetryPayload struct {
	Timestamp    string  `json:"timestamp"`
	Mode         string  `json:"mode"`
	TemperatureF float64 `json:"temperature_f"`
	Setpoint     int     `json:"setpoint"`
}

// FormatPayload creates the JSON payload for a telemetry record.
// The temperature is rounded to one decimal, matching the serial line.
func FormatPayload(rec logic.Record) ([]byte, error) {
	payload := Payload{
		Thermostat: TelemetryPayload{
			Timestamp:    rec.Time.UTC().Format(time.RFC3339),
			Mode:         rec.Mode.String(),
			TemperatureF: math.Round(rec.Fahrenheit*10) / 10,
			Setpoint:     rec.Setpoint,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// ParseCommand decodes an inbound command payload. Surrounding
// whitespace is ignored.
func ParseCommand(payload []byte) (logic.Command, error) {
	return logic.ParseCommand(strings.TrimSpace(string(payload)))
}

// Disabled is the Publisher used when no broker is configured.
type Disabled struct{}

func (Disabled) Publish(logic.Record) error      { return nil }
func (Disabled) PublishSystem(SystemEvent) error { return nil }
func (Disabled) Close() error                    { return nil }
func (Disabled) IsConnected() bool               { return false }
