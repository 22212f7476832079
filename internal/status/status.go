// Package status provides a thread-safe status tracker for the thermostat daemon.
// The control loop writes it; HTTP handlers, the metrics collector and MQTT
// lifecycle events read snapshots.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Variant     logic.Variant
	TickMs      int64
	HeartbeatMs int64
	Broker      string
	SerialPort  string
	HTTPAddr    string
	History     bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Mode          logic.Mode
	Setpoint      int
	Sample        logic.Sample
	HaveSample    bool
	Lights        logic.LightPlan
	Counts        logic.Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Mode:      cfg.Variant.InitialMode(),
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update sets the controller state. Called from the control loop after
// every tick and command.
func (t *Tracker) Update(mode logic.Mode, setpoint int, lights logic.LightPlan, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Mode = mode
	t.snap.Setpoint = setpoint
	t.snap.Lights = lights
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetSample records the latest good sensor reading.
func (t *Tracker) SetSample(s logic.Sample) {
	t.mu.Lock()
	t.snap.Sample = s
	t.snap.HaveSample = true
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
