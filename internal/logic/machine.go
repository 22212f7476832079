package logic

import "time"

// DefaultSetpoint is the setpoint (degrees F) a new Machine starts with.
const DefaultSetpoint = 72

// Limits optionally bounds the setpoint. The clamp applies only when both
// Min and Max are non-zero; otherwise the setpoint is unbounded.
type Limits struct {
	Min int
	Max int
}

// Bounded reports whether the limits clamp the setpoint.
func (l Limits) Bounded() bool {
	return l.Min != 0 && l.Max != 0
}

// Machine holds the current mode and setpoint.
// It is not safe for concurrent use; a single goroutine owns it.
type Machine struct {
	variant  Variant
	mode     Mode
	setpoint int
	limits   Limits
}

// NewMachine creates a machine in the variant's initial mode.
func NewMachine(variant Variant, setpoint int, limits Limits) *Machine {
	return &Machine{
		variant:  variant,
		mode:     variant.InitialMode(),
		setpoint: setpoint,
		limits:   limits,
	}
}

// Variant returns the machine's variant.
func (m *Machine) Variant() Variant {
	return m.variant
}

// Mode returns the current mode.
func (m *Machine) Mode() Mode {
	return m.mode
}

// Setpoint returns the current setpoint.
func (m *Machine) Setpoint() int {
	return m.setpoint
}

// Cycle advances to the next mode and returns it.
func (m *Machine) Cycle() Mode {
	m.mode = m.mode.Next()
	return m.mode
}

// Increment raises the setpoint by one and returns it.
// Returns false if the variant has no setpoint or the upper limit is reached.
func (m *Machine) Increment() (int, bool) {
	if m.variant != VariantThermostat {
		return m.setpoint, false
	}
	if m.limits.Bounded() && m.setpoint >= m.limits.Max {
		return m.setpoint, false
	}
	m.setpoint++
	return m.setpoint, true
}

// Decrement lowers the setpoint by one and returns it.
// Returns false if the variant has no setpoint or the lower limit is reached.
func (m *Machine) Decrement() (int, bool) {
	if m.variant != VariantThermostat {
		return m.setpoint, false
	}
	if m.limits.Bounded() && m.setpoint <= m.limits.Min {
		return m.setpoint, false
	}
	m.setpoint--
	return m.setpoint, true
}

// Apply executes a command. It reports whether the mode or setpoint changed.
func (m *Machine) Apply(cmd Command) bool {
	switch cmd {
	case CommandCycle:
		m.Cycle()
		return true
	case CommandUp:
		_, ok := m.Increment()
		return ok
	case CommandDown:
		_, ok := m.Decrement()
		return ok
	}
	return false
}

// Lights returns the LED plan for the current mode and setpoint at tempF.
func (m *Machine) Lights(tempF float64) LightPlan {
	return PlanLights(m.mode, m.setpoint, tempF)
}

// Record builds a telemetry record for the current state.
func (m *Machine) Record(now time.Time, tempF float64) Record {
	return Record{
		Time:       now,
		Mode:       m.mode,
		Fahrenheit: tempF,
		Setpoint:   m.setpoint,
	}
}

// Heartbeat tracks uptime and decides when a heartbeat is due.
type Heartbeat struct {
	startTime time.Time
	last      time.Time
}

// NewHeartbeat creates a heartbeat clock starting at startTime.
func NewHeartbeat(startTime time.Time) *Heartbeat {
	return &Heartbeat{startTime: startTime, last: startTime}
}

// Check returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not
// elapsed, or if interval is <= 0 (disabled).
func (h *Heartbeat) Check(now time.Time, interval time.Duration, counts Counts) *HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(h.last) < interval {
		return nil
	}
	h.last = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(h.startTime),
		Counts:    counts,
	}
}
