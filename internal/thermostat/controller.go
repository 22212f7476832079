// Package thermostat ties the mode machine to the sensor, display, LEDs and
// telemetry sinks. A Controller is owned by a single goroutine.
package thermostat

import (
	"time"

	"github.com/sweeney/pi-thermostat/internal/gpio"
	"github.com/sweeney/pi-thermostat/internal/lcd"
	"github.com/sweeney/pi-thermostat/internal/logger"
	"github.com/sweeney/pi-thermostat/internal/logic"
	"github.com/sweeney/pi-thermostat/internal/sensor"
	"github.com/sweeney/pi-thermostat/internal/status"
)

// Sink receives telemetry records.
type Sink interface {
	Publish(rec logic.Record) error
}

// NamedSink labels a sink for logging.
type NamedSink struct {
	Name string
	Sink Sink
}

// Controller runs the display multiplexer and applies commands.
// It is not safe for concurrent use.
type Controller struct {
	machine *logic.Machine
	mux     *logic.Multiplexer
	sensor  sensor.Reader
	display lcd.Display
	lights  gpio.Lights
	sinks   []NamedSink
	tracker *status.Tracker
	log     *logger.Logger

	sample     logic.Sample
	haveSample bool

	plan    logic.LightPlan
	applied bool

	counts logic.Counts
}

// New creates a controller. tracker may be nil.
func New(machine *logic.Machine, r sensor.Reader, d lcd.Display, l gpio.Lights, sinks []NamedSink, tracker *status.Tracker, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		machine: machine,
		mux:     logic.NewMultiplexer(),
		sensor:  r,
		display: d,
		lights:  l,
		sinks:   sinks,
		tracker: tracker,
		log:     log,
	}
}

// Mode returns the current mode.
func (c *Controller) Mode() logic.Mode {
	return c.machine.Mode()
}

// Setpoint returns the current setpoint.
func (c *Controller) Setpoint() int {
	return c.machine.Setpoint()
}

// Counts returns the activity counters.
func (c *Controller) Counts() logic.Counts {
	return c.counts
}

// Lights returns the last plan applied to the LEDs.
func (c *Controller) Lights() logic.LightPlan {
	return c.plan
}

// Start applies the initial light plan so the LEDs match the starting mode.
func (c *Controller) Start(now time.Time) {
	c.read(now)
	c.refreshLights()
	c.publishState()
}

// Tick performs one display tick: read the sensor, update the display, and
// run the periodic light refresh and telemetry.
func (c *Controller) Tick(now time.Time) {
	c.counts.Ticks++
	step := c.mux.Next()

	var frame logic.Frame
	if c.read(now) {
		frame = logic.Compose(now, c.machine.Mode(), c.machine.Setpoint(), c.sample, step)
	} else {
		frame = logic.ErrorFrame(now)
	}
	if err := c.display.Show(frame); err != nil {
		c.log.Warnw("display update failed", "error", err)
	} else {
		c.log.Debugw("display", "position", step.Position, "line1", frame.Line1, "line2", frame.Line2)
	}

	if step.RefreshLights {
		c.refreshLights()
	}
	if step.EmitTelemetry {
		c.emit(now)
	}
	c.publishState()
}

// Handle applies a command. Mode and setpoint changes take effect on the
// LEDs immediately.
func (c *Controller) Handle(cmd logic.Command, now time.Time) {
	c.counts.Commands++

	prevMode, prevSetpoint := c.machine.Mode(), c.machine.Setpoint()
	if !c.machine.Apply(cmd) {
		c.log.Warnw("command ignored", "command", string(cmd), "variant", string(c.machine.Variant()), "setpoint", prevSetpoint)
		c.publishState()
		return
	}

	if mode := c.machine.Mode(); mode != prevMode {
		c.log.Infow("mode changed", "from", prevMode.String(), "to", mode.String())
	}
	if sp := c.machine.Setpoint(); sp != prevSetpoint {
		c.log.Infow("setpoint changed", "from", prevSetpoint, "to", sp)
	}

	c.read(now)
	c.refreshLights()
	c.publishState()
}

// Farewell shows the goodbye frame.
func (c *Controller) Farewell() error {
	return c.display.Show(logic.FarewellFrame)
}

// read takes a fresh sample. On failure the last good sample is kept and
// false is returned.
func (c *Controller) read(now time.Time) bool {
	s, err := c.sensor.Read()
	if err != nil {
		c.counts.SensorErrors++
		c.log.Warnw("sensor read failed", "error", err, "errors", c.counts.SensorErrors)
		return false
	}
	if s.Time.IsZero() {
		s.Time = now
	}
	c.sample = s
	c.haveSample = true
	if c.tracker != nil {
		c.tracker.SetSample(s)
	}
	return true
}

func (c *Controller) refreshLights() {
	var plan logic.LightPlan
	if c.haveSample {
		plan = c.machine.Lights(c.sample.Fahrenheit())
	}
	if c.applied && plan == c.plan {
		return
	}
	if err := c.lights.Set(plan); err != nil {
		c.log.Errorw("failed to set lights", "error", err)
		return
	}
	c.plan = plan
	c.applied = true
	c.log.Debugw("lights", "red", plan.Red.String(), "blue", plan.Blue.String())
}

func (c *Controller) emit(now time.Time) {
	if c.machine.Variant() != logic.VariantThermostat {
		return
	}
	if !c.haveSample {
		c.log.Warn("no sample yet, skipping telemetry")
		return
	}

	rec := c.machine.Record(now, c.sample.Fahrenheit())
	c.counts.Telemetry++
	c.log.Debugw("telemetry", "line", rec.Line(), "count", c.counts.Telemetry)

	for _, s := range c.sinks {
		if err := s.Sink.Publish(rec); err != nil {
			c.counts.SinkErrors++
			c.log.Warnw("telemetry sink failed", "sink", s.Name, "error", err)
		}
	}
}

func (c *Controller) publishState() {
	if c.tracker == nil {
		return
	}
	c.tracker.Update(c.machine.Mode(), c.machine.Setpoint(), c.plan, c.counts)
}
