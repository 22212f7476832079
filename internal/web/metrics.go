package web

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sweeney/pi-thermostat/internal/logic"
	"github.com/sweeney/pi-thermostat/internal/status"
)

const namespace = "thermostat"

// Collector exports tracker snapshots as Prometheus metrics.
// Values are read on scrape so the control loop never touches the registry.
type Collector struct {
	tracker *status.Tracker

	temperature *prometheus.Desc
	humidity    *prometheus.Desc
	setpoint    *prometheus.Desc
	mode        *prometheus.Desc
	led         *prometheus.Desc
	mqtt        *prometheus.Desc
	uptime      *prometheus.Desc
	events      *prometheus.Desc
}

// NewCollector creates a collector backed by tracker.
func NewCollector(tracker *status.Tracker) *Collector {
	return &Collector{
		tracker: tracker,
		temperature: prometheus.NewDesc(namespace+"_temperature_fahrenheit",
			"Last sensor temperature in degrees Fahrenheit.", nil, nil),
		humidity: prometheus.NewDesc(namespace+"_humidity_percent",
			"Last sensor relative humidity.", nil, nil),
		setpoint: prometheus.NewDesc(namespace+"_setpoint_fahrenheit",
			"Current setpoint in degrees Fahrenheit.", nil, nil),
		mode: prometheus.NewDesc(namespace+"_mode",
			"1 for the active mode, 0 otherwise.", []string{"mode"}, nil),
		led: prometheus.NewDesc(namespace+"_led_level",
			"LED level: 0 off, 1 on, 2 pulse.", []string{"led"}, nil),
		mqtt: prometheus.NewDesc(namespace+"_mqtt_connected",
			"1 if the MQTT client is connected.", nil, nil),
		uptime: prometheus.NewDesc(namespace+"_uptime_seconds",
			"Seconds since the daemon started.", nil, nil),
		events: prometheus.NewDesc(namespace+"_events_total",
			"Control loop activity by kind.", []string{"kind"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.temperature
	ch <- c.humidity
	ch <- c.setpoint
	ch <- c.mode
	ch <- c.led
	ch <- c.mqtt
	ch <- c.uptime
	ch <- c.events
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.tracker.Snapshot()

	if snap.HaveSample {
		ch <- prometheus.MustNewConstMetric(c.temperature, prometheus.GaugeValue, snap.Sample.Fahrenheit())
		ch <- prometheus.MustNewConstMetric(c.humidity, prometheus.GaugeValue, snap.Sample.Humidity)
	}
	if snap.Config.Variant != logic.VariantScale {
		ch <- prometheus.MustNewConstMetric(c.setpoint, prometheus.GaugeValue, float64(snap.Setpoint))
	}

	for _, m := range snap.Config.Variant.Modes() {
		ch <- prometheus.MustNewConstMetric(c.mode, prometheus.GaugeValue, boolValue(m == snap.Mode), m.String())
	}

	ch <- prometheus.MustNewConstMetric(c.led, prometheus.GaugeValue, float64(snap.Lights.Red), "red")
	ch <- prometheus.MustNewConstMetric(c.led, prometheus.GaugeValue, float64(snap.Lights.Blue), "blue")
	ch <- prometheus.MustNewConstMetric(c.mqtt, prometheus.GaugeValue, boolValue(snap.MQTTConnected))
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, snap.Uptime().Seconds())

	counts := map[string]int{
		"tick":         snap.Counts.Ticks,
		"command":      snap.Counts.Commands,
		"telemetry":    snap.Counts.Telemetry,
		"sensor_error": snap.Counts.SensorErrors,
		"sink_error":   snap.Counts.SinkErrors,
	}
	for kind, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.events, prometheus.CounterValue, float64(n), kind)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
