package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/pi-thermostat/internal/logic"
	"github.com/sweeney/pi-thermostat/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"levelClass": func(l logic.Level) string {
		switch l {
		case logic.LevelOn:
			return "on"
		case logic.LevelPulse:
			return "pulse"
		}
		return "off"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>Thermostat</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.pulse { color: orange; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Thermostat ({{.Config.Variant}})</h1>

<h2>State</h2>
<table>
<tr><th>Mode</th><td id="mode">{{.Mode}}</td></tr>
{{if .HasSetpoint}}<tr><th>Setpoint</th><td id="setpoint">{{.Setpoint}}F</td></tr>{{end}}
{{if .HaveSample}}<tr><th>Temperature</th><td id="temperature">{{printf "%.1f" .Sample.Fahrenheit}}F ({{printf "%.1f" .Sample.Celsius}}C)</td></tr>
<tr><th>Humidity</th><td>{{printf "%.1f" .Sample.Humidity}}%</td></tr>{{else}}<tr><th>Temperature</th><td id="temperature">no reading</td></tr>{{end}}
<tr><th>Red LED</th><td class="{{levelClass .Lights.Red}}">{{.Lights.Red}}</td></tr>
<tr><th>Blue LED</th><td class="{{levelClass .Lights.Blue}}">{{.Lights.Blue}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
<tr><th>Serial</th><td>{{if .Config.SerialPort}}{{.Config.SerialPort}}{{else}}disabled{{end}}</td></tr>
<tr><th>History</th><td>{{if .Config.History}}enabled{{else}}disabled{{end}}</td></tr>
</table>

<h2>Activity</h2>
<table>
<tr><th>Ticks</th><td>{{.Counts.Ticks}}</td></tr>
<tr><th>Commands</th><td>{{.Counts.Commands}}</td></tr>
<tr><th>Telemetry</th><td>{{.Counts.Telemetry}}</td></tr>
<tr><th>Sensor errors</th><td>{{.Counts.SensorErrors}}</td></tr>
<tr><th>Sink errors</th><td>{{.Counts.SinkErrors}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime      time.Duration
		HasSetpoint bool
	}{
		Snapshot:    snap,
		Uptime:      snap.Uptime(),
		HasSetpoint: snap.Config.Variant != logic.VariantScale,
	}
	indexTmpl.Execute(w, data)
}
