// Command thermostat runs the Raspberry Pi thermostat: it shows the SHT4x
// reading on the LCD, drives the heat/cool LEDs, reacts to buttons and MQTT
// commands, and emits telemetry over serial, MQTT and InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sweeney/pi-thermostat/internal/config"
	"github.com/sweeney/pi-thermostat/internal/gpio"
	"github.com/sweeney/pi-thermostat/internal/history"
	"github.com/sweeney/pi-thermostat/internal/lcd"
	"github.com/sweeney/pi-thermostat/internal/logger"
	"github.com/sweeney/pi-thermostat/internal/logic"
	"github.com/sweeney/pi-thermostat/internal/mqtt"
	"github.com/sweeney/pi-thermostat/internal/sensor"
	"github.com/sweeney/pi-thermostat/internal/serial"
	"github.com/sweeney/pi-thermostat/internal/status"
	"github.com/sweeney/pi-thermostat/internal/thermostat"
	"github.com/sweeney/pi-thermostat/internal/web"
)

// commandBuffer is the number of pending button/MQTT commands.
const commandBuffer = 16

// sinkBuffer is the number of telemetry records queued per network sink.
const sinkBuffer = 8

// devices opens the hardware run needs.
type devices struct {
	sensor  func(bus string, addr uint16) (sensor.Reader, error)
	display func(pins lcd.Pins) (lcd.Display, error)
	lights  func(chip string, red, blue int) (gpio.Lights, error)
	buttons func(chip string, bindings []gpio.Binding, debounce time.Duration, handler func(logic.Command)) (io.Closer, error)
	serial  func(name string, baud int, timeout time.Duration) (*serial.Writer, error)
}

// realDevices returns the Raspberry Pi hardware.
func realDevices() devices {
	return devices{
		sensor: func(bus string, addr uint16) (sensor.Reader, error) {
			return sensor.NewRealReader(bus, addr)
		},
		display: func(pins lcd.Pins) (lcd.Display, error) {
			return lcd.NewRealDisplay(pins)
		},
		lights: func(chip string, red, blue int) (gpio.Lights, error) {
			return gpio.NewRealLights(chip, red, blue)
		},
		buttons: func(chip string, bindings []gpio.Binding, debounce time.Duration, handler func(logic.Command)) (io.Closer, error) {
			return gpio.NewRealButtons(chip, bindings, debounce, handler)
		},
		serial: serial.Open,
	}
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n\n%s", err, config.Usage())
		os.Exit(2)
	}

	level := logger.InfoLevel
	if cfg.Debug {
		level = logger.DebugLevel
	}
	log := logger.New(level)
	defer log.Sync()

	// Signals are caught before any hardware is acquired so every deferred
	// release runs. ctx ends the MQTT connect; sigCh ends the loop.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(ctx, cfg, log, realDevices(), sigCh); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, dev devices, sigCh <-chan os.Signal) error {
	variant := cfg.VariantValue()

	// Initialize sensor
	reader, err := dev.sensor(cfg.I2C.Bus, cfg.I2C.Address)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer reader.Close()

	// Print state mode
	if cfg.PrintState {
		s, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read sensor: %w", err)
		}
		fmt.Println(formatState(s))
		return nil
	}

	display, err := dev.display(cfg.Pins.LCD)
	if err != nil {
		return fmt.Errorf("init lcd: %w", err)
	}
	defer display.Close()

	lights, err := dev.lights(cfg.Pins.Chip, cfg.Pins.Red, cfg.Pins.Blue)
	if err != nil {
		return fmt.Errorf("init leds: %w", err)
	}
	defer lights.Close()

	cmds := make(chan logic.Command, commandBuffer)

	buttons, err := dev.buttons(cfg.Pins.Chip, gpio.Bindings(variant, cfg.ButtonPins()), cfg.Pins.Debounce, enqueue(cmds, log, "button"))
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}
	defer buttons.Close()

	var sinks []thermostat.NamedSink

	if cfg.Serial.Port != "" {
		port, err := dev.serial(cfg.Serial.Port, cfg.Serial.Baud, cfg.Serial.Timeout)
		if err != nil {
			return fmt.Errorf("init serial: %w", err)
		}
		defer port.Close()
		sinks = append(sinks, thermostat.NamedSink{Name: "serial", Sink: port})
	}

	// Initialize MQTT. The daemon keeps running without a broker.
	var publisher mqtt.Publisher = mqtt.Disabled{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.Disabled{}
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(ctx, mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Prefix:   cfg.MQTT.Prefix,
		}, log, enqueue(cmds, log, "mqtt"))
		if err != nil {
			log.Errorw("mqtt disabled", "error", err)
		} else {
			defer p.Close()
			publisher, mqttStatus = p, p
			// Queued sinks close before the clients they write to.
			async := thermostat.NewAsyncSink("mqtt", p, sinkBuffer, log)
			defer async.Close()
			sinks = append(sinks, thermostat.NamedSink{Name: "mqtt", Sink: async})
		}
	}

	if cfg.Influx.URL != "" {
		hist := history.Open(cfg.Influx.URL, cfg.Influx.Token, cfg.Influx.Org, cfg.Influx.Bucket, history.DefaultConfig)
		defer hist.Close()
		async := thermostat.NewAsyncSink("history", hist, sinkBuffer, log)
		defer async.Close()
		sinks = append(sinks, thermostat.NamedSink{Name: "history", Sink: async})
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Variant:     variant,
		TickMs:      cfg.Tick.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.MQTT.Broker,
		SerialPort:  cfg.Serial.Port,
		HTTPAddr:    cfg.HTTP,
		History:     cfg.Influx.URL != "",
	})
	tracker.SetMQTTConnected(mqttStatus.IsConnected())

	machine := logic.NewMachine(variant, cfg.Setpoint.Initial, cfg.Limits())
	ctrl := thermostat.New(machine, reader, display, lights, sinks, tracker, log)
	ctrl.Start(time.Now())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Warnw("failed to publish startup event", "error", err)
	}

	// Start HTTP status server
	if cfg.HTTP != "" {
		srv := web.New(cfg.HTTP, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("http server error", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infow("http status server listening", "addr", cfg.HTTP)
	}

	log.Infow("started",
		"variant", string(variant),
		"mode", machine.Mode().String(),
		"setpoint", machine.Setpoint(),
		"tick", cfg.Tick,
		"sinks", len(sinks),
		"heartbeat", cfg.Heartbeat,
	)

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	err = runLoop(ctrl, publisher, mqttStatus, tracker, log, cfg.Heartbeat, time.Now, ticker.C, cmds, sigCh)
	farewell(ctrl, log, cfg.Farewell, time.Sleep)
	return err
}

// runLoop owns the controller. Ticks, commands, heartbeats and shutdown are
// handled one at a time, so a tick in progress always completes before exit.
func runLoop(ctrl *thermostat.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, log *logger.Logger, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, cmds <-chan logic.Command, sig <-chan os.Signal) error {
	hb := logic.NewHeartbeat(now())

	for {
		select {
		case s := <-sig:
			log.Infow("shutting down", "signal", s.String())
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warnw("failed to publish shutdown event", "error", err)
			}
			return nil

		case cmd := <-cmds:
			ctrl.Handle(cmd, now())

		case <-tick:
			t := now()
			ctrl.Tick(t)

			if tracker != nil && mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			if hbData := hb.Check(t, heartbeat, ctrl.Counts()); hbData != nil {
				log.Infow("heartbeat",
					"uptime", hbData.Uptime,
					"ticks", hbData.Counts.Ticks,
					"commands", hbData.Counts.Commands,
					"telemetry", hbData.Counts.Telemetry,
					"sensor_errors", hbData.Counts.SensorErrors,
				)
				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Warnw("heartbeat publish error", "error", err)
				}
			}
		}
	}
}

// farewell shows the goodbye screen for d. The display itself is released
// by run's deferred Close.
func farewell(ctrl *thermostat.Controller, log *logger.Logger, d time.Duration, sleep func(time.Duration)) {
	if err := ctrl.Farewell(); err != nil {
		log.Warnw("failed to show farewell", "error", err)
		return
	}
	sleep(d)
}

// enqueue returns a handler that forwards commands to the control loop
// without blocking the caller.
func enqueue(cmds chan<- logic.Command, log *logger.Logger, source string) func(logic.Command) {
	return func(cmd logic.Command) {
		select {
		case cmds <- cmd:
			log.Debugw("command queued", "command", string(cmd), "source", source)
		default:
			log.Warnw("command dropped, queue full", "command", string(cmd), "source", source)
		}
	}
}

func formatState(s logic.Sample) string {
	return fmt.Sprintf("T: %.1fC %.1fF, H: %.1f%%", s.Celsius, s.Fahrenheit(), s.Humidity)
}
