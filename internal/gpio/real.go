//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

// led is a single output line that can be on, off, or pulsing.
type led struct {
	line *gpiocdev.Line

	mu    sync.Mutex
	level logic.Level
	stop  chan struct{}
	done  chan struct{}
}

// apply switches the LED to level. A pulse keeps running if it is already pulsing.
func (l *led) apply(level logic.Level) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level == l.level {
		return nil
	}
	l.stopPulse()
	l.level = logic.LevelOff

	switch level {
	case logic.LevelOn:
		if err := l.line.SetValue(1); err != nil {
			return err
		}
	case logic.LevelPulse:
		l.stop = make(chan struct{})
		l.done = make(chan struct{})
		go l.pulse(l.stop, l.done)
	default:
		if err := l.line.SetValue(0); err != nil {
			return err
		}
	}
	l.level = level
	return nil
}

// stopPulse ends a running pulse and leaves the line low. Caller holds mu.
func (l *led) stopPulse() {
	if l.stop == nil {
		return
	}
	close(l.stop)
	<-l.done
	l.stop = nil
	l.done = nil
	l.line.SetValue(0)
}

func (l *led) pulse(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	start := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	wait := func(d time.Duration) bool {
		timer.Reset(d)
		select {
		case <-stop:
			return false
		case <-timer.C:
			return true
		}
	}

	for {
		on := time.Duration(PulseDuty(time.Since(start), PulseFade) * float64(PulsePeriod))
		if on > 0 {
			l.line.SetValue(1)
			if !wait(on) {
				return
			}
		}
		if on < PulsePeriod {
			l.line.SetValue(0)
			if !wait(PulsePeriod - on) {
				return
			}
		}
	}
}

func (l *led) close() error {
	l.mu.Lock()
	l.stopPulse()
	l.level = logic.LevelOff
	l.mu.Unlock()

	if err := l.line.SetValue(0); err != nil {
		return err
	}
	return l.line.Close()
}

// RealLights drives two LEDs on actual Raspberry Pi hardware.
type RealLights struct {
	red  *led
	blue *led
}

// NewRealLights requests the red and blue LED lines as outputs, initially off.
func NewRealLights(chip string, pinRed, pinBlue int) (*RealLights, error) {
	redLine, err := gpiocdev.RequestLine(chip, pinRed, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request red pin %d: %w", pinRed, err)
	}

	blueLine, err := gpiocdev.RequestLine(chip, pinBlue, gpiocdev.AsOutput(0))
	if err != nil {
		redLine.Close()
		return nil, fmt.Errorf("request blue pin %d: %w", pinBlue, err)
	}

	return &RealLights{
		red:  &led{line: redLine},
		blue: &led{line: blueLine},
	}, nil
}

// Set applies the plan to both LEDs.
func (r *RealLights) Set(plan logic.LightPlan) error {
	if err := r.red.apply(plan.Red); err != nil {
		return fmt.Errorf("set red: %w", err)
	}
	if err := r.blue.apply(plan.Blue); err != nil {
		return fmt.Errorf("set blue: %w", err)
	}
	return nil
}

// Close turns both LEDs off and releases their lines.
func (r *RealLights) Close() error {
	var errs []error
	if err := r.red.close(); err != nil {
		errs = append(errs, fmt.Errorf("close red: %w", err))
	}
	if err := r.blue.close(); err != nil {
		errs = append(errs, fmt.Errorf("close blue: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealButtons watches button lines for presses.
type RealButtons struct {
	lines []*gpiocdev.Line
}

// NewRealButtons requests each bound pin as a pulled-up input and calls
// handler with the bound command on every falling edge (press).
// A debounce of 0 disables kernel debouncing.
// The handler runs on the gpiocdev event goroutine and must not block.
func NewRealButtons(chip string, bindings []Binding, debounce time.Duration, handler func(logic.Command)) (*RealButtons, error) {
	b := &RealButtons{}
	for _, binding := range bindings {
		cmd := binding.Command
		opts := []gpiocdev.LineReqOption{
			gpiocdev.AsInput,
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
				handler(cmd)
			}),
		}
		if debounce > 0 {
			opts = append(opts, gpiocdev.WithDebounce(debounce))
		}

		line, err := gpiocdev.RequestLine(chip, binding.Pin, opts...)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request %s button pin %d: %w", cmd, binding.Pin, err)
		}
		b.lines = append(b.lines, line)
	}
	return b, nil
}

// Close releases the button lines. Pending events are discarded.
func (b *RealButtons) Close() error {
	var errs []error
	for _, line := range b.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	b.lines = nil
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
