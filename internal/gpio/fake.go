package gpio

import (
	"github.com/sweeney/pi-thermostat/internal/logic"
)

// FakeLights is a test double that records applied light plans.
type FakeLights struct {
	// Plans contains every plan passed to Set, in order.
	Plans []logic.LightPlan

	// Closed tracks if Close was called
	Closed bool

	// SetError, if set, will be returned by Set()
	SetError error
}

// NewFakeLights creates a FakeLights.
func NewFakeLights() *FakeLights {
	return &FakeLights{}
}

// Set records the plan.
func (f *FakeLights) Set(plan logic.LightPlan) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Plans = append(f.Plans, plan)
	return nil
}

// Close marks the lights as closed.
func (f *FakeLights) Close() error {
	f.Closed = true
	return nil
}

// Current returns the last applied plan (both off before any Set).
func (f *FakeLights) Current() logic.LightPlan {
	if len(f.Plans) == 0 {
		return logic.LightPlan{}
	}
	return f.Plans[len(f.Plans)-1]
}

// FakeButtons simulates button presses by invoking the handler directly.
type FakeButtons struct {
	bindings []Binding
	handler  func(logic.Command)

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeButtons creates FakeButtons that dispatch to handler.
func NewFakeButtons(bindings []Binding, handler func(logic.Command)) *FakeButtons {
	return &FakeButtons{bindings: bindings, handler: handler}
}

// Press simulates a press on pin. It reports whether the pin is bound.
func (f *FakeButtons) Press(pin int) bool {
	if f.Closed {
		return false
	}
	for _, b := range f.bindings {
		if b.Pin == pin {
			f.handler(b.Command)
			return true
		}
	}
	return false
}

// Close stops delivering presses.
func (f *FakeButtons) Close() error {
	f.Closed = true
	return nil
}
