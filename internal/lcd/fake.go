package lcd

import "github.com/sweeney/pi-thermostat/internal/logic"

// FakeDisplay records frames for test assertions.
type FakeDisplay struct {
	// Frames contains every frame passed to Show, in order.
	Frames []logic.Frame

	// Clears counts calls to Clear (including the one made by Close).
	Clears int

	// Closes counts calls to Close.
	Closes int

	// FramesAtClose is len(Frames) when Close was last called.
	FramesAtClose int

	// ShowError, if set, will be returned by Show.
	ShowError error
}

// NewFakeDisplay creates a FakeDisplay.
func NewFakeDisplay() *FakeDisplay {
	return &FakeDisplay{}
}

// Show records the frame.
func (f *FakeDisplay) Show(frame logic.Frame) error {
	if f.ShowError != nil {
		return f.ShowError
	}
	f.Frames = append(f.Frames, frame)
	return nil
}

// Clear counts the call.
func (f *FakeDisplay) Clear() error {
	f.Clears++
	return nil
}

// Close clears and counts the call.
func (f *FakeDisplay) Close() error {
	f.Clears++
	f.Closes++
	f.FramesAtClose = len(f.Frames)
	return nil
}

// Last returns the most recent frame, or the zero frame.
func (f *FakeDisplay) Last() logic.Frame {
	if len(f.Frames) == 0 {
		return logic.Frame{}
	}
	return f.Frames[len(f.Frames)-1]
}
