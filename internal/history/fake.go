package history

import "github.com/sweeney/pi-thermostat/internal/logic"

// FakeHistory records published records for test assertions.
type FakeHistory struct {
	// Records contains every successfully published record.
	Records []logic.Record

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeHistory creates a FakeHistory.
func NewFakeHistory() *FakeHistory {
	return &FakeHistory{}
}

// Publish records rec.
func (f *FakeHistory) Publish(rec logic.Record) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Records = append(f.Records, rec)
	return nil
}

// Close marks the fake as closed.
func (f *FakeHistory) Close() error {
	f.Closed = true
	return nil
}
