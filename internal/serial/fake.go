package serial

import (
	"bytes"
	"strings"
)

// FakePort is an in-memory port for tests.
type FakePort struct {
	bytes.Buffer

	// WriteError, if set, will be returned by Write.
	WriteError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePort creates a FakePort.
func NewFakePort() *FakePort {
	return &FakePort{}
}

// Write appends to the buffer.
func (f *FakePort) Write(p []byte) (int, error) {
	if f.WriteError != nil {
		return 0, f.WriteError
	}
	return f.Buffer.Write(p)
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.Closed = true
	return nil
}

// Lines returns the written lines without their newlines.
func (f *FakePort) Lines() []string {
	s := strings.TrimSuffix(f.String(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
