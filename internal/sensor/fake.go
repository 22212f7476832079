package sensor

import (
	"errors"

	"github.com/sweeney/pi-thermostat/internal/logic"
)

// FakeReader is a test double that returns scripted samples.
type FakeReader struct {
	// Samples contains scripted readings. Each call to Read() consumes the
	// next one; the last is repeated once they run out.
	Samples []logic.Sample

	index int

	// Reads counts calls to Read.
	Reads int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...logic.Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Celsius builds a sample at the given temperature and 50% humidity.
func Celsius(c float64) logic.Sample {
	return logic.Sample{Celsius: c, Humidity: 50}
}

// Fahrenheit builds a sample at the given Fahrenheit temperature and 50% humidity.
func Fahrenheit(f float64) logic.Sample {
	return logic.Sample{Celsius: (f - 32) * 5 / 9, Humidity: 50}
}

// Read returns the next scripted sample.
func (f *FakeReader) Read() (logic.Sample, error) {
	f.Reads++
	if f.ReadError != nil {
		return logic.Sample{}, f.ReadError
	}

	if len(f.Samples) == 0 {
		return logic.Sample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the reader to the first sample.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Reads = 0
	f.Closed = false
}
