package mqtt

import (
	"github.com/sweeney/pi-thermostat/internal/logic"
)

// Message is one publish as the broker would see it.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// FakePublisher stands in for a broker connection. Outbound publishes land
// on the same topics with the same QoS and retain flags as RealPublisher;
// Deliver plays inbound command messages through OnCommand.
type FakePublisher struct {
	Topics Topics

	// Messages holds every successful publish in order.
	Messages []Message

	// Records and SystemEvents hold what was passed to Publish and
	// PublishSystem; Payloads and SystemPayloads their encoded forms.
	Records        []logic.Record
	Payloads       [][]byte
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// OnCommand receives commands passed to Deliver.
	OnCommand func(logic.Command)

	// Commands holds delivered commands that parsed; Rejected holds the
	// payloads that did not.
	Commands []logic.Command
	Rejected [][]byte

	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool
}

// NewFakePublisher creates a FakePublisher on the default topics.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Topics: NewTopics("")}
}

// Publish records a telemetry message.
func (f *FakePublisher) Publish(rec logic.Record) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(rec)
	if err != nil {
		return err
	}
	f.Records = append(f.Records, rec)
	f.Payloads = append(f.Payloads, payload)
	f.Messages = append(f.Messages, Message{Topic: f.Topics.Telemetry, QoS: 0, Payload: payload})
	return nil
}

// PublishSystem records a lifecycle message.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	f.Messages = append(f.Messages, Message{Topic: f.Topics.System, QoS: 1, Retained: event.Retained, Payload: payload})
	return nil
}

// Deliver simulates a message arriving on the command topic. Payloads that
// do not parse are recorded and returned as errors without reaching
// OnCommand.
func (f *FakePublisher) Deliver(payload []byte) error {
	cmd, err := ParseCommand(payload)
	if err != nil {
		f.Rejected = append(f.Rejected, payload)
		return err
	}
	f.Commands = append(f.Commands, cmd)
	if f.OnCommand != nil {
		f.OnCommand(cmd)
	}
	return nil
}

// Events returns the names of the lifecycle events published so far.
func (f *FakePublisher) Events() []string {
	names := make([]string, 0, len(f.SystemEvents))
	for _, e := range f.SystemEvents {
		names = append(names, e.Event)
	}
	return names
}

// Retained returns the payload a new subscriber would receive on topic, or
// nil if nothing retained was published there.
func (f *FakePublisher) Retained(topic string) []byte {
	for i := len(f.Messages) - 1; i >= 0; i-- {
		if m := f.Messages[i]; m.Topic == topic && m.Retained {
			return m.Payload
		}
	}
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset forgets everything except Topics and OnCommand.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{Topics: f.Topics, OnCommand: f.OnCommand}
}
