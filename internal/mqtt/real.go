package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/sweeney/pi-thermostat/internal/logger"
	"github.com/sweeney/pi-thermostat/internal/logic"
)

// bufferCapacity bounds the number of messages held while disconnected.
const bufferCapacity = 100

// attemptTimeout bounds a single connection attempt.
const attemptTimeout = 10 * time.Second

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string // prefix; a random suffix is appended
	Prefix   string // topic prefix

	// ConnectTimeout bounds the whole initial connection attempt, retries included.
	ConnectTimeout time.Duration
}

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	topics Topics
	log    *logger.Logger

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool
	connects  int
}

// NewRealPublisher connects to the broker, retrying with exponential backoff
// until ConnectTimeout passes or ctx is cancelled.
// Commands received on the command topic are passed to onCommand, which
// runs on the paho callback goroutine and must not block.
func NewRealPublisher(ctx context.Context, opts Options, log *logger.Logger, onCommand func(logic.Command)) (*RealPublisher, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 30 * time.Second
	}

	p := &RealPublisher{
		topics: NewTopics(opts.Prefix),
		log:    log,
		buf:    newRingBuffer(bufferCapacity),
	}

	paho.ERROR = log.Std(logger.ErrorLevel, "paho")
	paho.CRITICAL = log.Std(logger.ErrorLevel, "paho")
	paho.WARN = log.Std(logger.WarnLevel, "paho")

	will, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "OFFLINE", Reason: "LWT"})

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(fmt.Sprintf("%s-%s", opts.ClientID, uuid.NewString()[:8])).
		SetAutoReconnect(true).
		SetConnectTimeout(attemptTimeout).
		SetMaxReconnectInterval(time.Minute).
		SetWill(p.topics.System, string(will), 1, true).
		SetOnConnectHandler(func(c paho.Client) {
			p.onConnect(c, onCommand)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.mu.Lock()
			p.connected = false
			p.mu.Unlock()
			log.Warnw("mqtt connection lost", "err", err)
		})

	p.client = paho.NewClient(clientOpts)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = opts.ConnectTimeout
	err := backoff.RetryNotify(func() error {
		token := p.client.Connect()
		select {
		case <-token.Done():
			return token.Error()
		case <-ctx.Done():
			return backoff.Permanent(ctx.Err())
		case <-time.After(attemptTimeout):
			return fmt.Errorf("connection timeout")
		}
	}, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		log.Warnw("mqtt connect failed, retrying", "broker", opts.Broker, "err", err, "retry_in", next)
	})
	if err != nil {
		return nil, fmt.Errorf("connect to broker %s: %w", opts.Broker, err)
	}

	return p, nil
}

// onConnect subscribes to commands and replays buffered messages.
// It runs on every (re)connect.
func (p *RealPublisher) onConnect(c paho.Client, onCommand func(logic.Command)) {
	p.mu.Lock()
	p.connected = true
	p.connects++
	reconnect := p.connects > 1
	pending := p.buf.drainAll()
	p.mu.Unlock()

	p.log.Infow("mqtt connected", "reconnect", reconnect, "buffered", len(pending))

	if onCommand != nil {
		c.Subscribe(p.topics.Command, 1, func(_ paho.Client, msg paho.Message) {
			cmd, err := ParseCommand(msg.Payload())
			if err != nil {
				p.log.Warnw("ignoring mqtt command", "topic", msg.Topic(), "err", err)
				return
			}
			onCommand(cmd)
		})
	}

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		c.Publish(p.topics.System, 1, true, payload)
	}
	for _, m := range pending {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

// send publishes or, while disconnected, buffers a message for replay.
func (p *RealPublisher) send(topic string, qos byte, retained bool, payload []byte) error {
	p.mu.Lock()
	if !p.connected {
		first := p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		if first {
			p.log.Warnw("mqtt buffer full, dropping oldest", "capacity", bufferCapacity)
		}
		return nil
	}
	p.mu.Unlock()

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Publish sends a telemetry record to the MQTT broker.
func (p *RealPublisher) Publish(rec logic.Record) error {
	payload, err := FormatPayload(rec)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.send(p.topics.Telemetry, 0, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events
	return p.send(p.topics.System, 1, event.Retained, payload)
}

// IsConnected reports whether the client currently has a connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
