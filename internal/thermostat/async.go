package thermostat

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/pi-thermostat/internal/logger"
	"github.com/sweeney/pi-thermostat/internal/logic"
)

// ErrSinkBusy is returned by AsyncSink.Publish when its queue is full and the
// record was dropped.
var ErrSinkBusy = errors.New("sink queue full")

// DefaultDrainTimeout bounds how long Close waits for queued records.
const DefaultDrainTimeout = 10 * time.Second

// AsyncSink hands records to a wrapped sink on its own goroutine so a slow
// broker or database never holds up the display tick. Publish must not be
// called after Close.
type AsyncSink struct {
	name  string
	sink  Sink
	queue chan logic.Record
	done  chan struct{}
	log   *logger.Logger
	drain time.Duration

	failures  atomic.Int64
	closeOnce sync.Once
}

// NewAsyncSink starts a worker draining a queue of size records into sink.
func NewAsyncSink(name string, sink Sink, size int, log *logger.Logger) *AsyncSink {
	if size < 1 {
		size = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	a := &AsyncSink{
		name:  name,
		sink:  sink,
		queue: make(chan logic.Record, size),
		done:  make(chan struct{}),
		log:   log,
		drain: DefaultDrainTimeout,
	}
	go a.run()
	return a
}

// Publish queues rec without blocking.
func (a *AsyncSink) Publish(rec logic.Record) error {
	select {
	case a.queue <- rec:
		return nil
	default:
		return fmt.Errorf("%s: %w", a.name, ErrSinkBusy)
	}
}

// Failures returns how many queued records the wrapped sink rejected.
func (a *AsyncSink) Failures() int64 {
	return a.failures.Load()
}

// Close stops accepting records and waits for the queue to drain.
func (a *AsyncSink) Close() error {
	a.closeOnce.Do(func() { close(a.queue) })
	select {
	case <-a.done:
		return nil
	case <-time.After(a.drain):
		return fmt.Errorf("%s: gave up draining after %v with %d records queued", a.name, a.drain, len(a.queue))
	}
}

func (a *AsyncSink) run() {
	defer close(a.done)
	for rec := range a.queue {
		if err := a.sink.Publish(rec); err != nil {
			n := a.failures.Add(1)
			a.log.Warnw("telemetry sink failed", "sink", a.name, "error", err, "failures", n)
		}
	}
}
