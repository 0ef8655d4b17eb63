// Package sink implements the fan-out layer of §4.7: one worker per
// configured destination, each fed through its own bounded FIFO so a slow
// or unreachable sink never backpressures the pipeline (§5, §9).
package sink

import "go.uber.org/zap"

// DefaultQueueCapacity is the per-sink queue depth used when a sink is
// constructed without an explicit override. spec.md's "unbounded FIFO"
// for sinks is resolved here as a bounded, configurable queue — see
// DESIGN.md's Open Question entry for the reasoning.
const DefaultQueueCapacity = 4096

// Kind tags whether a Record originated from an Open or a Close payload,
// so sinks that route the two differently (the tracking server's two
// POST endpoints) don't need to re-inspect the JSON.
type Kind uint8

const (
	KindOpen Kind = iota
	KindClose
)

// Record is what the fan-out offers to every sink: the already-serialized
// JSON line plus its Kind.
type Record struct {
	Kind Kind
	JSON []byte
}

// Sink receives Records on its own worker goroutine.
type Sink interface {
	// Offer enqueues rec without blocking the caller. A full queue drops
	// the record and logs, per §9's resolution of the unbounded-FIFO
	// question.
	Offer(rec Record)
	// Run drains the queue until it is closed. It is meant to be called
	// once, on its own goroutine, by the supervisor.
	Run()
	// Close signals Run to exit once the queue drains.
	Close()
}

// boundedQueue is the shared bounded-FIFO-plus-drop-logging implementation
// every sink embeds.
type boundedQueue struct {
	ch     chan Record
	name   string
	logger *zap.SugaredLogger
}

func newBoundedQueue(name string, capacity int, logger *zap.SugaredLogger) *boundedQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &boundedQueue{
		ch:     make(chan Record, capacity),
		name:   name,
		logger: logger,
	}
}

func (q *boundedQueue) Offer(rec Record) {
	select {
	case q.ch <- rec:
	default:
		q.logger.Warnw("sink queue full, dropping record", "sink", q.name)
	}
}

func (q *boundedQueue) Close() {
	close(q.ch)
}
