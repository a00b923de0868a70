// Package dispatch merges producer updates into immutable snapshots and
// fans them out to registered sinks.
package dispatch

import (
	"log"
	"sync"

	"github.com/consolewatch/backend/internal/activity"
	"github.com/consolewatch/backend/internal/metrics"
)

// Sink receives merged snapshots. Implementations run outside the
// engine (presence services, automation buses, plugins); the dispatcher
// only assumes OnUpdate eventually returns.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// OnUpdate delivers one snapshot. Errors are logged and isolated to
	// this sink; they never affect the engine or other sinks.
	OnUpdate(snap activity.Snapshot) error

	// Close releases the sink's resources. Called once during shutdown,
	// after delivery has stopped.
	Close() error
}

// sinkQueueSize bounds the per-sink delivery backlog. A sink that falls
// further behind starts losing intermediate snapshots; it will still
// see the latest state on the next delivery.
const sinkQueueSize = 64

// sinkWorker serializes delivery to one sink so a slow sink cannot
// stall the producing loops while per-sink order is preserved.
type sinkWorker struct {
	sink    Sink
	send    chan activity.Snapshot
	done    chan struct{}
	metrics *metrics.Metrics
	dropped int
	dropMu  sync.Mutex
}

func newSinkWorker(sink Sink, m *metrics.Metrics) *sinkWorker {
	w := &sinkWorker{
		sink:    sink,
		send:    make(chan activity.Snapshot, sinkQueueSize),
		done:    make(chan struct{}),
		metrics: m,
	}
	go w.pump()
	return w
}

func (w *sinkWorker) pump() {
	defer close(w.done)
	for snap := range w.send {
		w.deliver(snap)
	}
}

// deliver invokes the sink, containing panics and errors.
func (w *sinkWorker) deliver(snap activity.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			w.metrics.IncSinkError(w.sink.Name())
			log.Printf("[dispatch] sink %s panicked: %v", w.sink.Name(), r)
		}
	}()
	if err := w.sink.OnUpdate(snap); err != nil {
		w.metrics.IncSinkError(w.sink.Name())
		log.Printf("[dispatch] sink %s: %v", w.sink.Name(), err)
	}
}

func (w *sinkWorker) enqueue(snap activity.Snapshot) {
	select {
	case w.send <- snap:
	default:
		w.dropMu.Lock()
		w.dropped++
		n := w.dropped
		w.dropMu.Unlock()
		if n == 1 || n%100 == 0 {
			log.Printf("[dispatch] sink %s too slow, dropped %d snapshots", w.sink.Name(), n)
		}
	}
}

// Dispatcher owns the latest known status, game metadata, and stats
// mapping. Each producer writes its own field; every write merges all
// three into a fresh immutable Snapshot and queues it to every sink in
// registration order.
type Dispatcher struct {
	mu     sync.Mutex
	status activity.Status
	game   *activity.Game
	stats  map[string]string

	workers []*sinkWorker

	closeOnce sync.Once
}

func NewDispatcher(m *metrics.Metrics, sinks ...Sink) *Dispatcher {
	d := &Dispatcher{
		status: activity.Offline,
		stats:  make(map[string]string),
	}
	for _, s := range sinks {
		d.workers = append(d.workers, newSinkWorker(s, m))
	}
	return d
}

// UpdateActivity records a status change from the state machine. A nil
// game leaves the last known game metadata in place, so Idle/Offline
// snapshots still carry the most recent title for sinks that want it.
func (d *Dispatcher) UpdateActivity(status activity.Status, game *activity.Game) {
	d.mu.Lock()
	d.status = status
	if game != nil {
		g := *game
		d.game = &g
	}
	snap := d.mergeLocked()
	d.mu.Unlock()

	d.publish(snap)
}

// UpdateStats records a fresh stats mapping from the stats source and
// triggers a dispatch even when no title transition occurred.
func (d *Dispatcher) UpdateStats(stats map[string]string) {
	d.mu.Lock()
	d.stats = make(map[string]string, len(stats))
	for k, v := range stats {
		d.stats[k] = v
	}
	snap := d.mergeLocked()
	d.mu.Unlock()

	d.publish(snap)
}

// Snapshot returns the current merged state without dispatching.
func (d *Dispatcher) Snapshot() activity.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mergeLocked()
}

// mergeLocked builds an independent Snapshot from the current fields.
// Callers must hold d.mu.
func (d *Dispatcher) mergeLocked() activity.Snapshot {
	snap := activity.Snapshot{
		Status: d.status,
		Game:   d.game,
		Stats:  d.stats,
	}
	return snap.Clone()
}

func (d *Dispatcher) publish(snap activity.Snapshot) {
	for _, w := range d.workers {
		w.enqueue(snap)
	}
}

// Close drains the delivery queues and closes every sink. Safe to call
// more than once.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		for _, w := range d.workers {
			close(w.send)
		}
		for _, w := range d.workers {
			<-w.done
			if err := w.sink.Close(); err != nil {
				log.Printf("[dispatch] closing sink %s: %v", w.sink.Name(), err)
			}
		}
	})
}
