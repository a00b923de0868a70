// Package monitor glues the log stream reader to the state machine,
// the metadata library, and the snapshot dispatcher.
package monitor

import (
	"context"
	"log"

	"github.com/consolewatch/backend/internal/activity"
	"github.com/consolewatch/backend/internal/dispatch"
	"github.com/consolewatch/backend/internal/klog"
	"github.com/consolewatch/backend/internal/metadata"
	"github.com/consolewatch/backend/internal/metrics"
)

// Monitor consumes reader events, extracts transitions, drives the
// activity tracker, resolves metadata, and feeds the dispatcher. It
// implements klog.Events; all callbacks run on the reader goroutine.
type Monitor struct {
	ctx        context.Context
	tracker    *activity.Tracker
	library    *metadata.Library
	dispatcher *dispatch.Dispatcher
	metrics    *metrics.Metrics
}

func NewMonitor(ctx context.Context, tracker *activity.Tracker, library *metadata.Library, dispatcher *dispatch.Dispatcher, m *metrics.Metrics) *Monitor {
	return &Monitor{
		ctx:        ctx,
		tracker:    tracker,
		library:    library,
		dispatcher: dispatcher,
		metrics:    m,
	}
}

// HandleConnect synthesizes a home-menu transition when nothing is
// tracked yet, so the state machine starts in a defined state.
func (m *Monitor) HandleConnect() {
	if m.tracker.Current() == "" {
		m.apply(activity.HomeMenuID)
	}
}

// HandleLine runs the extractor on one log line and applies any
// candidate title it yields.
func (m *Monitor) HandleLine(line string) {
	m.metrics.IncLines()
	id, ok := klog.Extract(line, m.tracker.Current())
	if !ok {
		return
	}
	log.Printf("[monitor] transition detected: %s", id)
	m.apply(id)
}

// HandleSilence marks the console idle after a quiet stretch. The
// tracker keeps the game session so a later return reuses its start
// time.
func (m *Monitor) HandleSilence() {
	trans, ok := m.tracker.Idle()
	if !ok {
		return
	}
	m.metrics.IncTransition(trans.Status.String())
	m.dispatcher.UpdateActivity(trans.Status, nil)
}

// HandleDisconnect marks the console offline. Repeated failures during
// reconnect backoff dispatch only once.
func (m *Monitor) HandleDisconnect(err error) {
	trans, ok := m.tracker.Offline()
	if !ok {
		return
	}
	m.metrics.IncTransition(trans.Status.String())
	m.dispatcher.UpdateActivity(trans.Status, nil)
}

// apply pushes one candidate through the tracker and, when accepted,
// dispatches a snapshot with resolved metadata.
func (m *Monitor) apply(id string) {
	trans, ok := m.tracker.Apply(id)
	if !ok {
		return
	}
	m.metrics.IncTransition(trans.Status.String())

	meta := m.library.Resolve(m.ctx, id)
	game := &activity.Game{
		TitleID:      meta.TitleID,
		Name:         meta.Name,
		Icon:         meta.Icon,
		Background:   meta.Background,
		SessionStart: trans.SessionStart.Unix(),
	}
	m.dispatcher.UpdateActivity(trans.Status, game)
}
