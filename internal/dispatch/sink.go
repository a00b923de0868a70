package dispatch

import (
	"log"

	"github.com/consolewatch/backend/internal/activity"
)

// LogSink prints accepted activity changes to the process log. It is
// the smallest useful Sink and doubles as a liveness trace when no
// other sink is configured.
type LogSink struct {
	lastStatus activity.Status
	lastTitle  string
	seen       bool
}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) OnUpdate(snap activity.Snapshot) error {
	title := ""
	if snap.Game != nil {
		title = snap.Game.TitleID
	}
	// Stats-only refreshes are noise; only report activity changes.
	if s.seen && snap.Status == s.lastStatus && title == s.lastTitle {
		return nil
	}
	s.seen = true
	s.lastStatus = snap.Status
	s.lastTitle = title

	switch snap.Status {
	case activity.Playing, activity.Online:
		name := "Unknown"
		if snap.Game != nil {
			name = snap.Game.Name
		}
		log.Printf("[status] %s - %s", snap.Status, name)
	default:
		log.Printf("[status] %s", snap.Status)
	}
	return nil
}

func (s *LogSink) Close() error { return nil }
