package monitor

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/consolewatch/backend/internal/activity"
	"github.com/consolewatch/backend/internal/dispatch"
	"github.com/consolewatch/backend/internal/metadata"
)

// captureSink records snapshots delivered through the dispatcher.
type captureSink struct {
	mu    sync.Mutex
	snaps []activity.Snapshot
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) OnUpdate(snap activity.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps = append(s.snaps, snap)
	return nil
}

func (s *captureSink) Close() error { return nil }

func (s *captureSink) received() []activity.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]activity.Snapshot(nil), s.snaps...)
}

func (s *captureSink) waitFor(t *testing.T, n int) []activity.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := s.received(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("received %d snapshots, want %d", len(s.received()), n)
	return nil
}

// newTestMonitor wires a monitor with an offline library (system table
// plus placeholders, no catalog fetches) and a capturing sink.
func newTestMonitor(t *testing.T) (*Monitor, *captureSink, *dispatch.Dispatcher) {
	t.Helper()
	cache, err := metadata.OpenCache(filepath.Join(t.TempDir(), "cache.json"))
	if err != nil {
		t.Fatal(err)
	}
	library := metadata.NewLibrary(cache, nil, nil)

	sink := &captureSink{}
	d := dispatch.NewDispatcher(nil, sink)
	t.Cleanup(d.Close)

	m := NewMonitor(context.Background(), activity.NewTracker(), library, d, nil)
	return m, sink, d
}

func TestConnectSynthesizesHomeMenu(t *testing.T) {
	m, sink, _ := newTestMonitor(t)

	m.HandleConnect()

	snaps := sink.waitFor(t, 1)
	if snaps[0].Status != activity.Online {
		t.Errorf("status = %v, want Online", snaps[0].Status)
	}
	if snaps[0].Game.TitleID != activity.HomeMenuID || snaps[0].Game.Name != "Home Menu" {
		t.Errorf("game = %+v", snaps[0].Game)
	}
}

func TestConnectWithTrackedTitleIsQuiet(t *testing.T) {
	m, sink, _ := newTestMonitor(t)

	m.HandleLine("gpu Render.CUSA01234 frame submitted")
	sink.waitFor(t, 1)

	// A reconnect while a title is tracked must not reset to the menu.
	m.HandleConnect()
	time.Sleep(50 * time.Millisecond)
	if got := sink.received(); len(got) != 1 {
		t.Errorf("reconnect dispatched %d extra snapshots", len(got)-1)
	}
}

func TestSceneChangeDispatchesPlaying(t *testing.T) {
	m, sink, _ := newTestMonitor(t)

	before := time.Now().Unix()
	m.HandleLine("OnFocusActiveSceneChanged [HomeScene] -> [Render.CUSA01234.MainScene]")
	after := time.Now().Unix()

	snaps := sink.waitFor(t, 1)
	snap := snaps[0]
	if snap.Status != activity.Playing {
		t.Errorf("status = %v, want Playing", snap.Status)
	}
	if snap.Game.TitleID != "CUSA01234" {
		t.Errorf("title = %q", snap.Game.TitleID)
	}
	if snap.Game.SessionStart < before || snap.Game.SessionStart > after {
		t.Errorf("session start %d outside [%d, %d]", snap.Game.SessionStart, before, after)
	}
}

func TestMenuRoundTripKeepsSessionStart(t *testing.T) {
	m, sink, _ := newTestMonitor(t)

	m.HandleLine("gpu Render.CUSA01234 frame submitted")
	m.HandleLine("OnFocusActiveSceneChanged [Render.CUSA01234.MainScene] -> [Render.NPXS40002.Home]")
	m.HandleLine("OnFocusActiveSceneChanged [Render.NPXS40002.Home] -> [Render.CUSA01234.MainScene]")

	snaps := sink.waitFor(t, 3)
	if snaps[1].Status != activity.Online {
		t.Errorf("menu status = %v, want Online", snaps[1].Status)
	}
	if snaps[2].Game.SessionStart != snaps[0].Game.SessionStart {
		t.Errorf("session start reset across menu round trip: %d != %d",
			snaps[2].Game.SessionStart, snaps[0].Game.SessionStart)
	}
}

func TestSilenceThenReturnKeepsSessionStart(t *testing.T) {
	m, sink, _ := newTestMonitor(t)

	m.HandleLine("gpu Render.CUSA01234 frame submitted")
	m.HandleSilence()
	m.HandleLine("gpu Render.CUSA01234 frame submitted")

	snaps := sink.waitFor(t, 3)
	if snaps[1].Status != activity.Idle {
		t.Errorf("silence status = %v, want Idle", snaps[1].Status)
	}
	// Idle keeps the last game metadata in the merged snapshot.
	if snaps[1].Game == nil || snaps[1].Game.TitleID != "CUSA01234" {
		t.Errorf("idle snapshot game = %+v", snaps[1].Game)
	}
	if snaps[2].Game.SessionStart != snaps[0].Game.SessionStart {
		t.Error("session start reset across idle period")
	}
}

func TestSilenceWithNothingTrackedIsQuiet(t *testing.T) {
	m, sink, _ := newTestMonitor(t)

	m.HandleSilence()
	time.Sleep(50 * time.Millisecond)
	if got := sink.received(); len(got) != 0 {
		t.Errorf("silence with no tracked title dispatched %d snapshots", len(got))
	}
}

func TestDisconnectDispatchesOfflineOnce(t *testing.T) {
	m, sink, _ := newTestMonitor(t)

	m.HandleLine("gpu Render.CUSA01234 frame submitted")
	m.HandleDisconnect(nil)
	m.HandleDisconnect(nil)
	m.HandleDisconnect(nil)

	snaps := sink.waitFor(t, 2)
	if snaps[1].Status != activity.Offline {
		t.Errorf("status = %v, want Offline", snaps[1].Status)
	}
	time.Sleep(50 * time.Millisecond)
	if got := sink.received(); len(got) != 2 {
		t.Errorf("repeated disconnects dispatched %d snapshots, want 2", len(got))
	}
}

func TestIgnoredIDNeverDispatches(t *testing.T) {
	m, sink, _ := newTestMonitor(t)

	m.HandleLine("gpu Render.NPXS40093 frame submitted")
	m.HandleLine("OnFocusActiveSceneChanged [Home] -> [Render.NPXS40112.Overlay]")

	time.Sleep(50 * time.Millisecond)
	if got := sink.received(); len(got) != 0 {
		t.Errorf("ignored ids dispatched %d snapshots", len(got))
	}
}

func TestNewGameResetsSessionStart(t *testing.T) {
	m, sink, _ := newTestMonitor(t)

	m.HandleLine("gpu Render.CUSA01234 frame submitted")
	time.Sleep(1100 * time.Millisecond) // unix-second resolution
	m.HandleLine("gpu Render.CUSA99999 frame submitted")

	snaps := sink.waitFor(t, 2)
	if snaps[1].Game.SessionStart == snaps[0].Game.SessionStart {
		t.Error("different title must start a new session clock")
	}
}
