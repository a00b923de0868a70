package activity

import (
	"testing"
	"time"
)

// newTestTracker returns a Tracker with a fake clock that advances one
// second per call, starting from a fixed base time.
func newTestTracker() (*Tracker, *time.Time) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	t := NewTracker()
	t.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return t, &now
}

func TestApplyGameStartsSession(t *testing.T) {
	tr, _ := newTestTracker()

	trans, ok := tr.Apply("CUSA01234")
	if !ok {
		t.Fatal("expected transition")
	}
	if trans.Status != Playing {
		t.Errorf("status = %v, want Playing", trans.Status)
	}
	if trans.TitleID != "CUSA01234" {
		t.Errorf("title = %q, want CUSA01234", trans.TitleID)
	}
	if sess := tr.Session(); sess.TitleID != "CUSA01234" || !sess.StartedAt.Equal(trans.SessionStart) {
		t.Errorf("session = %+v, want start %v", sess, trans.SessionStart)
	}
}

func TestApplyDuplicateIsNoOp(t *testing.T) {
	tr, _ := newTestTracker()

	if _, ok := tr.Apply("CUSA01234"); !ok {
		t.Fatal("first apply should transition")
	}
	if _, ok := tr.Apply("CUSA01234"); ok {
		t.Error("repeated candidate equal to tracked title must be a no-op")
	}
}

func TestMenuRoundTripPreservesSessionStart(t *testing.T) {
	tr, _ := newTestTracker()

	first, _ := tr.Apply("CUSA01234")

	menu, ok := tr.Apply(HomeMenuID)
	if !ok || menu.Status != Online {
		t.Fatalf("menu transition = %+v, ok=%v, want Online", menu, ok)
	}
	if sess := tr.Session(); sess.TitleID != "CUSA01234" {
		t.Fatal("system transition must not touch the game session")
	}

	back, ok := tr.Apply("CUSA01234")
	if !ok {
		t.Fatal("return to game should transition")
	}
	if !back.SessionStart.Equal(first.SessionStart) {
		t.Errorf("session start = %v, want original %v", back.SessionStart, first.SessionStart)
	}
}

func TestDifferentGameResetsSessionStart(t *testing.T) {
	tr, _ := newTestTracker()

	first, _ := tr.Apply("CUSA01234")
	second, ok := tr.Apply("CUSA99999")
	if !ok || second.Status != Playing {
		t.Fatalf("second game transition = %+v, ok=%v", second, ok)
	}
	if second.SessionStart.Equal(first.SessionStart) {
		t.Error("a different title must start a new session")
	}
	if sess := tr.Session(); sess.TitleID != "CUSA99999" {
		t.Errorf("session title = %q, want CUSA99999", sess.TitleID)
	}
}

func TestIdleRetainsSession(t *testing.T) {
	tr, _ := newTestTracker()

	first, _ := tr.Apply("CUSA01234")

	idle, ok := tr.Idle()
	if !ok || idle.Status != Idle {
		t.Fatalf("idle transition = %+v, ok=%v", idle, ok)
	}
	if tr.Current() != "" {
		t.Error("idle must clear the tracked title")
	}
	if _, ok := tr.Idle(); ok {
		t.Error("idle with nothing tracked must be a no-op")
	}

	back, ok := tr.Apply("CUSA01234")
	if !ok {
		t.Fatal("return after idle should transition")
	}
	if !back.SessionStart.Equal(first.SessionStart) {
		t.Errorf("session start after idle = %v, want original %v", back.SessionStart, first.SessionStart)
	}
}

func TestOfflineClearsTitleKeepsSession(t *testing.T) {
	tr, _ := newTestTracker()

	first, _ := tr.Apply("CUSA01234")

	off, ok := tr.Offline()
	if !ok || off.Status != Offline {
		t.Fatalf("offline transition = %+v, ok=%v", off, ok)
	}
	if tr.Current() != "" {
		t.Error("offline must clear the tracked title")
	}
	if sess := tr.Session(); !sess.StartedAt.Equal(first.SessionStart) {
		t.Error("offline must not touch the persisted session start")
	}

	if _, ok := tr.Offline(); ok {
		t.Error("repeated offline must be a no-op")
	}
}

func TestSystemTitleClassification(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"NPXS40002", true},
		{"NPXS40008", true},
		{"DEBUG_SETTINGS", true},
		{"ITEM00001", true},
		{"CUSA01234", false},
		{"PPSA05000", false},
	}
	for _, tt := range tests {
		if got := IsSystemTitle(tt.id); got != tt.want {
			t.Errorf("IsSystemTitle(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestStatusJSONRoundTrip(t *testing.T) {
	for st, name := range statusNames {
		data, err := st.MarshalJSON()
		if err != nil {
			t.Fatalf("marshal %v: %v", st, err)
		}
		if string(data) != `"`+name+`"` {
			t.Errorf("marshal %v = %s, want %q", st, data, name)
		}
		var back Status
		if err := back.UnmarshalJSON(data); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != st {
			t.Errorf("round trip %v = %v", st, back)
		}
	}
}

func TestSnapshotClone(t *testing.T) {
	snap := Snapshot{
		Status: Playing,
		Game:   &Game{TitleID: "CUSA01234", Name: "Example"},
		Stats:  map[string]string{"cpu_temp": "62C"},
	}
	clone := snap.Clone()

	snap.Game.Name = "mutated"
	snap.Stats["cpu_temp"] = "mutated"

	if clone.Game.Name != "Example" {
		t.Error("clone shares Game with original")
	}
	if clone.Stats["cpu_temp"] != "62C" {
		t.Error("clone shares Stats with original")
	}
}
