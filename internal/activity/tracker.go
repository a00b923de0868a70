package activity

import (
	"sync"
	"time"
)

// Transition is the outcome of an accepted state change. SessionStart is
// the timestamp sinks should display: the preserved session start for a
// game, or the transition time for a system context.
type Transition struct {
	Status       Status
	TitleID      string
	SessionStart time.Time
}

// Tracker is the foreground state machine. It owns the current status,
// the currently foregrounded title, and the last game Session. All
// methods are safe for concurrent use; none of them block.
type Tracker struct {
	mu      sync.Mutex
	status  Status
	current string // foregrounded title id, "" when none is tracked
	session Session

	now func() time.Time // overridable in tests
}

func NewTracker() *Tracker {
	return &Tracker{
		status: Offline,
		now:    time.Now,
	}
}

// Apply consumes a candidate title id. It returns the resulting
// transition and true when the candidate changes the tracked state;
// a candidate equal to the already-tracked title is a no-op.
func (t *Tracker) Apply(titleID string) (Transition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if titleID == "" || titleID == t.current {
		return Transition{}, false
	}

	now := t.now()
	t.current = titleID

	if IsSystemTitle(titleID) {
		// System contexts carry no session timer and never touch the
		// stored game session.
		t.status = Online
		return Transition{Status: Online, TitleID: titleID, SessionStart: now}, true
	}

	t.status = Playing
	if titleID == t.session.TitleID && !t.session.StartedAt.IsZero() {
		// Returning to the same game after a menu visit or an idle
		// stretch reuses the original start time.
		return Transition{Status: Playing, TitleID: titleID, SessionStart: t.session.StartedAt}, true
	}
	t.session = Session{TitleID: titleID, StartedAt: now}
	return Transition{Status: Playing, TitleID: titleID, SessionStart: now}, true
}

// Idle marks the stream as silent. The tracked title is cleared but the
// Session is retained so a later return to the same game keeps its
// original start time. Returns false when no title is tracked.
func (t *Tracker) Idle() (Transition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current == "" {
		return Transition{}, false
	}
	t.current = ""
	t.status = Idle
	return Transition{Status: Idle}, true
}

// Offline marks the transport as disconnected, clearing the tracked
// title. Repeated calls while already offline are no-ops so reconnect
// retries don't produce duplicate dispatches.
func (t *Tracker) Offline() (Transition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == Offline {
		return Transition{}, false
	}
	t.current = ""
	t.status = Offline
	return Transition{Status: Offline}, true
}

// Current returns the currently foregrounded title id, or "" when none
// is tracked.
func (t *Tracker) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Status returns the current activity status.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Session returns the stored game session. The zero Session means no
// game has been entered yet this process lifetime.
func (t *Tracker) Session() Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}
