package activity

import (
	"encoding/json"
	"strings"
	"time"
)

// Status describes what the console is currently doing, as inferred from
// its debug log stream.
type Status int

const (
	Offline Status = iota // no transport connection to the console
	Online                // a system/menu context is foregrounded
	Playing               // a non-system title is foregrounded
	Idle                  // stream healthy but silent with a title previously active
)

var statusNames = map[Status]string{
	Offline: "Offline",
	Online:  "Online",
	Playing: "Playing",
	Idle:    "Idle",
}

var statusFromName = map[string]Status{
	"Offline": Offline,
	"Online":  Online,
	"Playing": Playing,
	"Idle":    Idle,
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	if v, ok := statusFromName[name]; ok {
		*s = v
	}
	return nil
}

// Reserved identifiers that do not follow the 4-letters-5-digits title
// pattern but still name foreground contexts.
const (
	HomeMenuID      = "NPXS40002"
	DebugSettingsID = "DEBUG_SETTINGS"
	LaunchingID     = "ITEM00001"
)

// IsSystemTitle reports whether id names a system/menu/debug context
// rather than a game. System contexts carry no session timer.
func IsSystemTitle(id string) bool {
	return strings.HasPrefix(id, "NPXS") || id == DebugSettingsID || id == LaunchingID
}

// GameMetadata is the resolved display metadata for a title id. It is
// produced once per id and never mutated afterwards.
type GameMetadata struct {
	TitleID    string `json:"title_id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	Background string `json:"background"`
}

// Session pairs the most recent non-system title with the time it was
// first entered. The pair survives menu round-trips and idle periods:
// only a different title replaces it.
type Session struct {
	TitleID   string
	StartedAt time.Time
}

// Game is the per-title portion of a Snapshot: metadata plus the session
// start timestamp sinks use to render an elapsed-time counter.
type Game struct {
	TitleID      string `json:"title_id"`
	Name         string `json:"name"`
	Icon         string `json:"icon"`
	Background   string `json:"background"`
	SessionStart int64  `json:"session_start_timestamp"`
}

// Snapshot is the fully merged value delivered to sinks. It is built
// fresh on every dispatch and never mutated after construction.
type Snapshot struct {
	Status Status            `json:"status"`
	Game   *Game             `json:"game,omitempty"`
	Stats  map[string]string `json:"stats"`
}

// Clone returns a deep copy of the Snapshot so that a sink can hold on
// to it without observing later mutations.
func (s Snapshot) Clone() Snapshot {
	c := s
	if s.Game != nil {
		g := *s.Game
		c.Game = &g
	}
	if s.Stats != nil {
		c.Stats = make(map[string]string, len(s.Stats))
		for k, v := range s.Stats {
			c.Stats[k] = v
		}
	}
	return c
}
