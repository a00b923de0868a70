// Package klog tails the console's debug log stream over TCP and turns
// raw log lines into foreground title transitions.
package klog

import (
	"regexp"
	"strings"

	"github.com/consolewatch/backend/internal/activity"
)

var (
	// Flag updates confirm an app switch; the foregrounded title is the
	// last id in the bracketed list.
	flagPattern = regexp.MustCompile(`ProhibitionFlag.*?newFlags\s*=\s*\[.*?,([A-Z]{4}[0-9]{5}),\]`)

	// Scene changes carry (source, destination) context names.
	scenePattern = regexp.MustCompile(`OnFocusActiveSceneChanged\s*\[(.*?)\]\s*->\s*\[(.*?)\]`)

	// Title-id-shaped tokens are only trusted behind known key prefixes.
	idPattern = regexp.MustCompile(`(?i)(?:Render\.|titleId\s*[:=]\s*|title_id\s*=\s*['"\[]?|SplashScreen\.)([A-Z]{4}[0-9]{5})`)

	debugPattern = regexp.MustCompile(`id_debug_settings`)
)

// ignoredIDs are background processes, dialogs and overlays that gain
// focus without representing a real foreground change.
var ignoredIDs = map[string]struct{}{
	"NPXS40003": {},
	"NPXS40093": {},
	"NPXS40094": {},
	"NPXS40095": {},
	"NPXS40096": {},
	"NPXS40100": {},
	"NPXS40109": {},
	"NPXS40112": {},
}

// Extract maps one log line to a candidate title id. Patterns are tried
// in a fixed order, first match wins. current is the title id already
// tracked; it suppresses echo lines that merely restate the foreground
// title. The second return value is false when the line yields no
// transition.
func Extract(line, current string) (string, bool) {
	var id string

	if m := flagPattern.FindStringSubmatch(line); m != nil {
		id = m[1]
	}

	if id == "" {
		if m := scenePattern.FindStringSubmatch(line); m != nil {
			source, dest := m[1], m[2]

			// Transient overlays grab focus without a real transition.
			if strings.Contains(dest, "FocusCapture") || strings.Contains(dest, "ReactModalScene") {
				return "", false
			}

			if strings.Contains(dest, "id_debug_settings") {
				id = activity.DebugSettingsID
			} else if m := idPattern.FindStringSubmatch(dest); m != nil {
				id = m[1]
			}

			// A generic application screen names the app on the source
			// side of the arrow instead.
			if id == "" && (strings.Contains(dest, "AppScreen") || strings.Contains(dest, "ApplicationScreenScene")) {
				if m := idPattern.FindStringSubmatch(source); m != nil {
					id = m[1]
				}
			}
		}
	}

	if id == "" {
		// Unload events mention the departing title; never transition on them.
		if strings.Contains(line, "Unload") {
			return "", false
		}

		if m := idPattern.FindStringSubmatch(line); m != nil {
			found := m[1]
			if _, ignored := ignoredIDs[found]; ignored {
				return "", false
			}
			if hasKnownPrefix(found) && found != current {
				id = found
			}
		}

		if id == "" && debugPattern.MatchString(line) {
			id = activity.DebugSettingsID
		}
	}

	if id == "" || id == current {
		return "", false
	}
	if _, ignored := ignoredIDs[id]; ignored {
		return "", false
	}
	return id, true
}

func hasKnownPrefix(id string) bool {
	return strings.HasPrefix(id, "NPXS") ||
		strings.HasPrefix(id, "CUSA") ||
		strings.HasPrefix(id, "PPSA")
}
