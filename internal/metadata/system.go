// Package metadata resolves title ids to display metadata, combining a
// static system table, a persisted on-disk cache, and an external
// catalog fetch.
package metadata

import "github.com/consolewatch/backend/internal/activity"

// DefaultIcon is the placeholder icon reference used when no real icon
// could be resolved. Presence sinks map it to their bundled console art.
const DefaultIcon = "ps5"

// systemTitles is the fixed table for system/menu contexts. These never
// hit the cache or the catalog.
var systemTitles = map[string]activity.GameMetadata{
	"NPXS40002":      {Name: "Home Menu", Icon: "ps5"},
	"NPXS40008":      {Name: "Settings", Icon: "settings"},
	"DEBUG_SETTINGS": {Name: "Debug Settings", Icon: "cog"},
	"ITEM00001":      {Name: "Launching...", Icon: "ps5"},
	"CUSA00001":      {Name: "Media Player", Icon: "play"},
	"PPSA00001":      {Name: "PlayStation Store", Icon: "store"},
	"CUSA00002":      {Name: "Trophies", Icon: "trophy"},
}

// SystemTitle looks up id in the static system table.
func SystemTitle(id string) (activity.GameMetadata, bool) {
	meta, ok := systemTitles[id]
	if !ok {
		return activity.GameMetadata{}, false
	}
	meta.TitleID = id
	return meta, true
}
