package metadata

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/consolewatch/backend/internal/activity"
	"github.com/consolewatch/backend/internal/metrics"
)

// Library answers metadata lookups in a fixed order: static system
// table, persisted cache, then external catalog fetch. Lookups never
// fail: an unresolvable title degrades to a placeholder entry that is
// deliberately not cached so a later lookup may retry the fetch.
type Library struct {
	cache    *Cache
	resolver *Resolver
	metrics  *metrics.Metrics
}

func NewLibrary(cache *Cache, resolver *Resolver, m *metrics.Metrics) *Library {
	return &Library{
		cache:    cache,
		resolver: resolver,
		metrics:  m,
	}
}

// Resolve returns display metadata for id, fetching and caching it on
// first sight of a game title.
func (l *Library) Resolve(ctx context.Context, id string) activity.GameMetadata {
	if meta, ok := SystemTitle(id); ok {
		return meta
	}

	if meta, ok := l.cache.Get(id); ok {
		l.metrics.IncCatalogFetch("cache_hit")
		return meta
	}

	// Unlisted system processes resolve generically without a fetch;
	// the catalog only knows games.
	if strings.HasPrefix(id, "NPXS") {
		return activity.GameMetadata{TitleID: id, Name: "System App", Icon: DefaultIcon}
	}

	if l.resolver == nil {
		return placeholder(id)
	}

	meta, err := l.resolver.Fetch(ctx, id)
	if err != nil {
		l.metrics.IncCatalogFetch("failure")
		log.Printf("[metadata] resolving %s: %v", id, err)
		return placeholder(id)
	}
	l.metrics.IncCatalogFetch("success")

	if err := l.cache.Put(id, meta); err != nil {
		// A persistence failure degrades to in-memory only for this
		// entry; the resolution itself still stands.
		log.Printf("[metadata] caching %s: %v", id, err)
	}
	return meta
}

// placeholder is the fallback for an unresolvable title. It is never
// cached, so a later lookup is free to retry the fetch.
func placeholder(id string) activity.GameMetadata {
	return activity.GameMetadata{
		TitleID: id,
		Name:    fmt.Sprintf("Unknown (%s)", id),
		Icon:    DefaultIcon,
	}
}
