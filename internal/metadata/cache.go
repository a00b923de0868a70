package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/consolewatch/backend/internal/activity"
)

const (
	cacheFileName = "game_cache.json"
	appDirName    = "consolewatch"
)

// Cache is the persisted title id → metadata mapping. Entries are
// written on every successful catalog resolution and never invalidated:
// once a title is resolved its metadata is trusted for good.
type Cache struct {
	mu      sync.Mutex
	path    string
	entries map[string]activity.GameMetadata
}

// OpenCache loads the cache file at path, or starts empty when the file
// does not exist. Pass an empty path to use the default XDG state
// location. A corrupt file is an error; deleting it is the operator's
// call, not ours.
func OpenCache(path string) (*Cache, error) {
	if path == "" {
		path = filepath.Join(defaultStateDir(), cacheFileName)
	}
	c := &Cache{
		path:    path,
		entries: make(map[string]activity.GameMetadata),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("parsing cache %s: %w", path, err)
	}
	return c, nil
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Get returns the cached metadata for id, if present.
func (c *Cache) Get(id string) (activity.GameMetadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	meta, ok := c.entries[id]
	return meta, ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Put stores meta under id and persists the whole mapping immediately
// using a temp-file-then-rename write.
func (c *Cache) Put(id string, meta activity.GameMetadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = meta
	return c.save()
}

// save writes the mapping to disk. Callers must hold c.mu.
func (c *Cache) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(c.path), ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("renaming cache file: %w", err)
	}
	committed = true

	return nil
}

// defaultStateDir returns ~/.local/state/consolewatch, respecting
// XDG_STATE_HOME if set.
func defaultStateDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
