package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/consolewatch/backend/internal/activity"
)

func TestCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c, err := OpenCache(path)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("fresh cache has %d entries", c.Len())
	}

	meta := activity.GameMetadata{
		TitleID:    "CUSA01234",
		Name:       "Example Game",
		Icon:       "https://example.test/icon.png",
		Background: "https://example.test/icon.png",
	}
	if err := c.Put("CUSA01234", meta); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A second cache opened on the same path sees the persisted entry.
	c2, err := OpenCache(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := c2.Get("CUSA01234")
	if !ok {
		t.Fatal("entry lost across reopen")
	}
	if got != meta {
		t.Errorf("got %+v, want %+v", got, meta)
	}
}

func TestCacheMissingFileStartsEmpty(t *testing.T) {
	c, err := OpenCache(filepath.Join(t.TempDir(), "nope", "cache.json"))
	if err != nil {
		t.Fatalf("OpenCache on missing file: %v", err)
	}
	if _, ok := c.Get("CUSA01234"); ok {
		t.Error("unexpected entry in empty cache")
	}
}

func TestCacheCorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenCache(path); err == nil {
		t.Error("expected error for corrupt cache file")
	}
}

func TestSystemTitleTable(t *testing.T) {
	meta, ok := SystemTitle("NPXS40002")
	if !ok {
		t.Fatal("home menu missing from system table")
	}
	if meta.Name != "Home Menu" || meta.TitleID != "NPXS40002" {
		t.Errorf("unexpected home menu entry: %+v", meta)
	}

	if _, ok := SystemTitle("CUSA01234"); ok {
		t.Error("game id must not resolve from the system table")
	}
}
