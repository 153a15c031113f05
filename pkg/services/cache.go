package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/appsfolder/SWVNE/pkg/models"
)

type cachedLoad struct {
	signature string
	entries   models.Entries
	diags     []models.Diagnostic
}

// SnapshotCache keeps the last merged result per content directory. An entry
// is reused only while the directory's file signature (names, sizes and
// modification times of its *.json files) is unchanged, and writers drop it
// explicitly through Invalidate.
type SnapshotCache struct {
	mu      sync.Mutex
	entries map[string]cachedLoad
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{entries: make(map[string]cachedLoad)}
}

// Load returns the cached result for dir or runs load and stores it.
func (c *SnapshotCache) Load(dir string, load func() (models.Entries, []models.Diagnostic, error)) (models.Entries, []models.Diagnostic, error) {
	sig, err := dirSignature(dir)
	if err != nil {
		// Missing or unreadable dir: let the loader decide.
		return load()
	}

	c.mu.Lock()
	cached, ok := c.entries[dir]
	c.mu.Unlock()
	if ok && cached.signature == sig {
		return cached.entries, cached.diags, nil
	}

	entries, diags, err := load()
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	c.entries[dir] = cachedLoad{signature: sig, entries: entries, diags: diags}
	c.mu.Unlock()
	return entries, diags, nil
}

// Invalidate drops the cached result for dir.
func (c *SnapshotCache) Invalidate(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, dir)
}

func dirSignature(dir string) (string, error) {
	names, err := listJSONFiles(dir)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%s:%d:%d;", name, info.Size(), info.ModTime().UnixNano())
	}
	return b.String(), nil
}
