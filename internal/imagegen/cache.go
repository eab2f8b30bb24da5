package imagegen

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Cache provides file-based caching for generated banner images, keyed by
// condition slug.
type Cache struct {
	dir    string
	maxAge time.Duration
}

// NewCache creates a new image cache in the specified directory.
// Images are refreshed after maxAge to provide variety.
func NewCache(dir string) *Cache {
	if err := os.MkdirAll(dir, 0755); err != nil {
		// Cache is optional, keep going without it.
		log.Printf("could not create image cache directory: %v", err)
	}
	return &Cache{
		dir:    dir,
		maxAge: 7 * 24 * time.Hour,
	}
}

func (c *Cache) path(slug string) string {
	return filepath.Join(c.dir, fmt.Sprintf("banner_%s.png", slug))
}

// Get retrieves a cached image if it exists and is not stale.
func (c *Cache) Get(slug string) ([]byte, bool) {
	path := c.path(slug)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if time.Since(info.ModTime()) > c.maxAge {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	return data, true
}

// Set stores an image in the cache.
func (c *Cache) Set(slug string, data []byte) error {
	return os.WriteFile(c.path(slug), data, 0644)
}

// GetAny returns any cached image as a fallback when the desired condition is
// not yet generated.
func (c *Cache) GetAny() ([]byte, bool) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, false
	}

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".png" {
			data, err := os.ReadFile(filepath.Join(c.dir, entry.Name()))
			if err == nil {
				return data, true
			}
		}
	}

	return nil, false
}
