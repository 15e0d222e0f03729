// Package database keeps the list of installed system packages: a binary
// on-disk cache in front of the dpkg status file.
package database

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// InstalledPackage is one entry of the installed-package index.
type InstalledPackage struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// errCorrupt marks a cache file that cannot be decoded.
var errCorrupt = errors.New("corrupt installed-package cache")

// Cache stores the installed-package index on disk. The cache is valid only
// while its mtime is not older than the state file's.
type Cache struct {
	fs        afero.Fs
	path      string
	statePath string
	log       zerolog.Logger
}

// NewCache creates a Cache for path, validated against statePath.
func NewCache(fs afero.Fs, path, statePath string) *Cache {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Cache{fs: fs, path: path, statePath: statePath, log: zerolog.Nop()}
}

// SetLogger sets the logger for cache hits and misses.
func (c *Cache) SetLogger(log zerolog.Logger) {
	c.log = log.With().Str("component", "cache").Logger()
}

// Path returns the cache file path.
func (c *Cache) Path() string {
	return c.path
}

// Load returns the cached index. Any I/O error, a stale cache or a corrupt
// file is a miss; a stale cache file is also deleted.
func (c *Cache) Load() ([]InstalledPackage, bool) {
	stateInfo, err := c.fs.Stat(c.statePath)
	if err != nil {
		c.log.Debug().Err(err).Msg("state file unreadable, cache miss")
		return nil, false
	}
	cacheInfo, err := c.fs.Stat(c.path)
	if err != nil {
		c.log.Debug().Msg("no cache file")
		return nil, false
	}

	if cacheInfo.ModTime().Before(stateInfo.ModTime()) {
		c.log.Debug().Msg("cache older than state file, invalidating")
		_ = c.fs.Remove(c.path)
		return nil, false
	}

	data, err := afero.ReadFile(c.fs, c.path)
	if err != nil {
		return nil, false
	}

	pkgs, err := Decode(data)
	if err != nil {
		c.log.Debug().Err(err).Msg("cache miss")
		return nil, false
	}

	c.log.Debug().Int("count", len(pkgs)).Msg("loaded installed packages from cache")
	return pkgs, true
}

// Save writes pkgs to the cache. The encoded buffer is written to a temporary
// file in the same directory and renamed over the cache path.
func (c *Cache) Save(pkgs []InstalledPackage) error {
	dir := filepath.Dir(c.path)
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := afero.TempFile(c.fs, dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(Encode(pkgs)); err != nil {
		tmp.Close()
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := c.fs.Rename(tmpName, c.path); err != nil {
		_ = c.fs.Remove(tmpName)
		return fmt.Errorf("failed to replace cache: %w", err)
	}

	c.log.Debug().Int("count", len(pkgs)).Msg("saved installed packages to cache")
	return nil
}

// Invalidate deletes the cache file. A missing file is not an error.
func (c *Cache) Invalidate() error {
	if err := c.fs.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	c.log.Debug().Msg("cache invalidated")
	return nil
}

// Encode renders pkgs as a little-endian uint64 count followed by
// name\x00version\x00 pairs.
func Encode(pkgs []InstalledPackage) []byte {
	size := 8
	for _, p := range pkgs {
		size += len(p.Name) + len(p.Version) + 2
	}

	buf := make([]byte, 8, size)
	binary.LittleEndian.PutUint64(buf, uint64(len(pkgs)))
	for _, p := range pkgs {
		buf = append(buf, p.Name...)
		buf = append(buf, 0)
		buf = append(buf, p.Version...)
		buf = append(buf, 0)
	}
	return buf
}

// Decode parses the Encode format. Truncated input, a missing terminator or
// bytes past the declared entries fail the whole decode; a partial list is
// never returned.
func Decode(data []byte) ([]InstalledPackage, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: short header", errCorrupt)
	}

	count := binary.LittleEndian.Uint64(data[:8])
	rest := data[8:]

	// every entry needs at least its two terminators
	if count > uint64(len(rest)/2) {
		return nil, fmt.Errorf("%w: count %d exceeds data", errCorrupt, count)
	}

	pkgs := make([]InstalledPackage, 0, count)
	for i := uint64(0); i < count; i++ {
		var name, version string
		var ok bool
		if name, rest, ok = field(rest); !ok {
			return nil, fmt.Errorf("%w: entry %d truncated", errCorrupt, i)
		}
		if version, rest, ok = field(rest); !ok {
			return nil, fmt.Errorf("%w: entry %d truncated", errCorrupt, i)
		}
		pkgs = append(pkgs, InstalledPackage{Name: name, Version: version})
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", errCorrupt, len(rest))
	}
	return pkgs, nil
}

func field(data []byte) (string, []byte, bool) {
	end := bytes.IndexByte(data, 0)
	if end < 0 {
		return "", nil, false
	}
	return string(data[:end]), data[end+1:], true
}
