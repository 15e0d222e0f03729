package database

import (
	"context"
	"fmt"
	"sync"

	"birdnest/internal/executor"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Origin names where an index load came from.
type Origin string

const (
	OriginCache  Origin = "cache"
	OriginStatus Origin = "status file"
	OriginQuery  Origin = "dpkg-query"
)

// Index enumerates installed system packages: the cache when it is valid,
// else the dpkg status file (refreshing the cache), else dpkg-query.
type Index struct {
	cache     *Cache
	fs        afero.Fs
	statePath string
	exec      *executor.Executor
	log       zerolog.Logger
	mu        sync.Mutex
}

// NewIndex creates an Index over cache, reading the state file from the
// cache's filesystem.
func NewIndex(cache *Cache, exec *executor.Executor) *Index {
	if exec == nil {
		exec = executor.New(false, false)
	}
	return &Index{
		cache:     cache,
		fs:        cache.fs,
		statePath: cache.statePath,
		exec:      exec,
		log:       zerolog.Nop(),
	}
}

// SetLogger sets the logger for the index and its cache.
func (idx *Index) SetLogger(log zerolog.Logger) {
	idx.log = log.With().Str("component", "index").Logger()
	idx.cache.SetLogger(log)
}

// Cache returns the underlying cache.
func (idx *Index) Cache() *Cache {
	return idx.cache
}

// StatePath returns the dpkg status file the index is validated against.
func (idx *Index) StatePath() string {
	return idx.statePath
}

// Installed returns the installed packages in source order.
func (idx *Index) Installed(ctx context.Context) ([]InstalledPackage, error) {
	pkgs, _, err := idx.Load(ctx)
	return pkgs, err
}

// Load returns the installed packages and where they were read from.
func (idx *Index) Load(ctx context.Context) ([]InstalledPackage, Origin, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if pkgs, ok := idx.cache.Load(); ok {
		return pkgs, OriginCache, nil
	}

	if f, err := idx.fs.Open(idx.statePath); err == nil {
		pkgs, err := ParseStatus(f)
		f.Close()
		if err == nil {
			if err := idx.cache.Save(pkgs); err != nil {
				idx.log.Debug().Err(err).Msg("failed to refresh cache")
			}
			return pkgs, OriginStatus, nil
		}
		idx.log.Debug().Err(err).Msg("failed to parse state file, using dpkg-query")
	} else {
		idx.log.Debug().Err(err).Msg("state file unreadable, using dpkg-query")
	}

	output, err := idx.exec.Text(ctx, executor.Command{
		Name: "dpkg-query",
		Args: []string{"-W", "-f=${Package}\t${Version}\n"},
	})
	if err != nil {
		return nil, OriginQuery, fmt.Errorf("failed to list installed packages: %w", err)
	}
	return ParseQueryOutput(output), OriginQuery, nil
}

// Contains reports whether name is installed.
func (idx *Index) Contains(ctx context.Context, name string) (bool, error) {
	pkgs, err := idx.Installed(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range pkgs {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Invalidate drops the cache so the next load re-reads the state file.
func (idx *Index) Invalidate() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.cache.Invalidate()
}
