package manager

import (
	"context"
	"fmt"
	"sync"

	"birdnest/pkg/manager/detector"
)

// Registry holds the configured backends and the selected system tool.
type Registry struct {
	managers map[string]Manager
	order    []string
	system   Manager
	sysInfo  *detector.SystemInfo
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{managers: make(map[string]Manager)}
}

// Register adds a manager to the registry.
func (r *Registry) Register(mgr Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.managers[mgr.Name()]; !ok {
		r.order = append(r.order, mgr.Name())
	}
	r.managers[mgr.Name()] = mgr
}

// Detect reads the host distribution and selects the system tool for preference.
func (r *Registry) Detect(preference string) error {
	info, err := detector.Detect()
	if err != nil {
		return fmt.Errorf("failed to detect system: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sysInfo = info

	installed := func(name string) bool {
		for _, mgr := range r.managers {
			if mgr.Type() != TypeUniversal && binaryOf(mgr) == name {
				return mgr.IsAvailable()
			}
		}
		return false
	}
	if name := detector.SelectSystemTool(preference, installed); name != "" {
		r.system = r.managers[name]
	}
	return nil
}

// binaryOf maps a registered manager to the binary SelectSystemTool looks for.
func binaryOf(mgr Manager) string {
	if mgr.Name() == detector.ToolAPT {
		return "apt-get"
	}
	return mgr.Name()
}

// System returns the selected system tool, or nil if none is installed.
func (r *Registry) System() Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.system
}

// SetSystem overrides the selected system tool.
func (r *Registry) SetSystem(mgr Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.system = mgr
}

// SystemInfo returns the detected system information.
func (r *Registry) SystemInfo() *detector.SystemInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sysInfo
}

// Get returns a specific manager by name.
func (r *Registry) Get(name string) (Manager, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mgr, ok := r.managers[name]
	return mgr, ok
}

// Available returns the installed managers in registration order.
func (r *Registry) Available() []Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var available []Manager
	for _, name := range r.order {
		if mgr := r.managers[name]; mgr.IsAvailable() {
			available = append(available, mgr)
		}
	}
	return available
}

// ForSource resolves a --source value. An empty source or "system" is the
// selected system tool.
func (r *Registry) ForSource(source string) (Manager, error) {
	if source == "" || source == "system" {
		if sys := r.System(); sys != nil {
			return sys, nil
		}
		return nil, fmt.Errorf("no system package tool detected")
	}

	mgr, ok := r.Get(source)
	if !ok {
		return nil, fmt.Errorf("unknown package source: %s", source)
	}
	if !mgr.IsAvailable() {
		return nil, fmt.Errorf("package manager '%s' is not available on this system", source)
	}
	return mgr, nil
}

// SearchAll queries the system tool and every available universal manager
// concurrently and returns the hits ranked against query. Failing managers are
// skipped; the first failure is returned alongside the remaining hits.
func (r *Registry) SearchAll(ctx context.Context, query string) ([]Hit, error) {
	var targets []Manager
	if sys := r.System(); sys != nil {
		targets = append(targets, sys)
	}
	for _, mgr := range r.Available() {
		if mgr.Type() == TypeUniversal {
			targets = append(targets, mgr)
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no package managers available")
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  []Hit
		firstErr error
	)

	for _, mgr := range targets {
		wg.Add(1)
		go func(m Manager) {
			defer wg.Done()

			hits, err := m.Search(ctx, query)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("%s: %w", m.Name(), err)
				}
				return
			}
			results = append(results, hits...)
		}(mgr)
	}

	wg.Wait()

	Rank(results, query)
	return results, firstErr
}
