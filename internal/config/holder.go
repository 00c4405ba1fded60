package config

import "sync"

// Holder holds a Config value that can be hot-reloaded from its backing
// YAML path without requiring callers to restart the process. A failed
// reload leaves the previously loaded config in place.
type Holder struct {
	mu   sync.RWMutex
	cfg  *Config
	path string
}

// NewHolder wraps an already-loaded Config for hot reload against path.
func NewHolder(cfg *Config, path string) *Holder {
	return &Holder{cfg: cfg, path: path}
}

// Get returns the current config.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Reload re-runs the defaults < YAML < ENV hierarchy against the holder's
// path and swaps in the result atomically. On error the previously held
// config is left untouched.
func (h *Holder) Reload() error {
	cfg, err := LoadFrom(h.path)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
	return nil
}
