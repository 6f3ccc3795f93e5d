package config

import (
	"sync/atomic"
)

// Store holds the live configuration. Readers take the current snapshot on
// every projection and tick; writers replace it wholesale so a reader never
// sees a half-applied update.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore returns a Store seeded with a copy of cfg (or defaults when nil).
func NewStore(cfg *Config) *Store {
	s := &Store{}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s.current.Store(cfg.Clone())
	return s
}

// Current returns the active configuration. Callers must treat it as
// read-only.
func (s *Store) Current() *Config {
	return s.current.Load()
}

// Update applies patch on top of the active configuration, validates the
// result and swaps it in. The active configuration is unchanged on error.
func (s *Store) Update(patch *Config) error {
	for {
		old := s.current.Load()
		next := old.Clone()
		next.Merge(patch)
		if err := next.Validate(); err != nil {
			return err
		}
		if s.current.CompareAndSwap(old, next) {
			return nil
		}
	}
}
