/*
DESCRIPTION
  store.go implements Store, the double-buffered holder of Config: updates
  staged via Set accumulate in a pending map and are only applied to the
  active snapshot read by the pipeline when Apply is called at a stage
  boundary, never mid-frame.

AUTHORS
  Scott Barnard <scott@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package paramstore

import (
	"sync"

	"github.com/ausocean/utils/logging"
)

// Store holds the pipeline's active Config plus a pending set of staged
// string updates, applied atomically at a stage boundary.
type Store struct {
	log logging.Logger

	mu      sync.Mutex
	active  Config
	pending map[string]string
}

// NewStore returns a Store initialized to cfg.
func NewStore(l logging.Logger, cfg Config) *Store {
	return &Store{log: l, active: cfg}
}

// Get returns a copy of the currently active Config. Safe to call
// concurrently with Set and Apply.
func (s *Store) Get() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Set stages a named update to be applied on the next Apply call. It never
// touches the active Config read by in-flight processing.
func (s *Store) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		s.pending = make(map[string]string)
	}
	s.pending[name] = value
}

// Pending reports whether any staged update is waiting to be applied.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0
}

// Apply applies every staged update to a copy of the active Config,
// validates it, and swaps it in as the new active Config. It reports
// whether there was anything to apply. Call this only at a stage boundary
// (between frames), never while a frame is mid-processing.
func (s *Store) Apply() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return false
	}

	next := s.active
	next.Update(s.pending)
	next.Validate()
	s.active = next
	s.pending = nil

	if s.log != nil {
		s.log.Info("paramstore: applied staged configuration update")
	}
	return true
}

// ReloadModuleFromFile loads path as an INI file and stages every key
// belonging to the named module (Matching, BackMatching, Averaging,
// Completion, or Limit, per ModuleName) for the next Apply. If
// applyImmediately is true, it calls Apply itself before returning, so the
// module's parameters take effect at the next stage boundary rather than
// waiting for a separate Apply call.
func (s *Store) ReloadModuleFromFile(moduleIndex int, path string, applyImmediately bool) error {
	module, err := ModuleName(moduleIndex)
	if err != nil {
		return err
	}
	cfg, err := LoadINI(path, s.log)
	if err != nil {
		return err
	}

	vals := toStrings(cfg)
	for _, v := range Variables {
		if v.Module != module {
			continue
		}
		if val, ok := vals[v.Name]; ok {
			s.Set(v.Name, val)
		}
	}

	if applyImmediately {
		s.Apply()
	}
	return nil
}
