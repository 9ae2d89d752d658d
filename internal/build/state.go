package build

import (
	"sync"
	"time"
)

// State records when the last successful build finished. It is shared between
// the builder (writer), the change watcher and the HTTP status endpoint (readers).
type State struct {
	mu        sync.RWMutex
	lastBuild time.Time
}

// NewState returns a State whose last build time is initial.
func NewState(initial time.Time) *State {
	return &State{lastBuild: initial.Truncate(time.Millisecond)}
}

// LastBuild returns the time of the last successful build.
func (s *State) LastBuild() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastBuild
}

// MarkBuilt records a successful build finishing at t and returns the stored
// value. Stored times have millisecond precision and strictly increase, so
// clients comparing millisecond timestamps always observe a change.
func (s *State) MarkBuilt(t time.Time) time.Time {
	t = t.Truncate(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !t.After(s.lastBuild) {
		t = s.lastBuild.Add(time.Millisecond)
	}
	s.lastBuild = t
	return t
}
