package leave

import (
	"maps"
	"sync"
)

// Conflict is reported when a fetch returns a terminal status that disagrees
// with a local decision. The local decision still wins.
type Conflict struct {
	ID       string
	Fetched  Status
	Override Status
}

type LoadResult struct {
	Merged    int
	Skipped   int
	Conflicts []Conflict
}

// Store holds one session's leave requests: the visible set, the local
// decisions (overrides) and the last known full record per id (history).
// Mutations go through Load and UpdateStatus only, which keeps every
// overridden id showing its override.
type Store struct {
	mu        sync.RWMutex
	requests  []LeaveRequest
	overrides map[string]Status
	history   map[string]LeaveRequest
	partial   map[string]bool
	order     []string
}

func NewStore() *Store {
	return &Store{
		requests:  []LeaveRequest{},
		overrides: make(map[string]Status),
		history:   make(map[string]LeaveRequest),
		partial:   make(map[string]bool),
	}
}

// Load merges freshly fetched records into history (last writer wins per id),
// re-applies every override on top and rebuilds the visible set.
// Records without an id cannot be keyed and are skipped.
func (s *Store) Load(records []LeaveRequest) LoadResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res LoadResult
	fetched := make(map[string]Status, len(records))
	for _, r := range records {
		if r.ID == "" {
			res.Skipped++
			continue
		}
		if _, ok := s.history[r.ID]; !ok {
			s.order = append(s.order, r.ID)
		}
		s.history[r.ID] = r
		delete(s.partial, r.ID)
		fetched[r.ID] = r.Status
		res.Merged++
	}

	for id, status := range s.overrides {
		rec, ok := s.history[id]
		if !ok {
			continue
		}
		if fs, ok := fetched[id]; ok && fs.IsTerminal() && fs != status {
			res.Conflicts = append(res.Conflicts, Conflict{ID: id, Fetched: fs, Override: status})
		}
		rec.Status = status
		s.history[id] = rec
	}

	s.requests = s.visibleLocked()
	return res
}

// UpdateStatus records a local decision and makes it visible immediately.
// It never fails: an id without history gets a partial stub that is
// completed by the next Load.
func (s *Store) UpdateStatus(id string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.overrides[id] = status

	for i := range s.requests {
		if s.requests[i].ID == id {
			s.requests[i].Status = status
		}
	}

	rec, ok := s.history[id]
	if !ok {
		rec = LeaveRequest{ID: id}
		s.partial[id] = true
		s.order = append(s.order, id)
	}
	rec.Status = status
	s.history[id] = rec
}

// Reset empties the visible set and history after a failed fetch.
// Overrides survive, they are never dropped within a session.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = []LeaveRequest{}
	s.history = make(map[string]LeaveRequest)
	s.partial = make(map[string]bool)
	s.order = nil
}

func (s *Store) Requests() []LeaveRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LeaveRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *Store) Overrides() map[string]Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.overrides)
}

func (s *Store) History() map[string]LeaveRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.history)
}

// Snapshot returns the visible set and overrides under one lock.
func (s *Store) Snapshot() ([]LeaveRequest, map[string]Status) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]LeaveRequest, len(s.requests))
	copy(out, s.requests)
	return out, maps.Clone(s.overrides)
}

// EffectiveStatus returns the override for id, else its last fetched status.
func (s *Store) EffectiveStatus(id string) (Status, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if st, ok := s.overrides[id]; ok {
		return st, true
	}
	rec, ok := s.history[id]
	if !ok {
		return "", false
	}
	return rec.Status, true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests)
}

func (s *Store) visibleLocked() []LeaveRequest {
	out := make([]LeaveRequest, 0, len(s.history))
	for _, id := range s.order {
		if s.partial[id] {
			continue
		}
		rec, ok := s.history[id]
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out
}
