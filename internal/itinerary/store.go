// Package itinerary holds the session's itinerary collection and the
// operations that keep it in sync with the persistence service.
package itinerary

import (
	"sync"

	"wayfarer/internal/model"
)

// State is a point-in-time view of the Store.
type State struct {
	Itineraries []model.Itinerary
	Current     *model.Itinerary // edit buffer; nil when closed
	Loading     bool
	Error       string // empty when no error
}

// Store is the authoritative in-memory collection for one authenticated
// session. Every settlement replaces the affected slice under the lock, so
// readers never observe a partial write.
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: State{Itineraries: []model.Itinerary{}}}
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := State{Loading: s.state.Loading, Error: s.state.Error}
	out.Itineraries = cloneAll(s.state.Itineraries)
	if s.state.Current != nil {
		c := s.state.Current.Clone()
		out.Current = &c
	}
	return out
}

func (s *Store) Itineraries() []model.Itinerary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.state.Itineraries)
}

// Current returns a copy of the edit buffer.
func (s *Store) Current() (model.Itinerary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Current == nil {
		return model.Itinerary{}, false
	}
	return s.state.Current.Clone(), true
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Loading
}

// Err returns the last operation's failure message, or "".
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Error
}

// Find returns a copy of the itinerary with the given id.
func (s *Store) Find(id string) (model.Itinerary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.state.Itineraries, id); i >= 0 {
		return s.state.Itineraries[i].Clone(), true
	}
	return model.Itinerary{}, false
}

// SetCurrent replaces the edit buffer wholesale. nil closes it.
func (s *Store) SetCurrent(it *model.Itinerary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it == nil {
		s.state.Current = nil
		return
	}
	c := it.Clone()
	s.state.Current = &c
}

// Edit opens the edit buffer on a copy of the stored itinerary.
func (s *Store) Edit(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.state.Itineraries, id)
	if i < 0 {
		return false
	}
	c := s.state.Itineraries[i].Clone()
	s.state.Current = &c
	return true
}

// AddActivity appends a to the destination's activities. Unknown ids are a no-op.
// The change is local until the itinerary is updated remotely.
func (s *Store) AddActivity(itineraryID, destinationID string, a model.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.state.Itineraries, itineraryID)
	if i < 0 {
		return
	}
	dests := s.state.Itineraries[i].Destinations
	for j := range dests {
		if dests[j].ID == destinationID {
			acts := make([]model.Activity, 0, len(dests[j].Activities)+1)
			acts = append(acts, dests[j].Activities...)
			dests[j].Activities = append(acts, a)
			return
		}
	}
}

// ReplaceDestination swaps the destination with d.ID in place. Unknown ids are a no-op.
func (s *Store) ReplaceDestination(itineraryID string, d model.Destination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := indexOf(s.state.Itineraries, itineraryID)
	if i < 0 {
		return
	}
	dests := s.state.Itineraries[i].Destinations
	for j := range dests {
		if dests[j].ID == d.ID {
			dests[j] = d.Clone()
			return
		}
	}
}

// settlement

func (s *Store) pending() {
	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()
}

func (s *Store) rejected(msg string) {
	s.mu.Lock()
	s.state.Loading = false
	s.state.Error = msg
	s.mu.Unlock()
}

func (s *Store) fulfilled(apply func(st *State)) {
	s.mu.Lock()
	s.state.Loading = false
	apply(&s.state)
	s.mu.Unlock()
}

func indexOf(list []model.Itinerary, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(list []model.Itinerary) []model.Itinerary {
	out := make([]model.Itinerary, len(list))
	for i, it := range list {
		out[i] = it.Clone()
	}
	return out
}
