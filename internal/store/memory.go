package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"wayfarer/internal/model"
)

// Memory is a simple in-memory store used when no database is configured.
type Memory struct {
	mu    sync.Mutex
	items map[string]model.Itinerary // id -> itinerary
	order []string                   // ids in creation order
}

func NewMemory() *Memory {
	return &Memory{items: map[string]model.Itinerary{}}
}

func (m *Memory) ListItineraries(ctx context.Context, userID *int) ([]model.Itinerary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Itinerary{}
	for _, id := range m.order {
		it := m.items[id]
		if userID != nil && it.UserID != *userID {
			continue
		}
		out = append(out, it.Clone())
	}
	return out, nil
}

func (m *Memory) GetItinerary(ctx context.Context, id string) (model.Itinerary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return model.Itinerary{}, ErrNotFound
	}
	return it.Clone(), nil
}

func (m *Memory) CreateItinerary(ctx context.Context, in model.NewItinerary) (model.Itinerary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it := in.WithID(uuid.New().String())
	it.Normalize()
	m.items[it.ID] = it.Clone()
	m.order = append(m.order, it.ID)
	return it, nil
}

func (m *Memory) ReplaceItinerary(ctx context.Context, it model.Itinerary) (model.Itinerary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.items[it.ID]
	if !ok {
		return model.Itinerary{}, ErrNotFound
	}
	it = it.Clone()
	it.UserID = prev.UserID
	it.Normalize()
	m.items[it.ID] = it.Clone()
	return it, nil
}

func (m *Memory) DeleteItinerary(ctx context.Context, id string) (model.Itinerary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return model.Itinerary{}, ErrNotFound
	}
	delete(m.items, id)
	kept := make([]string, 0, len(m.order))
	for _, v := range m.order {
		if v != id {
			kept = append(kept, v)
		}
	}
	m.order = kept
	return it, nil
}
