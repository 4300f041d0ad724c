package store

import (
	"context"
	"errors"

	"wayfarer/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// ListItineraries returns itineraries in creation order. A nil userID
	// lists every user's itineraries.
	ListItineraries(ctx context.Context, userID *int) ([]model.Itinerary, error)
	GetItinerary(ctx context.Context, id string) (model.Itinerary, error)
	// CreateItinerary assigns a fresh id and stores the itinerary.
	CreateItinerary(ctx context.Context, in model.NewItinerary) (model.Itinerary, error)
	// ReplaceItinerary overwrites the stored itinerary with it.ID. The
	// owner set at creation is kept; it.UserID is ignored.
	ReplaceItinerary(ctx context.Context, it model.Itinerary) (model.Itinerary, error)
	// DeleteItinerary removes the itinerary and returns what was stored.
	DeleteItinerary(ctx context.Context, id string) (model.Itinerary, error)
}

var ErrNotFound = errors.New("not found")
