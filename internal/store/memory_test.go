package store

import (
	"context"
	"errors"
	"testing"

	"wayfarer/internal/model"
)

func newTrip(user int, name string) model.NewItinerary {
	return model.NewItinerary{UserID: user, Name: name, StartDate: "2025-01-01", EndDate: "2025-01-05"}
}

func TestMemoryCreateAssignsIDAndNormalizes(t *testing.T) {
	m := NewMemory()
	it, err := m.CreateItinerary(context.Background(), newTrip(1, "A"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if it.ID == "" || it.Destinations == nil {
		t.Fatalf("got %+v", it)
	}
	got, err := m.GetItinerary(context.Background(), it.ID)
	if err != nil || got.Name != "A" {
		t.Fatalf("get: %+v %v", got, err)
	}
}

func TestMemoryListFiltersByUserInCreationOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	a, _ := m.CreateItinerary(ctx, newTrip(1, "A"))
	_, _ = m.CreateItinerary(ctx, newTrip(2, "B"))
	c, _ := m.CreateItinerary(ctx, newTrip(1, "C"))

	uid := 1
	mine, _ := m.ListItineraries(ctx, &uid)
	if len(mine) != 2 || mine[0].ID != a.ID || mine[1].ID != c.ID {
		t.Fatalf("user 1: %+v", mine)
	}
	all, _ := m.ListItineraries(ctx, nil)
	if len(all) != 3 {
		t.Fatalf("all: %d", len(all))
	}
	none := 99
	empty, _ := m.ListItineraries(ctx, &none)
	if empty == nil || len(empty) != 0 {
		t.Fatalf("want empty non-nil slice")
	}
}

func TestMemoryReplaceAndDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	it, _ := m.CreateItinerary(ctx, newTrip(1, "A"))

	it.Name = "A2"
	it.Destinations = append(it.Destinations, model.Destination{ID: "d1", Name: "Oslo", Lat: model.FloatPtr(59.9), Lng: model.FloatPtr(10.7)})
	if _, err := m.ReplaceItinerary(ctx, it); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ := m.GetItinerary(ctx, it.ID)
	if got.Name != "A2" || len(got.Destinations) != 1 || got.Destinations[0].Activities == nil {
		t.Fatalf("after replace: %+v", got)
	}

	if _, err := m.ReplaceItinerary(ctx, model.Itinerary{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("replace missing: %v", err)
	}

	deleted, err := m.DeleteItinerary(ctx, it.ID)
	if err != nil || deleted.UserID != 1 {
		t.Fatalf("delete: %+v %v", deleted, err)
	}
	if _, err := m.GetItinerary(ctx, it.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}
	if _, err := m.DeleteItinerary(ctx, it.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	it, _ := m.CreateItinerary(ctx, model.NewItinerary{UserID: 1, Name: "A", Destinations: []model.Destination{{ID: "d", Name: "x"}}})
	got, _ := m.GetItinerary(ctx, it.ID)
	got.Destinations[0].Name = "mutated"
	again, _ := m.GetItinerary(ctx, it.ID)
	if again.Destinations[0].Name != "x" {
		t.Fatalf("store leaked internal state")
	}
}
