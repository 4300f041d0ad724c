package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"wayfarer/internal/geo"
)

// Core domain types. Field names follow the REST wire format.

type ActivityType string

const (
	ActivityLandmark   ActivityType = "landmark"
	ActivityRestaurant ActivityType = "restaurant"
	ActivityOther      ActivityType = "other"
)

// ActivityTypes lists the closed set of activity categories.
var ActivityTypes = []ActivityType{ActivityLandmark, ActivityRestaurant, ActivityOther}

func (t ActivityType) Valid() bool {
	for _, v := range ActivityTypes {
		if t == v {
			return true
		}
	}
	return false
}

// ParseActivityType accepts any casing of a known type.
func ParseActivityType(s string) (ActivityType, error) {
	t := ActivityType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown activity type %q (allowed: landmark, restaurant, other)", s)
	}
	return t, nil
}

type Activity struct {
	ID          string       `json:"id" bson:"id"`
	Name        string       `json:"name" bson:"name" validate:"required"`
	Type        ActivityType `json:"type" bson:"type" validate:"required,oneof=landmark restaurant other"`
	Description string       `json:"description" bson:"description"`
}

// NewActivity builds an activity with a fresh random id.
func NewActivity(name string, typ ActivityType, description string) Activity {
	return Activity{ID: uuid.New().String(), Name: name, Type: typ, Description: description}
}

type Destination struct {
	ID         string     `json:"id" bson:"id"`
	Name       string     `json:"name" bson:"name"`
	Lat        *float64   `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng        *float64   `json:"lng,omitempty" bson:"lng,omitempty"`
	Activities []Activity `json:"activities" bson:"activities" validate:"dive"`
}

// HasCoordinates reports whether both lat and lng are set.
func (d Destination) HasCoordinates() bool { return d.Lat != nil && d.Lng != nil }

// Point resolves the destination's position; a missing coordinate counts as 0.
func (d Destination) Point() geo.Point {
	var p geo.Point
	if d.Lat != nil {
		p.Lat = *d.Lat
	}
	if d.Lng != nil {
		p.Lng = *d.Lng
	}
	return p
}

// Clone returns a copy that shares no memory with d.
func (d Destination) Clone() Destination {
	out := d
	if d.Lat != nil {
		v := *d.Lat
		out.Lat = &v
	}
	if d.Lng != nil {
		v := *d.Lng
		out.Lng = &v
	}
	if d.Activities != nil {
		out.Activities = make([]Activity, len(d.Activities))
		copy(out.Activities, d.Activities)
	}
	return out
}

type Itinerary struct {
	ID           string        `json:"id" bson:"id"`
	UserID       int           `json:"userId" bson:"userId" validate:"required"`
	Name         string        `json:"name" bson:"name" validate:"required"`
	StartDate    string        `json:"startDate" bson:"startDate"`
	EndDate      string        `json:"endDate" bson:"endDate"`
	Description  string        `json:"description" bson:"description"`
	Destinations []Destination `json:"destinations" bson:"destinations" validate:"dive"`
}

// Route returns the destinations' positions in route order.
func (it Itinerary) Route() geo.Route {
	out := make(geo.Route, 0, len(it.Destinations))
	for _, d := range it.Destinations {
		out = append(out, d.Point())
	}
	return out
}

// Clone returns a deep copy of the itinerary.
func (it Itinerary) Clone() Itinerary {
	out := it
	if it.Destinations != nil {
		out.Destinations = make([]Destination, len(it.Destinations))
		for i, d := range it.Destinations {
			out.Destinations[i] = d.Clone()
		}
	}
	return out
}

// Normalize replaces nil collections with empty ones so JSON carries [] rather than null.
func (it *Itinerary) Normalize() {
	if it.Destinations == nil {
		it.Destinations = []Destination{}
	}
	for i := range it.Destinations {
		if it.Destinations[i].Activities == nil {
			it.Destinations[i].Activities = []Activity{}
		}
	}
}

// NewItinerary is an itinerary that has not been persisted yet; the
// persistence service assigns the id.
type NewItinerary struct {
	UserID       int           `json:"userId" yaml:"userId"`
	Name         string        `json:"name" yaml:"name"`
	StartDate    string        `json:"startDate" yaml:"startDate"`
	EndDate      string        `json:"endDate" yaml:"endDate"`
	Description  string        `json:"description" yaml:"description"`
	Destinations []Destination `json:"destinations" yaml:"destinations"`
}

// WithID attaches a server-assigned id.
func (n NewItinerary) WithID(id string) Itinerary {
	return Itinerary{
		ID:           id,
		UserID:       n.UserID,
		Name:         n.Name,
		StartDate:    n.StartDate,
		EndDate:      n.EndDate,
		Description:  n.Description,
		Destinations: n.Destinations,
	}
}

// FloatPtr is a helper for optional coordinates.
func FloatPtr(v float64) *float64 { return &v }
