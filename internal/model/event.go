package model

import "time"

// Change event types published by the persistence service.
const (
	EventCreated = "itinerary.created"
	EventUpdated = "itinerary.updated"
	EventDeleted = "itinerary.deleted"
)

// Event describes one committed change to an itinerary. Itinerary is nil
// for deletions.
type Event struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	ItineraryID string     `json:"itineraryId"`
	UserID      int        `json:"userId"`
	Itinerary   *Itinerary `json:"itinerary,omitempty"`
	At          time.Time  `json:"ts"`
}
