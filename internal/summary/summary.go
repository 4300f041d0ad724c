// Package summary derives trip statistics and route views from an
// itinerary collection. Everything here is recomputed from its inputs on
// each call.
package summary

import (
	"fmt"
	"math"
	"time"

	"wayfarer/internal/model"
)

const day = 24 * time.Hour

// Trip is an itinerary paired with its display duration.
type Trip struct {
	model.Itinerary
	DurationDays int `json:"durationDays"`
}

type Summary struct {
	UpcomingTrips   []Trip  `json:"upcomingTrips"`
	CompletedTrips  int     `json:"completedTrips"`
	TotalTravelDays float64 `json:"totalTravelDays"`
	TotalTrips      int     `json:"totalTrips"`
}

// TotalTravelDaysRounded is the display value of TotalTravelDays.
func (s Summary) TotalTravelDaysRounded() int {
	return int(math.Round(s.TotalTravelDays))
}

// Compute partitions itineraries relative to now. A trip that has started
// but not ended is counted only in the totals. Itineraries whose dates do
// not parse are counted as trips but contribute no days and fall in
// neither partition.
func Compute(itineraries []model.Itinerary, now time.Time) Summary {
	s := Summary{UpcomingTrips: []Trip{}, TotalTrips: len(itineraries)}
	for _, it := range itineraries {
		start, end, ok := span(it)
		if !ok {
			continue
		}
		s.TotalTravelDays += float64(end.Sub(start)) / float64(day)
		switch {
		case start.After(now):
			s.UpcomingTrips = append(s.UpcomingTrips, Trip{Itinerary: it.Clone(), DurationDays: ceilDays(start, end)})
		case end.Before(now):
			s.CompletedTrips++
		}
	}
	return s
}

// DurationDays is the whole number of days the itinerary spans, rounded up.
// It is 0 when either date is unparsable.
func DurationDays(it model.Itinerary) int {
	start, end, ok := span(it)
	if !ok {
		return 0
	}
	return ceilDays(start, end)
}

func span(it model.Itinerary) (time.Time, time.Time, bool) {
	start, err := model.ParseDate(it.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := model.ParseDate(it.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func ceilDays(start, end time.Time) int {
	return int(math.Ceil(float64(end.Sub(start)) / float64(day)))
}

// FormatKm renders a distance for display with the given number of decimals.
func FormatKm(km float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	return fmt.Sprintf("%.*f km", decimals, km)
}
