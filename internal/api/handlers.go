package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"wayfarer/internal/metrics"
	"wayfarer/internal/model"
	"wayfarer/internal/store"
)

// ListItineraries handles GET /itineraries[?userId=]
func (s *Server) ListItineraries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var userID *int
	if v := r.URL.Query().Get("userId"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid userId", err.Error(), r.URL.Path)
			return
		}
		userID = &n
	}
	items, err := s.Store.ListItineraries(r.Context(), userID)
	if err != nil {
		s.storeFailure(w, r, "List itineraries failed", err)
		return
	}
	if items == nil {
		items = []model.Itinerary{}
	}
	writeJSON(w, http.StatusOK, items)
}

// GetItinerary handles GET /itineraries/:id
func (s *Server) GetItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	it, err := s.Store.GetItinerary(r.Context(), ps.ByName("id"))
	if err != nil {
		s.storeFailure(w, r, "Get itinerary failed", err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

// CreateItinerary handles POST /itineraries
func (s *Server) CreateItinerary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body itineraryBody
	if !readBody(w, r, &body) {
		return
	}
	it, err := s.Store.CreateItinerary(r.Context(), body.newItinerary())
	if err != nil {
		s.storeFailure(w, r, "Create itinerary failed", err)
		return
	}
	s.publish(model.EventCreated, it)
	writeJSON(w, http.StatusCreated, it)
}

// UpdateItinerary handles PUT /itineraries/:id. The path id wins over any
// id in the body, and the owner recorded at creation is kept.
func (s *Server) UpdateItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var body itineraryBody
	if !readBody(w, r, &body) {
		return
	}
	it, err := s.Store.ReplaceItinerary(r.Context(), body.newItinerary().WithID(ps.ByName("id")))
	if err != nil {
		s.storeFailure(w, r, "Update itinerary failed", err)
		return
	}
	s.publish(model.EventUpdated, it)
	writeJSON(w, http.StatusOK, it)
}

// DeleteItinerary handles DELETE /itineraries/:id
func (s *Server) DeleteItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	it, err := s.Store.DeleteItinerary(r.Context(), ps.ByName("id"))
	if err != nil {
		s.storeFailure(w, r, "Delete itinerary failed", err)
		return
	}
	s.publishDeleted(it)
	writeJSON(w, http.StatusOK, struct{}{})
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Check connectivity when the store is backed by a database
	type pinger interface{ Ping(ctx context.Context) error }
	if p, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) storeFailure(w http.ResponseWriter, r *http.Request, title string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", "itinerary not found", r.URL.Path)
		return
	}
	s.logf("%s %s: %v", r.Method, r.URL.Path, err)
	writeProblem(w, http.StatusInternalServerError, title, err.Error(), r.URL.Path)
}

func (s *Server) publish(eventType string, it model.Itinerary) {
	c := it.Clone()
	s.emit(model.Event{Type: eventType, ItineraryID: it.ID, UserID: it.UserID, Itinerary: &c})
}

func (s *Server) publishDeleted(it model.Itinerary) {
	s.emit(model.Event{Type: model.EventDeleted, ItineraryID: it.ID, UserID: it.UserID})
}

func (s *Server) emit(evt model.Event) {
	if s.Broker == nil {
		return
	}
	evt.ID = "evt_" + uuid.NewString()
	evt.At = time.Now().UTC()
	s.Broker.Publish(UserTopic(evt.UserID), evt)
	s.Broker.Publish(TopicAll, evt)
	metrics.EventsPublished.WithLabelValues(evt.Type).Inc()
}
