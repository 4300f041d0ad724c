// Package api implements the HTTP persistence service for itineraries.
package api

import (
	"context"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"wayfarer/internal/auth"
	"wayfarer/internal/config"
	"wayfarer/internal/metrics"
	"wayfarer/internal/store"
)

type Server struct {
	Store  store.Store
	Auth   *auth.Verifier
	Broker EventBroker
	Config config.Config
	Logger *log.Logger
}

func NewServer(cfg config.Config, st store.Store, broker EventBroker) *Server {
	if broker == nil {
		broker = NewBroker()
	}
	return &Server{
		Store:  st,
		Auth:   auth.NewVerifier(cfg.AuthMode, cfg.AuthHMACSecret),
		Broker: broker,
		Config: cfg,
		Logger: log.Default(),
	}
}

// OpenStore selects the backend named by cfg and prepares its schema.
func OpenStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "postgres":
		p, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := p.Migrate(ctx); err != nil {
			_ = p.Close()
			return nil, err
		}
		return p, nil
	case "mongo":
		m, err := store.NewMongo(ctx, cfg.MongoURL, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		if err := m.Migrate(ctx); err != nil {
			_ = m.Close(ctx)
			return nil, err
		}
		return m, nil
	default:
		return store.NewMemory(), nil
	}
}

// OpenBroker uses Redis when configured and reachable, otherwise the
// in-process broker.
func OpenBroker(cfg config.Config) EventBroker {
	if cfg.RedisURL == "" {
		return NewBroker()
	}
	rb, err := NewRedisBroker(cfg.RedisURL)
	if err != nil {
		log.Printf("redis broker unavailable, using in-memory broker: %v", err)
		return NewBroker()
	}
	return rb
}

// Router registers every route.
func (s *Server) Router() *httprouter.Router {
	r := httprouter.New()

	r.GET("/itineraries", s.ListItineraries)
	r.POST("/itineraries", s.CreateItinerary)
	// httprouter cannot register /itineraries/ws beside /itineraries/:id
	r.GET("/itineraries/:id", s.getOrStream)
	r.PUT("/itineraries/:id", s.UpdateItinerary)
	r.DELETE("/itineraries/:id", s.DeleteItinerary)
	r.GET("/healthz", s.HealthHandler)
	r.GET("/readyz", s.ReadyHandler)
	r.GET("/debug/vars", s.DebugJSON)
	r.GET("/openapi.yaml", s.OpenAPIHandler)
	r.GET("/openapi.json", s.OpenAPIJSONHandler)
	r.Handler(http.MethodGet, "/metrics", metrics.Handler())

	r.NotFound = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "", req.URL.Path)
	})
	r.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "", req.URL.Path)
	})
	return r
}

// Handler is the full middleware chain: CORS, rate limit, observe, router.
func (s *Server) Handler() http.Handler {
	metrics.RegisterDefault()
	var h http.Handler = s.Router()
	h = s.observe(h)
	h = newIPLimiter(s.Config.RateRPS, s.Config.RateBurst).middleware(h)
	h = s.cors().Handler(h)
	return h
}

func (s *Server) getOrStream(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if ps.ByName("id") == "ws" {
		s.StreamHandler(w, r, ps)
		return
	}
	s.GetItinerary(w, r, ps)
}

func (s *Server) logf(format string, args ...any) {
	if s.Logger == nil {
		log.Printf(format, args...)
		return
	}
	s.Logger.Printf(format, args...)
}
