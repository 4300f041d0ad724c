package api

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"wayfarer/internal/buildinfo"
)

// DebugJSON handles GET /debug/vars. Secrets are reported only as present
// or absent.
func (s *Server) DebugJSON(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	c := s.Config
	info := map[string]any{
		"build": buildinfo.Info(),
		"time":  time.Now().UTC().Format(time.RFC3339),
		"config": map[string]any{
			"PORT":             c.Port,
			"STORE_BACKEND":    c.StoreBackend,
			"AUTH_MODE":        c.AuthMode,
			"ALLOW_ORIGINS":    c.AllowOrigins,
			"RATE_RPS":         c.RateRPS,
			"RATE_BURST":       c.RateBurst,
			"WEBHOOK_URLS":     len(c.WebhookURLs),
			"HAS_DATABASE_URL": c.DatabaseURL != "",
			"HAS_MONGO_URL":    c.MongoURL != "",
			"HAS_REDIS_URL":    c.RedisURL != "",
		},
	}
	writeJSON(w, http.StatusOK, info)
}
