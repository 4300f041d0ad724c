// Package config loads process settings from an optional YAML file, an
// optional .env file, and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port       string `yaml:"port"`
	APIBaseURL string `yaml:"apiBaseUrl"`

	StoreBackend string `yaml:"storeBackend"` // memory, postgres, mongo
	DatabaseURL  string `yaml:"databaseUrl"`
	MongoURL     string `yaml:"mongoUrl"`
	MongoDB      string `yaml:"mongoDb"`
	RedisURL     string `yaml:"redisUrl"`

	AuthMode       string `yaml:"authMode"` // dev, hmac
	AuthHMACSecret string `yaml:"authHmacSecret"`

	AllowOrigins []string `yaml:"allowOrigins"`
	RateRPS      float64  `yaml:"rateRps"`
	RateBurst    int      `yaml:"rateBurst"`

	WebhookURLs        []string `yaml:"webhookUrls"`
	WebhookSecret      string   `yaml:"webhookSecret"`
	WebhookMaxAttempts int      `yaml:"webhookMaxAttempts"`

	ClientTimeout time.Duration `yaml:"clientTimeout"`
	ClientRPS     float64       `yaml:"clientRps"` // 0 disables client throttling
	ClientBurst   int           `yaml:"clientBurst"`
}

func Default() Config {
	return Config{
		Port:               "3001",
		APIBaseURL:         "http://localhost:3001",
		StoreBackend:       "memory",
		MongoDB:            "wayfarer",
		AuthMode:           "dev",
		AllowOrigins:       []string{"*"},
		RateRPS:            20,
		RateBurst:          40,
		WebhookMaxAttempts: 5,
		ClientTimeout:      10 * time.Second,
		ClientBurst:        5,
	}
}

// Load builds the service configuration and validates it. path may be
// empty; a missing file or .env is not an error.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Read is Load without the service-side Validate, for clients that only
// need the API and client settings.
func Read(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: .env: %v", err)
	}
	err := applyEnv(&cfg)
	return cfg, err
}

func applyEnv(c *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v := os.Getenv(key); v != "" {
			*dst = splitList(v)
		}
	}
	str("PORT", &c.Port)
	str("API_BASE_URL", &c.APIBaseURL)
	str("STORE_BACKEND", &c.StoreBackend)
	str("DATABASE_URL", &c.DatabaseURL)
	str("MONGO_URL", &c.MongoURL)
	str("MONGO_DB", &c.MongoDB)
	str("REDIS_URL", &c.RedisURL)
	str("AUTH_MODE", &c.AuthMode)
	str("AUTH_HMAC_SECRET", &c.AuthHMACSecret)
	str("WEBHOOK_SECRET", &c.WebhookSecret)
	list("ALLOW_ORIGINS", &c.AllowOrigins)
	list("WEBHOOK_URLS", &c.WebhookURLs)

	if v := os.Getenv("RATE_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: RATE_RPS: %w", err)
		}
		c.RateRPS = f
	}
	if v := os.Getenv("RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: RATE_BURST: %w", err)
		}
		c.RateBurst = n
	}
	if v := os.Getenv("WEBHOOK_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: WEBHOOK_MAX_ATTEMPTS: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("config: WEBHOOK_MAX_ATTEMPTS must be positive, got %d", n)
		}
		c.WebhookMaxAttempts = n
	}
	if v := os.Getenv("CLIENT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: CLIENT_TIMEOUT: %w", err)
		}
		c.ClientTimeout = d
	}
	if v := os.Getenv("CLIENT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: CLIENT_RPS: %w", err)
		}
		c.ClientRPS = f
	}
	if v := os.Getenv("CLIENT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: CLIENT_BURST: %w", err)
		}
		c.ClientBurst = n
	}
	return nil
}

// Validate checks that the selected backends have what they need.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("config: postgres backend requires DATABASE_URL")
		}
	case "mongo":
		if c.MongoURL == "" {
			return errors.New("config: mongo backend requires MONGO_URL")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.StoreBackend)
	}
	switch c.AuthMode {
	case "dev":
	case "hmac":
		if c.AuthHMACSecret == "" {
			return errors.New("config: hmac auth requires AUTH_HMAC_SECRET")
		}
	default:
		return fmt.Errorf("config: unknown auth mode %q", c.AuthMode)
	}
	return nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
