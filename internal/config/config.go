package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config is the runtime configuration shared by the server and the CLI.
type Config struct {
	Env  string
	Port string

	DB DBConfig

	JWTSecret string
	TokenTTL  time.Duration

	GraphHopperURL     string
	GraphHopperProfile string

	// provider endpoints consumed by the route client and the advisor
	DirectionsURL string
	OptimizerURL  string
	APIToken      string

	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string

	CacheTTL    time.Duration
	SessionPath string
}

// DBConfig selects and locates the itinerary database.
type DBConfig struct {
	Driver     string // "mysql" or "sqlite"
	User       string
	Pass       string
	Host       string
	Port       string
	Name       string
	Path       string // sqlite file
	SkipSchema bool
}

// Load reads .env (when present) and the environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Env:  getenv("ENV", "development"),
		Port: getenv("PORT", "8080"),
		DB: DBConfig{
			Driver:     strings.ToLower(getenv("DB_DRIVER", "mysql")),
			User:       os.Getenv("DB_USER"),
			Pass:       os.Getenv("DB_PASS"),
			Host:       getenv("DB_HOST", "127.0.0.1"),
			Port:       getenv("DB_PORT", "3306"),
			Name:       getenv("DB_NAME", "wanderplan"),
			Path:       getenv("DB_PATH", "./data/wanderplan.db"),
			SkipSchema: cast.ToBool(os.Getenv("DB_SKIP_SCHEMA")),
		},
		JWTSecret:          os.Getenv("JWT_SECRET"),
		TokenTTL:           duration("JWT_TTL", 24*time.Hour),
		GraphHopperURL:     strings.TrimSuffix(getenv("GRAPHHOPPER_URL", "http://localhost:8989"), "/"),
		GraphHopperProfile: getenv("GRAPHHOPPER_PROFILE", "car"),
		DirectionsURL:      getenv("DIRECTIONS_URL", "http://127.0.0.1:8080/api/directions"),
		OptimizerURL:       getenv("OPTIMIZER_URL", "http://127.0.0.1:8080/api/route-optimizer"),
		APIToken:           os.Getenv("API_TOKEN"),
		OpenAIKey:          strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:        getenv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
		CacheTTL:           duration("CACHE_TTL", 2*time.Minute),
		SessionPath:        getenv("SESSION_PATH", defaultSessionPath()),
	}
	return cfg
}

// IsProduction reports whether ENV (or ENVIRONMENT) is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production" || os.Getenv("ENVIRONMENT") == "production"
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := cast.ToDurationE(raw)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using default %s", key, raw, fallback)
		return fallback
	}
	return d
}

// the session file is per install, not per user
func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./wanderplan-session.db"
	}
	return filepath.Join(dir, "wanderplan", "session.db")
}
