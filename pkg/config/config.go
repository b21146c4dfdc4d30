package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the walk scheduler.
type Config struct {
	Port          string
	GinMode       string
	DatabaseURL   string
	DataPath      string
	DBDebug       bool
	RedisURL      string
	NotifyChannel string
	NotifyDedup   time.Duration
	CORSOrigins   []string
	RatePerMinute int
	LogLevel      string
	LogFormat     string
}

// LoadDotEnv loads the first .env file found in the working directory or its
// parents. Variables already present in the environment are not overridden.
func LoadDotEnv() {
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:          "8000",
		DataPath:      "walks.db",
		NotifyChannel: "walk-events",
		NotifyDedup:   24 * time.Hour,
		CORSOrigins:   []string{"*"},
		RatePerMinute: 60,
	}

	get := func(key string) string { return strings.TrimSpace(getenv(key)) }
	invalid := make([]string, 0, 3)

	if v := get("PORT"); v != "" {
		cfg.Port = v
	}
	cfg.GinMode = get("GIN_MODE")
	cfg.DatabaseURL = get("DATABASE_URL")
	if v := get("DATA_PATH"); v != "" {
		cfg.DataPath = v
	}
	if v := get("DB_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			invalid = append(invalid, "DB_DEBUG")
		}
		cfg.DBDebug = debug
	}

	cfg.RedisURL = get("REDIS_URL")
	if v := get("NOTIFY_CHANNEL"); v != "" {
		cfg.NotifyChannel = v
	}
	if v := get("NOTIFY_DEDUP_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "NOTIFY_DEDUP_TTL")
		} else {
			cfg.NotifyDedup = ttl
		}
	}

	if v := get("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.CORSOrigins = origins
		}
	}

	if v := get("RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			invalid = append(invalid, "RATE_LIMIT_PER_MINUTE")
		} else {
			cfg.RatePerMinute = n
		}
	}

	cfg.LogLevel = get("LOG_LEVEL")
	cfg.LogFormat = get("LOG_FORMAT")

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}
