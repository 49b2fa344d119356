// README: Config loader with env defaults for HTTP, DB, Redis, hotspots, and external APIs.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// HotspotConfig tunes the activity-hotspot detector. The defaults mirror the
// production values; tests override them directly.
type HotspotConfig struct {
	MinUsers              int
	ClusterRadiusKm       float64
	NotificationRadiusKm  float64
	ActivityWindowMinutes int
	ExpiryMinutes         int
}

type Config struct {
	ServiceName string

	HTTP struct {
		Addr string
	}

	Postgres struct {
		Host     string
		Port     string
		User     string
		Password string
		DB       string
	}

	Redis struct {
		Addr     string
		Password string
	}

	Hotspot HotspotConfig

	AI struct {
		GeminiKey string
	}

	Maps struct {
		APIKey string
	}

	Firebase struct {
		CredentialsFile string
	}
}

func Load() Config {
	_ = godotenv.Load(".env")

	var cfg Config

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "wander"))
	cfg.HTTP.Addr = cast.ToString(getOrReturnDefault("WANDER_HTTP_ADDR", ":8080"))

	cfg.Postgres.Host = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.Postgres.Port = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.Postgres.User = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.Postgres.Password = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "postgres"))
	cfg.Postgres.DB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "wander"))

	cfg.Redis.Addr = cast.ToString(getOrReturnDefault("REDIS_ADDR", "localhost:6379"))
	cfg.Redis.Password = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))

	cfg.Hotspot.MinUsers = cast.ToInt(getOrReturnDefault("HOTSPOT_MIN_USERS", 2))
	cfg.Hotspot.ClusterRadiusKm = cast.ToFloat64(getOrReturnDefault("HOTSPOT_CLUSTER_RADIUS_KM", 0.1))
	cfg.Hotspot.NotificationRadiusKm = cast.ToFloat64(getOrReturnDefault("HOTSPOT_NOTIFICATION_RADIUS_KM", 1.5))
	cfg.Hotspot.ActivityWindowMinutes = cast.ToInt(getOrReturnDefault("HOTSPOT_ACTIVITY_WINDOW_MINUTES", 30))
	cfg.Hotspot.ExpiryMinutes = cast.ToInt(getOrReturnDefault("HOTSPOT_EXPIRY_MINUTES", 60))

	cfg.AI.GeminiKey = cast.ToString(getOrReturnDefault("GEMINI_API_KEY", ""))
	cfg.Maps.APIKey = cast.ToString(getOrReturnDefault("MAPS_API_KEY", ""))
	cfg.Firebase.CredentialsFile = cast.ToString(getOrReturnDefault("FIREBASE_CREDENTIALS_FILE", ""))

	return cfg
}

// PostgresURL assembles the DSN used by both pgxpool and golang-migrate.
func (c Config) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.Postgres.User,
		c.Postgres.Password,
		c.Postgres.Host,
		c.Postgres.Port,
		c.Postgres.DB,
	)
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
