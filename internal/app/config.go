package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/cytorepo-backend/internal/clients/redis"
	"github.com/yungbote/cytorepo-backend/internal/data/db"
	"github.com/yungbote/cytorepo-backend/internal/platform/blobstore"
	"github.com/yungbote/cytorepo-backend/internal/platform/envutil"
	"github.com/yungbote/cytorepo-backend/internal/services"
)

const serviceName = "cytorepo-backend"

type Config struct {
	LogMode     string
	Environment string
	Port        string
	CORSOrigins []string

	DB      db.Config
	Storage blobstore.Config
	Redis   redis.Config
	Auth    services.AuthConfig
	Lease   services.LeaseConfig

	ScopeViableByProject bool

	MetricsAddr string
}

// LoadConfig reads the process environment once at startup.
func LoadConfig() (Config, error) {
	storage, err := blobstore.ResolveConfigFromEnv()
	if err != nil {
		return Config{}, fmt.Errorf("object storage config: %w", err)
	}
	cfg := Config{
		LogMode:     envutil.String("LOG_MODE", "development"),
		Environment: envutil.String("ENVIRONMENT", "development"),
		Port:        envutil.String("PORT", "8080"),
		CORSOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),

		DB:      db.ConfigFromEnv(),
		Storage: storage,
		Redis: redis.Config{
			Addr:    envutil.String("REDIS_ADDR", ""),
			Channel: envutil.String("REDIS_CHANNEL", redis.DefaultChannel),
		},
		Auth: services.AuthConfig{
			SecretKey: envutil.String("JWT_SECRET_KEY", ""),
			Issuer:    envutil.String("JWT_ISSUER", serviceName),
			AccessTTL: envutil.Duration("ACCESS_TOKEN_TTL", time.Hour),
		},
		Lease: services.LeaseConfig{
			Timeout:   envutil.Duration("LEASE_TIMEOUT", 0),
			Interval:  envutil.Duration("LEASE_SWEEP_INTERVAL", 30*time.Second),
			BatchSize: envutil.Int("LEASE_SWEEP_BATCH", 100),
		},
		ScopeViableByProject: envutil.Bool("VIABLE_SCOPE_BY_PROJECT", false),
		MetricsAddr:          envutil.String("METRICS_ADDR", ":9090"),
	}
	if strings.TrimSpace(cfg.Auth.SecretKey) == "" {
		return cfg, fmt.Errorf("JWT_SECRET_KEY is required")
	}
	return cfg, nil
}

func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
