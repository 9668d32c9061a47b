package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrSecretRequired = errors.New("APP_SECRET is required")
)

const (
	// DefaultSessionTTL is the lifetime of a session token.
	DefaultSessionTTL = 7 * 24 * time.Hour
	// DefaultPortalTokenTTL is the lifetime of a portal handoff token.
	DefaultPortalTokenTTL = 5 * time.Minute
	// DefaultPortalTokenRetention is how long used handoff tokens are kept
	// before the cleanup sweep removes them.
	DefaultPortalTokenRetention = 24 * time.Hour
	// DefaultVerifyTimeout bounds token verification in the request gateway.
	DefaultVerifyTimeout = 5 * time.Second
	// DefaultSessionCookieName is the name of the session cookie.
	DefaultSessionCookieName = "cp_session"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port         string
	Env          string
	DataDir      string
	DatabasePath string
	LogPath      string
	StaticDir    string

	// AppSecret signs session and portal handoff tokens. Both the main app and
	// the portal process must share it.
	AppSecret string

	SessionTTL           time.Duration
	SessionCookieName    string
	CookieDomain         string
	PortalTokenTTL       time.Duration
	PortalTokenRetention time.Duration
	VerifyTimeout        time.Duration
	CleanupInterval      time.Duration

	AppBaseURL    string
	PortalBaseURL string

	// TrustedOrigins are external origins allowed to call the API with
	// credentials, e.g. the landing site that starts the portal handoff.
	TrustedOrigins []string

	// Object storage (progress photos).
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string

	// External identity provider (password reset emails).
	IdentityURL        string
	IdentityServiceKey string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("APP_ENV", "development"),
		DataDir:              getEnv("DATA_DIR", "./data"),
		LogPath:              getEnv("LOG_PATH", ""),
		StaticDir:            getEnv("STATIC_DIR", ""),
		AppSecret:            os.Getenv("APP_SECRET"),
		SessionTTL:           getDurationEnv("SESSION_TTL", DefaultSessionTTL),
		SessionCookieName:    getEnv("SESSION_COOKIE_NAME", DefaultSessionCookieName),
		CookieDomain:         os.Getenv("COOKIE_DOMAIN"),
		PortalTokenTTL:       getDurationEnv("PORTAL_TOKEN_TTL", DefaultPortalTokenTTL),
		PortalTokenRetention: getDurationEnv("PORTAL_TOKEN_RETENTION", DefaultPortalTokenRetention),
		VerifyTimeout:        getDurationEnv("VERIFY_TIMEOUT", DefaultVerifyTimeout),
		CleanupInterval:      getDurationEnv("CLEANUP_INTERVAL", 1*time.Hour),
		AppBaseURL:           getEnv("APP_BASE_URL", "http://localhost:8080"),
		PortalBaseURL:        getEnv("PORTAL_BASE_URL", "http://localhost:8081"),
		S3Bucket:             os.Getenv("S3_BUCKET"),
		S3Region:             getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:           os.Getenv("S3_ENDPOINT"),
		S3PublicBaseURL:      os.Getenv("S3_PUBLIC_BASE_URL"),
		IdentityURL:          os.Getenv("IDENTITY_URL"),
		IdentityServiceKey:   os.Getenv("IDENTITY_SERVICE_KEY"),
	}
	cfg.DatabasePath = getEnv("DATABASE_PATH", cfg.DataDir+"/coachportal.db")

	if origins := strings.TrimSpace(os.Getenv("TRUSTED_ORIGINS")); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.TrustedOrigins = append(cfg.TrustedOrigins, o)
			}
		}
	}

	if strings.TrimSpace(cfg.AppSecret) == "" {
		return nil, ErrSecretRequired
	}

	return cfg, nil
}

// IsProduction reports whether the app runs in production mode. Session
// cookies are only marked Secure in production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	// Plain integers are treated as seconds for cron-style configs.
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	fmt.Fprintf(os.Stderr, "invalid duration for %s: %q, using default\n", key, v)
	return fallback
}
