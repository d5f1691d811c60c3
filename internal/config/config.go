package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	Backend string // "supabase" | "postgres"

	// Supabase
	SupabaseURL       string
	SupabaseKey       string
	SupabaseJWTSecret string        // optional, empty => tokens are checked against GoTrue
	SupabaseTimeout   time.Duration // per-request timeout (default: 10s)

	// Postgres
	DatabaseURL     string // required for the postgres backend
	DatabaseMigrate bool   // run embedded migrations on startup

	DatabaseConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	DatabasePingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)

	// Redis (optional, empty address => in-process page cache)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Catalog
	CacheTTL       time.Duration // fresh window of a cached page (default: 5m)
	CacheRetention time.Duration // how long stale pages stay usable as fallback (default: 24h)
	FetchTimeout   time.Duration // wait before answering from the sample dataset (default: 5s)
	PageSize       int
	AssetBaseURL   string
	CatalogFile    string // optional YAML override of the embedded catalog metadata

	// Local favorites
	LocalDBPath string

	// Background jobs
	WarmInterval          time.Duration
	FavoritesPollInterval time.Duration
	IndexTTL              time.Duration
	EntitlementMaxAge     time.Duration // how long resolved profile/license records are trusted (default: 5m)
	SessionIdleTTL        time.Duration // idle entitlement sessions are dropped after this (default: 30m)

	AllowedOrigins  []string // CORS origins, "*" allows any
	AllowedHosts    []string // optional, restrict ops endpoints to specific Host headers
	AllowedCIDRS    []string // optional, restrict ops endpoints to specific IPs
	TrustProxy      bool     // true => trust X-Forwarded-For headers
	RateLimitBurst  int
	RateLimitPerMin int
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("SHELF_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("SHELF_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("SHELF_LOG_LEVEL", "info"),
		PrettyLog: mustBool("SHELF_PRETTY_LOG", false),

		Backend: strings.ToLower(getenv("SHELF_BACKEND", BackendSupabase)),

		// Supabase
		SupabaseURL:       getenv("SHELF_SUPABASE_URL", ""),
		SupabaseKey:       getenv("SHELF_SUPABASE_KEY", ""),
		SupabaseJWTSecret: getenv("SHELF_SUPABASE_JWT_SECRET", ""),
		SupabaseTimeout:   mustDuration("SHELF_SUPABASE_TIMEOUT", 10*time.Second),

		// Postgres
		DatabaseURL:     getenv("SHELF_DATABASE_URL", ""),
		DatabaseMigrate: mustBool("SHELF_DATABASE_MIGRATE", true),

		DatabaseConnectTimeout: mustDuration("SHELF_DATABASE_CONNECT_TIMEOUT", 30*time.Second),
		DatabasePingTimeout:    mustDuration("SHELF_DATABASE_PING_TIMEOUT", 5*time.Second),

		// Redis settings
		RedisAddr:           getenv("SHELF_REDIS_ADDR", ""),
		RedisUser:           getenv("SHELF_REDIS_USERNAME", ""),
		RedisPassword:       getenv("SHELF_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("SHELF_REDIS_DB", 0),
		RedisDT:             mustDuration("SHELF_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("SHELF_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("SHELF_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("SHELF_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("SHELF_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("SHELF_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("SHELF_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("SHELF_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("SHELF_REDIS_WARN_THRESHOLD", 3),

		// Catalog
		CacheTTL:       mustDuration("SHELF_CACHE_TTL", 5*time.Minute),
		CacheRetention: mustDuration("SHELF_CACHE_RETENTION", 24*time.Hour),
		FetchTimeout:   mustDuration("SHELF_FETCH_TIMEOUT", 5*time.Second),
		PageSize:       getenvInt("SHELF_PAGE_SIZE", 20),
		AssetBaseURL:   getenv("SHELF_ASSET_BASE_URL", "https://framer.com/m/"),
		CatalogFile:    getenv("SHELF_CATALOG_FILE", ""),

		LocalDBPath: getenv("SHELF_LOCAL_DB_PATH", "shelf-local.db"),

		WarmInterval:          mustDuration("SHELF_WARM_INTERVAL", 30*time.Minute),
		FavoritesPollInterval: mustDuration("SHELF_FAVORITES_POLL_INTERVAL", 15*time.Second),
		IndexTTL:              mustDuration("SHELF_INDEX_TTL", 24*time.Hour),
		EntitlementMaxAge:     mustDuration("SHELF_ENTITLEMENT_MAX_AGE", 5*time.Minute),
		SessionIdleTTL:        mustDuration("SHELF_SESSION_IDLE_TTL", 30*time.Minute),

		// Access restrictions
		AllowedOrigins:  splitAndTrim(getenv("SHELF_ALLOWED_ORIGINS", "")),
		AllowedHosts:    splitAndTrim(getenv("SHELF_ALLOWED_HOSTS", "")),
		AllowedCIDRS:    parseAllowedIPs(getenv("SHELF_ALLOWED_CIDRS", "")),
		TrustProxy:      mustBool("SHELF_TRUST_PROXY", false),
		RateLimitBurst:  getenvInt("SHELF_RATE_LIMIT_BURST", 60),
		RateLimitPerMin: getenvInt("SHELF_RATE_LIMIT_PER_MIN", 120),
	}

	switch cfg.Backend {
	case BackendSupabase:
		cfg.SupabaseURL = requireEnv("SHELF_SUPABASE_URL")
		cfg.SupabaseKey = requireEnv("SHELF_SUPABASE_KEY")
	case BackendPostgres:
		cfg.DatabaseURL = requireEnv("SHELF_DATABASE_URL")
	default:
		panic(fmt.Sprintf("❌ FATAL: SHELF_BACKEND must be %q or %q, got %q", BackendSupabase, BackendPostgres, cfg.Backend))
	}
	if cfg.Backend == BackendPostgres && cfg.SupabaseJWTSecret == "" {
		panic("❌ FATAL: SHELF_SUPABASE_JWT_SECRET is required with SHELF_BACKEND=postgres")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	const redacted = "***REDACTED***"
	if c.SupabaseKey != "" {
		c.SupabaseKey = redacted
	}
	if c.SupabaseJWTSecret != "" {
		c.SupabaseJWTSecret = redacted
	}
	if c.RedisPassword != "" {
		c.RedisPassword = redacted
	}
	if c.DatabaseURL != "" {
		c.DatabaseURL = redacted
	}
	return c
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
