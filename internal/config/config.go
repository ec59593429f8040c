package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Seed formats.
const (
	SeedHomepage = "homepage"
	SeedChrome   = "chrome"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per-request timeout, event streams excluded

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Board
	StoreBackend     string        // "memory" | "redis"
	WatchedRoot      string        // folder id shown as the board (default: bookmark bar "1")
	LegacyReconcile  bool          // reproduce the extension listener gaps (orphans, nested columns)
	FollowStoreOrder bool          // realign a column with the store after an external move (default: append)
	DriftInterval    time.Duration // interval between store/board comparisons (default: 1m)
	SSEHeartbeat     time.Duration // keepalive on /api/board/events (default: 30s)
	SearchDebounce   time.Duration // quiet period before search input filters a stream (default: 300ms)

	// Seed import
	SeedFile     string        // path to a homepage bookmarks.yaml or chrome Bookmarks file (optional)
	SeedFormat   string        // "homepage" | "chrome", derived from the extension when empty
	SeedInterval time.Duration // interval to re-merge the seed (default: 24h, 0 = never)
	SeedWatch    bool          // re-merge when the seed file changes
	SeedDebounce time.Duration // quiet period before a file change is merged (default: 300ms)

	// Redis (only with StoreBackend=redis)
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Mutating endpoints rate limit, per client IP
	RateLimitPerMin int
	RateLimitBurst  int

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("BOOKMARKO_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("BOOKMARKO_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("BOOKMARKO_REQUEST_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("BOOKMARKO_LOG_LEVEL", "info"),
		PrettyLog: mustBool("BOOKMARKO_PRETTY_LOG", true),

		// Board
		StoreBackend:     getenv("BOOKMARKO_STORE", BackendMemory),
		WatchedRoot:      getenv("BOOKMARKO_WATCHED_ROOT", "1"),
		LegacyReconcile:  mustBool("BOOKMARKO_LEGACY_RECONCILE", false),
		FollowStoreOrder: mustBool("BOOKMARKO_FOLLOW_STORE_ORDER", false),
		DriftInterval:    mustDuration("BOOKMARKO_DRIFT_INTERVAL", time.Minute),
		SSEHeartbeat:     mustDuration("BOOKMARKO_SSE_HEARTBEAT", 30*time.Second),
		SearchDebounce:   mustDuration("BOOKMARKO_SEARCH_DEBOUNCE", 300*time.Millisecond),

		// Seed
		SeedFile:     getenv("BOOKMARKO_SEED_FILE", ""), // Optional, empty = no import
		SeedInterval: mustDuration("BOOKMARKO_SEED_INTERVAL", 24*time.Hour),
		SeedWatch:    mustBool("BOOKMARKO_SEED_WATCH", true),
		SeedDebounce: mustDuration("BOOKMARKO_SEED_DEBOUNCE", 300*time.Millisecond),

		// Rate limit
		RateLimitPerMin: getenvInt("BOOKMARKO_RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:  getenvInt("BOOKMARKO_RATE_LIMIT_BURST", 30),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("BOOKMARKO_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("BOOKMARKO_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("BOOKMARKO_TRUST_PROXY", false),
	}

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		loadRedis(cfg)
	default:
		panic(fmt.Sprintf("❌ FATAL: BOOKMARKO_STORE must be %q or %q, got %q", BackendMemory, BackendRedis, cfg.StoreBackend))
	}

	if cfg.SeedFile != "" {
		cfg.SeedFormat = seedFormat(cfg.SeedFile, getenv("BOOKMARKO_SEED_FORMAT", ""))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("BOOKMARKO_REDIS_ADDR")
	cfg.RedisUser = getenv("BOOKMARKO_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("BOOKMARKO_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("BOOKMARKO_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("BOOKMARKO_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	// Validate Redis password configuration
	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: BOOKMARKO_REDIS_PASSWORD is required when BOOKMARKO_REDIS_PASSWORD_REQUIRED=true")
	}
}

// seedFormat returns the explicit format, or guesses it from the file name:
// yaml files are homepage exports, anything else a chrome profile file.
func seedFormat(path, explicit string) string {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case SeedHomepage:
		return SeedHomepage
	case SeedChrome:
		return SeedChrome
	case "":
	default:
		panic(fmt.Sprintf("❌ FATAL: BOOKMARKO_SEED_FORMAT must be %q or %q, got %q", SeedHomepage, SeedChrome, explicit))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return SeedHomepage
	default:
		return SeedChrome
	}
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

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
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
