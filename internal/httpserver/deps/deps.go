package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarko/internal/boardsync"
	"github.com/MrSnakeDoc/bookmarko/internal/bridge"
	"github.com/MrSnakeDoc/bookmarko/internal/logger"
	"github.com/MrSnakeDoc/bookmarko/internal/search"
)

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	AllowedHosts    []string               // Host headers allowed to access the server
	AllowedCIDRS    []string               // IPs allowed to access healthz/readyz/infra/reload endpoints
	TrustProxy      bool                   // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Board           *boardsync.Coordinator // Board model owner
	Bridge          *bridge.Dispatcher     // Message boundary
	Searches        *search.Registry       // Debounced search input per event stream
	StoreBackend    string                 // "memory" or "redis"
	RedisClient     *redis.Client          // Redis client connection (nil with the memory backend)
	RequestTimeout  time.Duration          // Per-request timeout, event streams excluded
	SSEHeartbeat    time.Duration          // Keepalive interval on the board event stream
	RateLimitPerMin int                    // Token refill per client IP on mutating endpoints
	RateLimitBurst  int                    // Bucket size per client IP
	ReloadTrigger   chan struct{}          // Channel to trigger a manual seed reload (nil if no seed file)
}
