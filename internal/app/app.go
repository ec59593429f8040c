package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarko/internal/board"
	"github.com/MrSnakeDoc/bookmarko/internal/boardsync"
	"github.com/MrSnakeDoc/bookmarko/internal/bridge"
	"github.com/MrSnakeDoc/bookmarko/internal/config"
	"github.com/MrSnakeDoc/bookmarko/internal/httpserver"
	"github.com/MrSnakeDoc/bookmarko/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarko/internal/logger"
	"github.com/MrSnakeDoc/bookmarko/internal/redis"
	"github.com/MrSnakeDoc/bookmarko/internal/scheduler"
	"github.com/MrSnakeDoc/bookmarko/internal/search"
	"github.com/MrSnakeDoc/bookmarko/internal/sources"
	"github.com/MrSnakeDoc/bookmarko/internal/sources/chrome"
	"github.com/MrSnakeDoc/bookmarko/internal/sources/homepage"
	"github.com/MrSnakeDoc/bookmarko/internal/store"
	"github.com/MrSnakeDoc/bookmarko/internal/store/memory"
	"github.com/MrSnakeDoc/bookmarko/internal/validation"
	"github.com/MrSnakeDoc/bookmarko/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	redisClient  *goredis.Client
	board        *boardsync.Coordinator
	seedReloader *scheduler.SeedReloader
	drift        *scheduler.DriftChecker
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	st, redisClient := openStore(cfg, loggerClient)

	valid := validation.New()

	opts := boardsync.DefaultOptions()
	opts.Root = cfg.WatchedRoot
	if cfg.LegacyReconcile {
		loggerClient.Warn("legacy reconcile enabled, the board may keep orphaned bookmarks until the next drift check")
		opts.Reconcile = board.LegacyOptions()
	}
	opts.Reconcile.FollowStoreOrder = cfg.FollowStoreOrder
	coord := boardsync.New(st, valid, loggerClient, opts)

	// Initialize seed reloader (if a seed file is configured)
	var seedReloader *scheduler.SeedReloader
	var reloadTrigger chan struct{}
	if cfg.SeedFile != "" {
		loggerClient.Info("seed file configured, initializing seed reloader",
			logger.String("file", cfg.SeedFile),
			logger.String("format", cfg.SeedFormat))
		reloadTrigger = make(chan struct{}, 1)
		seedReloader = scheduler.NewSeedReloader(
			newLoader(cfg),
			st,
			cfg.WatchedRoot,
			loggerClient,
			cfg.SeedInterval,
			reloadTrigger,
		)
		if cfg.SeedWatch {
			if err := seedReloader.Watch(cfg.SeedDebounce); err != nil {
				loggerClient.Warn("seed file watch disabled", logger.Error(err))
			}
		}
	} else {
		loggerClient.Info("seed file not configured, import disabled")
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		Board:           coord,
		Bridge:          bridge.NewDispatcher(st, valid, loggerClient),
		Searches:        search.NewRegistry(cfg.SearchDebounce),
		StoreBackend:    cfg.StoreBackend,
		RedisClient:     redisClient,
		RequestTimeout:  cfg.RequestTimeout,
		SSEHeartbeat:    cfg.SSEHeartbeat,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RateLimitBurst:  cfg.RateLimitBurst,
		ReloadTrigger:   reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		server:       server,
		redisClient:  redisClient,
		board:        coord,
		seedReloader: seedReloader,
		drift:        scheduler.NewDriftChecker(coord, loggerClient, cfg.DriftInterval),
	}
}

// openStore selects the bookmark store backend. Redis is initialized early,
// the process exits if it stays unavailable.
func openStore(cfg *config.Config, log logger.Logger) (store.Adapter, *goredis.Client) {
	if cfg.StoreBackend != config.BackendRedis {
		log.Info("using in-memory bookmark store, changes are lost on restart")
		return memory.New(), nil
	}

	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	st, client, err := redis.OpenStore(context.Background(), redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if err != nil {
		log.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Info("Redis initialized successfully")
	return st, client
}

func newLoader(cfg *config.Config) sources.Loader {
	if cfg.SeedFormat == config.SeedChrome {
		return chrome.NewLoader(cfg.SeedFile)
	}
	return homepage.NewLoader(cfg.SeedFile)
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Bookmarko v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	// Start the board event loop (loads the model, then follows store changes)
	go func() {
		if err := a.board.Run(ctx); err != nil {
			errCh <- fmt.Errorf("board sync stopped: %w", err)
		}
	}()

	// Start seed reloader (if enabled), merges into the store; the board
	// picks the new nodes up from the change stream
	if a.seedReloader != nil {
		if err := a.seedReloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start seed reloader: %w", err)
		}
		a.logger.Info("seed reloader started",
			logger.Duration("interval", a.cfg.SeedInterval))
	}

	// Start drift checker
	a.drift.Start(ctx)
	a.logger.Info("drift checker started",
		logger.Duration("interval", a.cfg.DriftInterval))

	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
		a.logger.Error("❌ Shutting down after failure", logger.Error(runErr))
	}

	// Stop seed reloader
	if a.seedReloader != nil {
		a.seedReloader.Stop()
	}

	// Stop drift checker
	a.drift.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ Bookmarko stopped cleanly")
	return nil
}
