package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/catalog"
	"github.com/MrSnakeDoc/shelf/internal/config"
	"github.com/MrSnakeDoc/shelf/internal/entitlement"
	"github.com/MrSnakeDoc/shelf/internal/favorites"
	"github.com/MrSnakeDoc/shelf/internal/httpserver"
	"github.com/MrSnakeDoc/shelf/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shelf/internal/identity"
	"github.com/MrSnakeDoc/shelf/internal/index"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/postgres"
	"github.com/MrSnakeDoc/shelf/internal/redis"
	"github.com/MrSnakeDoc/shelf/internal/scheduler"
	"github.com/MrSnakeDoc/shelf/internal/sources/catalogfile"
	redisstore "github.com/MrSnakeDoc/shelf/internal/store/redis"
	"github.com/MrSnakeDoc/shelf/internal/store/sqlite"
	"github.com/MrSnakeDoc/shelf/internal/supabase"
	"github.com/MrSnakeDoc/shelf/internal/utils"
	"github.com/MrSnakeDoc/shelf/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	local       *sqlite.Store
	redisClient *goredis.Client
	pool        *pgxpool.Pool
	listener    *postgres.Listener
	warmer      *scheduler.CatalogWarmer
	janitor     *scheduler.IndexJanitor
	sweeper     *scheduler.SessionJanitor
	poller      *scheduler.FavoritesPoller
}

// backend is everything a catalog backend contributes.
type backend struct {
	store    catalog.Store
	accounts entitlement.AccountStore
	remote   favorites.RemoteStore
	notifier favorites.Notifier
	auth     deps.Auth
	verifier identity.Authenticator
	ping     deps.Pinger
	pool     *pgxpool.Pool
	listener *postgres.Listener
	poller   *scheduler.FavoritesPoller
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	meta, err := catalogfile.Load(cfg.CatalogFile)
	if err != nil {
		loggerClient.Errorf("Failed to load catalog metadata: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("catalog metadata loaded",
		logger.String("source", catalogfile.NewLoader(cfg.CatalogFile).Source()),
		logger.Int("samples", len(meta.Samples)))

	// Local favorites are the one store the plugin cannot work without.
	local, err := sqlite.Open(cfg.LocalDBPath)
	if err != nil {
		loggerClient.Errorf("Failed to open local store: %v", err)
		os.Exit(1)
	}

	be, err := newBackend(cfg, meta, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to initialize %s backend: %v", cfg.Backend, err)
		os.Exit(1)
	}

	ready := map[string]deps.Pinger{
		"local":   local.Ping,
		"backend": be.ping,
	}

	// The shared page cache is optional: without Redis the engine caches in memory.
	var (
		cache       catalog.Cache = catalog.NewMemoryCache()
		cacheMode                 = "memory"
		redisClient *goredis.Client
		usage       deps.Usage
	)
	memIndex := index.NewMemoryIndex()
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(context.Background(), redis.ConnectOptions{
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
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("redis unavailable, using in-process page cache", logger.Error(err))
			redisClient = nil
		} else {
			store := redisstore.NewStore(redisClient, cfg.CacheRetention)
			cache, cacheMode, usage = store, "redis", store
			ready["cache"] = store.Ping

			// Warm the index from pages other instances already cached.
			if err := scheduler.NewIndexSyncer(store, memIndex, loggerClient).Sync(context.Background()); err != nil {
				loggerClient.Warn("failed to sync index from redis on startup", logger.Error(err))
			}
		}
	}

	engine := catalog.NewEngine(catalog.Config{
		Store:      be.store,
		Cache:      cache,
		Categories: meta.Categories,
		Filters:    meta.Filters,
		Samples:    meta.Samples,
		AssetBase:  cfg.AssetBaseURL,
		TTL:        cfg.CacheTTL,
		PageSize:   cfg.PageSize,
		Log:        loggerClient.With(logger.Component("catalog")),
	})

	reloadTrigger := make(chan struct{}, 1)
	warmer := scheduler.NewCatalogWarmer(engine, memIndex, loggerClient.With(logger.Component("catalog-warmer")), cfg.WarmInterval, reloadTrigger)
	janitor := scheduler.NewIndexJanitor(memIndex, loggerClient.With(logger.Component("index-janitor")), cfg.IndexTTL/4, cfg.IndexTTL)
	sessions := entitlement.NewSessions(time.Now).WithLimits(cfg.EntitlementMaxAge, cfg.SessionIdleTTL)
	sweeper := scheduler.NewSessionJanitor(sessions, loggerClient.With(logger.Component("session-janitor")), cfg.SessionIdleTTL/6)

	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Build:           version.Get(),
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		AllowedOrigins:  cfg.AllowedOrigins,
		TrustProxy:      cfg.TrustProxy,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
		Backend:         cfg.Backend,
		CacheMode:       cacheMode,
		FetchTimeout:    cfg.FetchTimeout,
		Catalog:         engine,
		Entitlements:    entitlement.NewResolver(be.accounts, loggerClient),
		Sessions:        sessions,
		Favorites:       favorites.NewSynchronizer(local, be.remote, be.notifier, loggerClient),
		Auth:            be.auth,
		Authenticator:   be.verifier,
		Usage:           usage,
		RedisClient:     redisClient,
		Ready:           ready,
		MemoryIndex:     memIndex,
		ReloadTrigger:   reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		local:       local,
		redisClient: redisClient,
		pool:        be.pool,
		listener:    be.listener,
		warmer:      warmer,
		janitor:     janitor,
		sweeper:     sweeper,
		poller:      be.poller,
	}
}

// newBackend wires the catalog, account and favorites stores of the
// configured backend.
func newBackend(cfg *config.Config, meta *catalogfile.Catalog, log logger.Logger) (*backend, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		return newPostgresBackend(cfg, meta, log)
	default:
		return newSupabaseBackend(cfg, log)
	}
}

func newSupabaseBackend(cfg *config.Config, log logger.Logger) (*backend, error) {
	client, err := supabase.New(supabase.Config{
		URL:     cfg.SupabaseURL,
		Key:     cfg.SupabaseKey,
		Timeout: cfg.SupabaseTimeout,
	}, log.With(logger.Component("supabase")))
	if err != nil {
		return nil, err
	}

	var verifier identity.Authenticator = identity.NewRemoteVerifier(client)
	if cfg.SupabaseJWTSecret != "" {
		verifier = identity.NewJWTVerifier(cfg.SupabaseJWTSecret)
	}

	remote := client.Favorites()
	poller := scheduler.NewFavoritesPoller(remote, log.With(logger.Component("favorites-poller")), cfg.FavoritesPollInterval)

	log.Info("supabase backend ready", logger.String("url", cfg.SupabaseURL))
	return &backend{
		store:    client,
		accounts: client,
		remote:   remote,
		notifier: poller,
		auth:     client,
		verifier: verifier,
		ping:     client.Ping,
		poller:   poller,
	}, nil
}

func newPostgresBackend(cfg *config.Config, meta *catalogfile.Catalog, log logger.Logger) (*backend, error) {
	ctx := context.Background()
	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, utils.RetryPolicy{
		ConnectTimeout: cfg.DatabaseConnectTimeout,
		RetryInterval:  2 * time.Second,
		MaxWait:        10 * time.Second,
		PingTimeout:    cfg.DatabasePingTimeout,
		WarnThreshold:  3,
	}, log)
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseMigrate {
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
	}

	store := postgres.NewCatalog(pool)
	seeded, err := store.Seed(ctx, meta.Samples)
	if err != nil {
		log.Warn("failed to seed catalog", logger.Error(err))
	} else if seeded > 0 {
		log.Info("empty catalog seeded from sample dataset", logger.Int("components", seeded))
	}

	listener := postgres.NewListener(pool, log.With(logger.Component("favorites-listener")))
	return &backend{
		store:    store,
		accounts: postgres.NewAccounts(pool),
		remote:   postgres.NewFavorites(pool),
		notifier: listener,
		verifier: identity.NewJWTVerifier(cfg.SupabaseJWTSecret),
		ping:     pool.Ping,
		pool:     pool,
		listener: listener,
	}, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Shelf v%s on %s (backend=%s)", version.Version, a.cfg.ListenPort, a.cfg.Backend)
	a.logger.Infof("Shelf %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.warmer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start catalog warmer: %w", err)
	}
	a.logger.Info("catalog warmer started",
		logger.Duration("interval", a.cfg.WarmInterval))

	if err := a.janitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start index janitor: %w", err)
	}
	a.logger.Info("index janitor started",
		logger.Duration("ttl", a.cfg.IndexTTL))

	if err := a.sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session janitor: %w", err)
	}

	if a.poller != nil {
		if err := a.poller.Start(ctx); err != nil {
			return fmt.Errorf("failed to start favorites poller: %w", err)
		}
		a.logger.Info("favorites poller started",
			logger.Duration("interval", a.cfg.FavoritesPollInterval))
	}

	listenerDone := make(chan struct{})
	if a.listener != nil {
		go func() {
			defer close(listenerDone)
			a.listener.Run(ctx)
		}()
	} else {
		close(listenerDone)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		stop()
		a.shutdownBackground(listenerDone)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.shutdownBackground(listenerDone)
	a.logger.Info("✅ Shelf stopped cleanly")
	return nil
}

// shutdownBackground stops the schedulers and closes every store.
func (a *App) shutdownBackground(listenerDone <-chan struct{}) {
	a.warmer.Stop()
	a.janitor.Stop()
	a.sweeper.Stop()
	if a.poller != nil {
		a.poller.Stop()
	}
	<-listenerDone

	if a.redisClient != nil {
		utils.MustClose("redis", a.redisClient, a.logger)
	}
	if a.pool != nil {
		a.pool.Close()
		a.logger.Info("✅ Postgres pool closed")
	}
	utils.MustClose("local store", a.local, a.logger)
}
