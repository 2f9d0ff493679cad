package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-storefront/contracts"
	platformlogging "github.com/zenGate-Global/palmyra-storefront/platform/go/logging"
	platformmiddleware "github.com/zenGate-Global/palmyra-storefront/platform/go/middleware"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-storefront/platform/go/tenant"
	tenantmiddleware "github.com/zenGate-Global/palmyra-storefront/platform/go/tenant/middleware"
)

type config struct {
	Port              string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	RootDomain        string        `env:"ROOT_DOMAIN" envDefault:"rname.ink"`
	DevHostMarkers    []string      `env:"DEV_HOST_MARKERS" envDefault:"localhost" envSeparator:","`
	StoreBackend      string        `env:"STORE_BACKEND" envDefault:"postgres"` // postgres | memory
	DatabaseURL       string        `env:"DATABASE_URL"`                        // required when STORE_BACKEND=postgres
	StoreQueryTimeout time.Duration `env:"STORE_QUERY_TIMEOUT" envDefault:"5s"`
	StoreBootstrap    bool          `env:"STORE_BOOTSTRAP" envDefault:"false"` // apply the DDL on startup
	AuthProvider      string        `env:"AUTH_PROVIDER" envDefault:"jwt"`     // jwt | dev
	AuthSigningKey    string        `env:"AUTH_SIGNING_KEY"`                   // required when AUTH_PROVIDER=jwt
	AuthTokenTTL      time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"24h"`
	TenantCache       string        `env:"TENANT_CACHE" envDefault:"memory"` // memory | redis | none
	TenantCacheTTL    time.Duration `env:"TENANT_CACHE_TTL" envDefault:"1m"`
	TenantCacheSize   int           `env:"TENANT_CACHE_SIZE" envDefault:"4096"` // memory cache entry cap
	RedisURL          string        `env:"REDIS_URL"` // required when TENANT_CACHE=redis
	BcryptCost        int           `env:"BCRYPT_COST" envDefault:"12"`
	CORSOrigins       []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	store, closeStore := buildStore(ctx, cfg, logger)
	defer closeStore()

	parser, err := tenant.NewHostParser(cfg.RootDomain, cfg.DevHostMarkers)
	if err != nil {
		logger.Fatal("init host parser", zap.Error(err))
	}

	cache, closeCache := buildTenantCache(cfg, logger)
	defer closeCache()

	verify, issuer := buildAuth(cfg, logger)

	spec, err := contracts.LoadStorefront()
	if err != nil {
		logger.Fatal("load storefront contract", zap.Error(err))
	}

	handler := newRouter(serverDeps{
		Logger:         logger,
		Store:          store,
		Parser:         parser,
		Verify:         verify,
		Issuer:         issuer,
		TenantCache:    cache,
		Contract:       spec,
		CORS:           platformmiddleware.CORSConfig{Hosts: parser, AllowedOrigins: cfg.CORSOrigins},
		RequestTimeout: cfg.RequestTimeout,
		BcryptCost:     cfg.BcryptCost,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server",
			zap.String("port", cfg.Port),
			zap.String("root_domain", parser.RootDomain()),
			zap.String("store_backend", cfg.StoreBackend),
			zap.String("auth_provider", cfg.AuthProvider),
			zap.String("tenant_cache", cfg.TenantCache),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildStore(ctx context.Context, cfg config, logger *zap.Logger) (persistence.Store, func()) {
	switch cfg.StoreBackend {
	case "memory":
		logger.Warn("using in-memory store; data is lost on restart")
		return persistence.NewMemoryStore(time.Now), func() {}
	case "postgres":
		if cfg.DatabaseURL == "" {
			logger.Fatal("DATABASE_URL required when STORE_BACKEND=postgres")
		}
		pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
			ConnString:      cfg.DatabaseURL,
			ApplicationName: "storefront-api",
		})
		if err != nil {
			logger.Fatal("init postgres pool", zap.Error(err))
		}
		if cfg.StoreBootstrap {
			if err := persistence.BootstrapSchema(ctx, pool); err != nil {
				logger.Fatal("bootstrap storefront schema", zap.Error(err))
			}
		}
		store, err := persistence.NewPostgresStore(persistence.PostgresStoreConfig{
			Pool:         pool,
			QueryTimeout: cfg.StoreQueryTimeout,
		})
		if err != nil {
			logger.Fatal("init postgres store", zap.Error(err))
		}
		return store, func() { persistence.ClosePool(pool) }
	default:
		logger.Fatal("invalid STORE_BACKEND (use postgres or memory)", zap.String("backend", cfg.StoreBackend))
		return nil, nil
	}
}

func buildTenantCache(cfg config, logger *zap.Logger) (tenantmiddleware.Cache, func()) {
	switch cfg.TenantCache {
	case "none":
		return nil, func() {}
	case "memory":
		return tenantmiddleware.NewMemoryCache(cfg.TenantCacheTTL, tenantmiddleware.WithMaxEntries(cfg.TenantCacheSize)), func() {}
	case "redis":
		if cfg.RedisURL == "" {
			logger.Fatal("REDIS_URL required when TENANT_CACHE=redis")
		}
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("parse REDIS_URL", zap.Error(err))
		}
		client := redis.NewClient(opts)
		return tenantmiddleware.NewRedisCache(client, cfg.TenantCacheTTL), func() {
			if err := client.Close(); err != nil {
				logger.Warn("close redis client", zap.Error(err))
			}
		}
	default:
		logger.Fatal("invalid TENANT_CACHE (use memory, redis or none)", zap.String("cache", cfg.TenantCache))
		return nil, nil
	}
}
