package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/alttch/roboger/internal/addr"
	"github.com/alttch/roboger/internal/audit"
	"github.com/alttch/roboger/internal/config"
	"github.com/alttch/roboger/internal/constants"
	"github.com/alttch/roboger/internal/dedup"
	"github.com/alttch/roboger/internal/dispatch"
	"github.com/alttch/roboger/internal/endpoint"
	"github.com/alttch/roboger/internal/limits"
	"github.com/alttch/roboger/internal/logger"
	"github.com/alttch/roboger/internal/plugin"
	"github.com/alttch/roboger/internal/plugin/email"
	"github.com/alttch/roboger/internal/plugin/slack"
	"github.com/alttch/roboger/internal/plugin/telegram"
	"github.com/alttch/roboger/internal/plugin/webhook"
	"github.com/alttch/roboger/internal/subscription"
	"github.com/alttch/roboger/pkg/bootstrap"
	celpkg "github.com/alttch/roboger/pkg/cel"
	"github.com/alttch/roboger/pkg/health"
	"github.com/alttch/roboger/pkg/middleware"
	"github.com/alttch/roboger/pkg/ratelimit"
)

type App struct {
	config      *config.Config
	logger      logger.Logger
	dbConnector *bootstrap.DatabaseConnector
	db          *sql.DB
	redisClient *redis.Client
	pool        *dispatch.Pool
	audit       audit.Producer
	server      *http.Server
	router      *gin.Engine
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		config:      cfg,
		logger:      log,
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := config.ValidateStatic(a.config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initRouter(); err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	a.initServer()
	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	if a.config.Database.RunMigrations {
		if err := bootstrap.RunMigrations(db, a.logger); err != nil {
			return err
		}
	}

	redisClient, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	a.redisClient = redisClient

	return nil
}

func (a *App) initPlugins() (*plugin.Registry, error) {
	globalCfg := make(map[string]map[string]interface{})
	for _, p := range a.config.Plugins {
		globalCfg[p.Name] = p.Config
	}

	registry := plugin.NewRegistry()
	senders := []plugin.Sender{
		webhook.New(a.logger),
		email.New(globalCfg[email.PluginName], a.logger),
		slack.New(a.logger),
		telegram.New(globalCfg[telegram.PluginName], a.logger),
	}
	for _, s := range senders {
		if err := registry.Register(s); err != nil {
			return nil, err
		}
	}

	a.logger.Infow("Plugins registered", "plugins", registry.Names())
	return registry, nil
}

func (a *App) initRouter() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RecoveryMiddleware(a.logger))
	router.Use(middleware.LoggerMiddleware(a.logger))
	router.Use(middleware.RequestIDMiddleware())

	registry, err := a.initPlugins()
	if err != nil {
		return err
	}

	evaluator, err := celpkg.NewEvaluator()
	if err != nil {
		return err
	}

	a.pool = dispatch.NewPool(
		a.config.Dispatch.Workers,
		a.config.Dispatch.QueueDepth,
		a.config.Dispatch.SendTimeout,
		a.logger,
	)
	a.audit = audit.NewProducer(a.config.Audit, a.logger)

	var dedupRepo dedup.Repository
	var limitsRepo limits.Repository
	if a.redisClient != nil {
		dedupRepo = dedup.NewRedisRepository(a.redisClient)
		limitsRepo = limits.NewRedisRepository(a.redisClient)
	} else {
		a.logger.Warn("Redis not configured, dedup and limit state is process-local")
		dedupRepo = dedup.NewMemoryRepository()
		limitsRepo = limits.NewMemoryRepository()
	}

	addrRepo := addr.NewRepository(a.db)
	endpointRepo := endpoint.NewRepository(a.db)
	subscriptionRepo := subscription.NewRepository(a.db)

	addrSvc := addr.NewService(addrRepo, a.logger)
	endpointSvc := endpoint.NewService(endpointRepo, registry, a.logger)
	subscriptionSvc := subscription.NewService(subscriptionRepo, endpointRepo, evaluator, a.logger)
	dedupSvc := dedup.NewService(dedupRepo, a.logger)
	limiter := limits.NewService(limitsRepo, a.config.Limits, a.logger)

	dispatchSvc := dispatch.NewService(
		addrSvc,
		dispatch.NewRepository(a.db),
		registry,
		dedupSvc,
		limiter,
		evaluator,
		a.pool,
		a.audit,
		a.logger,
	)

	dispatch.NewHandler(dispatchSvc, a.logger).RegisterRoutes(router)

	manage := router.Group("/manage/v2")
	manage.Use(middleware.IPAllowListMiddleware(a.config.Master.AllowCIDRs))
	manage.Use(middleware.MasterKeyMiddleware(a.config.Master.Key))
	if a.config.Admin.RateLimit.Enabled {
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             a.config.Admin.RateLimit.RPS,
			Burst:           a.config.Admin.RateLimit.Burst,
			CleanupInterval: time.Duration(a.config.Admin.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(a.config.Admin.RateLimit.MaxAge) * time.Second,
		}
		manage.Use(ratelimit.RateLimitMiddleware(rateLimitConfig))
		a.logger.Infow("Admin rate limiting enabled",
			"rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	addr.NewHandler(addrSvc, a.logger).RegisterRoutes(manage)
	endpoint.NewHandler(endpointSvc, a.logger).RegisterRoutes(manage)
	subscription.NewHandler(subscriptionSvc, a.logger).RegisterRoutes(manage)

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgresChecker(a.db))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}

	router.GET("/healthz", health.LivenessHandler())
	router.GET("/readyz", health.ReadinessHandler(healthRegistry))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.router = router
	return nil
}

func (a *App) initServer() {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfowCtx(ctx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		return a.Shutdown(ctx)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.InfowCtx(ctx, "Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	// Drain queued deliveries before closing their backing stores.
	if a.pool != nil {
		if err := a.pool.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("dispatch pool shutdown error: %w", err))
		}
	}

	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			errs = append(errs, fmt.Errorf("audit producer close error: %w", err))
		}
	}

	dbErrs := a.dbConnector.ShutdownDatabases(a.redisClient, a.db)
	errs = append(errs, dbErrs...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
