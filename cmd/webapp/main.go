package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/ketabplus/frontend/api/handler"
	"github.com/ketabplus/frontend/guard"
	identityAPI "github.com/ketabplus/frontend/identity/httpapi"
	"github.com/ketabplus/frontend/internal/config"
	boltInfra "github.com/ketabplus/frontend/internal/infrastructure/bolt"
	"github.com/ketabplus/frontend/internal/infrastructure/monitor"
	redisInfra "github.com/ketabplus/frontend/internal/infrastructure/redis"
	"github.com/ketabplus/frontend/internal/middleware"
	"github.com/ketabplus/frontend/internal/router"
	"github.com/ketabplus/frontend/internal/services/cartsync"
	"github.com/ketabplus/frontend/internal/services/lifecycle"
	"github.com/ketabplus/frontend/pkg/httpcontext"
	"github.com/ketabplus/frontend/pkg/logger"
	"github.com/ketabplus/frontend/repository"
	boltRepo "github.com/ketabplus/frontend/repository/bolt"
	redisRepo "github.com/ketabplus/frontend/repository/redis"
	"github.com/ketabplus/frontend/usecase/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	var (
		carts repository.CartRepository
		prefs repository.PreferenceRepository
	)

	localDB, err := boltInfra.Open(cfg.Store.Path)
	if err != nil {
		zapLogger.Fatal("failed to open local store", zap.Error(err))
	}
	manager.Register("local_store", func(ctx context.Context) error {
		return localDB.Close()
	})
	prefs = boltRepo.NewPreferenceRepository(localDB)

	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		redisClient, err := redisInfra.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
		carts = redisRepo.NewCartRepository(redisClient, 24*time.Hour)
	default:
		carts = boltRepo.NewCartRepository(localDB)
	}

	identityClient := identityAPI.New(identityAPI.Config{
		BaseURL:    cfg.Identity.BaseURL,
		CookieName: cfg.Identity.CookieName,
		Timeout:    cfg.Identity.Timeout,
	}, zapLogger)

	sessions := session.New(identityClient, carts, zapLogger, session.Config{
		WarningLead:     cfg.Session.WarningLead,
		HardTimeout:     cfg.Session.HardTimeout,
		RefreshInterval: cfg.Session.RefreshInterval,
		ActivityGrace:   cfg.Session.ActivityGrace,
	})
	manager.Register("session_manager", func(ctx context.Context) error {
		sessions.Close()
		return nil
	})

	if err := sessions.Initialize(appCtx); err != nil {
		zapLogger.Warn("initial identity check failed", zap.Error(err))
	}

	mon := monitor.New(identityClient, carts, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	syncer := cartsync.New(carts, identityClient, mon, sessions, zapLogger, cartsync.Config{
		Interval:   cfg.CartSync.Interval,
		MaxRetries: cfg.CartSync.MaxRetries,
	})
	syncer.Start()
	manager.Register("cart_sync", func(ctx context.Context) error {
		syncer.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:    apiHandler.NewAuthHandler(sessions, ctxAdapter, zapLogger),
		Session: apiHandler.NewSessionHandler(sessions, ctxAdapter, zapLogger),
		Cart:    apiHandler.NewCartHandler(carts, prefs, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	activityMW := middleware.Activity(sessions)
	authGuard := middleware.Guard(guard.New(guard.Options{}), sessions, zapLogger)
	adminGuard := middleware.Guard(guard.New(guard.Options{RequireAdmin: true}), sessions, zapLogger)
	r := router.New(handlers, activityMW, authGuard, adminGuard)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("storefront started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
