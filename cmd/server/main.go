package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/magnetbrain/backend/api/handler"
	"github.com/magnetbrain/backend/internal/config"
	"github.com/magnetbrain/backend/internal/infrastructure/journal"
	"github.com/magnetbrain/backend/internal/infrastructure/monitor"
	pgInfra "github.com/magnetbrain/backend/internal/infrastructure/postgres"
	redisInfra "github.com/magnetbrain/backend/internal/infrastructure/redis"
	"github.com/magnetbrain/backend/internal/middleware"
	"github.com/magnetbrain/backend/internal/router"
	"github.com/magnetbrain/backend/internal/services"
	"github.com/magnetbrain/backend/internal/services/lifecycle"
	"github.com/magnetbrain/backend/pkg/httpcontext"
	"github.com/magnetbrain/backend/pkg/logger"
	"github.com/magnetbrain/backend/repository/postgres"
	redisRepo "github.com/magnetbrain/backend/repository/redis"
	authUC "github.com/magnetbrain/backend/usecase/auth"
	taskUC "github.com/magnetbrain/backend/usecase/task"
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

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	journalStore, err := journal.Open(cfg.Journal.Path, "journal")
	if err != nil {
		zapLogger.Fatal("failed to open journal store", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return journalStore.Close()
	})

	mon := monitor.New(pool, redisClient, journalStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.TokenTTL)

	flusher := services.NewJournalFlusher(
		journalStore,
		mon,
		eventRepo,
		zapLogger,
		services.FlusherConfig{
			Interval:  cfg.Journal.FlushInterval,
			BatchSize: cfg.Journal.BatchSize,
			Retention: cfg.Journal.Retention,
		},
	)
	flusher.Start()
	manager.Register("journal_flusher", func(ctx context.Context) error {
		flusher.Stop(ctx)
		return nil
	})

	recorder := services.NewJournalRecorder(journalStore)

	authUseCase := authUC.New(userRepo, sessionRepo, authUC.Config{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		TokenTTL: cfg.JWT.TokenTTL,
	}, zapLogger)
	taskUseCase := taskUC.New(taskRepo, userRepo, eventRepo, recorder, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, sessionRepo, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
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
