package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/capacity-service/internal/api/http"
	"github.com/spec-kit/capacity-service/internal/api/http/handlers"
	"github.com/spec-kit/capacity-service/internal/auth"
	"github.com/spec-kit/capacity-service/internal/config"
	"github.com/spec-kit/capacity-service/internal/events"
	"github.com/spec-kit/capacity-service/internal/observability"
	"github.com/spec-kit/capacity-service/internal/persistence"
	"github.com/spec-kit/capacity-service/internal/repository"
	"github.com/spec-kit/capacity-service/internal/service"
	"github.com/spec-kit/capacity-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	departmentRepo := repository.NewDepartmentRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	capacityService := service.NewCapacityService(service.CapacityDependencies{
		DepartmentRepo: departmentRepo,
		ScheduleRepo:   scheduleRepo,
		AuditRepo:      auditRepo,
		Dispatcher:     dispatcher,
	})
	validationService := service.NewValidationService(service.ValidationDependencies{
		DepartmentRepo: departmentRepo,
		ScheduleRepo:   scheduleRepo,
		Metrics:        metrics,
	})
	suggestionService := service.NewSuggestionService(service.SuggestionDependencies{
		DepartmentRepo: departmentRepo,
		ScheduleRepo:   scheduleRepo,
		Metrics:        metrics,
		Planning:       cfg.Planning,
	})
	schedulingService := service.NewSchedulingService(service.SchedulingDependencies{
		Validator:    validationService,
		ScheduleRepo: scheduleRepo,
		Locker:       redis,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Planning:     cfg.Planning,
		Logger:       logger,
	})

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	authMiddleware := auth.NewAuthMiddleware(tokenManager)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis)
	capacityHandler := handlers.NewCapacityHandler(
		capacityService,
		validationService,
		suggestionService,
		schedulingService,
		cfg.Planning,
	)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         healthHandler,
		Capacity:       capacityHandler,
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
