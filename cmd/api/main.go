package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/worker"
	"github.com/spec-kit/support-desk/pkg/id"
)

func main() {
	envFiles := pflag.StringSlice("env-file", nil, "dotenv files to load (default .env)")
	migrateOnly := pflag.Bool("migrate-only", false, "apply migrations and exit")
	pflag.Parse()

	cfg, err := config.Load(*envFiles...)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger,
		zap.String("service", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version))
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := id.Init(cfg.App.NodeID); err != nil {
		logger.Fatal("failed to init id generator", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations || *migrateOnly {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	if *migrateOnly {
		return
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	forwarder := events.NewRedisForwarder(redis, cfg.Events.RedisChannel, logger)
	relay := worker.NewEventRelay(forwarder.Handle, cfg.Events.RelayBuffer, logger)
	relay.Start(ctx)
	service.NewNotificationService(dispatcher, relay.Enqueue, logger, cfg.Events).RegisterHandlers()

	pool := pg.PoolHandle()
	profileRepo := repository.NewProfileRepository(pool)
	expertRepo := repository.NewExpertRepository(pool)
	expertiseRepo := repository.NewExpertiseRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)

	profileService := service.NewProfileService(profileRepo, cfg.Auth.BcryptCost)
	expertService := service.NewExpertService(expertRepo, expertiseRepo, cfg.Auth.BcryptCost)
	expertiseService := service.NewExpertiseService(expertiseRepo)
	productService := service.NewProductService(productRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:    ticketRepo,
		ProfileRepo:   profileRepo,
		ProductRepo:   productRepo,
		ExpertRepo:    expertRepo,
		ExpertiseRepo: expertiseRepo,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
	})
	messageService := service.NewMessageService(ticketRepo, messageRepo, dispatcher, logger)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		ProfileRepo:    profileRepo,
		ExpertRepo:     expertRepo,
		ProfileService: profileService,
		ExpertService:  expertService,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), profileRepo, expertRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	paging := handlers.Paging{DefaultSize: cfg.App.DefaultPageSize, MaxSize: cfg.App.MaxPageSize}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, paging),
		Messages:       handlers.NewMessagesHandler(messageService, paging),
		Profiles:       handlers.NewProfilesHandler(profileService, ticketService, paging),
		Experts:        handlers.NewExpertsHandler(expertService, paging),
		Catalog:        handlers.NewCatalogHandler(expertiseService, productService, paging),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	relay.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
