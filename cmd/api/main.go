package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/repairflow/workorder-service/internal/api/http"
	"github.com/repairflow/workorder-service/internal/api/http/handlers"
	"github.com/repairflow/workorder-service/internal/auth"
	"github.com/repairflow/workorder-service/internal/config"
	"github.com/repairflow/workorder-service/internal/events"
	"github.com/repairflow/workorder-service/internal/notify"
	"github.com/repairflow/workorder-service/internal/observability"
	"github.com/repairflow/workorder-service/internal/persistence"
	"github.com/repairflow/workorder-service/internal/repository"
	"github.com/repairflow/workorder-service/internal/service"
	"github.com/repairflow/workorder-service/internal/storage"
	"github.com/repairflow/workorder-service/internal/worker"
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

	redisConn := persistence.NewRedis(cfg.Redis, logger)
	defer redisConn.Close()

	attachmentStore, err := storage.NewFSStore(cfg.Storage.Dir)
	if err != nil {
		logger.Fatal("failed to init attachment store", zap.Error(err))
	}

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool, cfg.Postgres.LockTimeoutMilli)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	dispatchLogRepo := repository.NewDispatchLogRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, tokenManager, cfg.Auth.BcryptCost)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		AssignmentRepo: assignmentRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		AuditRepo:      auditRepo,
		Dispatcher:     dispatcher,
	})
	schedulingService := service.NewSchedulingService(ticketRepo, assignmentRepo, auditRepo, dispatcher, nil)
	dispatchService := service.NewDispatchService(service.DispatchDependencies{
		TicketRepo:      ticketRepo,
		AssignmentRepo:  assignmentRepo,
		UserRepo:        userRepo,
		DispatchLogRepo: dispatchLogRepo,
		AuditRepo:       auditRepo,
		Dispatcher:      dispatcher,
	})
	attachmentService := service.NewAttachmentService(ticketRepo, attachmentRepo, attachmentStore)
	notificationService := service.NewNotificationService(
		dispatcher, ticketRepo, userRepo, assignmentRepo, redisConn.Client, logger, cfg.Notification)

	var pusher notify.Pusher = notify.NopPusher{}
	if cfg.Notification.ChannelToken != "" {
		pusher = notify.NewChannelPusher(
			cfg.Notification.ChannelPushURL,
			cfg.Notification.ChannelToken,
			cfg.Notification.PushTimeout(),
			logger)
	}
	notificationWorker := worker.NewNotificationWorker(redisConn.Client, pusher, logger, cfg.Notification.OutboxKey)
	worker.StartNotificationWorker(ctx, notificationService, notificationWorker)

	reminderWorker := worker.NewReminderWorker(ticketRepo, notificationService, logger, nil)
	go reminderWorker.Run(ctx)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redisConn.Client, cfg.App.Version),
		Auth:           handlers.NewAuthHandler(authService),
		Public:         handlers.NewPublicHandler(ticketService, schedulingService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Dispatch:       handlers.NewDispatchHandler(dispatchService, schedulingService),
		Attachments:    handlers.NewAttachmentsHandler(attachmentService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
