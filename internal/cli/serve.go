package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/helpdesk-io/ticket-service/internal/api/http"
	"github.com/helpdesk-io/ticket-service/internal/api/http/handlers"
	"github.com/helpdesk-io/ticket-service/internal/auth"
	"github.com/helpdesk-io/ticket-service/internal/config"
	"github.com/helpdesk-io/ticket-service/internal/events"
	"github.com/helpdesk-io/ticket-service/internal/observability"
	"github.com/helpdesk-io/ticket-service/internal/persistence"
	"github.com/helpdesk-io/ticket-service/internal/repository"
	"github.com/helpdesk-io/ticket-service/internal/service"
	"github.com/helpdesk-io/ticket-service/internal/ticketcode"
	"github.com/helpdesk-io/ticket-service/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			return err
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	sink := events.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer func() {
		if err := sink.Close(); err != nil {
			logger.Warn("kafka sink close", zap.Error(err))
		}
	}()

	app := newApp(cfg, logger, pg, redis, sink)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		errCh <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("fiber listen: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
	}
	return app.ShutdownWithTimeout(shutdownTimeout)
}

// newApp wires repositories, services and handlers onto a Fiber app.
func newApp(cfg *config.Config, logger *zap.Logger, pg *persistence.Postgres, redis *persistence.Redis, sink *events.KafkaSink) *fiber.App {
	pool := pg.PoolHandle()
	timeout := cfg.Postgres.QueryTimeout()

	ticketRepo := repository.NewTicketRepository(pool, timeout)
	departmentRepo := repository.NewDepartmentRepository(pool, timeout)
	priorityRepo := repository.NewPriorityRepository(pool, timeout)
	statusRepo := repository.NewStatusRepository(pool, timeout)
	userRepo := repository.NewUserRepository(pool, timeout)
	historyRepo := repository.NewTicketHistoryRepository(pool, timeout)

	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification))
	worker.StartEventExport(sink, dispatcher, logger)

	codeOpts := []ticketcode.Option{ticketcode.WithLogger(logger)}
	if redis != nil {
		codeOpts = append(codeOpts, ticketcode.WithCounter(redis.SequenceCounter(cfg.Ticket.SequenceKeyPrefix, cfg.Ticket.SequenceTTL())))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:       userRepo,
		DepartmentRepo: departmentRepo,
		BcryptCost:     cfg.Auth.BcryptCost,
		Logger:         logger,
	})
	authService := service.NewAuthService(userRepo, userService, tokens)
	catalogService := service.NewCatalogService(service.CatalogDependencies{
		DepartmentRepo: departmentRepo,
		PriorityRepo:   priorityRepo,
		StatusRepo:     statusRepo,
	})
	var assigner service.AutoAssigner
	if cfg.Ticket.AutoAssign {
		assigner = service.NewDepartmentAutoAssigner(userRepo, ticketRepo, logger)
	}
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:         ticketRepo,
		DepartmentRepo:     departmentRepo,
		PriorityRepo:       priorityRepo,
		UserRepo:           userRepo,
		HistoryRepo:        historyRepo,
		Transactor:         repository.NewTxManager(pool),
		Codes:              ticketcode.NewGenerator(ticketRepo, codeOpts...),
		Dispatcher:         dispatcher,
		AutoAssigner:       assigner,
		Logger:             logger,
		CodeInsertAttempts: cfg.Ticket.CodeInsertAttempts,
	})

	readiness := []handlers.Dependency{{Name: "postgres", Pinger: pg}}
	if redis != nil {
		readiness = append(readiness, handlers.Dependency{Name: "redis", Pinger: redis})
	}
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, readiness...),
		Users:          handlers.NewUsersHandler(authService, userService),
		Catalog:        handlers.NewCatalogHandler(catalogService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo),
	})
	return app
}
