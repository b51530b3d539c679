package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/chamado-service/internal/api/http"
	"github.com/spec-kit/chamado-service/internal/api/http/handlers"
	"github.com/spec-kit/chamado-service/internal/auth"
	"github.com/spec-kit/chamado-service/internal/config"
	"github.com/spec-kit/chamado-service/internal/events"
	"github.com/spec-kit/chamado-service/internal/observability"
	"github.com/spec-kit/chamado-service/internal/persistence"
	"github.com/spec-kit/chamado-service/internal/realtime"
	"github.com/spec-kit/chamado-service/internal/repository"
	"github.com/spec-kit/chamado-service/internal/service"
	"github.com/spec-kit/chamado-service/internal/worker"
)

const protocolKeyPrefix = "chamado:protocol"

type stores struct {
	tickets   repository.TicketRepository
	history   repository.HistoryRepository
	stats     repository.StatsRepository
	sequencer repository.Sequencer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
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

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	st := buildStores(cfg, pg, redis, logger)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	hub := realtime.NewHub(logger)
	go hub.Run(ctx)
	worker.NewQueueFeed(dispatcher, hub, redis.Client, cfg.Realtime.Channel, logger).Start(ctx)
	worker.StartActivityLog(dispatcher, logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  st.tickets,
		HistoryRepo: st.history,
		Sequencer:   st.sequencer,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: st.tickets,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	dashboardService := service.NewDashboardService(st.stats)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:          cfg.App.RequestTimeout(),
		CORSAllowOrigins: cfg.App.CORSAllowOrigins,
	}, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Assignments:    handlers.NewAssignmentsHandler(assignmentService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		QueueSocket:    handlers.NewQueueSocketHandler(ctx, hub, logger),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.Shutdown(); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

// buildStores picks postgres when a pool exists and the in-memory store
// otherwise. Protocol numbers come from redis when configured, else from the
// ticket store itself.
func buildStores(cfg *config.Config, pg *persistence.Postgres, redis *persistence.Redis, logger *zap.Logger) stores {
	var st stores
	retry := repository.NewRetrier(cfg.Store)
	if pg.Enabled() {
		st = stores{
			tickets:   repository.NewTicketRepository(pg.Pool, retry),
			history:   repository.NewHistoryRepository(pg.Pool, retry),
			stats:     repository.NewStatsRepository(pg.Pool, retry),
			sequencer: repository.NewPostgresSequencer(pg.Pool, retry),
		}
	} else {
		memory := repository.NewMemoryStore()
		st = stores{tickets: memory, history: memory, stats: memory, sequencer: memory}
	}

	if redis.Enabled() {
		st.sequencer = repository.NewRedisSequencer(redis.Client, protocolKeyPrefix, retry)
		logger.Info("protocol numbers served by redis")
	}
	return st
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
