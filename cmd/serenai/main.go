package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xiaot623/serenai/internal/config"
	"github.com/xiaot623/serenai/internal/hub"
	"github.com/xiaot623/serenai/internal/logging"
	"github.com/xiaot623/serenai/internal/metrics"
	"github.com/xiaot623/serenai/internal/policy"
	"github.com/xiaot623/serenai/internal/repository"
	"github.com/xiaot623/serenai/internal/service"
	transport "github.com/xiaot623/serenai/internal/transport/http"
	"github.com/xiaot623/serenai/internal/ws"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting serenai",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("internal_port", cfg.InternalPort),
		zap.String("database", cfg.DatabaseURL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer db.Close()

	circles, err := repository.LoadCircleSeeds(cfg.CircleSeedFile)
	if err != nil {
		logger.Fatal("failed to load circle seeds", zap.Error(err))
	}
	created, err := db.SeedCircles(ctx, circles)
	if err != nil {
		logger.Fatal("failed to seed circles", zap.Error(err))
	}
	logger.Info("circles seeded", zap.Int("created", created), zap.Int("defined", len(circles)))

	// Initialize policy engine
	policyEngine, err := newPolicyEngine(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize policy engine", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := service.New(db, policyEngine, logger)
	connectionHub := hub.NewHub(logger, m)
	wsServer := ws.NewServer(cfg, connectionHub, svc, logger, m)

	publicServer := transport.NewPublicServer(cfg, svc, connectionHub, wsServer)
	internalServer := transport.NewInternalServer(connectionHub, reg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		connectionHub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		logger.Info("public server listening", zap.String("addr", addr))
		if err := publicServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("public server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.InternalPort)
		logger.Info("internal server listening", zap.String("addr", addr))
		if err := internalServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("internal server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down serenai")

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := publicServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shutdown public server gracefully", zap.Error(err))
		}
		if err := internalServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to shutdown internal server gracefully", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return
	}
	logger.Info("serenai stopped")
}

// newPolicyEngine picks the join policy: a custom module file, the capacity
// policy, or the allow-all default.
func newPolicyEngine(ctx context.Context, cfg *config.Config) (*policy.Engine, error) {
	switch {
	case cfg.CirclePolicyFile != "":
		return policy.NewEngineFromFile(ctx, cfg.CirclePolicyFile)
	case cfg.EnforceMemberCap:
		return policy.NewEngine(ctx, policy.CapacityPolicy)
	default:
		return policy.NewEngine(ctx, policy.DefaultPolicy)
	}
}
