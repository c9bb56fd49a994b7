// Command auth-server starts the docqa-auth HTTP API and its gRPC health endpoint.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/and161185/docqa-auth/internal/config"
	"github.com/and161185/docqa-auth/internal/limiter"
	"github.com/and161185/docqa-auth/internal/migrate"
	"github.com/and161185/docqa-auth/internal/repository/postgres"
	grpcserver "github.com/and161185/docqa-auth/internal/server/grpc"
	httpserver "github.com/and161185/docqa-auth/internal/server/http"
	"github.com/and161185/docqa-auth/internal/service"
	"github.com/and161185/docqa-auth/internal/token"
	"github.com/and161185/docqa-auth/internal/validation"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves until SIGINT/SIGTERM.
func main() {
	logger, _ := zap.NewProduction()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if cfg.Dev {
		logger, _ = zap.NewDevelopment()
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr()),
		zap.String("prefix", cfg.RoutePrefix),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseURL); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer db.Close()

	userRepo := postgres.NewUserRepo(db)

	policy := limiter.Policy{Window: cfg.LimiterWindow, MaxFails: cfg.LimiterMaxFails, BlockFor: cfg.LimiterBlockFor}
	var lim limiter.Limiter
	switch cfg.Limiter {
	case config.LimiterRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer func() { _ = rdb.Close() }()
		lim = limiter.NewRedis(rdb, policy, "")
	case config.LimiterOff:
		lim = limiter.Nop{}
	default:
		lim = limiter.NewPG(db.Pool, policy)
	}

	tokens, err := token.NewIssuer(token.Config{
		AccessSecret:  []byte(cfg.AccessSecret),
		RefreshSecret: []byte(cfg.RefreshSecret),
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Issuer:        cfg.Issuer,
		Leeway:        cfg.Leeway,
	})
	if err != nil {
		logger.Fatal("token issuer", zap.Error(err))
	}

	// Services
	authSvc := service.NewAuthService(userRepo, tokens, lim, validation.StrongPassword)
	userSvc := service.NewUserService(userRepo)

	router := httpserver.NewRouter(authSvc, userSvc, tokens, logger, httpserver.Options{
		Prefix:      cfg.RoutePrefix,
		FrontendURL: cfg.FrontendURL,
	})
	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Health (gRPC)
	health := grpcserver.NewHealth(db, logger, 10*time.Second)
	go health.Run(ctx)
	grpcSrv := grpcserver.NewServer(health, logger, cfg.Dev)

	lis, err := net.Listen("tcp", cfg.HealthAddr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("listening (http)", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("listening (health)", zap.String("addr", cfg.HealthAddr))
		errCh <- grpcSrv.Serve(lis)
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		grpcSrv.Stop()
	}

	logger.Info("shutdown complete")
}
