package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shop-backend/internal/auth"
	"shop-backend/internal/config"
	"shop-backend/internal/database"
	"shop-backend/internal/events"
	"shop-backend/internal/handlers"
	"shop-backend/internal/logger"
	"shop-backend/internal/metrics"
	"shop-backend/internal/middleware"
	"shop-backend/internal/repository"
	"shop-backend/internal/routes"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Logger)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn("mongo disconnect", zap.Error(err))
		}
	}()
	log.Info("connected to mongo", zap.String("database", cfg.Mongo.Database))

	db := client.Database(cfg.Mongo.Database)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	users := repository.NewUserRepository(db)
	products := repository.NewProductRepository(db)
	orders := repository.NewOrderRepository(db)

	publisher, err := events.Connect(cfg.NATS.URL, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	m := metrics.New(cfg.Metrics.Namespace)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var resolver auth.IdentityResolver
	switch cfg.Auth.Mode {
	case config.AuthModeStatic:
		log.Warn("static auth mode: every request acts as the configured admin", zap.String("email", cfg.Auth.AdminEmail))
		resolver = auth.NewStaticResolver(cfg.Auth.AdminEmail, users)
	default:
		resolver = auth.NewTokenResolver(tokens, users)
	}

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Metrics(m),
		middleware.Recovery(log),
	)

	routes.RegisterRoutes(router, routes.Deps{
		Access:   cfg.Access,
		Guard:    middleware.NewGuard(resolver, m),
		Auth:     handlers.NewAuthHandler(users, tokens, m, log, cfg.Auth.AllowAdminSignup),
		Products: handlers.NewProductHandler(products, publisher, m, log),
		Orders:   handlers.NewOrderHandler(orders, publisher, m, log, cfg.Query.StrictIDFilters),
		Metrics:  m,
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, client)
		},
	})

	// Servidor HTTP con apagado ordenado
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server running", zap.String("addr", srv.Addr), zap.String("auth_mode", cfg.Auth.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
