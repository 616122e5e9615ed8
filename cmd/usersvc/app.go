package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nkiryanov/usersvc/internal/db"
	"github.com/nkiryanov/usersvc/internal/events"
	"github.com/nkiryanov/usersvc/internal/handlers"
	"github.com/nkiryanov/usersvc/internal/handlers/middleware"
	"github.com/nkiryanov/usersvc/internal/logger"
	"github.com/nkiryanov/usersvc/internal/repository/postgres"
	"github.com/nkiryanov/usersvc/internal/service/auth"
	"github.com/nkiryanov/usersvc/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/usersvc/internal/tracing"
)

const (
	serviceName     = "usersvc"
	shutdownTimeout = 5 * time.Second
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Called in reverse order after the server stopped
	closers []func(ctx context.Context) error
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: logger}

	shutdownTracing, err := tracing.Setup(ctx, serviceName, c.OTELEndpoint)
	if err != nil {
		return nil, fmt.Errorf("error while initializing tracing. Err: %w", err)
	}
	app.closers = append(app.closers, shutdownTracing)

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DSN())
	if err != nil {
		app.close()
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error {
		pool.Close()
		return nil
	})

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize events publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if len(c.KafkaBrokers) > 0 {
		publisher, err = events.NewKafkaPublisher(events.KafkaConfig{Brokers: c.KafkaBrokers, Topic: c.KafkaTopic}, logger)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("error while creating events publisher. Err: %w", err)
		}
		app.closers = append(app.closers, func(context.Context) error { return publisher.Close() })
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		SecretKey:  c.SecretKey,
		AccessTTL:  c.AccessTokenTTL,
		RefreshTTL: c.RefreshTokenTTL,
	})
	if err != nil {
		app.close()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{
		DefaultPassword: c.ResetPassword,
		Publisher:       publisher,
		Logger:          logger,
	}, tokenManager, storage)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	app.Handler = handlers.NewRouter(
		handlers.RouterConfig{
			CORS: middleware.CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true},
		},
		authService,
		pool,
		logger,
	)

	return app, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}

func (s *ServerApp) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			s.logger.Warn("error while releasing resources", "error", err)
		}
	}
	s.closers = nil
}
