// Package httpapi exposes an EmbeddingService over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gofiber/fiber/v3"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/custodia-labs/hybridrag/internal/core/domain"
	"github.com/custodia-labs/hybridrag/internal/core/ports/driving"
	"github.com/custodia-labs/hybridrag/internal/logger"
)

// Default configuration values.
const (
	DefaultAddr         = ":8001"
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 300 * time.Second
	DefaultBodyLimit    = 64 * 1024 * 1024
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Addr is the listen address (default: :8001).
	Addr string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// BodyLimit caps request bodies in bytes (default: 64 MiB).
	BodyLimit int
}

// Server serves the embedding API.
type Server struct {
	cfg     Config
	service driving.EmbeddingService
	app     *fiber.App
}

// NewServer builds the fiber app and registers the routes.
func NewServer(service driving.EmbeddingService, cfg Config) (*Server, error) {
	if service == nil {
		return nil, errors.New("embedding service is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.BodyLimit == 0 {
		cfg.BodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:      "hybridrag-embedding",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BodyLimit:    cfg.BodyLimit,
		ErrorHandler: errorHandler,
		JSONEncoder:  domain.EncodeJSON,
	})

	app.Use(recover.New())
	if logger.IsVerbose() {
		app.Use(fiberlogger.New(fiberlogger.Config{Stream: logger.Writer()}))
	}

	s := &Server{cfg: cfg, service: service, app: app}
	s.registerRoutes()
	return s, nil
}

// App returns the underlying fiber app, for tests and embedding in other servers.
func (s *Server) App() *fiber.App {
	return s.app
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// Run loads the model in the background and serves until ctx is cancelled.
// Requests arriving before the model is ready are answered with 503.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		start := time.Now()
		if err := s.service.Load(ctx); err != nil {
			logger.Error("Loading embedding model: %v", err)
			return
		}
		logger.Info("Embedding model ready in %v", time.Since(start))
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	logger.Info("Embedding service listening on %s", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return <-errCh
}
