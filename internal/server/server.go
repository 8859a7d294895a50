// Package server exposes language detection, parsing and rendering over a
// small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/l3aro/flowstruct/internal/config"
	"github.com/l3aro/flowstruct/internal/log"
	"github.com/l3aro/flowstruct/pkg/cache"
)

// ShutdownTimeout bounds how long in-flight requests get to finish.
const ShutdownTimeout = 5 * time.Second

// ServiceName is reported by the health endpoint.
const ServiceName = "flowstruct-api"

// Server serves the HTTP API.
type Server struct {
	cfg     *config.Config
	cache   *cache.ResultCache
	logger  log.Logger
	started time.Time
	version string
	handler http.Handler
}

// New builds a Server from cfg. A nil logger discards output.
func New(cfg *config.Config, logger log.Logger, version string) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		cfg:     cfg,
		cache:   cache.New(cache.Options{MaxSize: cfg.CacheSize}),
		logger:  logger,
		started: time.Now(),
		version: version,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/detect", s.handleDetect)
	mux.HandleFunc("/api/parse", s.handleParse)
	mux.HandleFunc("/api/render", s.handleRender)

	s.handler = cors(cfg.CORSAllowedOrigin, s.logRequests(mux))
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Cache returns the server's result cache.
func (s *Server) Cache() *cache.ResultCache {
	return s.cache
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. The cache is restored from cache_path before serving and
// written back after shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.CachePath != "" {
		if err := cache.LoadFromFile(s.cache, s.cfg.CachePath); err != nil {
			// a bad cache file only costs warm-up time
			s.logger.Warn("discarding persisted cache", "path", s.cfg.CachePath, "error", err)
			s.cache.Clear()
		} else {
			s.logger.Debug("loaded persisted cache", "path", s.cfg.CachePath, "entries", s.cache.Len())
		}
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("server started", "addr", ln.Addr().String(), "version", s.version)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
	}

	return s.persist()
}

func (s *Server) persist() error {
	if s.cfg.CachePath == "" {
		return nil
	}
	if err := cache.PersistToFile(s.cache, s.cfg.CachePath); err != nil {
		return fmt.Errorf("persisting cache: %w", err)
	}
	s.logger.Info("cache persisted", "path", s.cfg.CachePath, "entries", s.cache.Len())
	return nil
}
