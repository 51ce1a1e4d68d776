// Package server exposes a Store, the importer and the script capabilities
// over a small JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nao1215/analystdb"
	"github.com/nao1215/analystdb/domain/model"
	"github.com/nao1215/analystdb/internal/bridge"
	"github.com/nao1215/analystdb/internal/script"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config holds the dependencies of a Server.
type Config struct {
	Store       *analystdb.Store
	Invoker     script.Invoker
	Dispatcher  *bridge.Dispatcher
	DumpOptions model.DumpOptions
	Addr        string
	Logger      *zap.Logger
}

// Server is the HTTP API.
type Server struct {
	store       *analystdb.Store
	invoker     script.Invoker
	dispatcher  *bridge.Dispatcher
	dumpOptions model.DumpOptions
	addr        string
	logger      *zap.Logger
}

// New creates a server. A nil Dispatcher gets a single worker and a nil
// Logger is replaced by a no-op logger.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = bridge.NewDispatcher(1, logger)
	}
	return &Server{
		store:       cfg.Store,
		invoker:     cfg.Invoker,
		dispatcher:  dispatcher,
		dumpOptions: cfg.DumpOptions,
		addr:        cfg.Addr,
		logger:      logger,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		s.requestLogger,
	)

	r.Route("/api", func(r chi.Router) {
		r.Post("/connect", s.handleConnect)
		r.Post("/query", s.handleQuery)
		r.Get("/schema", s.handleSchema)
		r.Post("/sessions", s.handleRegister)
		r.Post("/read", s.handleRead)
		r.Post("/import", s.handleImport)
		r.Post("/export", s.handleExport)
		r.Post("/capabilities/{id}", s.handleCapability)
	})
	return r
}

// Serve listens on the configured address and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		s.logger.Sugar().Infow("starting API server", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	err := eg.Wait()
	s.dispatcher.Wait()
	return err
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Sugar().Debugw("request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
		)
	})
}
