// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package server exposes address search and validation over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-co-op/gocron/v2"
	"github.com/go-playground/validator/v10"

	"github.com/casapropia/geocheck/internal/address"
	"github.com/casapropia/geocheck/internal/config"
	"github.com/casapropia/geocheck/internal/geocode"
	"github.com/casapropia/geocheck/internal/logger"
)

const evictJobName = "ratelimit_eviction_job"

// Validator validates a single address request.
type Validator interface {
	Validate(ctx context.Context, req address.Request) address.Result
}

// Searcher returns autocomplete suggestions for a query.
type Searcher interface {
	Search(ctx context.Context, query string) []geocode.Suggestion
}

type Server struct {
	config    *config.Config
	logger    *logger.Logger
	limiter   *rateLimiter
	router    *chi.Mux
	scheduler gocron.Scheduler
	searcher  Searcher
	validate  *validator.Validate
	validator Validator
}

func New(conf *config.Config, log *logger.Logger, validator Validator, searcher Searcher) (*Server, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	limits := conf.Server.RateLimit
	server := &Server{
		config:    conf,
		logger:    log,
		limiter:   newRateLimiter(limits.RPS, limits.Burst, limits.TTL, log),
		scheduler: scheduler,
		searcher:  searcher,
		validate:  newValidate(),
		validator: validator,
	}
	server.router = server.routes()
	return server, nil
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewMux()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/health", s.handleHealth)
		api.Route("/address", func(ar chi.Router) {
			ar.Use(s.limiter.middleware)
			ar.Get("/search", s.handleSearch)
			ar.Post("/validate", s.handleValidate)
		})
	})
	return r
}

// Run serves HTTP until ctx is canceled and then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.createScheduledJob(ctx, s.config.Server.RateLimit.Cleanup, s.limiter.evict,
		evictJobName); err != nil {
		return err
	}
	s.scheduler.Start()
	defer func() {
		if err := s.scheduler.Shutdown(); err != nil {
			s.logger.Error("failed to shut down scheduler", logger.Err(err))
		}
	}()

	srv := &http.Server{
		Addr:              s.config.Server.Addr,
		Handler:           s.router,
		ReadTimeout:       s.config.Server.ReadTimeout,
		ReadHeaderTimeout: s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout,
		IdleTimeout:       time.Second * 30,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", srv.ReadTimeout), slog.Duration("write_timeout", srv.WriteTimeout))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("failed to serve HTTP: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server", slog.String("reason", ctx.Err().Error()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
		return nil
	case err := <-errChan:
		return err
	}
}

func (s *Server) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request served",
			slog.String("request_id", chimw.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", clientIP(r)),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
