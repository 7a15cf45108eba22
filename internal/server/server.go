package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"chartink-gateway/internal/service"
)

// Options parameterise the HTTP listener.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server hosts the webhook HTTP API. Routes are registered once at
// construction; nothing is mutated after Start.
type Server struct {
	service *service.Service
	refresh func(ctx context.Context) error
	logger  zerolog.Logger
	srv     *http.Server
}

// New constructs the server. refresh triggers a manual broker token
// refresh and may be nil when trading is off.
func New(opts Options, svc *service.Service, refresh func(ctx context.Context) error, logger zerolog.Logger) *Server {
	s := &Server{
		service: svc,
		refresh: refresh,
		logger:  logger.With().Str("component", "server").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/chartink", s.handleChartink)
	mux.HandleFunc("/refresh_token", s.handleRefreshToken)

	s.srv = &http.Server{
		Addr:         opts.Addr,
		Handler:      mux,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.srv.Addr).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the route table, used by tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
