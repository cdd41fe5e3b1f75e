// Package metrics holds the prometheus collectors and the HTTP server that
// exposes them alongside the control API.
package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Scheduler metrics
	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nighttime_ticks_total",
			Help: "Total scheduler ticks evaluated",
		},
	)

	BoundaryCrossings = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nighttime_boundary_crossings_total",
			Help: "Ticks that found a window boundary had been crossed",
		},
	)

	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nighttime_transitions_total",
			Help: "Mode changes applied, by what caused them",
		},
		[]string{"source"},
	)

	NextBoundary = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nighttime_next_boundary_timestamp_seconds",
			Help: "Unix time of the next window boundary",
		},
	)

	// Display metrics
	DisplayErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nighttime_display_errors_total",
			Help: "Failed display port calls",
		},
		[]string{"op"},
	)

	Mode = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nighttime_mode",
			Help: "Last observed display mode (1 = night)",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		TicksTotal,
		BoundaryCrossings,
		TransitionsTotal,
		NextBoundary,
		DisplayErrors,
		Mode,
	)
}

// SetMode records the observed display mode.
func SetMode(on bool) {
	if on {
		Mode.Set(1)
		return
	}
	Mode.Set(0)
}

// Server serves metrics, health and any extra handlers (the control API)
type Server struct {
	server   *http.Server
	mux      *http.ServeMux
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		mux:    mux,
		logger: logger.With().Str("component", "http").Logger(),
	}
}

// Handle registers an extra handler; call it before Start.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.mux.Handle(pattern, handler)
}

// Handler returns the server's mux.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start binds the listener (unless systemd handed one over) and serves in
// the background. Bind errors are returned; later serve errors are logged.
func (s *Server) Start() error {
	if s.listener != nil {
		s.logger.Debug().Msg("Using systemd socket-activated listener")
	} else {
		ln, err := net.Listen("tcp", s.server.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
		}
		s.listener = ln
	}

	s.logger.Info().Str("addr", s.listener.Addr().String()).Msg("Starting HTTP server")
	go func() {
		if err := s.server.Serve(s.listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("HTTP server error")
		}
	}()
	return nil
}

// Addr returns the bound address once Start has run.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully stops the server, waiting for in-flight requests until ctx ends
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}
