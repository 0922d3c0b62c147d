package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/harun/recap/internal/observability"
	"github.com/rs/zerolog"
)

// metricsServer exposes the Prometheus registry over HTTP
type metricsServer struct {
	addr     string
	logger   zerolog.Logger
	server   *http.Server
	listener net.Listener
}

func newMetricsServer(addr string, logger zerolog.Logger) *metricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &metricsServer{
		addr:   addr,
		logger: logger.With().Str("component", "metrics").Logger(),
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start binds the listener and serves in the background
func (s *metricsServer) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	return nil
}

// Addr returns the bound address, which differs from the configured one when
// port 0 was requested.
func (s *metricsServer) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop shuts the server down
func (s *metricsServer) Stop(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
