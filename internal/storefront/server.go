package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

// Server owns the HTTP listener lifecycle around the handler tree.
type Server struct {
	srv *http.Server
	log zerolog.Logger
}

func NewServer(port int, handler http.Handler, log zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Run listens until the context is cancelled, then shuts down gracefully,
// letting in-flight requests drain within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info().Str("action", "server_started").Str("addr", s.srv.Addr).Msg("storefront listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Str("action", "graceful_shutdown_started").Msg("shutting down storefront")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error().Err(err).Str("action", "graceful_shutdown_failed").Msg("storefront did not stop cleanly")
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.log.Info().Str("action", "graceful_shutdown_completed").Msg("storefront stopped")
	return nil
}
