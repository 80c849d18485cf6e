package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/credstack/internal/logging"
	"github.com/dmitrijs2005/credstack/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type HTTPServer struct {
	srv    *http.Server
	logger logging.Logger
}

func NewHTTPServer(address string, l logging.Logger, us *services.UserService) *HTTPServer {
	logger := l.With("module", "http_server")
	return &HTTPServer{
		srv: &http.Server{
			Addr:              address,
			Handler:           NewRouter(NewHandler(us, logger)),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.srv.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
