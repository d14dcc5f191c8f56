package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rocketscienceinc/tictactoe-stream/internal/match"
)

const shutdownTimeout = 5 * time.Second

// sessionLister is the slice of the registry the stats endpoint needs.
type sessionLister interface {
	Snapshots() []match.Snapshot
}

// Start - serves the operational endpoints: /ping for liveness, /metrics
// for Prometheus, /sessions for a live listing of matches and
// /sessions/<id> for a single mirrored snapshot. Blocks until ctx is
// cancelled.
func Start(ctx context.Context, logger *slog.Logger, port string, sessions sessionLister, finder sessionFinder) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", pingHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/sessions", sessionsHandler(logger, sessions))

	// The lookup route exists only when a snapshot store is configured.
	if finder != nil {
		mux.HandleFunc("/sessions/", sessionLookupHandler(logger, finder))
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
