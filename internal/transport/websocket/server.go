package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-stream/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-stream/internal/stream"
)

const shutdownTimeout = 5 * time.Second

// Server upgrades HTTP connections on /ws and runs one stream bridge per
// connection until the client leaves or the server shuts down.
type Server struct {
	logger   *slog.Logger
	registry stream.Registry
}

func New(logger *slog.Logger, registry stream.Registry) *Server {
	return &Server{
		logger:   logger,
		registry: registry,
	}
}

// Start - starts the WebSocket server and blocks until ctx is cancelled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

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

		// Hijacked connections are not tracked by Shutdown; every bridge
		// closes its own connection when ctx is cancelled.
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - performs the RFC 6455 handshake and hands the raw
// connection to a bridge.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	if req.Header.Get("Upgrade") != "websocket" {
		http.Error(writer, "not a websocket upgrade", http.StatusBadRequest)
		return
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	if key == "" {
		http.Error(writer, "missing Sec-WebSocket-Key", http.StatusBadRequest)
		return
	}

	writer.Header().Set("Upgrade", "websocket")
	writer.Header().Set("Connection", "Upgrade")
	writer.Header().Set("Sec-WebSocket-Accept", pkg.GenerateAcceptKey(key))
	writer.WriteHeader(http.StatusSwitchingProtocols)

	hijacker, ok := writer.(http.Hijacker)
	if !ok {
		log.Error("web server does not support hijacking", "error", http.StatusText(http.StatusInternalServerError))
		return
	}

	conn, bufrw, err := hijacker.Hijack()
	if err != nil {
		log.Error("failed to hijack connection", "error", err)
		return
	}

	// The hijacked connection inherits the server read deadline; matches
	// run far longer than that.
	if err = conn.SetDeadline(time.Time{}); err != nil {
		log.Error("failed to clear connection deadlines", "error", err)
		_ = conn.Close()
		return
	}

	log.Info("WebSocket connection established", "remote_addr", conn.RemoteAddr().String())

	bridge := stream.NewBridge(that.logger, that.registry, newConn(conn, bufrw), pkg.GenerateConnectionID())
	if err = bridge.Run(ctx); err != nil {
		log.Error("stream bridge failed", "error", err)
	}
}
