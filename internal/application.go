package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rocketscienceinc/tictactoe-stream/internal/config"
	"github.com/rocketscienceinc/tictactoe-stream/internal/match"
	"github.com/rocketscienceinc/tictactoe-stream/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-stream/internal/repository"
	"github.com/rocketscienceinc/tictactoe-stream/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-stream/internal/transport/rest"
	"github.com/rocketscienceinc/tictactoe-stream/internal/transport/tcpsock"
	"github.com/rocketscienceinc/tictactoe-stream/internal/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	metrics.Register(prometheus.DefaultRegisterer)

	var sessionRepo repository.SessionRepository

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		log.Warn("no redis host configured, session mirror is disabled")
	} else {
		redisStorage, err := storage.New(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		sessionRepo = repository.NewSessionRepository(redisStorage.Connection)
	}

	// The repository doubles as the registry's snapshot store; a nil repo
	// leaves the mirror disabled.
	var store match.SnapshotStore = sessionRepo

	registry := match.NewRegistry(logger, store)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, logger, conf.HTTPPort, registry, sessionRepo); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run WebSocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, registry)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	// run TCP server
	tcpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting TCP server", "port", conf.TCPPort)
		tcpServer := tcpsock.New(logger, registry)
		if tcpErr := tcpServer.Start(ctx, conf.TCPPort); tcpErr != nil {
			log.Error("TCP server error", "error", tcpErr)
			tcpErrCh <- tcpErr
		}
	}()

	var err error
	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case err = <-tcpErrCh:
		return fmt.Errorf("TCP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
