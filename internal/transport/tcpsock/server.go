package tcpsock

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/rocketscienceinc/tictactoe-stream/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-stream/internal/stream"
)

// Server speaks the same protocol as the WebSocket transport over plain
// TCP: one JSON message per line, moves in, states out. It exists for
// clients without an HTTP stack and keeps the bridge honest about not
// depending on any one transport.
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

// Start - accepts connections until ctx is cancelled, then waits for the
// active bridges to drain.
func (that *Server) Start(ctx context.Context, port string) error {
	log := that.logger.With("method", "Start")

	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			wg.Wait()

			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("failed to accept connection: %w", err)
		}

		log.Info("TCP connection established", "remote_addr", conn.RemoteAddr().String())

		wg.Add(1)
		go func() {
			defer wg.Done()
			that.serve(ctx, conn)
		}()
	}
}

func (that *Server) serve(ctx context.Context, conn net.Conn) {
	bridge := stream.NewBridge(that.logger, that.registry, newConn(conn), pkg.GenerateConnectionID())
	if err := bridge.Run(ctx); err != nil {
		that.logger.Error("stream bridge failed", "error", err)
	}
}
