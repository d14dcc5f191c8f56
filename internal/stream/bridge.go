package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-stream/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-stream/internal/match"
	"github.com/rocketscienceinc/tictactoe-stream/internal/protocol"
)

// Conn is the duplex message stream a transport hands to the bridge.
// Receive blocks until the next inbound move and reports the end of the
// stream as io.EOF; Send blocks until the transport accepted the state.
// Both must unblock with an error once Close has been called.
type Conn interface {
	Receive() (*protocol.Move, error)
	Send(state *protocol.GameState) error
	Close() error
}

// Registry is the slice of the match registry a bridge drives.
type Registry interface {
	Join(ctx context.Context, connID string) (*match.Participant, error)
	Leave(ctx context.Context, connID string)
	Route(ctx context.Context, connID string, position int) error
}

// Bridge ties one connection to the match registry: it feeds inbound moves
// in and drains the session's states back onto the wire. It owns no game
// logic and holds no state beyond the connection identity.
type Bridge struct {
	logger   *slog.Logger
	registry Registry
	conn     Conn
	connID   string
}

// NewBridge - builds the bridge for one accepted connection.
func NewBridge(logger *slog.Logger, registry Registry, conn Conn, connID string) *Bridge {
	return &Bridge{
		logger:   logger.With("connection_id", connID),
		registry: registry,
		conn:     conn,
		connID:   connID,
	}
}

// Run - joins the registry and pumps messages both ways until the stream
// ends or ctx is cancelled. The registry seat is released and the
// connection closed on every exit path.
func (that *Bridge) Run(ctx context.Context) error {
	part, err := that.registry.Join(ctx, that.connID)
	if err != nil {
		_ = that.conn.Close()

		return fmt.Errorf("failed to join: %w", err)
	}

	that.logger.Info("stream opened", "session_id", part.SessionID(), "mark", part.Mark())

	stop := context.AfterFunc(ctx, func() {
		_ = that.conn.Close()
	})
	defer stop()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		that.writeStates(part)
	}()

	readErr := that.readMoves(ctx)

	// Teardown bookkeeping must run even when ctx is already cancelled.
	that.registry.Leave(context.WithoutCancel(ctx), that.connID)
	_ = that.conn.Close()
	<-writerDone

	that.logger.Info("stream closed")

	if readErr != nil && !errors.Is(readErr, io.EOF) && ctx.Err() == nil {
		return fmt.Errorf("stream ended: %w", readErr)
	}

	return nil
}

// readMoves - feeds inbound moves into the registry until the stream ends.
func (that *Bridge) readMoves(ctx context.Context) error {
	for {
		move, err := that.conn.Receive()
		if err != nil {
			return err
		}

		err = that.registry.Route(ctx, that.connID, int(move.Position))
		if err == nil {
			continue
		}

		if errors.Is(err, apperror.ErrUnknownConnection) {
			return err
		}

		// Rejections were already delivered in-band by the session.
		that.logger.Debug("move rejected", "error", err)
	}
}

// writeStates - drains the participant queue onto the wire until the
// session closes it or a write fails. A failed write also closes the
// connection so the read side unblocks.
func (that *Bridge) writeStates(part *match.Participant) {
	for state := range part.Updates() {
		update := state
		if err := that.conn.Send(&update); err != nil {
			that.logger.Error("failed to send game state", "error", err)
			_ = that.conn.Close()

			return
		}
	}
}
