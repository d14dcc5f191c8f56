package tcpsock

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rocketscienceinc/tictactoe-stream/internal/protocol"
)

// Conn adapts a TCP connection to the bridge's stream with one JSON
// document per line in each direction.
type Conn struct {
	conn    net.Conn
	decoder *json.Decoder
	encoder *json.Encoder

	writeMu sync.Mutex
}

func newConn(conn net.Conn) *Conn {
	return &Conn{
		conn:    conn,
		decoder: json.NewDecoder(conn),
		encoder: json.NewEncoder(conn),
	}
}

// Receive - decodes the next move; a vanished peer ends the stream with
// io.EOF.
func (that *Conn) Receive() (*protocol.Move, error) {
	var move protocol.Move
	if err := that.decoder.Decode(&move); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
			return nil, io.EOF
		}

		return nil, fmt.Errorf("failed to decode move: %w", err)
	}

	return &move, nil
}

// Send - encodes one game state followed by a newline.
func (that *Conn) Send(state *protocol.GameState) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if err := that.encoder.Encode(state); err != nil {
		return fmt.Errorf("failed to encode game state: %w", err)
	}

	return nil
}

// Close - closes the underlying connection, unblocking both directions.
func (that *Conn) Close() error {
	return that.conn.Close()
}
