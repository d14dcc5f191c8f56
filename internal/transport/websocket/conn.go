package websocket

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rocketscienceinc/tictactoe-stream/internal/protocol"
)

// Conn adapts one upgraded connection to the bridge's stream: moves arrive
// as JSON in text frames, states leave the same way. Control frames are
// answered here and never reach the bridge.
type Conn struct {
	conn  net.Conn
	bufrw *bufio.ReadWriter

	// writeMu serializes writers: game states and pong replies share the wire.
	writeMu sync.Mutex
}

func newConn(conn net.Conn, bufrw *bufio.ReadWriter) *Conn {
	return &Conn{
		conn:  conn,
		bufrw: bufrw,
	}
}

// Receive - blocks until the client sends the next move. A close frame or
// a vanished peer ends the stream with io.EOF.
func (that *Conn) Receive() (*protocol.Move, error) {
	for {
		frameData, err := readFrame(that.bufrw.Reader)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil, io.EOF
			}

			return nil, err
		}

		switch frameData.opCode {
		case opText, opBinary:
			var move protocol.Move
			if err = json.Unmarshal(frameData.payload, &move); err != nil {
				return nil, fmt.Errorf("failed to unmarshal move: %w", err)
			}

			return &move, nil
		case opPing:
			if err = that.write(frame{isFin: true, opCode: opPong, payload: frameData.payload}); err != nil {
				return nil, err
			}
		case opPong:
			// keepalive reply, nothing to do
		case opClose:
			_ = that.write(frame{isFin: true, opCode: opClose})

			return nil, io.EOF
		default:
			return nil, fmt.Errorf("%w: opcode %#x", ErrUnsupportedFrame, frameData.opCode)
		}
	}
}

// Send - delivers one game state as a single text frame.
func (that *Conn) Send(state *protocol.GameState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	return that.write(frame{isFin: true, opCode: opText, payload: payload})
}

// Close - closes the underlying connection, unblocking both directions.
func (that *Conn) Close() error {
	return that.conn.Close()
}

func (that *Conn) write(frameData frame) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	return writeFrame(that.bufrw.Writer, frameData)
}
