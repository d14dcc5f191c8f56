package websocket

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-stream/internal/protocol"
)

// newPipeConn - a Conn wired to an in-memory peer.
func newPipeConn(t *testing.T) (*Conn, net.Conn, *bufio.Reader) {
	t.Helper()

	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})

	wsConn := newConn(server, bufio.NewReadWriter(bufio.NewReader(server), bufio.NewWriter(server)))

	return wsConn, client, bufio.NewReader(client)
}

func TestConn_Receive(t *testing.T) {
	t.Run("Delivers a client move", func(t *testing.T) {
		// Given: a connected client
		wsConn, client, _ := newPipeConn(t)

		// When: the client sends a masked move frame
		go func() {
			_, _ = client.Write(clientFrame(opText, []byte(`{"player_id":"p1","position":4}`)))
		}()

		move, err := wsConn.Receive()

		// Then: the move arrives intact
		require.NoError(t, err)
		assert.Equal(t, int32(4), move.Position)
		assert.Equal(t, "p1", move.PlayerID)
	})

	t.Run("Answers ping and keeps listening", func(t *testing.T) {
		// Given: a connected client
		wsConn, client, clientReader := newPipeConn(t)

		// When: the client pings before moving
		go func() {
			_, _ = client.Write(clientFrame(opPing, []byte("hi")))

			// the pong must be consumed before the pipe accepts more bytes
			pong, err := readFrame(clientReader)
			assert.NoError(t, err)
			assert.Equal(t, byte(opPong), pong.opCode)
			assert.Equal(t, []byte("hi"), pong.payload)

			_, _ = client.Write(clientFrame(opText, []byte(`{"position":0}`)))
		}()

		move, err := wsConn.Receive()

		// Then: the ping was absorbed and the move delivered
		require.NoError(t, err)
		assert.Equal(t, int32(0), move.Position)
	})

	t.Run("Close frame ends the stream", func(t *testing.T) {
		// Given: a connected client
		wsConn, client, clientReader := newPipeConn(t)

		// When: the client sends a close frame
		go func() {
			_, _ = client.Write(clientFrame(opClose, nil))

			reply, err := readFrame(clientReader)
			assert.NoError(t, err)
			assert.Equal(t, byte(opClose), reply.opCode)
		}()

		_, err := wsConn.Receive()

		// Then: the stream reports a clean end
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("Vanished peer ends the stream", func(t *testing.T) {
		// Given: a client that drops the connection
		wsConn, client, _ := newPipeConn(t)
		require.NoError(t, client.Close())

		_, err := wsConn.Receive()

		require.ErrorIs(t, err, io.EOF)
	})
}

func TestConn_Send(t *testing.T) {
	t.Run("Delivers a game state as one text frame", func(t *testing.T) {
		// Given: a connected client
		wsConn, _, clientReader := newPipeConn(t)

		state := protocol.GameState{
			Board:      []string{"X", "", "", "", "", "", "", "", ""},
			NextPlayer: "O",
			Status:     "ongoing",
			YourSymbol: "X",
		}

		// When: the server sends a state
		sendErr := make(chan error, 1)
		go func() {
			sendErr <- wsConn.Send(&state)
		}()

		frameData, err := readFrame(clientReader)
		require.NoError(t, err)
		require.NoError(t, <-sendErr)

		// Then: the client can decode the exact state from the frame
		require.Equal(t, byte(opText), frameData.opCode)

		var decoded protocol.GameState
		require.NoError(t, json.Unmarshal(frameData.payload, &decoded))
		assert.Equal(t, state, decoded)
	})
}
