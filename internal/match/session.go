package match

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-stream/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-stream/internal/game"
	"github.com/rocketscienceinc/tictactoe-stream/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-stream/internal/protocol"
)

// updateQueueSize bounds every participant's outbound queue. Each state is
// a complete snapshot, so when the queue overflows the oldest entry is
// dropped: a slow reader loses intermediate states, never the latest one.
const updateQueueSize = 16

// Participant is one connection's membership in a session: the mark it
// plays and the queue its transport drains onto the wire. The mark never
// changes after join.
type Participant struct {
	connID    string
	sessionID string
	mark      string
	updates   chan protocol.GameState
}

// Mark - the symbol this participant plays, PlayerX or PlayerO.
func (that *Participant) Mark() string { return that.mark }

// SessionID - the session this participant belongs to.
func (that *Participant) SessionID() string { return that.sessionID }

// Updates - the stream of authoritative states for this participant. The
// channel is closed when the participant leaves its session.
func (that *Participant) Updates() <-chan protocol.GameState { return that.updates }

// push - enqueues a state without ever blocking the session. On overflow
// the oldest queued state is discarded to make room, and the drop is
// counted so a stalled consumer shows up in the metrics.
func (that *Participant) push(state protocol.GameState) {
	for {
		select {
		case that.updates <- state:
			return
		default:
		}

		select {
		case <-that.updates:
			metrics.DroppedStates.Inc()
		default:
		}
	}
}

// Session is the authoritative state machine for one match: it owns the
// board, the turn, and both participants, and is the only writer of all
// three. Every mutation and the broadcast it triggers happen under one
// lock, so participants always observe states in mutation order.
type Session struct {
	id     string
	logger *slog.Logger

	mu           sync.Mutex
	board        game.Board
	status       game.Status
	turn         string
	participants map[string]*Participant
}

func newSession(id string, logger *slog.Logger) *Session {
	return &Session{
		id:     id,
		logger: logger.With("session_id", id),

		status:       game.StatusWaiting,
		turn:         game.PlayerX,
		participants: make(map[string]*Participant, 2),
	}
}

// join - attaches a connection and assigns its mark: first joiner plays X,
// second plays O and starts the match. Every participant, the new one
// included, immediately receives the resulting state.
func (that *Session) join(connID string) (*Participant, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.participants) >= 2 {
		return nil, fmt.Errorf("%w: session %s", ErrSessionFull, that.id)
	}

	mark := game.PlayerX
	if len(that.participants) == 1 {
		mark = game.PlayerO
	}

	part := &Participant{
		connID:    connID,
		sessionID: that.id,
		mark:      mark,
		updates:   make(chan protocol.GameState, updateQueueSize),
	}
	that.participants[connID] = part

	if len(that.participants) == 2 {
		that.status = game.StatusOngoing
		that.logger.Info("opponent joined, match started")
	}

	that.broadcast(nil, "")

	return part, nil
}

// receiveMove - arbitrates one move from connID. A rejection is returned to
// the caller for logging, but it has already been reported in-band: the
// unchanged state is rebroadcast and only the offender's copy carries the
// rejection code.
func (that *Session) receiveMove(connID string, position int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	part, ok := that.participants[connID]
	if !ok {
		return fmt.Errorf("%w: connection %s", apperror.ErrUnknownConnection, connID)
	}

	if err := that.applyMove(part, position); err != nil {
		metrics.Moves.WithLabelValues(apperror.Code(err)).Inc()
		that.broadcast(part, apperror.Code(err))

		return fmt.Errorf("move rejected: %w", err)
	}

	metrics.Moves.WithLabelValues("accepted").Inc()
	that.broadcast(nil, "")

	return nil
}

// applyMove - runs the arbitration chain; the board and turn are mutated
// only when every check passes. Must hold mu.
func (that *Session) applyMove(part *Participant, position int) error {
	if that.status == game.StatusWaiting {
		return apperror.ErrGameIsNotStarted
	}

	if that.status.IsTerminal() {
		return apperror.ErrGameFinished
	}

	if part.mark != that.turn {
		return apperror.ErrNotYourTurn
	}

	if err := that.board.Apply(position, part.mark); err != nil {
		return err
	}

	if status := that.board.Evaluate(); status.IsTerminal() {
		that.finish(status)
	} else {
		that.turn = game.ToggleMark(part.mark)
	}

	return nil
}

// leave - detaches a connection and closes its queue. Leaving an ongoing
// match forfeits it: the remaining participant wins by walkover and is
// told so. Reports whether the session is now empty.
func (that *Session) leave(connID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	part, ok := that.participants[connID]
	if !ok {
		return len(that.participants) == 0
	}

	delete(that.participants, connID)
	close(part.updates)

	if that.status == game.StatusOngoing {
		that.logger.Info("participant left an ongoing match, forfeiting", "connection_id", connID)

		for _, survivor := range that.participants {
			that.finish(game.WinStatus(survivor.mark))
		}

		that.broadcast(nil, "")
	}

	return len(that.participants) == 0
}

// finish - moves the session to a terminal status and clears the turn.
// Must hold mu.
func (that *Session) finish(status game.Status) {
	that.status = status
	that.turn = ""

	metrics.FinishedGames.WithLabelValues(string(status)).Inc()
	that.logger.Info("match finished", "status", string(status))
}

// broadcast - fans the current state out to every participant. When
// offender is not nil, only its copy carries the rejection code; everyone
// else receives a clean state. Must hold mu.
func (that *Session) broadcast(offender *Participant, code string) {
	for _, part := range that.participants {
		state := that.stateFor(part)
		if part == offender {
			state.ErrorMessage = code
		}

		part.push(state)
	}
}

// stateFor - snapshots the shared state with the recipient's own symbol
// filled in. next_player is only meaningful while the match is ongoing.
// Must hold mu.
func (that *Session) stateFor(part *Participant) protocol.GameState {
	next := ""
	if that.status == game.StatusOngoing {
		next = that.turn
	}

	return protocol.GameState{
		Board:      that.board.Cells(),
		NextPlayer: next,
		Status:     string(that.status),
		YourSymbol: part.mark,
	}
}

// Snapshot - copies the session's shared state for mirrors and stats.
func (that *Session) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return Snapshot{
		ID:           that.id,
		Board:        that.board,
		Turn:         that.turn,
		Status:       string(that.status),
		Participants: len(that.participants),
	}
}
