package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/rocketscienceinc/tictactoe-stream/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-stream/internal/metrics"
	"github.com/rocketscienceinc/tictactoe-stream/internal/pkg"
)

var (
	ErrSessionFull   = errors.New("session already has two participants")
	ErrAlreadyJoined = errors.New("connection already joined a session")
)

// SnapshotStore mirrors live session state into external storage. Mirror
// writes are best effort: failures are logged and never stall a match.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	DeleteByID(ctx context.Context, id string) error
}

// Registry owns every live session and pairs incoming connections
// first-come-first-served: a new connection completes the waiting session
// if there is one, otherwise it opens a fresh session and waits. Pairing
// runs under the registry lock, so two concurrent joiners can never both
// take the same seat. It is a plain value handed to each transport, not a
// package global.
type Registry struct {
	logger *slog.Logger
	store  SnapshotStore

	mu       sync.Mutex
	sessions map[string]*Session
	byConn   map[string]*Session
	waiting  *Session

	// mirrorMu serializes snapshot writes with teardown deletes: a save
	// still in flight when its session is torn down must not land after
	// the delete and recreate the key.
	mirrorMu sync.Mutex
}

// NewRegistry - builds an empty registry. store may be nil, which disables
// the snapshot mirror.
func NewRegistry(logger *slog.Logger, store SnapshotStore) *Registry {
	return &Registry{
		logger: logger,
		store:  store,

		sessions: make(map[string]*Session),
		byConn:   make(map[string]*Session),
	}
}

// Join - seats the connection in a session and returns its participation.
// The first state (waiting or, when this join completes a pair, the
// opening ongoing state) is already queued when Join returns.
func (that *Registry) Join(ctx context.Context, connID string) (*Participant, error) {
	log := that.logger.With("method", "Join")

	that.mu.Lock()
	if _, ok := that.byConn[connID]; ok {
		that.mu.Unlock()

		return nil, fmt.Errorf("%w: connection %s", ErrAlreadyJoined, connID)
	}

	sess := that.waiting
	if sess == nil {
		sess = newSession(that.newSessionID(), that.logger)
		that.sessions[sess.id] = sess
		that.waiting = sess
		metrics.ActiveSessions.Inc()
		metrics.WaitingSessions.Inc()
	} else {
		that.waiting = nil
		metrics.WaitingSessions.Dec()
	}

	part, err := sess.join(connID)
	if err != nil {
		that.mu.Unlock()

		return nil, fmt.Errorf("failed to join session %s: %w", sess.id, err)
	}

	that.byConn[connID] = sess
	metrics.ConnectedParticipants.Inc()
	that.mu.Unlock()

	that.mirrorSave(ctx, sess)

	log.Info("participant joined", "connection_id", connID, "session_id", sess.id, "mark", part.Mark())

	return part, nil
}

// Leave - detaches the connection and applies the disconnect policy: an
// ongoing match is forfeited to the survivor, an empty session is torn
// down and its mirror entry removed. Safe to call for connections that
// never joined.
func (that *Registry) Leave(ctx context.Context, connID string) {
	log := that.logger.With("method", "Leave")

	that.mu.Lock()
	sess, ok := that.byConn[connID]
	if !ok {
		that.mu.Unlock()

		return
	}

	delete(that.byConn, connID)
	metrics.ConnectedParticipants.Dec()

	empty := sess.leave(connID)
	if empty {
		delete(that.sessions, sess.id)
		if that.waiting == sess {
			that.waiting = nil
			metrics.WaitingSessions.Dec()
		}
		metrics.ActiveSessions.Dec()
	}
	that.mu.Unlock()

	if empty {
		that.mirrorDelete(ctx, sess.id)
		log.Info("session closed", "session_id", sess.id)

		return
	}

	that.mirrorSave(ctx, sess)
	log.Info("participant left", "connection_id", connID, "session_id", sess.id)
}

// Route - forwards one move to the session owning the connection. Returns
// the rejection, if any, purely as a logging signal: every rejection has
// already been reported to the offender in-band.
func (that *Registry) Route(ctx context.Context, connID string, position int) error {
	that.mu.Lock()
	sess, ok := that.byConn[connID]
	that.mu.Unlock()

	if !ok {
		metrics.Moves.WithLabelValues(apperror.Code(apperror.ErrUnknownConnection)).Inc()

		return fmt.Errorf("%w: connection %s", apperror.ErrUnknownConnection, connID)
	}

	if err := sess.receiveMove(connID, position); err != nil {
		return err
	}

	that.mirrorSave(ctx, sess)

	return nil
}

// Snapshots - copies the current state of every registered session.
func (that *Registry) Snapshots() []Snapshot {
	that.mu.Lock()
	sessions := make([]*Session, 0, len(that.sessions))
	for _, sess := range that.sessions {
		sessions = append(sessions, sess)
	}
	that.mu.Unlock()

	return lo.Map(sessions, func(sess *Session, _ int) Snapshot {
		return sess.Snapshot()
	})
}

// Count - the number of live sessions.
func (that *Registry) Count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.sessions)
}

// newSessionID - draws an id not currently in use. Must hold mu.
func (that *Registry) newSessionID() string {
	for {
		id := pkg.GenerateSessionID()
		if _, ok := that.sessions[id]; !ok && id != "" {
			return id
		}
	}
}

// mirrorSave - mirrors the session's current state, skipping sessions that
// are no longer registered. mirrorMu stays held across the store write so a
// save that raced a teardown can never land after the delete and recreate
// the key.
func (that *Registry) mirrorSave(ctx context.Context, sess *Session) {
	if that.store == nil {
		return
	}

	that.mirrorMu.Lock()
	defer that.mirrorMu.Unlock()

	that.mu.Lock()
	registered := that.sessions[sess.id] == sess
	that.mu.Unlock()

	if !registered {
		return
	}

	snapshot := sess.Snapshot()
	if err := that.store.Save(ctx, &snapshot); err != nil {
		that.logger.Error("failed to mirror session state", "session_id", sess.id, "error", err)
	}
}

func (that *Registry) mirrorDelete(ctx context.Context, id string) {
	if that.store == nil {
		return
	}

	that.mirrorMu.Lock()
	defer that.mirrorMu.Unlock()

	if err := that.store.DeleteByID(ctx, id); err != nil {
		that.logger.Error("failed to delete mirrored session", "session_id", id, "error", err)
	}
}
