package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-stream/internal/game"
	"github.com/rocketscienceinc/tictactoe-stream/internal/match"
	"github.com/rocketscienceinc/tictactoe-stream/testing/suite"
)

func TestSessionRepository_Save(t *testing.T) {
	ctx, st := suite.New(t)

	sessionRepo := NewSessionRepository(st.Storage)

	// Given: a waiting session snapshot
	snapshot := &match.Snapshot{
		ID:           "123",
		Status:       string(game.StatusWaiting),
		Turn:         game.PlayerX,
		Participants: 1,
	}

	// When: Save is called
	err := sessionRepo.Save(ctx, snapshot)

	// Then: no error should be returned
	require.NoError(t, err)
}

func TestSessionRepository_GetByID(t *testing.T) {
	t.Run("Returns the saved snapshot", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		// Given: a stored ongoing session with one move played
		snapshot := &match.Snapshot{
			ID:           "123",
			Board:        game.Board{game.PlayerX, "", "", "", "", "", "", "", ""},
			Status:       string(game.StatusOngoing),
			Turn:         game.PlayerO,
			Participants: 2,
		}
		require.NoError(t, sessionRepo.Save(ctx, snapshot))

		// When: GetByID is called with the existing ID
		retrieved, err := sessionRepo.GetByID(ctx, snapshot.ID)

		// Then: the retrieved snapshot should match the saved one
		require.NoError(t, err)
		require.Equal(t, snapshot, retrieved)
	})

	t.Run("Unknown id reports not found", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		// When: GetByID is called with an id that was never saved
		retrieved, err := sessionRepo.GetByID(ctx, "9999999")

		// Then: ErrSessionNotFound should be returned
		require.ErrorIs(t, err, ErrSessionNotFound)
		assert.Nil(t, retrieved)
	})
}

func TestSessionRepository_DeleteByID(t *testing.T) {
	t.Run("Removes the snapshot", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		// Given: a stored snapshot
		snapshot := &match.Snapshot{
			ID:     "123",
			Status: string(game.StatusDraw),
		}
		require.NoError(t, sessionRepo.Save(ctx, snapshot))

		// When: DeleteByID is called
		require.NoError(t, sessionRepo.DeleteByID(ctx, snapshot.ID))

		// Then: the snapshot is gone
		_, err := sessionRepo.GetByID(ctx, snapshot.ID)
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("Deleting a missing snapshot is not an error", func(t *testing.T) {
		ctx, st := suite.New(t)

		sessionRepo := NewSessionRepository(st.Storage)

		// When: DeleteByID is called for an id that does not exist
		err := sessionRepo.DeleteByID(ctx, "never-existed")

		// Then: redis DEL on a missing key succeeds
		require.NoError(t, err)
	})
}
