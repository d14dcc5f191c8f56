package game

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-stream/internal/apperror"
)

func TestBoard_Apply(t *testing.T) {
	t.Run("Places a mark on an empty cell", func(t *testing.T) {
		// Given: an empty board
		var board Board

		// When: X takes the center
		err := board.Apply(4, PlayerX)
		require.NoError(t, err)

		// Then: only the center cell changed
		expected := Board{EmptyCell, EmptyCell, EmptyCell, EmptyCell, PlayerX, EmptyCell, EmptyCell, EmptyCell, EmptyCell}
		require.Equal(t, expected, board)
	})

	t.Run("Error on cell already occupied", func(t *testing.T) {
		// Given: a board where X already holds the center
		var board Board
		require.NoError(t, board.Apply(4, PlayerX))

		// When: O tries the same cell
		err := board.Apply(4, PlayerO)

		// Then: the move is rejected and the cell keeps its mark
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		require.Equal(t, PlayerX, board[4])
	})

	t.Run("Error on position out of range", func(t *testing.T) {
		// Given: an empty board
		var board Board

		// When: positions outside 0..8 are played
		// Then: every one is rejected and the board stays empty
		for _, position := range []int{-1, 9, 20} {
			err := board.Apply(position, PlayerX)
			assert.ErrorIs(t, err, apperror.ErrOutOfRange)
		}

		require.Equal(t, Board{}, board)
	})
}

func TestBoard_Evaluate(t *testing.T) {
	t.Run("Empty board is ongoing", func(t *testing.T) {
		var board Board
		require.Equal(t, StatusOngoing, board.Evaluate())
	})

	t.Run("Detects every winning line", func(t *testing.T) {
		for _, combo := range WinCombos {
			for _, mark := range []string{PlayerX, PlayerO} {
				t.Run(fmt.Sprintf("%s on %v", mark, combo), func(t *testing.T) {
					// Given: a board with one complete line for the mark
					var board Board
					for _, cell := range combo {
						board[cell] = mark
					}

					// Then: that mark is declared the winner
					require.Equal(t, WinStatus(mark), board.Evaluate())
				})
			}
		}
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		// Given: a finished game with no winning line
		board := Board{
			PlayerO, PlayerX, PlayerO,
			PlayerO, PlayerX, PlayerX,
			PlayerX, PlayerO, PlayerO,
		}

		assert.Equal(t, StatusDraw, board.Evaluate())
	})

	t.Run("Partially filled board without a line is ongoing", func(t *testing.T) {
		board := Board{
			PlayerX, PlayerO, PlayerX,
			EmptyCell, PlayerO, EmptyCell,
			PlayerX, EmptyCell, EmptyCell,
		}

		assert.Equal(t, StatusOngoing, board.Evaluate())
	})
}

func TestStatus_IsTerminal(t *testing.T) {
	// Then: only finished matches are terminal
	assert.False(t, StatusWaiting.IsTerminal())
	assert.False(t, StatusOngoing.IsTerminal())
	assert.True(t, StatusXWin.IsTerminal())
	assert.True(t, StatusOWin.IsTerminal())
	assert.True(t, StatusDraw.IsTerminal())
}

func TestToggleMark(t *testing.T) {
	assert.Equal(t, PlayerO, ToggleMark(PlayerX))
	assert.Equal(t, PlayerX, ToggleMark(PlayerO))
}

func TestBoard_Cells(t *testing.T) {
	// Given: a board with one mark
	var board Board
	require.NoError(t, board.Apply(0, PlayerX))

	// When: the grid is copied for a payload
	cells := board.Cells()

	// Then: the copy matches and later edits do not leak back
	require.Equal(t, []string{PlayerX, "", "", "", "", "", "", "", ""}, cells)

	cells[1] = PlayerO
	assert.Equal(t, EmptyCell, board[1])
}
