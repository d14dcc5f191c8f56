package game

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-stream/internal/apperror"
)

const (
	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""
)

// Status is the match lifecycle as it appears on the wire.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusOngoing Status = "ongoing"
	StatusXWin    Status = "X_win"
	StatusOWin    Status = "O_win"
	StatusDraw    Status = "draw"
)

// IsTerminal reports whether the match accepts no further moves.
func (that Status) IsTerminal() bool {
	return that == StatusXWin || that == StatusOWin || that == StatusDraw
}

// WinStatus - the terminal status for the given winning mark.
func WinStatus(mark string) Status {
	if mark == PlayerX {
		return StatusXWin
	}
	return StatusOWin
}

// WinCombos lists every winning line: three rows, three columns, two diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is the 3x3 grid in row-major order. A cell holds PlayerX, PlayerO
// or EmptyCell. Board carries no turn or status: it is a pure value, and
// everything above it derives state from the grid alone.
type Board [9]string

// Apply - places mark on the cell at position. The board is unchanged when
// an error is returned.
func (that *Board) Apply(position int, mark string) error {
	if position < 0 || position >= len(that) {
		return fmt.Errorf("%w: position %d", apperror.ErrOutOfRange, position)
	}

	if that[position] != EmptyCell {
		return fmt.Errorf("%w: position %d", apperror.ErrCellOccupied, position)
	}

	that[position] = mark

	return nil
}

// Evaluate - derives the match outcome from the grid contents.
func (that Board) Evaluate() Status {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return WinStatus(a)
		}
	}

	for _, cell := range that {
		if cell == EmptyCell {
			return StatusOngoing
		}
	}

	return StatusDraw
}

// Cells - copies the grid into a fresh slice for wire payloads.
func (that Board) Cells() []string {
	cells := make([]string, len(that))
	copy(cells, that[:])

	return cells
}

// ToggleMark - flips the turn between X and O.
func ToggleMark(currentMark string) string {
	if currentMark == PlayerX {
		return PlayerO
	}

	return PlayerX
}
