package apperror

import "errors"

var (
	ErrOutOfRange        = errors.New("position is out of range")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrGameFinished      = errors.New("game is already finished")
	ErrGameIsNotStarted  = errors.New("game is not started")
	ErrUnknownConnection = errors.New("connection is not part of any session")
)

// Code - the machine-readable form of a rejection, carried to clients in
// the error_message field. Unrecognized errors map to an empty code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrOutOfRange):
		return "OutOfRange"
	case errors.Is(err, ErrCellOccupied):
		return "CellOccupied"
	case errors.Is(err, ErrNotYourTurn):
		return "NotYourTurn"
	case errors.Is(err, ErrGameFinished):
		return "GameOver"
	case errors.Is(err, ErrGameIsNotStarted):
		return "GameIsNotStarted"
	case errors.Is(err, ErrUnknownConnection):
		return "UnknownConnection"
	default:
		return ""
	}
}
