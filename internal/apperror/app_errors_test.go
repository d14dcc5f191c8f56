package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	t.Run("Maps every rejection to its wire code", func(t *testing.T) {
		// Given: the full rejection taxonomy
		cases := map[string]error{
			"OutOfRange":        ErrOutOfRange,
			"CellOccupied":      ErrCellOccupied,
			"NotYourTurn":       ErrNotYourTurn,
			"GameOver":          ErrGameFinished,
			"GameIsNotStarted":  ErrGameIsNotStarted,
			"UnknownConnection": ErrUnknownConnection,
		}

		for code, err := range cases {
			// Then: the sentinel and anything wrapping it share the code
			assert.Equal(t, code, Code(err))
			assert.Equal(t, code, Code(fmt.Errorf("rejected: %w", err)))
		}
	})

	t.Run("Unknown errors map to an empty code", func(t *testing.T) {
		assert.Empty(t, Code(errors.New("boom")))
		assert.Empty(t, Code(nil))
	})
}
