package match

import "github.com/rocketscienceinc/tictactoe-stream/internal/game"

// Snapshot is the serializable view of one session: what the mirror stores
// and what the stats endpoint reports. It never carries connection handles
// or queues.
type Snapshot struct {
	ID           string     `json:"id"`
	Board        game.Board `json:"board"`
	Turn         string     `json:"turn,omitempty"`
	Status       string     `json:"status"`
	Participants int        `json:"participants"`
}
