package protocol

// Move is the inbound message: one attempted placement on the grid.
//
// PlayerID is whatever the client claims about itself and is never trusted:
// the server resolves the acting player from the connection the move arrived
// on. The field is kept only so well-behaved clients stay wire-compatible.
type Move struct {
	PlayerID string `json:"player_id,omitempty"`
	Position int32  `json:"position"`
}

// GameState is the outbound message: the complete authoritative state of a
// match as seen by one recipient. Clients are expected to replace, not
// merge, whatever they rendered before.
type GameState struct {
	Board        []string `json:"board"`
	NextPlayer   string   `json:"next_player"`
	Status       string   `json:"status"`
	YourSymbol   string   `json:"your_symbol"`
	ErrorMessage string   `json:"error_message,omitempty"`
}
