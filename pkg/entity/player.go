// pkg/entity/player.go
package entity

import "github.com/opd-ai/go-armada/pkg/board"

// Player is a participant in a match. Team membership is tracked by the
// game, not here; the quadrant is assigned when preparation starts.
type Player struct {
	ID          PlayerID  `json:"id"`
	Name        string    `json:"name"`
	Ready       bool      `json:"ready"`
	ShipsPlaced bool      `json:"shipsPlaced"`
	Quadrant    board.Box `json:"quadrant"`
}

// NewPlayer creates a player that has not readied up yet.
func NewPlayer(id PlayerID, name string) *Player {
	return &Player{ID: id, Name: name}
}
