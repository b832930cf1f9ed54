// pkg/engine/action.go
package engine

import (
	"github.com/opd-ai/go-armada/pkg/board"
	"github.com/opd-ai/go-armada/pkg/entity"
)

// Phase is the match state machine: Lobby → Preparation → InGame → End.
type Phase int

const (
	Lobby Phase = iota
	Preparation
	InGame
	End
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Lobby:
		return "Lobby"
	case Preparation:
		return "Preparation"
	case InGame:
		return "InGame"
	case End:
		return "End"
	}
	return "Unknown"
}

// Action is a player-issued intent. Each action is legal only in specific
// phases; Game.Apply validates and executes it.
type Action interface {
	// Player returns the player issuing the action.
	Player() entity.PlayerID
}

// TeamSwitch moves the issuing player to the other team. Lobby only.
type TeamSwitch struct {
	PlayerID entity.PlayerID
}

// SetReady marks the issuing player ready or not ready. Lobby only.
type SetReady struct {
	PlayerID entity.PlayerID
	Ready    bool
}

// ShipAssignment positions one ship of the player's configured ship set.
type ShipAssignment struct {
	Number uint32            `json:"number"`
	Stern  board.Coordinate  `json:"stern"`
	Facing board.Orientation `json:"facing"`
}

// PlaceShips places the player's whole ship set at once. Preparation only;
// the batch is atomic and a player places exactly once.
type PlaceShips struct {
	PlayerID    entity.PlayerID
	Assignments []ShipAssignment
}

// Shoot fires a ship's cannon at a tile. InGame only.
type Shoot struct {
	ShipID entity.ShipID
	Target board.Coordinate
}

// Move moves a ship one tile along or against its facing. InGame only.
type Move struct {
	ShipID    entity.ShipID
	Direction board.MoveDirection
}

// Rotate turns a ship 90° about its stern. InGame only.
type Rotate struct {
	ShipID    entity.ShipID
	Direction board.RotateDirection
}

// Torpedo fires a submarine's torpedo in a cardinal direction. InGame only.
type Torpedo struct {
	ShipID    entity.ShipID
	Direction board.Orientation
}

// PredatorMissile fires a battleship's area missile at a tile. InGame only.
type PredatorMissile struct {
	ShipID entity.ShipID
	Center board.Coordinate
}

// ScoutPlane reveals enemy hulls around a tile for the rest of the turn.
// InGame only.
type ScoutPlane struct {
	ShipID entity.ShipID
	Center board.Coordinate
}

// MultiMissile fires a destroyer's three independently aimed missiles.
// InGame only.
type MultiMissile struct {
	ShipID  entity.ShipID
	TargetA board.Coordinate
	TargetB board.Coordinate
	TargetC board.Coordinate
}

// EngineBoost dashes a cruiser forward tile by tile. InGame only.
type EngineBoost struct {
	ShipID entity.ShipID
}

func (a TeamSwitch) Player() entity.PlayerID      { return a.PlayerID }
func (a SetReady) Player() entity.PlayerID        { return a.PlayerID }
func (a PlaceShips) Player() entity.PlayerID      { return a.PlayerID }
func (a Shoot) Player() entity.PlayerID           { return a.ShipID.Player }
func (a Move) Player() entity.PlayerID            { return a.ShipID.Player }
func (a Rotate) Player() entity.PlayerID          { return a.ShipID.Player }
func (a Torpedo) Player() entity.PlayerID         { return a.ShipID.Player }
func (a PredatorMissile) Player() entity.PlayerID { return a.ShipID.Player }
func (a ScoutPlane) Player() entity.PlayerID      { return a.ShipID.Player }
func (a MultiMissile) Player() entity.PlayerID    { return a.ShipID.Player }
func (a EngineBoost) Player() entity.PlayerID     { return a.ShipID.Player }

// allows reports whether the action is legal in this phase. The End phase
// accepts no actions.
func (p Phase) allows(action Action) bool {
	switch p {
	case Lobby:
		switch action.(type) {
		case TeamSwitch, SetReady:
			return true
		}
	case Preparation:
		_, ok := action.(PlaceShips)
		return ok
	case InGame:
		switch action.(type) {
		case Shoot, Move, Rotate, Torpedo, PredatorMissile, ScoutPlane, MultiMissile, EngineBoost:
			return true
		}
	}
	return false
}
