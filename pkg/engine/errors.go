// pkg/engine/errors.go
package engine

import (
	"errors"
	"fmt"

	"github.com/opd-ai/go-armada/pkg/entity"
)

// Validation failures reject an action without mutating any game state.
var (
	// ErrUnreachable is returned when a target lies beyond the acting
	// ship's range.
	ErrUnreachable = errors.New("target is out of range")

	// ErrNotPlayersTurn is returned when a player acts outside their turn.
	ErrNotPlayersTurn = errors.New("it is not the player's turn")
)

// NonExistentPlayerError is returned when an action names an unknown player.
type NonExistentPlayerError struct {
	Player entity.PlayerID
}

func (e *NonExistentPlayerError) Error() string {
	return fmt.Sprintf("player %d does not exist", e.Player)
}

// NonExistentShipError is returned when an action names a ship that is not
// on the board.
type NonExistentShipError struct {
	Ship entity.ShipID
}

func (e *NonExistentShipError) Error() string {
	return fmt.Sprintf("ship %s does not exist", e.Ship)
}

// CooldownError is returned when the relevant cooldown slot is still armed.
type CooldownError struct {
	Remaining int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("action is on cooldown for %d more turns", e.Remaining)
}

// InsufficientPointsError is returned when the acting player cannot pay the
// action's cost.
type InsufficientPointsError struct {
	Required int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("action requires %d action points", e.Required)
}

// PlacementError is returned when a ship placement request is rejected.
// The whole placement is rejected; no ship from the batch is placed.
type PlacementError struct {
	Reason string
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("invalid ship placement: %s", e.Reason)
}

// Placement rejection reasons.
const (
	PlacementAlreadyPlaced     = "ships have already been placed"
	PlacementWrongShipCount    = "ship count does not match the configured ship set"
	PlacementInvalidShipNumber = "ship numbers must match the configured ship set order"
	PlacementInvalidDirection  = "invalid ship direction"
	PlacementOutOfQuadrant     = "ship is outside the player's quadrant"
	PlacementCollision         = "ships overlap"
)

// OutOfStateError is returned when an action is not legal in the current
// phase.
type OutOfStateError struct {
	Phase Phase
}

func (e *OutOfStateError) Error() string {
	return fmt.Sprintf("action is not allowed in phase %s", e.Phase)
}

// IllegalError is returned when an action can never be legal as issued,
// for example an ability fired from the wrong ship class.
type IllegalError struct {
	Reason string
}

func (e *IllegalError) Error() string {
	return fmt.Sprintf("illegal action: %s", e.Reason)
}

// InconsistentStateError reports internal state corruption detected during
// action execution. It is a server bug, not a player error.
type InconsistentStateError struct {
	Reason string
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("inconsistent game state: %s", e.Reason)
}
