// pkg/entity/ship.go
package entity

import (
	"fmt"

	"github.com/opd-ai/go-armada/pkg/board"
	"github.com/opd-ai/go-armada/pkg/config"
)

// PlayerID identifies a player for the lifetime of a match.
type PlayerID uint32

// ShipID identifies a ship by owner and the ship's index in the owner's
// configured ship set.
type ShipID struct {
	Player PlayerID `json:"player"`
	Number uint32   `json:"number"`
}

// String returns the id as "player/number".
func (id ShipID) String() string {
	return fmt.Sprintf("%d/%d", id.Player, id.Number)
}

// MarshalText encodes the id as "player/number" so it can key JSON maps.
func (id ShipID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes an id from its "player/number" form.
func (id *ShipID) UnmarshalText(text []byte) error {
	_, err := fmt.Sscanf(string(text), "%d/%d", &id.Player, &id.Number)
	return err
}

// ShipClass is one of the five hull classes.
type ShipClass int

const (
	Carrier ShipClass = iota
	Battleship
	Cruiser
	Submarine
	Destroyer
)

// Length returns the hull length in tiles.
func (c ShipClass) Length() int {
	switch c {
	case Carrier:
		return 5
	case Battleship:
		return 4
	case Cruiser:
		return 3
	case Submarine:
		return 3
	case Destroyer:
		return 2
	}
	return 0
}

// String returns the class name.
func (c ShipClass) String() string {
	switch c {
	case Carrier:
		return "Carrier"
	case Battleship:
		return "Battleship"
	case Cruiser:
		return "Cruiser"
	case Submarine:
		return "Submarine"
	case Destroyer:
		return "Destroyer"
	}
	return "Unknown"
}

// ShipClassFromString parses a class name as used in ship-set configuration.
func ShipClassFromString(s string) (ShipClass, error) {
	switch s {
	case "Carrier":
		return Carrier, nil
	case "Battleship":
		return Battleship, nil
	case "Cruiser":
		return Cruiser, nil
	case "Submarine":
		return Submarine, nil
	case "Destroyer":
		return Destroyer, nil
	}
	return 0, fmt.Errorf("unknown ship class: %s", s)
}

// CooldownKind names the three independent cooldown slots of a ship.
type CooldownKind int

const (
	MovementCooldown CooldownKind = iota
	CannonCooldown
	AbilityCooldown
)

// String returns the cooldown slot name.
func (k CooldownKind) String() string {
	switch k {
	case MovementCooldown:
		return "Movement"
	case CannonCooldown:
		return "Cannon"
	case AbilityCooldown:
		return "Ability"
	}
	return "Unknown"
}

// Cooldown is an armed cooldown slot counting down in whole turns.
type Cooldown struct {
	Kind      CooldownKind `json:"kind"`
	Remaining int          `json:"remaining"`
}

// Ship is a placed vessel. Position is tracked by the stern tile and the
// facing; the hull extends Length-1 tiles from the stern toward the bow.
type Ship struct {
	ID        ShipID               `json:"id"`
	Class     ShipClass            `json:"class"`
	Stern     board.Coordinate     `json:"stern"`
	Facing    board.Orientation    `json:"facing"`
	Health    int                  `json:"health"`
	Balancing *config.ShipBalancing `json:"-"`
	Cooldowns []Cooldown           `json:"cooldowns,omitempty"`
}

// NewShip creates a ship at full health for its balancing block.
func NewShip(id ShipID, class ShipClass, stern board.Coordinate, facing board.Orientation, balancing *config.ShipBalancing) *Ship {
	return &Ship{
		ID:        id,
		Class:     class,
		Stern:     stern,
		Facing:    facing,
		Health:    balancing.InitialHealth,
		Balancing: balancing,
	}
}

// Bow returns the tile at the front of the hull.
func (s *Ship) Bow() board.Coordinate {
	dx, dy := s.Facing.Delta()
	n := s.Class.Length() - 1
	return board.Coordinate{X: s.Stern.X + dx*n, Y: s.Stern.Y + dy*n}
}

// Envelope returns the box covering the ship's hull tiles.
func (s *Ship) Envelope() board.Box {
	return envelopeAt(s.Class, s.Stern, s.Facing)
}

// VisionEnvelope returns the hull box expanded by the class's vision range.
func (s *Ship) VisionEnvelope() board.Box {
	return s.Envelope().Extend(s.Balancing.VisionRange)
}

// envelopeAt computes the hull box for an arbitrary stern and facing,
// used to test a move or rotation before committing it.
func envelopeAt(class ShipClass, stern board.Coordinate, facing board.Orientation) board.Box {
	dx, dy := facing.Delta()
	n := class.Length() - 1
	bow := board.Coordinate{X: stern.X + dx*n, Y: stern.Y + dy*n}
	return board.NewBox(stern, bow)
}

// ApplyDamage reduces health and reports whether the ship was destroyed.
// Health never goes below zero.
func (s *Ship) ApplyDamage(damage int) bool {
	if damage >= s.Health {
		s.Health = 0
		return true
	}
	s.Health -= damage
	return false
}

// CooldownRemaining returns the turns left on the given slot, zero when
// the slot is not armed.
func (s *Ship) CooldownRemaining(kind CooldownKind) int {
	for _, cd := range s.Cooldowns {
		if cd.Kind == kind {
			return cd.Remaining
		}
	}
	return 0
}

// ArmCooldown arms a cooldown slot. A zero or negative duration is a no-op
// so callers can pass configured cooldowns straight through.
func (s *Ship) ArmCooldown(kind CooldownKind, turns int) {
	if turns <= 0 {
		return
	}
	for i := range s.Cooldowns {
		if s.Cooldowns[i].Kind == kind {
			s.Cooldowns[i].Remaining = turns
			return
		}
	}
	s.Cooldowns = append(s.Cooldowns, Cooldown{Kind: kind, Remaining: turns})
}

// TickCooldowns advances all armed slots by one turn and drops the ones
// that expire.
func (s *Ship) TickCooldowns() {
	remaining := s.Cooldowns[:0]
	for _, cd := range s.Cooldowns {
		cd.Remaining--
		if cd.Remaining > 0 {
			remaining = append(remaining, cd)
		}
	}
	s.Cooldowns = remaining
}

// DoMove shifts the ship one tile along or against its facing. The new
// envelope is returned; board.ErrOutOfMap is returned and the ship left
// unchanged when the hull would leave bounds.
func (s *Ship) DoMove(direction board.MoveDirection, bounds board.Box) (board.Box, error) {
	dx, dy := s.Facing.Delta()
	if direction == board.Backward {
		dx, dy = -dx, -dy
	}
	stern := board.Coordinate{X: s.Stern.X + dx, Y: s.Stern.Y + dy}

	envelope := envelopeAt(s.Class, stern, s.Facing)
	if !bounds.ContainsBox(envelope) {
		return board.Box{}, board.ErrOutOfMap
	}
	s.Stern = stern
	return envelope, nil
}

// DoRotation turns the ship 90° about its stern. The new envelope is
// returned; board.ErrOutOfMap is returned and the ship left unchanged when
// the rotated hull would leave bounds.
func (s *Ship) DoRotation(direction board.RotateDirection, bounds board.Box) (board.Box, error) {
	facing := s.Facing.Clockwise()
	if direction == board.CounterClockwise {
		facing = s.Facing.CounterClockwise()
	}

	envelope := envelopeAt(s.Class, s.Stern, facing)
	if !bounds.ContainsBox(envelope) {
		return board.Box{}, board.ErrOutOfMap
	}
	s.Facing = facing
	return envelope, nil
}
