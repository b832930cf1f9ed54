// pkg/engine/result.go
package engine

import (
	"github.com/opd-ai/go-armada/pkg/board"
	"github.com/opd-ai/go-armada/pkg/entity"
)

// CoordinateSet is a set of board tiles.
type CoordinateSet map[board.Coordinate]struct{}

// Add inserts tiles into the set.
func (s CoordinateSet) Add(tiles ...board.Coordinate) {
	for _, tile := range tiles {
		s[tile] = struct{}{}
	}
}

// Contains reports whether the tile is in the set.
func (s CoordinateSet) Contains(tile board.Coordinate) bool {
	_, ok := s[tile]
	return ok
}

// Merge inserts every tile of other into the set.
func (s CoordinateSet) Merge(other CoordinateSet) {
	for tile := range other {
		s[tile] = struct{}{}
	}
}

// DamageMap accumulates inflicted damage per tile.
type DamageMap map[board.Coordinate]int

// addDamage books damage on every given tile.
func (d DamageMap) addDamage(tiles []board.Coordinate, damage int) {
	for _, tile := range tiles {
		d[tile] += damage
	}
}

// Result describes every observable side effect of one applied action.
// The transport layer fans it out to observers; the engine performs no
// I/O itself.
type Result struct {
	ShipsDestroyed        map[entity.ShipID]struct{} `json:"shipsDestroyed,omitempty"`
	InflictedDamageByShip map[entity.ShipID]int      `json:"inflictedDamageByShip,omitempty"`
	InflictedDamageAt     DamageMap                  `json:"inflictedDamageAt,omitempty"`
	GainVisionAt          CoordinateSet              `json:"gainVisionAt,omitempty"`
	LostVisionAt          CoordinateSet              `json:"lostVisionAt,omitempty"`
	TempVisionAt          CoordinateSet              `json:"tempVisionAt,omitempty"`
}

// NewResult returns an empty result with all maps allocated.
func NewResult() *Result {
	return &Result{
		ShipsDestroyed:        make(map[entity.ShipID]struct{}),
		InflictedDamageByShip: make(map[entity.ShipID]int),
		InflictedDamageAt:     make(DamageMap),
		GainVisionAt:          make(CoordinateSet),
		LostVisionAt:          make(CoordinateSet),
		TempVisionAt:          make(CoordinateSet),
	}
}

// recordDestruction books a destroyed ship: its id, the health it lost at
// destruction, and the vision lost over its former hull tiles.
func (r *Result) recordDestruction(ship *entity.Ship, healthAtDestruction int) {
	r.ShipsDestroyed[ship.ID] = struct{}{}
	r.InflictedDamageByShip[ship.ID] += healthAtDestruction
	r.LostVisionAt.Add(ship.Envelope().Tiles()...)
}

// BoostStep is one single-tile step of an engine boost. Either Result or
// Err is set; a failed step terminates the sequence but leaves the prior
// steps committed.
type BoostStep struct {
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// Outcome is the return value of Game.Apply. Most actions produce a single
// Result; an engine boost produces an ordered step sequence instead.
type Outcome struct {
	Result *Result     `json:"result,omitempty"`
	Steps  []BoostStep `json:"steps,omitempty"`
}
