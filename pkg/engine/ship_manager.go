// pkg/engine/ship_manager.go
package engine

import (
	"fmt"
	"sort"

	"github.com/opd-ai/go-armada/pkg/board"
	"github.com/opd-ai/go-armada/pkg/entity"
)

// ShipManager owns every placed ship. The ship map and the spatial index
// are kept in lockstep: each mutation removes the stale envelope, applies
// the change, and reinserts the new envelope only on success, so a failed
// validation leaves both structures untouched.
type ShipManager struct {
	ships map[entity.ShipID]*entity.Ship
	index ShipIndex
}

// NewShipManager returns an empty manager.
func NewShipManager() *ShipManager {
	return &ShipManager{ships: make(map[entity.ShipID]*entity.Ship)}
}

// NewShipManagerWithShips returns a manager pre-populated with ships,
// used by tests and snapshot restoration. Placement rules are not checked.
func NewShipManagerWithShips(ships []*entity.Ship) *ShipManager {
	m := NewShipManager()
	for _, ship := range ships {
		m.ships[ship.ID] = ship
		m.index.Insert(ship.ID, ship.Envelope())
	}
	return m
}

// GetByID returns the ship or nil when it is not on the board.
func (m *ShipManager) GetByID(id entity.ShipID) *entity.Ship {
	return m.ships[id]
}

// Len returns the number of ships on the board.
func (m *ShipManager) Len() int {
	return len(m.ships)
}

// Ships returns all ships ordered by id.
func (m *ShipManager) Ships() []*entity.Ship {
	ships := make([]*entity.Ship, 0, len(m.ships))
	for _, ship := range m.ships {
		ships = append(ships, ship)
	}
	sort.Slice(ships, func(i, j int) bool {
		if ships[i].ID.Player != ships[j].ID.Player {
			return ships[i].ID.Player < ships[j].ID.Player
		}
		return ships[i].ID.Number < ships[j].ID.Number
	})
	return ships
}

// PlayerShipCount returns the number of ships the player still has afloat.
func (m *ShipManager) PlayerShipCount(player entity.PlayerID) int {
	count := 0
	for id := range m.ships {
		if id.Player == player {
			count++
		}
	}
	return count
}

// PlaceShip adds a ship to the board. It fails when the id is taken or the
// hull overlaps a placed ship.
func (m *ShipManager) PlaceShip(ship *entity.Ship) error {
	if _, ok := m.ships[ship.ID]; ok {
		return &PlacementError{Reason: PlacementAlreadyPlaced}
	}
	if len(m.index.Intersecting(ship.Envelope())) > 0 {
		return &PlacementError{Reason: PlacementCollision}
	}
	m.ships[ship.ID] = ship
	m.index.Insert(ship.ID, ship.Envelope())
	return nil
}

// removeShip drops a ship from both the map and the index.
func (m *ShipManager) removeShip(ship *entity.Ship) {
	m.index.Remove(ship.ID, ship.Envelope())
	delete(m.ships, ship.ID)
}

// destroyCollidingShips checks an envelope after a hull moved into it.
// When two or more ships occupy the area, all of them are destroyed and
// returned; otherwise nil.
func (m *ShipManager) destroyCollidingShips(envelope board.Box) []*entity.Ship {
	ids := m.index.Intersecting(envelope)
	if len(ids) < 2 {
		return nil
	}
	destroyed := make([]*entity.Ship, 0, len(ids))
	for _, id := range ids {
		destroyed = append(destroyed, m.ships[id])
	}
	for _, ship := range destroyed {
		m.removeShip(ship)
	}
	return destroyed
}

// shipPartsIn collects the hull tiles of every ship other than exclude that
// lie inside the envelope. This is the tile set a ship with that vision
// envelope can see.
func (m *ShipManager) shipPartsIn(envelope board.Box, exclude entity.ShipID) CoordinateSet {
	parts := make(CoordinateSet)
	for _, id := range m.index.Intersecting(envelope) {
		if id == exclude {
			continue
		}
		overlap, ok := m.ships[id].Envelope().Intersection(envelope)
		if !ok {
			continue
		}
		parts.Add(overlap.Tiles()...)
	}
	return parts
}

// mutateShip runs a mutation against a ship and keeps the index consistent:
// the old envelope is removed and the new one inserted only when the
// mutation succeeds.
func (m *ShipManager) mutateShip(id entity.ShipID, mutation func(*entity.Ship) error) error {
	ship, ok := m.ships[id]
	if !ok {
		return &NonExistentShipError{Ship: id}
	}
	oldEnvelope := ship.Envelope()
	if err := mutation(ship); err != nil {
		return err
	}
	m.index.Remove(id, oldEnvelope)
	m.index.Insert(id, ship.Envelope())
	return nil
}

// costs is an action's price: points deducted and the cooldown armed.
type costs struct {
	actionPoints int
	cooldown     int
}

// checkCosts validates the cooldown slot and action-point balance without
// paying, so geometric checks can still reject the action afterwards.
func checkCosts(ship *entity.Ship, actionPoints int, kind entity.CooldownKind, c costs) error {
	if remaining := ship.CooldownRemaining(kind); remaining > 0 {
		return &CooldownError{Remaining: remaining}
	}
	if actionPoints < c.actionPoints {
		return &InsufficientPointsError{Required: c.actionPoints}
	}
	return nil
}

// chargeCosts deducts the action points and arms the cooldown. Called only
// after every validation has passed.
func chargeCosts(ship *entity.Ship, actionPoints *int, kind entity.CooldownKind, c costs) {
	*actionPoints -= c.actionPoints
	ship.ArmCooldown(kind, c.cooldown)
}

// Shoot fires a ship's cannon at a target tile. A shot into open water
// succeeds with an empty result; a hit applies the class's cannon damage
// to whichever ship covers the tile.
func (m *ShipManager) Shoot(actionPoints *int, shipID entity.ShipID, target board.Coordinate, bounds board.Box) (*Result, error) {
	if !bounds.ContainsPoint(target) {
		return nil, board.ErrOutOfMap
	}
	ship, ok := m.ships[shipID]
	if !ok {
		return nil, &NonExistentShipError{Ship: shipID}
	}

	balancing := ship.Balancing
	if err := checkCosts(ship, *actionPoints, entity.CannonCooldown, costs{balancing.ShootCosts.ActionPoints, balancing.ShootCosts.Cooldown}); err != nil {
		return nil, err
	}
	if ship.Envelope().Distance(target) > balancing.ShootRange {
		return nil, ErrUnreachable
	}
	chargeCosts(ship, actionPoints, entity.CannonCooldown, costs{balancing.ShootCosts.ActionPoints, balancing.ShootCosts.Cooldown})

	result := NewResult()
	occupants := m.index.AtPoint(target)
	if len(occupants) == 0 {
		return result, nil
	}

	victim := m.ships[occupants[0]]
	dealt := min(balancing.ShootDamage, victim.Health)
	result.InflictedDamageByShip[victim.ID] = dealt
	result.InflictedDamageAt[target] = dealt
	if victim.ApplyDamage(balancing.ShootDamage) {
		result.ShipsDestroyed[victim.ID] = struct{}{}
		result.LostVisionAt.Add(victim.Envelope().Tiles()...)
		m.removeShip(victim)
	}
	return result, nil
}

// MoveShip moves a ship one tile along or against its facing, then resolves
// the collision or vision consequences.
func (m *ShipManager) MoveShip(actionPoints *int, shipID entity.ShipID, direction board.MoveDirection, bounds board.Box) (*Result, error) {
	return m.relocateShip(actionPoints, shipID, bounds, func(ship *entity.Ship) (board.Box, error) {
		return ship.DoMove(direction, bounds)
	})
}

// RotateShip turns a ship 90° about its stern, then resolves the collision
// or vision consequences.
func (m *ShipManager) RotateShip(actionPoints *int, shipID entity.ShipID, direction board.RotateDirection, bounds board.Box) (*Result, error) {
	return m.relocateShip(actionPoints, shipID, bounds, func(ship *entity.Ship) (board.Box, error) {
		return ship.DoRotation(direction, bounds)
	})
}

// relocateShip is the shared move/rotate path: validate costs, apply the
// hull mutation and update the index, then either destroy every ship in a
// collision or report the vision delta of the relocation.
func (m *ShipManager) relocateShip(actionPoints *int, shipID entity.ShipID, bounds board.Box, relocate func(*entity.Ship) (board.Box, error)) (*Result, error) {
	ship, ok := m.ships[shipID]
	if !ok {
		return nil, &NonExistentShipError{Ship: shipID}
	}

	movementCosts := costs{ship.Balancing.MovementCosts.ActionPoints, ship.Balancing.MovementCosts.Cooldown}
	if err := checkCosts(ship, *actionPoints, entity.MovementCooldown, movementCosts); err != nil {
		return nil, err
	}

	seenBefore := m.shipPartsIn(ship.VisionEnvelope(), shipID)

	var newEnvelope board.Box
	err := m.mutateShip(shipID, func(ship *entity.Ship) error {
		envelope, err := relocate(ship)
		if err != nil {
			return err
		}
		newEnvelope = envelope
		return nil
	})
	if err != nil {
		return nil, err
	}
	chargeCosts(ship, actionPoints, entity.MovementCooldown, movementCosts)

	result := NewResult()
	if destroyed := m.destroyCollidingShips(newEnvelope); destroyed != nil {
		// A collision supersedes the vision delta of the relocation.
		for _, victim := range destroyed {
			result.recordDestruction(victim, victim.Health)
			result.InflictedDamageAt.addDamage(victim.Envelope().Tiles(), victim.Health)
			victim.Health = 0
		}
		return result, nil
	}

	seenAfter := m.shipPartsIn(ship.VisionEnvelope(), shipID)
	for tile := range seenAfter {
		if !seenBefore.Contains(tile) {
			result.GainVisionAt.Add(tile)
		}
	}
	for tile := range seenBefore {
		if !seenAfter.Contains(tile) {
			result.LostVisionAt.Add(tile)
		}
	}
	return result, nil
}

// Torpedo fires a submarine's torpedo in a cardinal direction. The torpedo
// starts one tile past the bow when fired along the facing, otherwise one
// tile past the stern, and runs in a straight line for the class's ability
// range, damaging every ship it crosses.
func (m *ShipManager) Torpedo(actionPoints *int, shipID entity.ShipID, direction board.Orientation, bounds board.Box) (*Result, error) {
	if !direction.Valid() {
		return nil, &IllegalError{Reason: "invalid torpedo direction"}
	}
	ship, ok := m.ships[shipID]
	if !ok {
		return nil, &NonExistentShipError{Ship: shipID}
	}
	if ship.Class != entity.Submarine {
		return nil, &IllegalError{Reason: fmt.Sprintf("%s cannot fire torpedoes", ship.Class)}
	}

	balancing := ship.Balancing
	abilityCosts := costs{balancing.AbilityCosts.ActionPoints, balancing.AbilityCosts.Cooldown}
	if err := checkCosts(ship, *actionPoints, entity.AbilityCooldown, abilityCosts); err != nil {
		return nil, err
	}
	chargeCosts(ship, actionPoints, entity.AbilityCooldown, abilityCosts)

	origin := ship.Stern
	if direction == ship.Facing {
		origin = ship.Bow()
	}
	dx, dy := direction.Delta()
	first := board.Coordinate{X: origin.X + dx, Y: origin.Y + dy}
	last := board.Coordinate{X: origin.X + dx*balancing.AbilityRange, Y: origin.Y + dy*balancing.AbilityRange}
	trajectory := board.NewBox(first, last)

	result := NewResult()
	for _, id := range m.index.Intersecting(trajectory) {
		if id == shipID {
			continue
		}
		victim := m.ships[id]
		overlap, _ := victim.Envelope().Intersection(trajectory)
		m.damageShip(result, victim, balancing.AbilityDamage, overlap.Tiles())
	}
	return result, nil
}

// PredatorMissile fires a battleship's missile at a target tile within the
// class's ability range, damaging every ship the blast square touches.
func (m *ShipManager) PredatorMissile(actionPoints *int, shipID entity.ShipID, center board.Coordinate, bounds board.Box) (*Result, error) {
	if !bounds.ContainsPoint(center) {
		return nil, board.ErrOutOfMap
	}
	ship, ok := m.ships[shipID]
	if !ok {
		return nil, &NonExistentShipError{Ship: shipID}
	}
	if ship.Class != entity.Battleship {
		return nil, &IllegalError{Reason: fmt.Sprintf("%s cannot fire predator missiles", ship.Class)}
	}

	balancing := ship.Balancing
	if err := checkCosts(ship, *actionPoints, entity.AbilityCooldown, costs{balancing.AbilityCosts.ActionPoints, balancing.AbilityCosts.Cooldown}); err != nil {
		return nil, err
	}
	if ship.Envelope().Distance(center) > balancing.AbilityRange {
		return nil, ErrUnreachable
	}
	chargeCosts(ship, actionPoints, entity.AbilityCooldown, costs{balancing.AbilityCosts.ActionPoints, balancing.AbilityCosts.Cooldown})

	result := NewResult()
	m.blast(result, board.PointBox(center).Extend(balancing.AbilityRadius), balancing.AbilityDamage)
	return result, nil
}

// ScoutPlane sends a carrier's scout over a target tile within the class's
// ability range. It deals no damage; enemy hull tiles inside the scouted
// square are revealed for the remainder of the turn. Ships whose owner
// satisfies isAlly are never revealed, so a scout reports nothing about
// the firer's own team.
func (m *ShipManager) ScoutPlane(actionPoints *int, shipID entity.ShipID, center board.Coordinate, bounds board.Box, isAlly func(entity.PlayerID) bool) (*Result, error) {
	if !bounds.ContainsPoint(center) {
		return nil, board.ErrOutOfMap
	}
	ship, ok := m.ships[shipID]
	if !ok {
		return nil, &NonExistentShipError{Ship: shipID}
	}
	if ship.Class != entity.Carrier {
		return nil, &IllegalError{Reason: fmt.Sprintf("%s cannot launch scout planes", ship.Class)}
	}

	balancing := ship.Balancing
	if err := checkCosts(ship, *actionPoints, entity.AbilityCooldown, costs{balancing.AbilityCosts.ActionPoints, balancing.AbilityCosts.Cooldown}); err != nil {
		return nil, err
	}
	if ship.Envelope().Distance(center) > balancing.AbilityRange {
		return nil, ErrUnreachable
	}
	chargeCosts(ship, actionPoints, entity.AbilityCooldown, costs{balancing.AbilityCosts.ActionPoints, balancing.AbilityCosts.Cooldown})

	result := NewResult()
	area := board.PointBox(center).Extend(balancing.AbilityRadius)
	for _, id := range m.index.Intersecting(area) {
		if isAlly(id.Player) {
			continue
		}
		overlap, ok := m.ships[id].Envelope().Intersection(area)
		if !ok {
			continue
		}
		result.TempVisionAt.Add(overlap.Tiles()...)
	}
	return result, nil
}

// MultiMissile fires a destroyer's three-missile volley. Each missile is
// aimed independently anywhere on the map; blasts resolve in order, so a
// ship destroyed by an earlier blast takes no damage from a later one and
// overlapping blasts stack their damage.
func (m *ShipManager) MultiMissile(actionPoints *int, shipID entity.ShipID, targets [3]board.Coordinate, bounds board.Box) (*Result, error) {
	for _, target := range targets {
		if !bounds.ContainsPoint(target) {
			return nil, board.ErrOutOfMap
		}
	}
	ship, ok := m.ships[shipID]
	if !ok {
		return nil, &NonExistentShipError{Ship: shipID}
	}
	if ship.Class != entity.Destroyer {
		return nil, &IllegalError{Reason: fmt.Sprintf("%s cannot fire multi missiles", ship.Class)}
	}

	balancing := ship.Balancing
	abilityCosts := costs{balancing.AbilityCosts.ActionPoints, balancing.AbilityCosts.Cooldown}
	if err := checkCosts(ship, *actionPoints, entity.AbilityCooldown, abilityCosts); err != nil {
		return nil, err
	}
	chargeCosts(ship, actionPoints, entity.AbilityCooldown, abilityCosts)

	result := NewResult()
	for _, target := range targets {
		m.blast(result, board.PointBox(target).Extend(balancing.AbilityRadius), balancing.AbilityDamage)
	}
	return result, nil
}

// EngineBoost dashes a cruiser forward by the class's boost distance. The
// whole boost is paid for once; each tile is then a sub-move with its own
// result, and the first failing step ends the sequence with its error while
// every committed step stands.
func (m *ShipManager) EngineBoost(actionPoints *int, shipID entity.ShipID, bounds board.Box) ([]BoostStep, error) {
	ship, ok := m.ships[shipID]
	if !ok {
		return nil, &NonExistentShipError{Ship: shipID}
	}
	if ship.Class != entity.Cruiser {
		return nil, &IllegalError{Reason: fmt.Sprintf("%s cannot boost", ship.Class)}
	}

	balancing := ship.Balancing
	abilityCosts := costs{balancing.AbilityCosts.ActionPoints, balancing.AbilityCosts.Cooldown}
	if err := checkCosts(ship, *actionPoints, entity.AbilityCooldown, abilityCosts); err != nil {
		return nil, err
	}
	chargeCosts(ship, actionPoints, entity.AbilityCooldown, abilityCosts)

	steps := make([]BoostStep, 0, balancing.AbilityDistance)
	for i := 0; i < balancing.AbilityDistance; i++ {
		result, err := m.boostStep(shipID, bounds)
		if err != nil {
			steps = append(steps, BoostStep{Err: err})
			break
		}
		steps = append(steps, BoostStep{Result: result})
	}
	return steps, nil
}

// boostStep is a single boost tile: a forward move with no cost checks.
func (m *ShipManager) boostStep(shipID entity.ShipID, bounds board.Box) (*Result, error) {
	ship, ok := m.ships[shipID]
	if !ok {
		return nil, &NonExistentShipError{Ship: shipID}
	}

	seenBefore := m.shipPartsIn(ship.VisionEnvelope(), shipID)

	var newEnvelope board.Box
	err := m.mutateShip(shipID, func(ship *entity.Ship) error {
		envelope, err := ship.DoMove(board.Forward, bounds)
		if err != nil {
			return err
		}
		newEnvelope = envelope
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := NewResult()
	if destroyed := m.destroyCollidingShips(newEnvelope); destroyed != nil {
		for _, victim := range destroyed {
			result.recordDestruction(victim, victim.Health)
			result.InflictedDamageAt.addDamage(victim.Envelope().Tiles(), victim.Health)
			victim.Health = 0
		}
		return result, nil
	}

	seenAfter := m.shipPartsIn(ship.VisionEnvelope(), shipID)
	for tile := range seenAfter {
		if !seenBefore.Contains(tile) {
			result.GainVisionAt.Add(tile)
		}
	}
	for tile := range seenBefore {
		if !seenAfter.Contains(tile) {
			result.LostVisionAt.Add(tile)
		}
	}
	return result, nil
}

// blast applies area damage over a square: every ship the square touches
// takes the full damage once, booked on the overlapping tiles. Destroyed
// ships are removed immediately.
func (m *ShipManager) blast(result *Result, area board.Box, damage int) {
	for _, id := range m.index.Intersecting(area) {
		victim := m.ships[id]
		overlap, ok := victim.Envelope().Intersection(area)
		if !ok {
			continue
		}
		m.damageShip(result, victim, damage, overlap.Tiles())
	}
}

// damageShip books damage against one victim on the given tiles and removes
// the victim when it is destroyed.
func (m *ShipManager) damageShip(result *Result, victim *entity.Ship, damage int, tiles []board.Coordinate) {
	dealt := min(damage, victim.Health)
	result.InflictedDamageByShip[victim.ID] += dealt
	result.InflictedDamageAt.addDamage(tiles, dealt)
	if victim.ApplyDamage(damage) {
		result.ShipsDestroyed[victim.ID] = struct{}{}
		result.LostVisionAt.Add(victim.Envelope().Tiles()...)
		m.removeShip(victim)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
