// Package engine implements the core game state machine, ship management and
// combat resolution for go-armada. A Game moves through the Lobby,
// Preparation, InGame and End phases; all state changes are funneled through
// Apply, which validates actions against the current phase and turn before
// mutating anything.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/opd-ai/go-armada/pkg/board"
	"github.com/opd-ai/go-armada/pkg/config"
	"github.com/opd-ai/go-armada/pkg/entity"
	"github.com/opd-ai/go-armada/pkg/event"
	"github.com/opd-ai/go-armada/pkg/logging"
)

// Team identifies one of the two sides of a match.
type Team int

const (
	// TeamA is the first team.
	TeamA Team = iota
	// TeamB is the second team.
	TeamB
)

// String returns the team name.
func (t Team) String() string {
	if t == TeamA {
		return "TeamA"
	}
	return "TeamB"
}

// Turn tracks whose move it is and the resources left to spend on it.
type Turn struct {
	PlayerID     entity.PlayerID
	ActionPoints int
	// TempVision holds scouting intel that expires when the turn advances.
	TempVision CoordinateSet
}

// Game is the authoritative state of a single match. All exported methods are
// safe for concurrent use.
type Game struct {
	mu sync.RWMutex

	config *config.GameConfig
	bounds board.Box

	players map[entity.PlayerID]*entity.Player
	teamA   map[entity.PlayerID]struct{}
	teamB   map[entity.PlayerID]struct{}

	ships *ShipManager
	phase Phase
	turn  *Turn
	// turnOrder is fixed when the match starts, sorted by player ID.
	turnOrder []entity.PlayerID

	winner       string
	nextPlayerID entity.PlayerID

	EventBus *event.Bus
	logger   *logging.Logger
}

// NewGame creates a game in the Lobby phase from the given configuration.
func NewGame(cfg *config.GameConfig) *Game {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Game{
		config:       cfg,
		bounds:       board.Bounds(cfg.BoardSize),
		players:      make(map[entity.PlayerID]*entity.Player),
		teamA:        make(map[entity.PlayerID]struct{}),
		teamB:        make(map[entity.PlayerID]struct{}),
		ships:        NewShipManager(),
		phase:        Lobby,
		nextPlayerID: 1,
		EventBus:     event.NewEventBus(),
		logger:       logging.NewLogger(),
	}
}

// Config returns the configuration the game was created with.
func (g *Game) Config() *config.GameConfig {
	return g.config
}

// Phase returns the current phase.
func (g *Game) Phase() Phase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.phase
}

// Winner returns the name of the winning team, or an empty string while the
// match is still running.
func (g *Game) Winner() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.winner
}

// AddPlayer joins a new player to the lobby, assigning them to the team with
// the fewer members. It returns the assigned player ID.
func (g *Game) AddPlayer(name string) (entity.PlayerID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != Lobby {
		return 0, &OutOfStateError{Phase: g.phase}
	}
	if len(g.teamA) >= g.config.TeamASize && len(g.teamB) >= g.config.TeamBSize {
		return 0, &IllegalError{Reason: "all teams are full"}
	}

	id := g.nextPlayerID
	g.nextPlayerID++
	g.players[id] = entity.NewPlayer(id, name)

	if len(g.teamA) <= len(g.teamB) && len(g.teamA) < g.config.TeamASize {
		g.teamA[id] = struct{}{}
	} else {
		g.teamB[id] = struct{}{}
	}

	g.logger.Info(context.Background(), "player joined",
		"player_id", uint32(id),
		"name", name,
		"team", g.teamOf(id).String(),
	)
	g.EventBus.Publish(event.NewPlayerEvent(event.PlayerJoined, g, uint32(id), name))
	return id, nil
}

// RemovePlayer removes a player from the game. In the lobby the slot is
// simply freed; once the match has begun a disconnect aborts it.
func (g *Game) RemovePlayer(id entity.PlayerID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	player, ok := g.players[id]
	if !ok {
		return &NonExistentPlayerError{Player: id}
	}
	delete(g.players, id)
	delete(g.teamA, id)
	delete(g.teamB, id)

	g.logger.Info(context.Background(), "player left",
		"player_id", uint32(id),
		"name", player.Name,
	)
	g.EventBus.Publish(event.NewPlayerEvent(event.PlayerLeft, g, uint32(id), player.Name))

	if g.phase != Lobby && g.phase != End {
		g.abort(fmt.Sprintf("player %d left mid-game", id))
	}
	return nil
}

// abort ends the match without a winner. Callers must hold the write lock.
func (g *Game) abort(reason string) {
	from := g.phase
	g.phase = End
	g.turn = nil
	g.logger.Warn(context.Background(), "game aborted", "reason", reason)
	g.EventBus.Publish(event.NewPhaseEvent(event.GameAborted, g, from.String(), End.String()))
}

// teamOf reports the team the player belongs to. Callers must hold the lock.
func (g *Game) teamOf(id entity.PlayerID) Team {
	if _, ok := g.teamA[id]; ok {
		return TeamA
	}
	return TeamB
}

// CanStartPreparation reports whether both teams are full and every player
// has marked themselves ready.
func (g *Game) CanStartPreparation() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.canStartPreparation()
}

func (g *Game) canStartPreparation() bool {
	if g.phase != Lobby {
		return false
	}
	if len(g.teamA) != g.config.TeamASize || len(g.teamB) != g.config.TeamBSize {
		return false
	}
	for _, p := range g.players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// StartPreparation transitions the game from Lobby to Preparation, carving
// the board into one placement quadrant per player. Quadrants are assigned in
// ascending player ID order, so the layout is deterministic.
func (g *Game) StartPreparation() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != Lobby {
		return &OutOfStateError{Phase: g.phase}
	}
	if !g.canStartPreparation() {
		return &IllegalError{Reason: "not all players are ready"}
	}

	ids := g.sortedPlayerIDs()
	corners := board.QuadrantCorners(g.config.BoardSize, len(ids))
	side := board.QuadrantSize(g.config.BoardSize, len(ids))
	for i, id := range ids {
		corner := corners[i]
		g.players[id].Quadrant = board.NewBox(corner, board.Coordinate{
			X: corner.X + side - 1,
			Y: corner.Y + side - 1,
		})
	}

	g.phase = Preparation
	g.logger.Info(context.Background(), "preparation started",
		"players", len(ids),
		"quadrant_side", side,
	)
	g.EventBus.Publish(event.NewPhaseEvent(event.PhaseChanged, g, Lobby.String(), Preparation.String()))
	return nil
}

// CanStartGame reports whether every player has placed their fleet.
func (g *Game) CanStartGame() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.canStartGame()
}

func (g *Game) canStartGame() bool {
	if g.phase != Preparation {
		return false
	}
	for _, p := range g.players {
		if !p.ShipsPlaced {
			return false
		}
	}
	return true
}

// StartGame transitions the game from Preparation to InGame. The first turn
// goes to the player with the lowest ID.
func (g *Game) StartGame() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != Preparation {
		return &OutOfStateError{Phase: g.phase}
	}
	if !g.canStartGame() {
		return &IllegalError{Reason: "not all players have placed their ships"}
	}

	g.turnOrder = g.sortedPlayerIDs()
	g.turn = &Turn{
		PlayerID:     g.turnOrder[0],
		ActionPoints: g.config.TurnActionPoints,
		TempVision:   make(CoordinateSet),
	}
	g.phase = InGame
	g.logger.Info(context.Background(), "game started",
		"first_player", uint32(g.turn.PlayerID),
		"action_points", g.turn.ActionPoints,
	)
	g.EventBus.Publish(event.NewPhaseEvent(event.PhaseChanged, g, Preparation.String(), InGame.String()))
	g.EventBus.Publish(event.NewTurnEvent(g, uint32(g.turn.PlayerID), g.turn.ActionPoints))
	return nil
}

// Turn returns the current player and their remaining action points, or nil
// when no match is running.
func (g *Game) Turn() *Turn {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.turn == nil {
		return nil
	}
	t := &Turn{
		PlayerID:     g.turn.PlayerID,
		ActionPoints: g.turn.ActionPoints,
		TempVision:   make(CoordinateSet),
	}
	t.TempVision.Merge(g.turn.TempVision)
	return t
}

// AdvanceTurn passes the turn to the next player in ID order, refilling their
// action points, ticking down cooldowns on their ships and discarding any
// temporary scouting vision from the previous turn.
func (g *Game) AdvanceTurn() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != InGame || g.turn == nil {
		return &OutOfStateError{Phase: g.phase}
	}

	next := g.nextInTurnOrder(g.turn.PlayerID)
	g.turn = &Turn{
		PlayerID:     next,
		ActionPoints: g.config.TurnActionPoints,
		TempVision:   make(CoordinateSet),
	}
	for _, ship := range g.ships.Ships() {
		if ship.ID.Player == next {
			ship.TickCooldowns()
		}
	}

	g.logger.Debug(context.Background(), "turn advanced",
		"player_id", uint32(next),
		"action_points", g.turn.ActionPoints,
	)
	g.EventBus.Publish(event.NewTurnEvent(g, uint32(next), g.turn.ActionPoints))
	return nil
}

// nextInTurnOrder returns the player after current in the fixed turn order,
// skipping players who have left. Callers must hold the lock.
func (g *Game) nextInTurnOrder(current entity.PlayerID) entity.PlayerID {
	n := len(g.turnOrder)
	start := 0
	for i, id := range g.turnOrder {
		if id == current {
			start = i
			break
		}
	}
	for i := 1; i <= n; i++ {
		candidate := g.turnOrder[(start+i)%n]
		if _, ok := g.players[candidate]; ok {
			return candidate
		}
	}
	return current
}

func (g *Game) sortedPlayerIDs() []entity.PlayerID {
	ids := make([]entity.PlayerID, 0, len(g.players))
	for id := range g.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Apply validates an action against the current phase and turn and executes
// it. A non-nil error means the game state was not changed. Combat actions
// return an Outcome describing damage, destruction and vision changes.
func (g *Game) Apply(action Action) (*Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.phase.allows(action) {
		return nil, &OutOfStateError{Phase: g.phase}
	}
	playerID := action.Player()
	if _, ok := g.players[playerID]; !ok {
		return nil, &NonExistentPlayerError{Player: playerID}
	}

	switch a := action.(type) {
	case TeamSwitch:
		return nil, g.applyTeamSwitch(a)
	case SetReady:
		g.players[playerID].Ready = a.Ready
		return nil, nil
	case PlaceShips:
		return nil, g.applyPlaceShips(a)
	}

	// Everything below is a combat action and consumes the current turn.
	if g.turn == nil || g.turn.PlayerID != playerID {
		return nil, ErrNotPlayersTurn
	}

	outcome, err := g.applyCombat(action)
	if err != nil {
		return nil, err
	}
	g.EventBus.Publish(&event.BaseEvent{EventType: event.ActionApplied, Source: g})
	g.publishDestructions(outcome)
	g.checkGameEnd()
	return outcome, nil
}

func (g *Game) applyCombat(action Action) (*Outcome, error) {
	ap := &g.turn.ActionPoints

	switch a := action.(type) {
	case Shoot:
		res, err := g.ships.Shoot(ap, a.ShipID, a.Target, g.bounds)
		return &Outcome{Result: res}, err
	case Move:
		res, err := g.ships.MoveShip(ap, a.ShipID, a.Direction, g.bounds)
		return &Outcome{Result: res}, err
	case Rotate:
		res, err := g.ships.RotateShip(ap, a.ShipID, a.Direction, g.bounds)
		return &Outcome{Result: res}, err
	case Torpedo:
		res, err := g.ships.Torpedo(ap, a.ShipID, a.Direction, g.bounds)
		return &Outcome{Result: res}, err
	case PredatorMissile:
		res, err := g.ships.PredatorMissile(ap, a.ShipID, a.Center, g.bounds)
		return &Outcome{Result: res}, err
	case ScoutPlane:
		team := g.teamOf(a.ShipID.Player)
		res, err := g.ships.ScoutPlane(ap, a.ShipID, a.Center, g.bounds, func(p entity.PlayerID) bool {
			return g.teamOf(p) == team
		})
		if err != nil {
			return nil, err
		}
		g.turn.TempVision.Merge(res.TempVisionAt)
		return &Outcome{Result: res}, nil
	case MultiMissile:
		targets := [3]board.Coordinate{a.TargetA, a.TargetB, a.TargetC}
		res, err := g.ships.MultiMissile(ap, a.ShipID, targets, g.bounds)
		return &Outcome{Result: res}, err
	case EngineBoost:
		steps, err := g.ships.EngineBoost(ap, a.ShipID, g.bounds)
		return &Outcome{Steps: steps}, err
	default:
		return nil, &IllegalError{Reason: fmt.Sprintf("unhandled action %T", action)}
	}
}

// applyTeamSwitch moves a player to the opposite team. Callers must hold the
// write lock.
func (g *Game) applyTeamSwitch(a TeamSwitch) error {
	_, inA := g.teamA[a.PlayerID]
	_, inB := g.teamB[a.PlayerID]
	switch {
	case inA && inB:
		return &InconsistentStateError{
			Reason: fmt.Sprintf("found illegal team assignment for player %d", a.PlayerID),
		}
	case inA:
		delete(g.teamA, a.PlayerID)
		g.teamB[a.PlayerID] = struct{}{}
	case inB:
		delete(g.teamB, a.PlayerID)
		g.teamA[a.PlayerID] = struct{}{}
	default:
		return &NonExistentPlayerError{Player: a.PlayerID}
	}
	return nil
}

// applyPlaceShips validates and commits a player's whole fleet at once. Any
// invalid assignment rejects the batch without placing anything.
func (g *Game) applyPlaceShips(a PlaceShips) error {
	player := g.players[a.PlayerID]
	if player.ShipsPlaced {
		return &PlacementError{Reason: PlacementAlreadyPlaced}
	}

	shipSet := g.config.ShipSetTeamA
	if g.teamOf(a.PlayerID) == TeamB {
		shipSet = g.config.ShipSetTeamB
	}
	if len(a.Assignments) != len(shipSet) {
		return &PlacementError{Reason: PlacementWrongShipCount}
	}

	fleet := make([]*entity.Ship, 0, len(shipSet))
	batchTiles := make(CoordinateSet)
	for i, assignment := range a.Assignments {
		if assignment.Number != uint32(i) {
			return &PlacementError{Reason: PlacementInvalidShipNumber}
		}
		if !assignment.Facing.Valid() {
			return &PlacementError{Reason: PlacementInvalidDirection}
		}
		class, err := entity.ShipClassFromString(shipSet[i])
		if err != nil {
			return &InconsistentStateError{Reason: err.Error()}
		}
		balancing, err := g.config.BalancingFor(shipSet[i])
		if err != nil {
			return &InconsistentStateError{Reason: err.Error()}
		}

		ship := entity.NewShip(entity.ShipID{
			Player: a.PlayerID,
			Number: assignment.Number,
		}, class, assignment.Stern, assignment.Facing, balancing)

		envelope := ship.Envelope()
		if !player.Quadrant.ContainsBox(envelope) {
			return &PlacementError{Reason: PlacementOutOfQuadrant}
		}
		for _, tile := range envelope.Tiles() {
			if batchTiles.Contains(tile) {
				return &PlacementError{Reason: PlacementCollision}
			}
			batchTiles.Add(tile)
		}
		if len(g.ships.index.Intersecting(envelope)) > 0 {
			return &PlacementError{Reason: PlacementCollision}
		}
		fleet = append(fleet, ship)
	}

	for _, ship := range fleet {
		if err := g.ships.PlaceShip(ship); err != nil {
			return err
		}
	}
	player.ShipsPlaced = true

	g.logger.Info(context.Background(), "ships placed",
		"player_id", uint32(a.PlayerID),
		"ships", len(fleet),
	)
	g.EventBus.Publish(&event.BaseEvent{EventType: event.ShipsPlaced, Source: g})
	return nil
}

func (g *Game) publishDestructions(outcome *Outcome) {
	destroyed := make([]string, 0)
	collect := func(res *Result) {
		if res == nil {
			return
		}
		for id := range res.ShipsDestroyed {
			destroyed = append(destroyed, id.String())
		}
	}
	collect(outcome.Result)
	for _, step := range outcome.Steps {
		collect(step.Result)
	}
	if len(destroyed) == 0 {
		return
	}
	sort.Strings(destroyed)
	g.logger.Info(context.Background(), "ships destroyed", "ship_ids", destroyed)
	g.EventBus.Publish(event.NewDestructionEvent(g, destroyed))
}

// checkGameEnd ends the match once a team has no ships left. Callers must
// hold the write lock.
func (g *Game) checkGameEnd() {
	shipsA, shipsB := 0, 0
	for id := range g.teamA {
		shipsA += g.ships.PlayerShipCount(id)
	}
	for id := range g.teamB {
		shipsB += g.ships.PlayerShipCount(id)
	}
	if shipsA > 0 && shipsB > 0 {
		return
	}

	switch {
	case shipsA == 0 && shipsB == 0:
		g.winner = "Draw"
	case shipsA == 0:
		g.winner = TeamB.String()
	default:
		g.winner = TeamA.String()
	}
	from := g.phase
	g.phase = End
	g.turn = nil
	g.logger.Info(context.Background(), "game ended", "winner", g.winner)
	g.EventBus.Publish(event.NewPhaseEvent(event.GameEnded, g, from.String(), End.String()))
}

// Snapshot is a read-only copy of the visible game state, suitable for
// serialization to clients.
type Snapshot struct {
	Phase     string           `json:"phase"`
	BoardSize int              `json:"board_size"`
	Winner    string           `json:"winner,omitempty"`
	Players   []PlayerSnapshot `json:"players"`
	Ships     []ShipSnapshot   `json:"ships"`
	Turn      *TurnSnapshot    `json:"turn,omitempty"`
}

// PlayerSnapshot describes one player in a Snapshot.
type PlayerSnapshot struct {
	ID          uint32 `json:"id"`
	Name        string `json:"name"`
	Team        string `json:"team"`
	Ready       bool   `json:"ready"`
	ShipsPlaced bool   `json:"ships_placed"`
}

// ShipSnapshot describes one ship in a Snapshot.
type ShipSnapshot struct {
	ID     entity.ShipID     `json:"id"`
	Class  string            `json:"class"`
	Stern  board.Coordinate  `json:"stern"`
	Facing board.Orientation `json:"facing"`
	Health int               `json:"health"`
}

// TurnSnapshot describes the current turn in a Snapshot.
type TurnSnapshot struct {
	PlayerID     uint32 `json:"player_id"`
	ActionPoints int    `json:"action_points"`
}

// Snapshot returns a consistent copy of the current game state.
func (g *Game) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := Snapshot{
		Phase:     g.phase.String(),
		BoardSize: g.config.BoardSize,
		Winner:    g.winner,
		Players:   make([]PlayerSnapshot, 0, len(g.players)),
		Ships:     make([]ShipSnapshot, 0, g.ships.Len()),
	}
	for _, id := range g.sortedPlayerIDs() {
		p := g.players[id]
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:          uint32(id),
			Name:        p.Name,
			Team:        g.teamOf(id).String(),
			Ready:       p.Ready,
			ShipsPlaced: p.ShipsPlaced,
		})
	}
	for _, ship := range g.ships.Ships() {
		snap.Ships = append(snap.Ships, ShipSnapshot{
			ID:     ship.ID,
			Class:  ship.Class.String(),
			Stern:  ship.Stern,
			Facing: ship.Facing,
			Health: ship.Health,
		})
	}
	if g.turn != nil {
		snap.Turn = &TurnSnapshot{
			PlayerID:     uint32(g.turn.PlayerID),
			ActionPoints: g.turn.ActionPoints,
		}
	}
	return snap
}
