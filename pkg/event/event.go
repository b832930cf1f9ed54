// pkg/event/event.go
package event

import (
	"sync"
)

// Type represents the type of event
type Type string

// Common event types
const (
	PlayerJoined   Type = "player_joined"
	PlayerLeft     Type = "player_left"
	PhaseChanged   Type = "phase_changed"
	ShipsPlaced    Type = "ships_placed"
	ActionApplied  Type = "action_applied"
	ShipsDestroyed Type = "ships_destroyed"
	TurnAdvanced   Type = "turn_advanced"
	GameEnded      Type = "game_ended"
	GameAborted    Type = "game_aborted"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]Handler
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]Handler),
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	handlers, ok := b.handlers[event.GetType()]
	b.mu.RUnlock()

	if !ok {
		return
	}

	// Call each handler
	for _, handler := range handlers {
		handler(event)
	}
}

// Specific event implementations

// PlayerEvent contains information about player lifecycle events
type PlayerEvent struct {
	BaseEvent
	PlayerID uint32
	Name     string
}

// NewPlayerEvent creates a new player event
func NewPlayerEvent(eventType Type, source interface{}, playerID uint32, name string) *PlayerEvent {
	return &PlayerEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		PlayerID: playerID,
		Name:     name,
	}
}

// PhaseEvent contains information about a phase transition
type PhaseEvent struct {
	BaseEvent
	From string
	To   string
}

// NewPhaseEvent creates a new phase transition event
func NewPhaseEvent(eventType Type, source interface{}, from, to string) *PhaseEvent {
	return &PhaseEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		From: from,
		To:   to,
	}
}

// TurnEvent contains information about turn ownership changes
type TurnEvent struct {
	BaseEvent
	PlayerID     uint32
	ActionPoints int
}

// NewTurnEvent creates a new turn advancement event
func NewTurnEvent(source interface{}, playerID uint32, actionPoints int) *TurnEvent {
	return &TurnEvent{
		BaseEvent: BaseEvent{
			EventType: TurnAdvanced,
			Source:    source,
		},
		PlayerID:     playerID,
		ActionPoints: actionPoints,
	}
}

// DestructionEvent contains the ships removed from the board by one action
type DestructionEvent struct {
	BaseEvent
	ShipIDs []string
}

// NewDestructionEvent creates a new ship destruction event
func NewDestructionEvent(source interface{}, shipIDs []string) *DestructionEvent {
	return &DestructionEvent{
		BaseEvent: BaseEvent{
			EventType: ShipsDestroyed,
			Source:    source,
		},
		ShipIDs: shipIDs,
	}
}
