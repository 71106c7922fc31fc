// pkg/event/event.go
package event

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	SimulationLoaded  Type = "simulation_loaded"
	SimulationStarted Type = "simulation_started"
	SimulationStopped Type = "simulation_stopped"
	AircraftReset     Type = "aircraft_reset"
	TerrainContact    Type = "terrain_contact"
	BoundaryReached   Type = "boundary_reached"
	RecorderTripped   Type = "recorder_tripped"
)

// Types lists every event type the simulation publishes.
func Types() []Type {
	return []Type{
		SimulationLoaded, SimulationStarted, SimulationStopped,
		AircraftReset, TerrainContact, BoundaryReached, RecorderTripped,
	}
}

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

// Subscription identifies a registered handler. Cancel removes it.
type Subscription struct {
	ID     uint64
	Cancel func()
}

type subscriber struct {
	id      uint64
	handler Handler
}

// Bus manages event subscriptions and dispatching
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], subscriber{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Cancel: func() { b.unsubscribe(eventType, id) },
	}
}

func (b *Bus) unsubscribe(eventType Type, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribed handlers. Handlers run
// synchronously on the publishing goroutine.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	subs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(event)
	}
}

// FlightEvent carries the aircraft situation at the tick an event fired.
type FlightEvent struct {
	BaseEvent
	Tick     uint64
	Position mgl64.Vec3
	Speed    float64
	Pitch    float64
}

// NewFlightEvent creates a new flight event
func NewFlightEvent(eventType Type, source interface{}, tick uint64, position mgl64.Vec3, speed, pitch float64) *FlightEvent {
	return &FlightEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		Tick:     tick,
		Position: position,
		Speed:    speed,
		Pitch:    pitch,
	}
}

// LifecycleEvent reports a simulation session starting, loading or stopping.
type LifecycleEvent struct {
	BaseEvent
	SessionID string
	Reason    string
}

// NewLifecycleEvent creates a new lifecycle event
func NewLifecycleEvent(eventType Type, source interface{}, sessionID, reason string) *LifecycleEvent {
	return &LifecycleEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		SessionID: sessionID,
		Reason:    reason,
	}
}

// RecorderEvent reports a change in the flight recorder's breaker state.
type RecorderEvent struct {
	BaseEvent
	From string
	To   string
}

// NewRecorderEvent creates a new recorder event
func NewRecorderEvent(source interface{}, from, to string) *RecorderEvent {
	return &RecorderEvent{
		BaseEvent: BaseEvent{
			EventType: RecorderTripped,
			Source:    source,
		},
		From: from,
		To:   to,
	}
}
