// Package events carries in-process notifications about committed writes,
// such as a lead changing status, to the modules that keep derived state.
package events

import (
	"context"
	"time"
)

// Event is a fact published after the write it describes has committed.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent holds the commit time shared by every event.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt implements Event.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with at, normalized to UTC. Publishers pass
// their own clock so that event times agree with the rows they describe.
func NewBaseEvent(at time.Time) BaseEvent {
	return BaseEvent{Timestamp: at.UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus delivers events by name. Publish is fire-and-forget; PublishSync
// returns the joined handler errors.
type Bus interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}

// SubscribeAll registers handler for each of the given events.
func SubscribeAll(bus Bus, handler Handler, subjects ...Event) {
	for _, subject := range subjects {
		bus.Subscribe(subject.EventName(), handler)
	}
}
