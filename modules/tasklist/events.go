package tasklist

import (
	"github.com/example/tidytasks/events"
	"github.com/go-monolith/mono"
)

// EventPublisher delivers task events to interested modules.
type EventPublisher interface {
	TaskAssigned(evt events.TaskAssignedEvent) error
	TaskCompleted(evt events.TaskCompletedEvent) error
	TaskDeleted(evt events.TaskDeletedEvent) error
}

type busPublisher struct {
	bus mono.EventBus
}

// NewBusPublisher publishes typed events on the mono event bus.
func NewBusPublisher(bus mono.EventBus) EventPublisher {
	if bus == nil {
		return nopPublisher{}
	}
	return &busPublisher{bus: bus}
}

func (p *busPublisher) TaskAssigned(evt events.TaskAssignedEvent) error {
	return events.TaskAssignedV1.Publish(p.bus, evt, nil)
}

func (p *busPublisher) TaskCompleted(evt events.TaskCompletedEvent) error {
	return events.TaskCompletedV1.Publish(p.bus, evt, nil)
}

func (p *busPublisher) TaskDeleted(evt events.TaskDeletedEvent) error {
	return events.TaskDeletedV1.Publish(p.bus, evt, nil)
}

type nopPublisher struct{}

func (nopPublisher) TaskAssigned(events.TaskAssignedEvent) error   { return nil }
func (nopPublisher) TaskCompleted(events.TaskCompletedEvent) error { return nil }
func (nopPublisher) TaskDeleted(events.TaskDeletedEvent) error     { return nil }
