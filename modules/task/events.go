package task

import (
	"log"
	"time"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
)

// eventPublisher turns store changes into task events on the bus.
type eventPublisher struct {
	bus mono.EventBus
	now func() time.Time
}

func newEventPublisher(bus mono.EventBus) *eventPublisher {
	return &eventPublisher{bus: bus, now: time.Now}
}

// PublishChange emits the event matching c. Failures are logged only.
func (p *eventPublisher) PublishChange(userID string, c task.Change) {
	if p.bus == nil {
		return
	}

	now := p.now()
	var err error
	switch c.Kind {
	case task.ChangeCreated:
		err = events.TaskCreatedV1.Publish(p.bus, events.TaskCreatedEvent{
			UserID: userID, TaskID: c.Task.ID, Title: c.Task.Title, Timestamp: now,
		}, nil)
	case task.ChangeToggled:
		err = events.TaskToggledV1.Publish(p.bus, events.TaskToggledEvent{
			UserID: userID, TaskID: c.Task.ID, Title: c.Task.Title, Completed: c.Task.Completed, Timestamp: now,
		}, nil)
	case task.ChangeEdited:
		err = events.TaskEditedV1.Publish(p.bus, events.TaskEditedEvent{
			UserID: userID, TaskID: c.Task.ID, Title: c.Task.Title, Timestamp: now,
		}, nil)
	case task.ChangeDeleted:
		err = events.TaskDeletedV1.Publish(p.bus, events.TaskDeletedEvent{
			UserID: userID, TaskID: c.Task.ID, Timestamp: now,
		}, nil)
	case task.ChangeCleared:
		err = events.TasksClearedV1.Publish(p.bus, events.TasksClearedEvent{
			UserID: userID, Removed: c.Removed, Timestamp: now,
		}, nil)
	default:
		return
	}

	if err != nil {
		log.Printf("[task] Failed to publish %s event for user %s: %v", c.Kind, userID, err)
	}
}
