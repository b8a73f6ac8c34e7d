package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// TaskCreatedEvent is emitted when a task is added to a user's collection.
type TaskCreatedEvent struct {
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskToggledEvent is emitted when a task's completion flag flips.
type TaskToggledEvent struct {
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskEditedEvent is emitted when a task's title or description changes.
type TaskEditedEvent struct {
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskDeletedEvent is emitted when a task is removed. Repeated deletes of
// the same id do not emit.
type TaskDeletedEvent struct {
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id"`
	Timestamp time.Time `json:"timestamp"`
}

// TasksClearedEvent is emitted when a user's collection is emptied.
type TasksClearedEvent struct {
	UserID    string    `json:"user_id"`
	Removed   int       `json:"removed"`
	Timestamp time.Time `json:"timestamp"`
}

// Event definitions for the task domain.
var (
	TaskCreatedV1 = helper.EventDefinition[TaskCreatedEvent](
		"task",
		"TaskCreated",
		"v1",
	)

	TaskToggledV1 = helper.EventDefinition[TaskToggledEvent](
		"task",
		"TaskToggled",
		"v1",
	)

	TaskEditedV1 = helper.EventDefinition[TaskEditedEvent](
		"task",
		"TaskEdited",
		"v1",
	)

	TaskDeletedV1 = helper.EventDefinition[TaskDeletedEvent](
		"task",
		"TaskDeleted",
		"v1",
	)

	TasksClearedV1 = helper.EventDefinition[TasksClearedEvent](
		"task",
		"TasksCleared",
		"v1",
	)
)
