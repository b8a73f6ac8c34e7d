package task

import "time"

// Task is the core domain entity representing a todo item.
// Timestamps are milliseconds since the Unix epoch.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Completed   bool   `json:"completed"`
	CreatedAt   int64  `json:"createdAt"`
	UpdatedAt   int64  `json:"updatedAt"`
}

// CreatedTime returns CreatedAt as a time.Time in loc.
func (t Task) CreatedTime(loc *time.Location) time.Time {
	return time.UnixMilli(t.CreatedAt).In(loc)
}

// UpdatedTime returns UpdatedAt as a time.Time in loc.
func (t Task) UpdatedTime(loc *time.Location) time.Time {
	return time.UnixMilli(t.UpdatedAt).In(loc)
}

// ChangeKind identifies which mutation produced a Change.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeToggled ChangeKind = "toggled"
	ChangeEdited  ChangeKind = "edited"
	ChangeDeleted ChangeKind = "deleted"
	ChangeCleared ChangeKind = "cleared"
	ChangeLoaded  ChangeKind = "loaded"
)

// Change describes a single applied mutation. Task is the affected task for
// per-task changes; Removed is the number of tasks dropped by a clear.
type Change struct {
	Kind    ChangeKind
	Task    Task
	Removed int
}
