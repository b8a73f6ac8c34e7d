package task

import "github.com/example/task-tracker/domain/task"

// ValidationErrorPrefix marks validation failures in errors that cross the
// request-reply boundary as plain strings.
const ValidationErrorPrefix = "validation failed: "

// AddTaskRequest represents a request to add a task.
type AddTaskRequest struct {
	UserID      string `json:"user_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TaskRefRequest identifies one task of a user.
type TaskRefRequest struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
}

// EditTaskRequest represents a request to replace a task's text.
type EditTaskRequest struct {
	UserID      string `json:"user_id"`
	TaskID      string `json:"task_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// UserRequest identifies a user's whole collection.
type UserRequest struct {
	UserID string `json:"user_id"`
}

// ListTasksRequest carries the derived view parameters. Date is YYYY-MM-DD,
// Time is HH:MM and TZ an IANA zone name (UTC when empty).
type ListTasksRequest struct {
	UserID string `json:"user_id"`
	Search string `json:"search,omitempty"`
	Sort   string `json:"sort,omitempty"`
	Date   string `json:"date,omitempty"`
	Time   string `json:"time,omitempty"`
	TZ     string `json:"tz,omitempty"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task task.Task `json:"task"`
}

// DeleteTaskResponse reports whether a task was removed.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
}

// ClearTasksResponse reports how many tasks were removed.
type ClearTasksResponse struct {
	Removed int `json:"removed"`
}

// ListTasksResponse is the derived view of a collection.
type ListTasksResponse struct {
	Tasks           []task.Task `json:"tasks"`
	Total           int         `json:"total"`
	CollectionEmpty bool        `json:"collectionEmpty"`
	Filtered        bool        `json:"filtered"`
}

// StatsResponse is a collection summary.
type StatsResponse struct {
	task.Stats
	Cached bool `json:"cached"`
}
