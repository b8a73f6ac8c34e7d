package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/example/task-tracker/domain/preferences"
	"github.com/example/task-tracker/domain/task"
	"github.com/gofiber/fiber/v2"
)

// ListOptions are the view parameters of ListTasks.
type ListOptions struct {
	Search string
	Sort   string
	Date   string
	Time   string
	TZ     string
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	for key, value := range map[string]string{
		"search": o.Search,
		"sort":   o.Sort,
		"date":   o.Date,
		"time":   o.Time,
		"tz":     o.TZ,
	} {
		if value != "" {
			q.Set(key, value)
		}
	}
	return q
}

// TaskList is a derived view computed by the server.
type TaskList struct {
	Tasks           []task.Task `json:"tasks"`
	Total           int         `json:"total"`
	CollectionEmpty bool        `json:"collectionEmpty"`
	Filtered        bool        `json:"filtered"`
}

// Stats is the collection summary.
type Stats struct {
	task.Stats
	Cached bool `json:"cached"`
}

// ActivityEntry is one item of the activity feed.
type ActivityEntry struct {
	Kind   string    `json:"kind"`
	TaskID string    `json:"task_id,omitempty"`
	Title  string    `json:"title,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// PreferencesUpdate changes the non-nil fields only.
type PreferencesUpdate struct {
	Theme          *string `json:"theme,omitempty"`
	DisplayName    *string `json:"display_name,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// ListTasks returns the server-side view of the collection.
func (c *Client) ListTasks(ctx context.Context, opts ListOptions) (*TaskList, error) {
	token, err := c.authed()
	if err != nil {
		return nil, err
	}

	var resp TaskList
	if err := c.do(ctx, fiber.Get(c.url("/api/v1/tasks", opts.values())), token, &resp); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		resp.Tasks = []task.Task{}
	}
	return &resp, nil
}

// AllTasks returns the whole collection in insertion order.
func (c *Client) AllTasks(ctx context.Context) ([]task.Task, error) {
	list, err := c.ListTasks(ctx, ListOptions{Sort: string(task.SortCreatedAsc)})
	if err != nil {
		return nil, err
	}
	return list.Tasks, nil
}

// GetTask returns one task.
func (c *Client) GetTask(ctx context.Context, id string) (*task.Task, error) {
	token, err := c.authed()
	if err != nil {
		return nil, err
	}

	var resp task.Task
	if err := c.do(ctx, fiber.Get(c.url("/api/v1/tasks/"+url.PathEscape(id), nil)), token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTask adds a task.
func (c *Client) CreateTask(ctx context.Context, title, description string) (*task.Task, error) {
	token, err := c.authed()
	if err != nil {
		return nil, err
	}

	a := fiber.Post(c.url("/api/v1/tasks", nil)).JSON(fiber.Map{
		"title":       title,
		"description": description,
	})
	var resp task.Task
	if err := c.do(ctx, a, token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTask replaces the title and description of a task.
func (c *Client) UpdateTask(ctx context.Context, id, title, description string) (*task.Task, error) {
	token, err := c.authed()
	if err != nil {
		return nil, err
	}

	a := fiber.Put(c.url("/api/v1/tasks/"+url.PathEscape(id), nil)).JSON(fiber.Map{
		"title":       title,
		"description": description,
	})
	var resp task.Task
	if err := c.do(ctx, a, token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ToggleTask flips the completion flag of a task.
func (c *Client) ToggleTask(ctx context.Context, id string) (*task.Task, error) {
	token, err := c.authed()
	if err != nil {
		return nil, err
	}

	var resp task.Task
	if err := c.do(ctx, fiber.Post(c.url("/api/v1/tasks/"+url.PathEscape(id)+"/toggle", nil)), token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteTask removes a task. Deleting a missing task succeeds.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	token, err := c.authed()
	if err != nil {
		return err
	}
	return c.do(ctx, fiber.Delete(c.url("/api/v1/tasks/"+url.PathEscape(id), nil)), token, nil)
}

// ClearTasks removes every task and returns how many were removed.
func (c *Client) ClearTasks(ctx context.Context) (int, error) {
	token, err := c.authed()
	if err != nil {
		return 0, err
	}

	q := url.Values{"confirm": []string{strconv.FormatBool(true)}}
	var resp struct {
		Removed int `json:"removed"`
	}
	if err := c.do(ctx, fiber.Delete(c.url("/api/v1/tasks", q)), token, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// Stats returns the collection summary.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	token, err := c.authed()
	if err != nil {
		return nil, err
	}

	var resp Stats
	if err := c.do(ctx, fiber.Get(c.url("/api/v1/stats", nil)), token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Preferences returns the signed-in user's preferences.
func (c *Client) Preferences(ctx context.Context) (*preferences.Preferences, error) {
	token, err := c.authed()
	if err != nil {
		return nil, err
	}

	var resp preferences.Preferences
	if err := c.do(ctx, fiber.Get(c.url("/api/v1/preferences", nil)), token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdatePreferences applies a partial update.
func (c *Client) UpdatePreferences(ctx context.Context, update PreferencesUpdate) (*preferences.Preferences, error) {
	token, err := c.authed()
	if err != nil {
		return nil, err
	}

	var resp preferences.Preferences
	if err := c.do(ctx, fiber.Put(c.url("/api/v1/preferences", nil)).JSON(update), token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Activity returns up to limit recent feed entries, newest first.
func (c *Client) Activity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	token, err := c.authed()
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp struct {
		Entries []ActivityEntry `json:"entries"`
	}
	if err := c.do(ctx, fiber.Get(c.url("/api/v1/activity", q)), token, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// Health reports whether the server answers its health check.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var resp map[string]any
	if err := c.do(ctx, fiber.Get(c.url("/health", nil)), "", &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
