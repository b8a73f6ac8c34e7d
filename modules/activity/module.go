// Package activity keeps a short per-user history of task and session events.
package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module consumes task and auth events and serves the resulting feed.
type Module struct {
	store  *FeedStore
	logger types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.EventConsumerModule   = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
)

// NewModule creates a new activity module.
func NewModule(logger types.Logger) *Module {
	return &Module{
		store:  NewFeedStore(DefaultFeedSize),
		logger: logger.WithModule("activity"),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "activity"
}

// RegisterEventConsumers registers event handlers for task and auth events.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskToggledV1, m.handleTaskToggled, m); err != nil {
		return fmt.Errorf("failed to register TaskToggled consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskEditedV1, m.handleTaskEdited, m); err != nil {
		return fmt.Errorf("failed to register TaskEdited consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TasksClearedV1, m.handleTasksCleared, m); err != nil {
		return fmt.Errorf("failed to register TasksCleared consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserSignedInV1, m.handleSignedIn, m); err != nil {
		return fmt.Errorf("failed to register UserSignedIn consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.UserSignedOutV1, m.handleSignedOut, m); err != nil {
		return fmt.Errorf("failed to register UserSignedOut consumer: %w", err)
	}

	m.logger.Info("Registered event consumers",
		"events", []string{"TaskCreated.v1", "TaskToggled.v1", "TaskEdited.v1", "TaskDeleted.v1", "TasksCleared.v1", "UserSignedIn.v1", "UserSignedOut.v1"})
	return nil
}

func (m *Module) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.store.Record(event.UserID, Entry{Kind: KindTaskCreated, TaskID: event.TaskID, Title: event.Title, At: event.Timestamp})
	return nil
}

func (m *Module) handleTaskToggled(_ context.Context, event events.TaskToggledEvent, _ *mono.Msg) error {
	detail := "reopened"
	if event.Completed {
		detail = "completed"
	}
	m.store.Record(event.UserID, Entry{Kind: KindTaskToggled, TaskID: event.TaskID, Title: event.Title, Detail: detail, At: event.Timestamp})
	return nil
}

func (m *Module) handleTaskEdited(_ context.Context, event events.TaskEditedEvent, _ *mono.Msg) error {
	m.store.Record(event.UserID, Entry{Kind: KindTaskEdited, TaskID: event.TaskID, Title: event.Title, At: event.Timestamp})
	return nil
}

func (m *Module) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.store.Record(event.UserID, Entry{Kind: KindTaskDeleted, TaskID: event.TaskID, At: event.Timestamp})
	return nil
}

func (m *Module) handleTasksCleared(_ context.Context, event events.TasksClearedEvent, _ *mono.Msg) error {
	m.store.Record(event.UserID, Entry{Kind: KindTasksCleared, Detail: fmt.Sprintf("%d removed", event.Removed), At: event.Timestamp})
	return nil
}

func (m *Module) handleSignedIn(_ context.Context, event events.UserSignedInEvent, _ *mono.Msg) error {
	m.store.Record(event.UserID, Entry{Kind: KindSignedIn, At: event.Timestamp})
	m.logger.Debug("Recorded sign-in", "user_id", event.UserID)
	return nil
}

func (m *Module) handleSignedOut(_ context.Context, event events.UserSignedOutEvent, _ *mono.Msg) error {
	m.store.Record(event.UserID, Entry{Kind: KindSignedOut, At: event.Timestamp})
	m.logger.Debug("Recorded sign-out", "user_id", event.UserID)
	return nil
}

// Start initializes the activity module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("Activity module started", "feed_size", DefaultFeedSize)
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("Activity module stopped", "users", m.store.Users())
	return nil
}

// RegisterServices registers this module's services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list-activity", json.Unmarshal, json.Marshal, m.listActivity,
	); err != nil {
		return fmt.Errorf("failed to register list-activity service: %w", err)
	}

	m.logger.Info("Registered activity services", "services", []string{"list-activity"})
	return nil
}

func (m *Module) listActivity(_ context.Context, req ListActivityRequest, _ *mono.Msg) (ListActivityResponse, error) {
	if req.UserID == "" {
		return ListActivityResponse{}, fmt.Errorf("user id is required")
	}
	return ListActivityResponse{Entries: m.store.Recent(req.UserID, req.Limit)}, nil
}
