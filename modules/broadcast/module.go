// Package broadcast pushes task change notifications to websocket clients.
package broadcast

import (
	"context"
	"fmt"
	"time"

	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Notification types sent to clients.
const (
	TypeTaskCreated  = "task_created"
	TypeTaskToggled  = "task_toggled"
	TypeTaskEdited   = "task_edited"
	TypeTaskDeleted  = "task_deleted"
	TypeTasksCleared = "tasks_cleared"
)

// Notification tells a client that its collection changed and the view
// should be derived again.
type Notification struct {
	Type   string    `json:"type"`
	TaskID string    `json:"taskId,omitempty"`
	UserID string    `json:"userId"`
	At     time.Time `json:"at"`
}

// BroadcastModule consumes task events and forwards them to the hub.
type BroadcastModule struct {
	hub       *Hub
	cancelHub context.CancelFunc
	logger    types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule.
func NewModule(logger types.Logger) *BroadcastModule {
	logger = logger.WithModule("broadcast")
	return &BroadcastModule{
		hub:    NewHub(logger),
		logger: logger,
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start starts the hub.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	m.logger.Info("Module started, websocket hub running")
	return nil
}

// Stop closes every connection and waits for the hub.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	m.logger.Info("Module stopped", "connected_clients", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers subscribes to every task event.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
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

	m.logger.Info("Registered event consumers", "events", "TaskCreated, TaskToggled, TaskEdited, TaskDeleted, TasksCleared")
	return nil
}

func (m *BroadcastModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.notify(TypeTaskCreated, event.UserID, event.TaskID, event.Timestamp)
	return nil
}

func (m *BroadcastModule) handleTaskToggled(_ context.Context, event events.TaskToggledEvent, _ *mono.Msg) error {
	m.notify(TypeTaskToggled, event.UserID, event.TaskID, event.Timestamp)
	return nil
}

func (m *BroadcastModule) handleTaskEdited(_ context.Context, event events.TaskEditedEvent, _ *mono.Msg) error {
	m.notify(TypeTaskEdited, event.UserID, event.TaskID, event.Timestamp)
	return nil
}

func (m *BroadcastModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.notify(TypeTaskDeleted, event.UserID, event.TaskID, event.Timestamp)
	return nil
}

func (m *BroadcastModule) handleTasksCleared(_ context.Context, event events.TasksClearedEvent, _ *mono.Msg) error {
	m.notify(TypeTasksCleared, event.UserID, "", event.Timestamp)
	return nil
}

func (m *BroadcastModule) notify(kind, userID, taskID string, at time.Time) {
	if m.hub.RoomClientCount(userID) == 0 {
		return
	}
	m.hub.Broadcast(userID, Notification{
		Type:   kind,
		TaskID: taskID,
		UserID: userID,
		At:     at,
	})
}

// GetHub returns the hub for the API module's websocket endpoint.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}
