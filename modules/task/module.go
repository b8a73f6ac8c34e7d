package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/example/task-tracker/config"
	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/events"
	"github.com/example/task-tracker/modules/cache"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/middleware/requestid"
	"github.com/go-monolith/mono/pkg/helper"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TaskModule owns every user's task collection.
type TaskModule struct {
	storeMode   string
	dbPath      string
	kv          *kvjetstream.PluginModule
	cachePlugin *cache.PluginModule
	eventBus    mono.EventBus
	db          *gorm.DB
	persistence Persistence
	service     *Service
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*TaskModule)(nil)
	_ mono.ServiceProviderModule = (*TaskModule)(nil)
	_ mono.EventEmitterModule    = (*TaskModule)(nil)
	_ mono.EventConsumerModule   = (*TaskModule)(nil)
	_ mono.UsePluginModule       = (*TaskModule)(nil)
	_ mono.HealthCheckableModule = (*TaskModule)(nil)
)

// NewModule creates a TaskModule persisting through storeMode
// (config.TaskStoreKV or config.TaskStoreSQLite). dbPath is only used in
// SQLite mode.
func NewModule(storeMode, dbPath string) *TaskModule {
	return &TaskModule{
		storeMode: storeMode,
		dbPath:    dbPath,
	}
}

// Name returns the module name.
func (m *TaskModule) Name() string {
	return "task"
}

// SetPlugin receives the kv and cache plugins.
func (m *TaskModule) SetPlugin(alias string, plugin mono.PluginModule) {
	switch alias {
	case "kv":
		if kv, ok := plugin.(*kvjetstream.PluginModule); ok {
			m.kv = kv
		}
	case "cache":
		if c, ok := plugin.(*cache.PluginModule); ok {
			m.cachePlugin = c
			log.Println("[task] Cache plugin injected")
		}
	}
}

// SetEventBus receives the EventBus from the framework.
func (m *TaskModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *TaskModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.TaskCreatedV1.ToBase(),
		events.TaskToggledV1.ToBase(),
		events.TaskEditedV1.ToBase(),
		events.TaskDeletedV1.ToBase(),
		events.TasksClearedV1.ToBase(),
	}
}

// RegisterEventConsumers unloads a user's tasks when they sign out.
func (m *TaskModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.UserSignedOutV1, m.handleUserSignedOut, m); err != nil {
		return fmt.Errorf("failed to register UserSignedOut consumer: %w", err)
	}
	log.Printf("[task] Registered event consumers: UserSignedOut")
	return nil
}

// Start opens the configured persistence and starts the saver.
func (m *TaskModule) Start(_ context.Context) error {
	p, err := m.openPersistence()
	if err != nil {
		return err
	}
	m.persistence = p

	opts := []ServiceOption{WithPublisher(newEventPublisher(m.eventBus))}
	if m.cachePlugin != nil && m.cachePlugin.Stats() != nil {
		opts = append(opts, WithStatsCache(m.cachePlugin.Stats()))
	}
	if m.eventBus == nil {
		log.Println("[task] Warning: eventBus not set, events will not be published")
	}
	m.service = NewService(p, opts...)

	log.Printf("[task] Module started (persistence: %s, stats cache: %t)", p.Name(), m.cachePlugin != nil)
	return nil
}

func (m *TaskModule) openPersistence() (Persistence, error) {
	switch m.storeMode {
	case config.TaskStoreSQLite:
		if dir := filepath.Dir(m.dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		m.db = db
		p := NewSQLPersistence(db)
		if err := p.Migrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return p, nil

	case config.TaskStoreKV, "":
		if m.kv == nil {
			return nil, fmt.Errorf("required plugin 'kv' not registered")
		}
		bucket := m.kv.Bucket(TasksBucket)
		if bucket == nil {
			return nil, fmt.Errorf("bucket '%s' not found in KV plugin", TasksBucket)
		}
		return NewKVPersistence(bucket), nil

	default:
		return nil, fmt.Errorf("unknown task store %q", m.storeMode)
	}
}

// Stop drains pending saves and closes the database.
func (m *TaskModule) Stop(ctx context.Context) error {
	var err error
	if m.service != nil {
		if err = m.service.Close(ctx); err != nil {
			log.Printf("[task] Pending saves not flushed: %v", err)
		}
	}
	if m.db != nil {
		if sqlDB, dbErr := m.db.DB(); dbErr == nil {
			sqlDB.Close()
		}
	}
	log.Println("[task] Module stopped")
	return err
}

// Health returns the health status of the module.
func (m *TaskModule) Health(ctx context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "service not initialized",
		}
	}

	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			return mono.HealthStatus{
				Healthy: false,
				Message: fmt.Sprintf("database ping failed: %v", err),
			}
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"persistence":  m.persistence.Name(),
			"active_users": m.service.ActiveUsers(),
			"stats_cache":  m.cachePlugin != nil,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *TaskModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "add-task", json.Unmarshal, json.Marshal, m.addTask,
	); err != nil {
		return fmt.Errorf("failed to register add-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "toggle-task", json.Unmarshal, json.Marshal, m.toggleTask,
	); err != nil {
		return fmt.Errorf("failed to register toggle-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "edit-task", json.Unmarshal, json.Marshal, m.editTask,
	); err != nil {
		return fmt.Errorf("failed to register edit-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-task", json.Unmarshal, json.Marshal, m.deleteTask,
	); err != nil {
		return fmt.Errorf("failed to register delete-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "clear-tasks", json.Unmarshal, json.Marshal, m.clearTasks,
	); err != nil {
		return fmt.Errorf("failed to register clear-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-task", json.Unmarshal, json.Marshal, m.getTask,
	); err != nil {
		return fmt.Errorf("failed to register get-task service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-tasks", json.Unmarshal, json.Marshal, m.listTasks,
	); err != nil {
		return fmt.Errorf("failed to register list-tasks service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "task-stats", json.Unmarshal, json.Marshal, m.taskStats,
	); err != nil {
		return fmt.Errorf("failed to register task-stats service: %w", err)
	}

	log.Printf("[task] Registered services: add-task, toggle-task, edit-task, delete-task, clear-tasks, get-task, list-tasks, task-stats")
	return nil
}

func (m *TaskModule) addTask(ctx context.Context, req AddTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Add(ctx, req.UserID, req.Title, req.Description)
	if err != nil {
		return TaskResponse{}, toServiceError(ctx, err)
	}
	return TaskResponse{Task: t}, nil
}

func (m *TaskModule) toggleTask(ctx context.Context, req TaskRefRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Toggle(ctx, req.UserID, req.TaskID)
	if err != nil {
		return TaskResponse{}, toServiceError(ctx, err)
	}
	return TaskResponse{Task: t}, nil
}

func (m *TaskModule) editTask(ctx context.Context, req EditTaskRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Edit(ctx, req.UserID, req.TaskID, req.Title, req.Description)
	if err != nil {
		return TaskResponse{}, toServiceError(ctx, err)
	}
	return TaskResponse{Task: t}, nil
}

func (m *TaskModule) deleteTask(ctx context.Context, req TaskRefRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	deleted, err := m.service.Delete(ctx, req.UserID, req.TaskID)
	if err != nil {
		return DeleteTaskResponse{}, toServiceError(ctx, err)
	}
	return DeleteTaskResponse{Deleted: deleted}, nil
}

func (m *TaskModule) clearTasks(ctx context.Context, req UserRequest, _ *mono.Msg) (ClearTasksResponse, error) {
	removed, err := m.service.Clear(ctx, req.UserID)
	if err != nil {
		return ClearTasksResponse{}, toServiceError(ctx, err)
	}
	return ClearTasksResponse{Removed: removed}, nil
}

func (m *TaskModule) getTask(ctx context.Context, req TaskRefRequest, _ *mono.Msg) (TaskResponse, error) {
	t, err := m.service.Get(ctx, req.UserID, req.TaskID)
	if err != nil {
		return TaskResponse{}, toServiceError(ctx, err)
	}
	return TaskResponse{Task: t}, nil
}

func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	resp, err := m.service.List(ctx, req)
	if err != nil {
		return ListTasksResponse{}, toServiceError(ctx, err)
	}
	return resp, nil
}

func (m *TaskModule) taskStats(ctx context.Context, req UserRequest, _ *mono.Msg) (StatsResponse, error) {
	stats, cached, err := m.service.Stats(ctx, req.UserID)
	if err != nil {
		return StatsResponse{}, toServiceError(ctx, err)
	}
	return StatsResponse{Stats: stats, Cached: cached}, nil
}

func (m *TaskModule) handleUserSignedOut(_ context.Context, event events.UserSignedOutEvent, _ *mono.Msg) error {
	m.service.SignOut(event.UserID)
	return nil
}

// toServiceError flattens domain errors into messages the API can match
// after they cross the request-reply boundary. Other errors are logged
// with the request id.
func toServiceError(ctx context.Context, err error) error {
	var ve *task.ValidationError
	if errors.As(err, &ve) {
		return fmt.Errorf("%s%s", ValidationErrorPrefix, ve.Message)
	}
	if errors.Is(err, task.ErrNotFound) {
		return task.ErrNotFound
	}
	log.Printf("[task] Request %s failed: %v", requestid.GetRequestID(ctx), err)
	return err
}
