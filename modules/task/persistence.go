package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/task-tracker/domain/task"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
)

// TasksBucket is the KV bucket holding one JSON task list per user.
const TasksBucket = "tasks"

// Persistence loads and saves a user's whole collection.
type Persistence interface {
	Load(ctx context.Context, userID string) ([]task.Task, error)
	Save(ctx context.Context, userID string, tasks []task.Task) error
	Name() string
}

// taskBucket is the subset of kvjetstream.KVStoragePort used for tasks.
type taskBucket interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
}

// KVPersistence stores each user's collection as a JSON array under the
// user id in a JetStream KV bucket.
type KVPersistence struct {
	bucket taskBucket
}

var _ Persistence = (*KVPersistence)(nil)

// NewKVPersistence creates a KV-backed Persistence.
func NewKVPersistence(bucket taskBucket) *KVPersistence {
	return &KVPersistence{bucket: bucket}
}

// Name identifies the backend in health reports.
func (p *KVPersistence) Name() string { return "kv" }

// Load returns the stored collection, or an empty one for a new user.
// The bucket reports a missing key as a nil value.
func (p *KVPersistence) Load(_ context.Context, userID string) ([]task.Task, error) {
	data, err := p.bucket.Get(userID)
	if err != nil {
		if errors.Is(err, kvjetstream.ErrKeyNotFound) {
			return []task.Task{}, nil
		}
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	if data == nil {
		return []task.Task{}, nil
	}

	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

// Save overwrites the stored collection.
func (p *KVPersistence) Save(_ context.Context, userID string, tasks []task.Task) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	if err := p.bucket.Set(userID, data, 0); err != nil {
		return fmt.Errorf("failed to save tasks: %w", err)
	}
	return nil
}
