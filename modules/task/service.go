package task

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/task-tracker/domain/task"
	"golang.org/x/sync/singleflight"
)

// StatsCache holds computed stats per user.
type StatsCache interface {
	Get(ctx context.Context, userID string) (task.Stats, bool, error)
	Put(ctx context.Context, userID string, stats task.Stats) error
	Invalidate(ctx context.Context, userID string) error
}

// ChangePublisher receives every change of every loaded collection.
type ChangePublisher interface {
	PublishChange(userID string, c task.Change)
}

// Service runs task operations against per-user stores. Every successful
// mutation queues a snapshot on the saver and invalidates cached stats.
type Service struct {
	sessions  *sessionTable
	saver     *Saver
	cache     StatsCache
	publisher ChangePublisher
	sfGroup   singleflight.Group
	// generations counts mutations per user (*atomic.Uint64), so stats
	// computed before a mutation are not written back to the cache.
	generations sync.Map
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithStatsCache enables cache-aside stats.
func WithStatsCache(c StatsCache) ServiceOption {
	return func(s *Service) { s.cache = c }
}

// WithPublisher forwards store changes to p.
func WithPublisher(p ChangePublisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

// WithStoreFactory overrides how new stores are created.
func WithStoreFactory(newStore func() *task.Store) ServiceOption {
	return func(s *Service) {
		s.sessions.newStore = newStore
	}
}

// NewService creates a Service over p and starts its saver.
func NewService(p Persistence, opts ...ServiceOption) *Service {
	s := &Service{saver: NewSaver(p, defaultSaveQueueSize)}
	s.sessions = newSessionTable(p, nil, s.forwardChange)
	s.sessions.flush = s.saver.Flush
	for _, opt := range opts {
		opt(s)
	}
	s.saver.Start()
	return s
}

func (s *Service) forwardChange(userID string, c task.Change) {
	if s.publisher == nil || c.Kind == task.ChangeLoaded {
		return
	}
	s.publisher.PublishChange(userID, c)
}

// Add creates a task in the user's collection.
func (s *Service) Add(ctx context.Context, userID, title, description string) (task.Task, error) {
	var created task.Task
	err := s.mutate(ctx, userID, func(store *task.Store) (bool, error) {
		t, err := store.Add(title, description)
		if err != nil {
			return false, err
		}
		created = t
		return true, nil
	})
	return created, err
}

// Toggle flips a task's completion flag.
func (s *Service) Toggle(ctx context.Context, userID, taskID string) (task.Task, error) {
	var toggled task.Task
	err := s.mutate(ctx, userID, func(store *task.Store) (bool, error) {
		t, err := store.ToggleCompleted(taskID)
		if err != nil {
			return false, err
		}
		toggled = t
		return true, nil
	})
	return toggled, err
}

// Edit replaces a task's title and description.
func (s *Service) Edit(ctx context.Context, userID, taskID, title, description string) (task.Task, error) {
	var edited task.Task
	err := s.mutate(ctx, userID, func(store *task.Store) (bool, error) {
		t, err := store.Edit(taskID, title, description)
		if err != nil {
			return false, err
		}
		edited = t
		return true, nil
	})
	return edited, err
}

// Delete removes a task. Deleting a missing task is not an error.
func (s *Service) Delete(ctx context.Context, userID, taskID string) (bool, error) {
	var deleted bool
	err := s.mutate(ctx, userID, func(store *task.Store) (bool, error) {
		deleted = store.Delete(taskID)
		return deleted, nil
	})
	return deleted, err
}

// Clear removes every task of the user.
func (s *Service) Clear(ctx context.Context, userID string) (int, error) {
	var removed int
	err := s.mutate(ctx, userID, func(store *task.Store) (bool, error) {
		removed = store.ClearAll()
		return removed > 0, nil
	})
	return removed, err
}

// Get returns one task.
func (s *Service) Get(ctx context.Context, userID, taskID string) (task.Task, error) {
	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return task.Task{}, err
	}
	return sess.store.Get(taskID)
}

// All returns the user's collection in insertion order.
func (s *Service) All(ctx context.Context, userID string) ([]task.Task, error) {
	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sess.store.Snapshot(), nil
}

// List derives the view described by req.
func (s *Service) List(ctx context.Context, req ListTasksRequest) (ListTasksResponse, error) {
	params, loc, err := ParseViewRequest(req)
	if err != nil {
		return ListTasksResponse{}, err
	}

	tasks, err := s.All(ctx, req.UserID)
	if err != nil {
		return ListTasksResponse{}, err
	}

	view := task.Derive(tasks, params, loc)
	return ListTasksResponse{
		Tasks:           view,
		Total:           len(tasks),
		CollectionEmpty: len(tasks) == 0,
		Filtered:        task.IsFilterActive(params),
	}, nil
}

// Stats summarises the user's collection, reading through the cache when
// one is configured.
func (s *Service) Stats(ctx context.Context, userID string) (task.Stats, bool, error) {
	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, userID)
		if err != nil {
			log.Printf("[task] Cache error for user %s stats: %v", userID, err)
		}
		if found {
			return cached, true, nil
		}
	}

	before := s.generation(userID).Load()
	val, err, _ := s.sfGroup.Do("stats:"+userID, func() (any, error) {
		tasks, err := s.All(context.WithoutCancel(ctx), userID)
		if err != nil {
			return nil, err
		}
		return task.ComputeStats(tasks), nil
	})
	if err != nil {
		return task.Stats{}, false, err
	}
	stats := val.(task.Stats)
	s.cacheStats(ctx, userID, before, stats)
	return stats, false, nil
}

// cacheStats stores stats computed at generation gen, unless the collection
// has changed since.
func (s *Service) cacheStats(ctx context.Context, userID string, gen uint64, stats task.Stats) {
	if s.cache == nil || s.generation(userID).Load() != gen {
		return
	}
	if err := s.cache.Put(ctx, userID, stats); err != nil {
		log.Printf("[task] Warning: failed to cache stats for user %s: %v", userID, err)
	}
}

// SignOut queues a final save for the user and unloads the collection.
// The next request reloads it once that save is written, so other signed-in
// sessions of the same user keep working on current data.
func (s *Service) SignOut(userID string) {
	unloaded := s.sessions.Unload(userID, func(store *task.Store) {
		s.saver.Enqueue(userID, store.Snapshot())
	})
	if unloaded {
		log.Printf("[task] Unloaded tasks for user %s", userID)
	}
}

// ActiveUsers returns the number of loaded collections.
func (s *Service) ActiveUsers() int {
	return s.sessions.Len()
}

// Close drains pending saves.
func (s *Service) Close(ctx context.Context) error {
	return s.saver.Stop(ctx)
}

// mutate runs fn under the user's session lock and, when fn reports a
// change, queues the resulting snapshot.
func (s *Service) mutate(ctx context.Context, userID string, fn func(*task.Store) (bool, error)) error {
	sess, err := s.lockSession(ctx, userID)
	if err != nil {
		return err
	}

	changed, err := fn(sess.store)
	if err == nil && changed {
		s.generation(userID).Add(1)
		s.saver.Enqueue(userID, sess.store.Snapshot())
	}
	sess.mu.Unlock()

	if err != nil {
		return err
	}
	if changed {
		s.invalidateStats(ctx, userID)
	}
	return nil
}

// lockSession returns the user's session with its lock held. A session
// unloaded between lookup and lock is skipped in favour of a fresh one.
func (s *Service) lockSession(ctx context.Context, userID string) (*session, error) {
	for {
		sess, err := s.sessions.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		sess.mu.Lock()
		if !sess.unloaded {
			return sess, nil
		}
		sess.mu.Unlock()
	}
}

func (s *Service) invalidateStats(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Printf("[task] Warning: failed to invalidate stats for user %s: %v", userID, err)
	}
}

func (s *Service) generation(userID string) *atomic.Uint64 {
	v, _ := s.generations.LoadOrStore(userID, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

// ParseViewRequest converts the string parameters of a list request into
// view parameters and the viewer's location.
func ParseViewRequest(req ListTasksRequest) (task.ViewParams, *time.Location, error) {
	sort, err := task.ParseSortOption(req.Sort)
	if err != nil {
		return task.ViewParams{}, nil, &task.ValidationError{Field: "sort", Message: err.Error()}
	}

	date, err := task.ParseDateFilter(req.Date, req.Time)
	if err != nil {
		return task.ViewParams{}, nil, &task.ValidationError{Field: "date", Message: err.Error()}
	}

	loc := time.UTC
	if tz := strings.TrimSpace(req.TZ); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return task.ViewParams{}, nil, &task.ValidationError{Field: "tz", Message: fmt.Sprintf("unknown time zone %q", tz)}
		}
	}

	return task.ViewParams{Search: req.Search, Sort: sort, Date: date}, loc, nil
}
