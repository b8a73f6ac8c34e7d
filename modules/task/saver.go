package task

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/task-tracker/domain/task"
)

const (
	defaultSaveQueueSize = 256
	defaultSaveTimeout   = 10 * time.Second
)

type saveJob struct {
	userID string
	tasks  []task.Task
}

// Saver writes snapshots through a Persistence on a single goroutine, so
// snapshots are saved in the order they were queued. Save failures are
// logged and never reported to the caller that queued them.
type Saver struct {
	persistence Persistence
	queue       chan saveJob
	done        chan struct{}
	timeout     time.Duration

	mu      sync.RWMutex
	started bool
	closed  bool

	// pending counts queued snapshots per user; idle is closed when a
	// user's count drops to zero.
	pendingMu sync.Mutex
	pending   map[string]int
	idle      map[string]chan struct{}
}

// NewSaver creates a Saver with a queue of the given size.
func NewSaver(p Persistence, size int) *Saver {
	if size <= 0 {
		size = defaultSaveQueueSize
	}
	return &Saver{
		persistence: p,
		queue:       make(chan saveJob, size),
		done:        make(chan struct{}),
		timeout:     defaultSaveTimeout,
		pending:     make(map[string]int),
		idle:        make(map[string]chan struct{}),
	}
}

// Start launches the writer goroutine.
func (s *Saver) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.closed {
		return
	}
	s.started = true
	go s.run()
}

// Enqueue queues a snapshot for saving. It returns false once the saver is
// stopped.
func (s *Saver) Enqueue(userID string, tasks []task.Task) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		log.Printf("[task] Dropping save for user %s: saver stopped", userID)
		return false
	}
	s.pendingMu.Lock()
	s.pending[userID]++
	s.pendingMu.Unlock()

	s.queue <- saveJob{userID: userID, tasks: tasks}
	return true
}

// Flush waits until every snapshot queued for userID has been written.
func (s *Saver) Flush(ctx context.Context, userID string) error {
	s.pendingMu.Lock()
	if s.pending[userID] == 0 {
		s.pendingMu.Unlock()
		return nil
	}
	idle, ok := s.idle[userID]
	if !ok {
		idle = make(chan struct{})
		s.idle[userID] = idle
	}
	s.pendingMu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for pending saves of user %s: %w", userID, ctx.Err())
	}
}

func (s *Saver) markSaved(userID string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.pending[userID]--
	if s.pending[userID] > 0 {
		return
	}
	delete(s.pending, userID)
	if idle, ok := s.idle[userID]; ok {
		close(idle)
		delete(s.idle, userID)
	}
}

// Stop stops accepting snapshots and waits until the queue is drained or
// ctx is done.
func (s *Saver) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
		if !s.started {
			close(s.done)
		}
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Saver) run() {
	defer close(s.done)
	for job := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		if err := s.persistence.Save(ctx, job.userID, job.tasks); err != nil {
			log.Printf("[task] Failed to save %d tasks for user %s: %v", len(job.tasks), job.userID, err)
		}
		cancel()
		s.markSaved(job.userID)
	}
}
