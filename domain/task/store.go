package task

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store owns the ordered task collection of a single session.
// It performs no I/O; callers persist a Snapshot after each successful mutation.
type Store struct {
	tasks  []Task
	mu     sync.RWMutex
	now    func() time.Time
	newID  func() string
	subs   map[int]func(Change)
	nextID int
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the task ID generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore creates an empty Store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		tasks: make([]Task, 0),
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
		subs:  make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a new task and returns it.
func (s *Store) Add(title, description string) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}

	s.mu.Lock()
	now := s.now().UnixMilli()
	t := Task{
		ID:          s.uniqueID(),
		Title:       title,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks = append(s.tasks, t)
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, Change{Kind: ChangeCreated, Task: t})
	return t, nil
}

// ToggleCompleted flips the completed flag of the task with the given ID.
func (s *Store) ToggleCompleted(id string) (Task, error) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, ErrNotFound
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	s.touch(i)
	t := s.tasks[i]
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, Change{Kind: ChangeToggled, Task: t})
	return t, nil
}

// Edit replaces the title and description of the task with the given ID.
// The completed flag and creation time are left untouched.
func (s *Store) Edit(id, title, description string) (Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Task{}, ErrEmptyTitle
	}

	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Task{}, ErrNotFound
	}
	s.tasks[i].Title = title
	s.tasks[i].Description = strings.TrimSpace(description)
	s.touch(i)
	t := s.tasks[i]
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, Change{Kind: ChangeEdited, Task: t})
	return t, nil
}

// Delete removes the task with the given ID. Deleting an unknown ID is a no-op.
// It reports whether a task was removed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	t := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, Change{Kind: ChangeDeleted, Task: t})
	return true
}

// ClearAll empties the collection and returns the number of removed tasks.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	n := len(s.tasks)
	s.tasks = make([]Task, 0)
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, Change{Kind: ChangeCleared, Removed: n})
	return n
}

// Get returns a copy of the task with the given ID.
func (s *Store) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return Task{}, ErrNotFound
	}
	return s.tasks[i], nil
}

// Snapshot returns a copy of the collection in insertion order.
func (s *Store) Snapshot() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// IsEmpty reports whether the collection has no tasks.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Load replaces the collection, typically once at session start.
// Records with an empty or duplicate ID are dropped (first occurrence wins).
func (s *Store) Load(tasks []Task) {
	seen := make(map[string]struct{}, len(tasks))
	loaded := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		if t.UpdatedAt < t.CreatedAt {
			t.UpdatedAt = t.CreatedAt
		}
		loaded = append(loaded, t)
	}

	s.mu.Lock()
	s.tasks = loaded
	subs := s.subscribers()
	s.mu.Unlock()

	notify(subs, Change{Kind: ChangeLoaded})
}

// Subscribe registers fn to be called after every applied mutation.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// touch refreshes UpdatedAt, never letting it go below the previous value.
// Caller must hold the write lock.
func (s *Store) touch(i int) {
	now := s.now().UnixMilli()
	if now < s.tasks[i].UpdatedAt {
		now = s.tasks[i].UpdatedAt
	}
	s.tasks[i].UpdatedAt = now
}

// uniqueID returns a generated ID not already present. Caller must hold the lock.
func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if s.indexOf(id) < 0 {
			return id
		}
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) subscribers() []func(Change) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(Change), c Change) {
	for _, fn := range subs {
		fn(c)
	}
}
