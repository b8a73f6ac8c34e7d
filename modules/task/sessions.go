package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/example/task-tracker/domain/task"
	"golang.org/x/sync/singleflight"
)

// loadTimeout bounds a shared load, which outlives the request that started it.
const loadTimeout = 30 * time.Second

// session is one user's in-memory collection. mu serialises a mutation with
// the snapshot queued after it.
type session struct {
	mu       sync.Mutex
	store    *task.Store
	stop     func()
	unloaded bool
}

// sessionTable holds the loaded collection of every active user.
type sessionTable struct {
	mu       sync.RWMutex
	sessions map[string]*session
	sfGroup  singleflight.Group

	persistence Persistence
	newStore    func() *task.Store
	onChange    func(userID string, c task.Change)
	// flush waits for the user's queued saves before a load.
	flush func(ctx context.Context, userID string) error
}

// newSessionTable creates an empty session table. onChange, when set, receives
// every change of every loaded store.
func newSessionTable(p Persistence, newStore func() *task.Store, onChange func(userID string, c task.Change)) *sessionTable {
	if newStore == nil {
		newStore = func() *task.Store { return task.NewStore() }
	}
	return &sessionTable{
		sessions:    make(map[string]*session),
		persistence: p,
		newStore:    newStore,
		onChange:    onChange,
	}
}

// Get returns the user's session, loading it through the persistence on
// first use. Concurrent first requests share one load, which is not
// cancelled when the caller that started it goes away.
func (s *sessionTable) Get(ctx context.Context, userID string) (*session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return sess, nil
	}

	ch := s.sfGroup.DoChan(userID, func() (any, error) {
		s.mu.RLock()
		existing, ok := s.sessions[userID]
		s.mu.RUnlock()
		if ok {
			return existing, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		if s.flush != nil {
			if err := s.flush(loadCtx, userID); err != nil {
				return nil, err
			}
		}
		tasks, err := s.persistence.Load(loadCtx, userID)
		if err != nil {
			return nil, err
		}

		store := s.newStore()
		store.Load(tasks)
		sess := &session{store: store, stop: func() {}}
		if s.onChange != nil {
			sess.stop = store.Subscribe(func(c task.Change) {
				s.onChange(userID, c)
			})
		}

		s.mu.Lock()
		s.sessions[userID] = sess
		s.mu.Unlock()
		return sess, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Unload removes the user's session. final runs under the session lock
// before the session leaves the table, so a later Get cannot load from
// persistence ahead of whatever final queues. It reports whether a session
// was loaded.
func (s *sessionTable) Unload(userID string, final func(*task.Store)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return false
	}

	sess.mu.Lock()
	sess.unloaded = true
	if final != nil {
		final(sess.store)
	}
	sess.mu.Unlock()

	delete(s.sessions, userID)
	sess.stop()
	return true
}

// Len returns the number of loaded sessions.
func (s *sessionTable) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
