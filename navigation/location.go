// Package navigation tracks the logical location of a client and keeps
// signed-out users away from task views.
package navigation

import (
	"strings"
	"sync"
)

// Location is the current logical location of a client.
type Location interface {
	Current() string
	Navigate(path string)
	OnChange(fn func(path string)) (unsubscribe func())
}

// MemoryLocation is a Location held in memory.
type MemoryLocation struct {
	mu        sync.Mutex
	path      string
	listeners map[int]func(string)
	nextID    int
}

var _ Location = (*MemoryLocation)(nil)

// NewMemoryLocation creates a location starting at path.
func NewMemoryLocation(path string) *MemoryLocation {
	return &MemoryLocation{
		path:      normalize(path),
		listeners: make(map[int]func(string)),
	}
}

// Current returns the current path.
func (l *MemoryLocation) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// Navigate moves to path and notifies listeners when the path changed.
// Listeners run after the lock is released and may navigate again.
func (l *MemoryLocation) Navigate(path string) {
	path = normalize(path)

	l.mu.Lock()
	if path == l.path {
		l.mu.Unlock()
		return
	}
	l.path = path
	listeners := make([]func(string), 0, len(l.listeners))
	for id := 0; id < l.nextID; id++ {
		if fn, ok := l.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(path)
	}
}

// OnChange registers fn for path changes.
func (l *MemoryLocation) OnChange(fn func(path string)) (unsubscribe func()) {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.listeners, id)
			l.mu.Unlock()
		})
	}
}

func normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
