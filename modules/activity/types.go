package activity

import (
	"sync"
	"time"
)

// DefaultFeedSize is the number of entries kept per user.
const DefaultFeedSize = 50

// Entry is one item of a user's activity feed.
type Entry struct {
	Kind   string    `json:"kind"`
	TaskID string    `json:"task_id,omitempty"`
	Title  string    `json:"title,omitempty"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// Feed kinds.
const (
	KindTaskCreated  = "task_created"
	KindTaskToggled  = "task_toggled"
	KindTaskEdited   = "task_edited"
	KindTaskDeleted  = "task_deleted"
	KindTasksCleared = "tasks_cleared"
	KindSignedIn     = "signed_in"
	KindSignedOut    = "signed_out"
)

// FeedStore keeps the most recent entries of every user in memory.
type FeedStore struct {
	mu    sync.RWMutex
	feeds map[string][]Entry
	size  int
}

// NewFeedStore creates a store keeping size entries per user.
func NewFeedStore(size int) *FeedStore {
	if size <= 0 {
		size = DefaultFeedSize
	}
	return &FeedStore{
		feeds: make(map[string][]Entry),
		size:  size,
	}
}

// Record appends e to the user's feed, dropping the oldest entries beyond
// the limit.
func (s *FeedStore) Record(userID string, e Entry) {
	if userID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	feed := append(s.feeds[userID], e)
	if excess := len(feed) - s.size; excess > 0 {
		feed = append([]Entry(nil), feed[excess:]...)
	}
	s.feeds[userID] = feed
}

// Recent returns up to limit entries, newest first. A limit <= 0 returns
// the whole feed.
func (s *FeedStore) Recent(userID string, limit int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	feed := s.feeds[userID]
	if limit <= 0 || limit > len(feed) {
		limit = len(feed)
	}
	out := make([]Entry, 0, limit)
	for i := len(feed) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, feed[i])
	}
	return out
}

// Users returns the number of users with a feed.
func (s *FeedStore) Users() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feeds)
}

// ListActivityRequest asks for a user's feed.
type ListActivityRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit,omitempty"`
}

// ListActivityResponse carries feed entries, newest first.
type ListActivityResponse struct {
	Entries []Entry `json:"entries"`
}
