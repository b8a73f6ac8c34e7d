package activity

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/task-tracker/events"
	"github.com/go-monolith/mono/pkg/types"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

func TestFeedStore_RecentIsNewestFirst(t *testing.T) {
	store := NewFeedStore(10)
	for i := 0; i < 3; i++ {
		store.Record("alice", Entry{Kind: KindTaskCreated, TaskID: fmt.Sprint(i)})
	}

	got := store.Recent("alice", 0)
	if len(got) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(got))
	}
	for i, want := range []string{"2", "1", "0"} {
		if got[i].TaskID != want {
			t.Errorf("entries[%d].TaskID = %s, want %s", i, got[i].TaskID, want)
		}
	}

	if got := store.Recent("alice", 2); len(got) != 2 || got[0].TaskID != "2" {
		t.Errorf("Recent(2) = %+v, want the two newest", got)
	}
}

func TestFeedStore_IsBounded(t *testing.T) {
	store := NewFeedStore(DefaultFeedSize)
	for i := 0; i < DefaultFeedSize+25; i++ {
		store.Record("alice", Entry{Kind: KindTaskCreated, TaskID: fmt.Sprint(i)})
	}

	got := store.Recent("alice", 0)
	if len(got) != DefaultFeedSize {
		t.Fatalf("Expected %d entries, got %d", DefaultFeedSize, len(got))
	}
	if want := fmt.Sprint(DefaultFeedSize + 24); got[0].TaskID != want {
		t.Errorf("newest = %s, want %s", got[0].TaskID, want)
	}
	if want := "25"; got[len(got)-1].TaskID != want {
		t.Errorf("oldest = %s, want %s", got[len(got)-1].TaskID, want)
	}
}

func TestFeedStore_IgnoresMissingUser(t *testing.T) {
	store := NewFeedStore(5)
	store.Record("", Entry{Kind: KindSignedIn})
	if store.Users() != 0 {
		t.Errorf("Expected no feeds, got %d", store.Users())
	}
	if got := store.Recent("nobody", 5); len(got) != 0 {
		t.Errorf("Expected empty feed, got %+v", got)
	}
}

func TestFeedStore_ConcurrentRecord(t *testing.T) {
	store := NewFeedStore(1000)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Record("alice", Entry{Kind: KindTaskEdited})
		}()
	}
	wg.Wait()

	if got := len(store.Recent("alice", 0)); got != 100 {
		t.Errorf("Expected 100 entries, got %d", got)
	}
}

func TestModule_RecordsEventsPerUser(t *testing.T) {
	m := NewModule(&mockLogger{})
	ctx := context.Background()
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	m.handleSignedIn(ctx, events.UserSignedInEvent{UserID: "alice", Timestamp: at}, nil)
	m.handleTaskCreated(ctx, events.TaskCreatedEvent{UserID: "alice", TaskID: "t1", Title: "Buy milk", Timestamp: at}, nil)
	m.handleTaskToggled(ctx, events.TaskToggledEvent{UserID: "alice", TaskID: "t1", Title: "Buy milk", Completed: true, Timestamp: at}, nil)
	m.handleTaskEdited(ctx, events.TaskEditedEvent{UserID: "alice", TaskID: "t1", Title: "Buy oat milk", Timestamp: at}, nil)
	m.handleTaskDeleted(ctx, events.TaskDeletedEvent{UserID: "alice", TaskID: "t1", Timestamp: at}, nil)
	m.handleTasksCleared(ctx, events.TasksClearedEvent{UserID: "alice", Removed: 4, Timestamp: at}, nil)
	m.handleSignedOut(ctx, events.UserSignedOutEvent{UserID: "alice", Timestamp: at}, nil)
	m.handleTaskCreated(ctx, events.TaskCreatedEvent{UserID: "bob", TaskID: "t2", Timestamp: at}, nil)

	resp, err := m.listActivity(ctx, ListActivityRequest{UserID: "alice"}, nil)
	if err != nil {
		t.Fatalf("listActivity() error = %v", err)
	}

	wantKinds := []string{KindSignedOut, KindTasksCleared, KindTaskDeleted, KindTaskEdited, KindTaskToggled, KindTaskCreated, KindSignedIn}
	if len(resp.Entries) != len(wantKinds) {
		t.Fatalf("Expected %d entries, got %d", len(wantKinds), len(resp.Entries))
	}
	for i, want := range wantKinds {
		if resp.Entries[i].Kind != want {
			t.Errorf("entries[%d].Kind = %s, want %s", i, resp.Entries[i].Kind, want)
		}
	}
	if resp.Entries[1].Detail != "4 removed" {
		t.Errorf("clear detail = %q, want %q", resp.Entries[1].Detail, "4 removed")
	}
	if resp.Entries[4].Detail != "completed" {
		t.Errorf("toggle detail = %q, want %q", resp.Entries[4].Detail, "completed")
	}

	if _, err := m.listActivity(ctx, ListActivityRequest{}, nil); err == nil {
		t.Error("Expected error for missing user id")
	}
}
