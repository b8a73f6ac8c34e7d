package task

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("task-%d", n)
	}
}

func newTestStore() (*Store, *fakeClock) {
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	return NewStore(WithClock(clock.Now), WithIDGenerator(sequentialIDs())), clock
}

func TestStore_Add(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		wantErr     error
		wantTitle   string
		wantDesc    string
	}{
		{name: "plain title", title: "Buy milk", wantTitle: "Buy milk"},
		{name: "trims title and description", title: "  Pay rent  ", description: "  monthly ", wantTitle: "Pay rent", wantDesc: "monthly"},
		{name: "empty title", title: "", wantErr: ErrEmptyTitle},
		{name: "whitespace title", title: "   ", wantErr: ErrEmptyTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, clock := newTestStore()

			got, err := store.Add(tt.title, tt.description)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Add() error = %v, want %v", err, tt.wantErr)
				}
				if !IsValidation(err) {
					t.Errorf("IsValidation(%v) = false, want true", err)
				}
				if store.Len() != 0 {
					t.Errorf("Len() = %d, want 0", store.Len())
				}
				return
			}
			if err != nil {
				t.Fatalf("Add() error = %v", err)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDesc)
			}
			if got.Completed {
				t.Error("Completed = true, want false")
			}
			if got.CreatedAt != clock.now.UnixMilli() || got.UpdatedAt != got.CreatedAt {
				t.Errorf("timestamps = (%d, %d), want both %d", got.CreatedAt, got.UpdatedAt, clock.now.UnixMilli())
			}
		})
	}
}

func TestStore_AddPreservesOrderAndUniqueIDs(t *testing.T) {
	store := NewStore()

	const n = 50
	for i := 0; i < n; i++ {
		if _, err := store.Add(fmt.Sprintf("task %d", i), ""); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	tasks := store.Snapshot()
	if len(tasks) != n {
		t.Fatalf("len = %d, want %d", len(tasks), n)
	}
	seen := make(map[string]bool, n)
	for i, task := range tasks {
		if seen[task.ID] {
			t.Fatalf("duplicate id %s", task.ID)
		}
		seen[task.ID] = true
		if want := fmt.Sprintf("task %d", i); task.Title != want {
			t.Errorf("tasks[%d].Title = %q, want %q", i, task.Title, want)
		}
	}
}

func TestStore_AddSkipsCollidingIDs(t *testing.T) {
	ids := []string{"a", "a", "b"}
	i := 0
	store := NewStore(WithIDGenerator(func() string {
		id := ids[i]
		i++
		return id
	}))

	first, _ := store.Add("one", "")
	second, _ := store.Add("two", "")

	if first.ID != "a" || second.ID != "b" {
		t.Errorf("ids = (%s, %s), want (a, b)", first.ID, second.ID)
	}
}

func TestStore_ToggleCompleted(t *testing.T) {
	store, clock := newTestStore()
	created, _ := store.Add("Buy milk", "")

	clock.Advance(time.Second)
	first, err := store.ToggleCompleted(created.ID)
	if err != nil {
		t.Fatalf("ToggleCompleted() error = %v", err)
	}
	if !first.Completed {
		t.Error("Completed = false after first toggle, want true")
	}
	if first.UpdatedAt != clock.now.UnixMilli() {
		t.Errorf("UpdatedAt = %d, want %d", first.UpdatedAt, clock.now.UnixMilli())
	}

	clock.Advance(time.Second)
	second, err := store.ToggleCompleted(created.ID)
	if err != nil {
		t.Fatalf("ToggleCompleted() error = %v", err)
	}
	if second.Completed != created.Completed {
		t.Errorf("Completed = %v after two toggles, want %v", second.Completed, created.Completed)
	}
	if second.UpdatedAt < first.UpdatedAt {
		t.Errorf("UpdatedAt went backwards: %d < %d", second.UpdatedAt, first.UpdatedAt)
	}
	if second.CreatedAt != created.CreatedAt || second.Title != created.Title {
		t.Error("toggle changed createdAt or title")
	}
}

func TestStore_ToggleCompletedNotFound(t *testing.T) {
	store, _ := newTestStore()
	store.Add("Buy milk", "")
	before := store.Snapshot()

	if _, err := store.ToggleCompleted("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ToggleCompleted() error = %v, want %v", err, ErrNotFound)
	}
	if after := store.Snapshot(); after[0] != before[0] {
		t.Error("collection changed after failed toggle")
	}
}

func TestStore_UpdatedAtNeverBeforeCreatedAt(t *testing.T) {
	store, clock := newTestStore()
	created, _ := store.Add("Buy milk", "")

	clock.Advance(-time.Hour)
	toggled, err := store.ToggleCompleted(created.ID)
	if err != nil {
		t.Fatalf("ToggleCompleted() error = %v", err)
	}
	if toggled.UpdatedAt < toggled.CreatedAt {
		t.Errorf("UpdatedAt %d < CreatedAt %d", toggled.UpdatedAt, toggled.CreatedAt)
	}
}

func TestStore_Edit(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		title    string
		desc     string
		wantErr  error
		wantDesc string
	}{
		{name: "replaces title", id: "task-1", title: "  Buy oat milk ", desc: "", wantDesc: ""},
		{name: "sets description", id: "task-1", title: "Buy milk", desc: " 2 litres ", wantDesc: "2 litres"},
		{name: "empty title", id: "task-1", title: " ", wantErr: ErrEmptyTitle},
		{name: "empty title on missing id is a validation error", id: "missing", title: "", wantErr: ErrEmptyTitle},
		{name: "missing id", id: "missing", title: "x", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, clock := newTestStore()
			created, _ := store.Add("Buy milk", "old")
			store.ToggleCompleted(created.ID)
			before, _ := store.Get(created.ID)
			clock.Advance(time.Minute)

			got, err := store.Edit(tt.id, tt.title, tt.desc)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Edit() error = %v, want %v", err, tt.wantErr)
				}
				if after, _ := store.Get(created.ID); after != before {
					t.Error("collection changed after failed edit")
				}
				return
			}
			if err != nil {
				t.Fatalf("Edit() error = %v", err)
			}
			if want := "Buy oat milk"; tt.title == "  Buy oat milk " && got.Title != want {
				t.Errorf("Title = %q, want %q", got.Title, want)
			}
			if got.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDesc)
			}
			if got.CreatedAt != before.CreatedAt {
				t.Errorf("CreatedAt changed: %d -> %d", before.CreatedAt, got.CreatedAt)
			}
			if got.UpdatedAt <= before.UpdatedAt {
				t.Errorf("UpdatedAt = %d, want > %d", got.UpdatedAt, before.UpdatedAt)
			}
			if got.Completed != before.Completed {
				t.Error("Edit changed Completed")
			}
		})
	}
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	store, _ := newTestStore()
	a, _ := store.Add("a", "")
	store.Add("b", "")

	if !store.Delete(a.ID) {
		t.Fatal("Delete() = false on existing id, want true")
	}
	afterFirst := store.Snapshot()

	if store.Delete(a.ID) {
		t.Error("Delete() = true on already deleted id, want false")
	}
	afterSecond := store.Snapshot()

	if len(afterFirst) != 1 || len(afterSecond) != 1 || afterFirst[0] != afterSecond[0] {
		t.Errorf("collection differs after repeated delete: %v vs %v", afterFirst, afterSecond)
	}
}

func TestStore_DeleteKeepsOrder(t *testing.T) {
	store, _ := newTestStore()
	store.Add("a", "")
	b, _ := store.Add("b", "")
	store.Add("c", "")

	store.Delete(b.ID)

	tasks := store.Snapshot()
	if len(tasks) != 2 || tasks[0].Title != "a" || tasks[1].Title != "c" {
		t.Errorf("Snapshot() = %v, want [a c]", tasks)
	}
}

func TestStore_ClearAll(t *testing.T) {
	store, _ := newTestStore()
	store.Add("a", "")
	store.Add("b", "")

	if n := store.ClearAll(); n != 2 {
		t.Errorf("ClearAll() = %d, want 2", n)
	}
	if !store.IsEmpty() {
		t.Errorf("Len() = %d after ClearAll, want 0", store.Len())
	}
	if n := store.ClearAll(); n != 0 {
		t.Errorf("second ClearAll() = %d, want 0", n)
	}
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	store, _ := newTestStore()
	store.Add("a", "")

	snap := store.Snapshot()
	snap[0].Title = "mutated"

	got, _ := store.Get(snap[0].ID)
	if got.Title != "a" {
		t.Errorf("store was mutated through snapshot: Title = %q", got.Title)
	}
}

func TestStore_Load(t *testing.T) {
	store, _ := newTestStore()
	store.Add("discarded", "")

	store.Load([]Task{
		{ID: "x", Title: "first", CreatedAt: 10, UpdatedAt: 20},
		{ID: "", Title: "no id"},
		{ID: "x", Title: "duplicate"},
		{ID: "y", Title: "bad timestamps", CreatedAt: 50, UpdatedAt: 40},
	})

	tasks := store.Snapshot()
	if len(tasks) != 2 {
		t.Fatalf("len = %d, want 2: %v", len(tasks), tasks)
	}
	if tasks[0].Title != "first" {
		t.Errorf("tasks[0].Title = %q, want first", tasks[0].Title)
	}
	if tasks[1].UpdatedAt != 50 {
		t.Errorf("tasks[1].UpdatedAt = %d, want 50", tasks[1].UpdatedAt)
	}
}

func TestStore_Subscribe(t *testing.T) {
	store, _ := newTestStore()

	var kinds []ChangeKind
	unsubscribe := store.Subscribe(func(c Change) {
		kinds = append(kinds, c.Kind)
	})

	a, _ := store.Add("a", "")
	store.ToggleCompleted(a.ID)
	store.Edit(a.ID, "b", "")
	store.ToggleCompleted("missing")
	store.Delete(a.ID)
	store.Delete(a.ID)
	store.ClearAll()

	unsubscribe()
	store.Add("after", "")

	want := []ChangeKind{ChangeCreated, ChangeToggled, ChangeEdited, ChangeDeleted, ChangeCleared}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %s, want %s", i, kinds[i], want[i])
		}
	}
}
