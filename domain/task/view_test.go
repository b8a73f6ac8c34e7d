package task

import (
	"reflect"
	"testing"
	"time"
)

func titles(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func sampleTasks() []Task {
	return []Task{
		{ID: "1", Title: "Buy milk", CreatedAt: 100, UpdatedAt: 100},
		{ID: "2", Title: "Pay rent", CreatedAt: 200, UpdatedAt: 300},
	}
}

func TestDerive_Scenarios(t *testing.T) {
	noMatch := &DateFilter{Year: 1999, Month: time.January, Day: 1}

	tests := []struct {
		name   string
		tasks  []Task
		params ViewParams
		want   []string
	}{
		{
			name:   "search is case-insensitive on title",
			tasks:  sampleTasks(),
			params: ViewParams{Search: "pay", Sort: SortCreatedDesc},
			want:   []string{"Pay rent"},
		},
		{
			name:   "empty search sorted by updatedAt ascending",
			tasks:  sampleTasks(),
			params: ViewParams{Search: "", Sort: SortUpdatedAsc},
			want:   []string{"Buy milk", "Pay rent"},
		},
		{
			name:   "whitespace search disables the filter",
			tasks:  sampleTasks(),
			params: ViewParams{Search: "   ", Sort: SortCreatedDesc},
			want:   []string{"Pay rent", "Buy milk"},
		},
		{
			name:   "date matching neither task",
			tasks:  sampleTasks(),
			params: ViewParams{Search: "milk", Sort: SortCreatedAsc, Date: noMatch},
			want:   []string{},
		},
		{
			name:   "empty collection",
			tasks:  nil,
			params: ViewParams{Search: "x", Sort: SortUpdatedDesc},
			want:   []string{},
		},
		{
			name:   "search does not match description",
			tasks:  []Task{{ID: "1", Title: "Groceries", Description: "milk"}},
			params: ViewParams{Search: "milk"},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.tasks, tt.params, time.UTC)
			if got == nil {
				t.Fatal("Derive() returned nil, want empty slice")
			}
			if !reflect.DeepEqual(titles(got), tt.want) {
				t.Errorf("Derive() = %v, want %v", titles(got), tt.want)
			}
		})
	}
}

func TestDerive_SortIsStable(t *testing.T) {
	tasks := []Task{
		{ID: "1", Title: "a", CreatedAt: 5, UpdatedAt: 9},
		{ID: "2", Title: "b", CreatedAt: 5, UpdatedAt: 9},
		{ID: "3", Title: "c", CreatedAt: 1, UpdatedAt: 9},
		{ID: "4", Title: "d", CreatedAt: 5, UpdatedAt: 2},
	}

	tests := []struct {
		sort SortOption
		want []string
	}{
		{SortCreatedAsc, []string{"c", "a", "b", "d"}},
		{SortCreatedDesc, []string{"a", "b", "d", "c"}},
		{SortUpdatedAsc, []string{"d", "a", "b", "c"}},
		{SortUpdatedDesc, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			got := titles(Derive(tasks, ViewParams{Sort: tt.sort}, time.UTC))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Derive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDerive_DoesNotMutateInput(t *testing.T) {
	tasks := sampleTasks()
	original := make([]Task, len(tasks))
	copy(original, tasks)

	Derive(tasks, ViewParams{Sort: SortCreatedDesc}, time.UTC)

	if !reflect.DeepEqual(tasks, original) {
		t.Errorf("input mutated: %v, want %v", tasks, original)
	}
}

func TestDerive_IsDeterministic(t *testing.T) {
	tasks := []Task{
		{ID: "1", Title: "x one", CreatedAt: 3, UpdatedAt: 3},
		{ID: "2", Title: "x two", CreatedAt: 3, UpdatedAt: 3},
		{ID: "3", Title: "x three", CreatedAt: 3, UpdatedAt: 3},
	}
	params := ViewParams{Search: "X", Sort: SortCreatedDesc}

	first := Derive(tasks, params, time.UTC)
	for i := 0; i < 10; i++ {
		if got := Derive(tasks, params, time.UTC); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: Derive() = %v, want %v", i, got, first)
		}
	}
}

func TestDerive_DateFilter(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ms := func(s string) int64 {
		ts, err := time.ParseInLocation("2006-01-02 15:04", s, loc)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return ts.UnixMilli()
	}

	tasks := []Task{
		{ID: "1", Title: "created on the 10th", CreatedAt: ms("2024-03-10 09:15"), UpdatedAt: ms("2024-03-10 09:15")},
		{ID: "2", Title: "updated on the 10th", CreatedAt: ms("2024-03-08 18:00"), UpdatedAt: ms("2024-03-10 14:30")},
		{ID: "3", Title: "untouched", CreatedAt: ms("2024-03-09 23:59"), UpdatedAt: ms("2024-03-09 23:59")},
		{ID: "4", Title: "just after local midnight", CreatedAt: ms("2024-03-10 00:30"), UpdatedAt: ms("2024-03-10 00:30")},
	}

	tests := []struct {
		name  string
		date  string
		clock string
		want  []string
	}{
		{name: "date matches created or updated", date: "2024-03-10", want: []string{"updated on the 10th", "just after local midnight", "created on the 10th"}},
		{name: "time narrows to created field", date: "2024-03-10", clock: "09:15", want: []string{"created on the 10th"}},
		{name: "time narrows to updated field", date: "2024-03-10", clock: "14:30", want: []string{"updated on the 10th"}},
		{name: "time with no match", date: "2024-03-10", clock: "18:00", want: []string{}},
		{name: "created date of updated task", date: "2024-03-08", clock: "18:00", want: []string{"updated on the 10th"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseDateFilter(tt.date, tt.clock)
			if err != nil {
				t.Fatalf("ParseDateFilter() error = %v", err)
			}
			got := titles(Derive(tasks, ViewParams{Sort: SortCreatedAsc, Date: f}, loc))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Derive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDerive_DateUsesViewerLocation(t *testing.T) {
	// 2024-03-09 23:30 UTC is already the 10th in UTC+2.
	ts := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC).UnixMilli()
	tasks := []Task{{ID: "1", Title: "late", CreatedAt: ts, UpdatedAt: ts}}
	f, _ := ParseDateFilter("2024-03-10", "")

	if got := Derive(tasks, ViewParams{Date: f}, time.UTC); len(got) != 0 {
		t.Errorf("UTC: got %v, want none", titles(got))
	}
	if got := Derive(tasks, ViewParams{Date: f}, time.FixedZone("UTC+2", 7200)); len(got) != 1 {
		t.Errorf("UTC+2: got %v, want [late]", titles(got))
	}
}

func TestParseSortOption(t *testing.T) {
	tests := []struct {
		in      string
		want    SortOption
		wantErr bool
	}{
		{in: "", want: DefaultSort},
		{in: "createdAt-asc", want: SortCreatedAsc},
		{in: " updatedAt-desc ", want: SortUpdatedDesc},
		{in: "title-asc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortOption(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSortOption() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSortOption() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDateFilter(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		clock   string
		want    *DateFilter
		wantErr bool
	}{
		{name: "no filter", want: nil},
		{name: "date only", date: "2024-02-29", want: &DateFilter{Year: 2024, Month: time.February, Day: 29}},
		{name: "date and time", date: "2024-02-29", clock: "07:05", want: &DateFilter{Year: 2024, Month: time.February, Day: 29, HasTime: true, Hour: 7, Minute: 5}},
		{name: "time without date", clock: "07:05", wantErr: true},
		{name: "bad date", date: "29/02/2024", wantErr: true},
		{name: "bad time", date: "2024-02-29", clock: "7pm", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateFilter(tt.date, tt.clock)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDateFilter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseDateFilter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIsFilterActive(t *testing.T) {
	if IsFilterActive(ViewParams{Search: "  ", Sort: SortCreatedAsc}) {
		t.Error("whitespace search reported as active")
	}
	if !IsFilterActive(ViewParams{Search: "a"}) {
		t.Error("search not reported as active")
	}
	if !IsFilterActive(ViewParams{Date: &DateFilter{Year: 2024, Month: 1, Day: 1}}) {
		t.Error("date filter not reported as active")
	}
}
