package task

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// SortOption names the field and direction of the view sort.
type SortOption string

const (
	SortCreatedAsc  SortOption = "createdAt-asc"
	SortCreatedDesc SortOption = "createdAt-desc"
	SortUpdatedAsc  SortOption = "updatedAt-asc"
	SortUpdatedDesc SortOption = "updatedAt-desc"

	// DefaultSort lists newest tasks first.
	DefaultSort = SortCreatedDesc
)

// SortOptions lists every accepted SortOption.
var SortOptions = []SortOption{SortCreatedAsc, SortCreatedDesc, SortUpdatedAsc, SortUpdatedDesc}

// ParseSortOption parses s, returning DefaultSort for an empty string.
func ParseSortOption(s string) (SortOption, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSort, nil
	}
	for _, opt := range SortOptions {
		if string(opt) == s {
			return opt, nil
		}
	}
	return "", fmt.Errorf("unknown sort option %q", s)
}

// DateFilter selects tasks by calendar date and, optionally, hour and minute.
type DateFilter struct {
	Year    int
	Month   time.Month
	Day     int
	HasTime bool
	Hour    int
	Minute  int
}

// ParseDateFilter parses a "2006-01-02" date and an optional "15:04" time.
// An empty date yields a nil filter.
func ParseDateFilter(date, clock string) (*DateFilter, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" {
		if clock != "" {
			return nil, fmt.Errorf("time filter %q requires a date", clock)
		}
		return nil, nil
	}

	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	f := &DateFilter{Year: d.Year(), Month: d.Month(), Day: d.Day()}

	if clock != "" {
		c, err := time.Parse("15:04", clock)
		if err != nil {
			return nil, fmt.Errorf("invalid time %q: expected HH:MM", clock)
		}
		f.HasTime = true
		f.Hour = c.Hour()
		f.Minute = c.Minute()
	}
	return f, nil
}

// String renders the filter in the format ParseDateFilter accepts.
func (f DateFilter) String() string {
	s := fmt.Sprintf("%04d-%02d-%02d", f.Year, int(f.Month), f.Day)
	if f.HasTime {
		s += fmt.Sprintf(" %02d:%02d", f.Hour, f.Minute)
	}
	return s
}

func (f DateFilter) matches(t time.Time) bool {
	y, m, d := t.Date()
	if y != f.Year || m != f.Month || d != f.Day {
		return false
	}
	if f.HasTime {
		return t.Hour() == f.Hour && t.Minute() == f.Minute
	}
	return true
}

// ViewParams are the inputs of the derived view besides the collection.
type ViewParams struct {
	Search string
	Sort   SortOption
	Date   *DateFilter
}

// IsFilterActive reports whether p can remove tasks from the view.
func IsFilterActive(p ViewParams) bool {
	return strings.TrimSpace(p.Search) != "" || p.Date != nil
}

// Derive computes the displayed sequence: search, then date filter, then a
// stable sort. Dates are compared in loc (time.Local when nil). The input
// slice is never modified and the result is never nil.
func Derive(tasks []Task, p ViewParams, loc *time.Location) []Task {
	if loc == nil {
		loc = time.Local
	}

	out := make([]Task, 0, len(tasks))
	query := strings.ToLower(strings.TrimSpace(p.Search))
	for _, t := range tasks {
		if query != "" && !strings.Contains(strings.ToLower(t.Title), query) {
			continue
		}
		if p.Date != nil && !p.Date.matches(t.CreatedTime(loc)) && !p.Date.matches(t.UpdatedTime(loc)) {
			continue
		}
		out = append(out, t)
	}

	sortTasks(out, p.Sort)
	return out
}

func sortTasks(tasks []Task, opt SortOption) {
	if opt == "" {
		opt = DefaultSort
	}

	key := func(t Task) int64 { return t.CreatedAt }
	if opt == SortUpdatedAsc || opt == SortUpdatedDesc {
		key = func(t Task) int64 { return t.UpdatedAt }
	}
	desc := opt == SortCreatedDesc || opt == SortUpdatedDesc

	slices.SortStableFunc(tasks, func(a, b Task) int {
		ka, kb := key(a), key(b)
		switch {
		case ka == kb:
			return 0
		case (ka < kb) != desc:
			return -1
		default:
			return 1
		}
	})
}
