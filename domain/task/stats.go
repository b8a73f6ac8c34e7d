package task

import "math"

// RecentLimit is the number of tasks listed in Stats.Recent.
const RecentLimit = 5

// Stats summarises a collection.
type Stats struct {
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	Active         int    `json:"active"`
	CompletionRate int    `json:"completionRate"`
	Recent         []Task `json:"recent"`
}

// ComputeStats counts tasks and returns the first RecentLimit tasks in
// insertion order. CompletionRate is a rounded percentage.
func ComputeStats(tasks []Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	s.Active = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}

	n := min(len(tasks), RecentLimit)
	s.Recent = make([]Task, n)
	copy(s.Recent, tasks[:n])
	return s
}
