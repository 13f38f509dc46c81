package workflow

import (
	"time"

	"autoname/internal/history"
)

// Stats summarizes what the worker has done since it was constructed.
type Stats struct {
	Renamed     int
	Skipped     int
	Failed      int
	LastStatus  history.Status
	LastError   string
	LastUpdated time.Time
}

// Processed returns the total number of jobs handled.
func (s Stats) Processed() int {
	return s.Renamed + s.Skipped + s.Failed
}

func (s *Stats) record(result Result) {
	switch result.Status {
	case history.StatusRenamed:
		s.Renamed++
	case history.StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
	s.LastStatus = result.Status
	s.LastError = ""
	if result.Err != nil {
		s.LastError = result.Err.Error()
	}
	s.LastUpdated = time.Now()
}

// Stats returns a snapshot of the worker's counters.
func (w *Worker) Stats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}
