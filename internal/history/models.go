package history

import (
	"strings"
	"time"
)

// Status records how processing of a document ended.
type Status string

const (
	StatusRenamed Status = "renamed"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

var allStatuses = []Status{StatusRenamed, StatusSkipped, StatusFailed}

// AllStatuses returns the known statuses in display order.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts a case-insensitive string into a Status.
func ParseStatus(value string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// Entry is one journal row describing a processed document.
type Entry struct {
	ID           int64
	Source       string
	Destination  string
	JobHandle    string
	Supplier     string
	DocumentDate string
	Status       Status
	Detail       string
	CreatedAt    time.Time
}
