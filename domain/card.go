package domain

import "fmt"

// DefaultProject is the board cards land on when no project is given.
const DefaultProject = "default"

// Status is a card's column on the board.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusBlocked    Status = "blocked"
	StatusInProgress Status = "in-progress"
	StatusComplete   Status = "complete"
	StatusVerified   Status = "verified"
)

// Statuses lists every valid status in board display order.
var Statuses = []Status{StatusNotStarted, StatusBlocked, StatusInProgress, StatusComplete, StatusVerified}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", NewValidationError("status", fmt.Sprintf("unknown status %q", s))
}

// Rank returns the status position in board display order. Unknown statuses
// sort last.
func (s Status) Rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return len(Statuses)
}

// Card is a single task unit on the board.
type Card struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Link        string    `json:"link,omitempty"`
	Status      Status    `json:"status"`
	Order       int       `json:"order"`
	Project     string    `json:"project"`
	Notes       string    `json:"notes,omitempty"`
	TaskList    string    `json:"taskList,omitempty"`
	Comments    []Comment `json:"comments,omitempty"`
}

// Comment lives inline on a card. List order at rest is insertion order.
type Comment struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Author    string `json:"author,omitempty"`
}

// Bucket identifies the (project, status) pair within which Order is
// meaningful.
type Bucket struct {
	Project string
	Status  Status
}

// BucketOf returns the bucket the card currently occupies.
func BucketOf(c Card) Bucket {
	return Bucket{Project: c.Project, Status: c.Status}
}
