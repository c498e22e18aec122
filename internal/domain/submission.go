package domain

import "time"

// SubmitStatus tracks the single live submission of a task.
type SubmitStatus int

const (
	SubmitNone SubmitStatus = iota
	SubmitPending
	SubmitRevisionNeeded
	SubmitAccepted
)

// String returns a human-readable status.
func (s SubmitStatus) String() string {
	switch s {
	case SubmitNone:
		return "NONE"
	case SubmitPending:
		return "PENDING"
	case SubmitRevisionNeeded:
		return "REVISION_NEEDED"
	case SubmitAccepted:
		return "ACCEPTED"
	default:
		return "UNKNOWN"
	}
}

// Submission is the member's delivered work for a task. A task holds at
// most one live submission; final approval marks it Accepted and empties
// the content fields.
type Submission struct {
	TaskID       uint64       `json:"task_id"`
	Reference    string       `json:"reference"` // Deliverable URL
	Submitter    Identity     `json:"submitter"`
	Note         string       `json:"note,omitempty"`
	Status       SubmitStatus `json:"status"`
	RevisionTime int          `json:"revision_time"` // Revisions granted so far
	NewDeadline  time.Time    `json:"new_deadline,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}
