package domain

import "time"

// RequestStatus tracks a join request's resolution.
type RequestStatus int

const (
	RequestPending RequestStatus = iota
	RequestAccepted
	RequestRejected
	RequestCancelled // Withdrawn by the applicant
)

// String returns a human-readable status.
func (s RequestStatus) String() string {
	switch s {
	case RequestPending:
		return "PENDING"
	case RequestAccepted:
		return "ACCEPTED"
	case RequestRejected:
		return "REJECTED"
	case RequestCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// JoinRequest is an application by a prospective member to claim a task.
// Requests are append-only and keep insertion order; Position is the index
// within the task's book. At most one pending request per applicant per
// task may exist. Withdrawn is monotonic: once true the stake amount is
// permanently zero — the funds moved to the ledger or into the task escrow.
type JoinRequest struct {
	TaskID      uint64        `json:"task_id"`
	Position    int           `json:"position"`
	Applicant   Identity      `json:"applicant"`
	StakeAmount int64         `json:"stake_amount"`
	Status      RequestStatus `json:"status"`
	Pending     bool          `json:"pending"`
	Withdrawn   bool          `json:"withdrawn"`
	CreatedAt   time.Time     `json:"created_at"`
}
