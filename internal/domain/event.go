package domain

import "time"

// EventType identifies a lifecycle transition for the audit feed.
type EventType string

const (
	EvUserRegistered   EventType = "USER_REGISTERED"
	EvUserUnregistered EventType = "USER_UNREGISTERED"

	EvTaskCreated        EventType = "TASK_CREATED"
	EvTaskDeleted        EventType = "TASK_DELETED"
	EvTaskActivated      EventType = "TASK_ACTIVATED"
	EvRegistrationOpened EventType = "REGISTRATION_OPENED"
	EvRegistrationClosed EventType = "REGISTRATION_CLOSED"
	EvTaskAssigned       EventType = "TASK_ASSIGNED"
	EvTaskCancelled      EventType = "TASK_CANCELLED"
	EvTaskCompleted      EventType = "TASK_COMPLETED"
	EvDeadlineTriggered  EventType = "DEADLINE_TRIGGERED"

	EvJoinRequested EventType = "JOIN_REQUESTED"
	EvJoinWithdrawn EventType = "JOIN_WITHDRAWN"
	EvJoinApproved  EventType = "JOIN_APPROVED"
	EvJoinRejected  EventType = "JOIN_REJECTED"

	EvWorkSubmitted     EventType = "WORK_SUBMITTED"
	EvWorkResubmitted   EventType = "WORK_RESUBMITTED"
	EvRevisionRequested EventType = "REVISION_REQUESTED"

	EvFundsCredited EventType = "FUNDS_CREDITED"
	EvWithdrawal    EventType = "WITHDRAWAL"
	EvFeeSwept      EventType = "FEE_SWEPT"
	EvParamsChanged EventType = "PARAMS_CHANGED"
)

// Event is an audit record emitted on every state transition.
// Events exist for observability, not correctness.
type Event struct {
	ID     string    `json:"id"` // UUID
	Type   EventType `json:"type"`
	TaskID uint64    `json:"task_id,omitempty"`
	Actor  Identity  `json:"actor,omitempty"`
	Amount int64     `json:"amount,omitempty"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}
