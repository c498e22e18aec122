package domain

import "time"

// User is a registered marketplace participant.
// Reputation is a bounded non-negative score: decrements saturate at zero.
// Profile fields are immutable once set; unregistration clears the record
// and a later re-registration restarts all counters at zero.
type User struct {
	ID          Identity  `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
	Contact     string    `json:"contact,omitempty"`
	Reputation  int64     `json:"reputation"`
	Registered  bool      `json:"registered"`
	RegisteredAt time.Time `json:"registered_at"`

	TasksCreated   int64 `json:"tasks_created"`
	TasksCompleted int64 `json:"tasks_completed"`
	TasksFailed    int64 `json:"tasks_failed"`
}
