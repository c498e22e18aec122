// Package domain holds the shared types of the Workstake marketplace.
// A Task is a unit of paid work: the creator escrows the reward, stakes
// collateral to activate it, and a member stakes collateral to claim it.
// Rewards, stakes and penalties are distributed through the pull-payment
// ledger when the task reaches a terminal state.
package domain

import "time"

// Identity is a participant key (creator, member, applicant, treasury).
type Identity string

// ZeroIdentity is the invalid empty identity.
const ZeroIdentity Identity = ""

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool { return i == ZeroIdentity }

// TaskStatus tracks the task lifecycle.
type TaskStatus int

const (
	TaskNonExistent      TaskStatus = iota // Never created or deleted
	TaskCreated                            // Reward escrowed, not yet activated
	TaskActive                             // Creator stake locked
	TaskOpenRegistration                   // Accepting join requests
	TaskInProgress                         // Member assigned, deadline running
	TaskCompleted                          // Work approved, funds distributed
	TaskCancelled                          // Deleted, cancelled, or deadline hit
)

// String returns a human-readable status.
func (s TaskStatus) String() string {
	switch s {
	case TaskNonExistent:
		return "NON_EXISTENT"
	case TaskCreated:
		return "CREATED"
	case TaskActive:
		return "ACTIVE"
	case TaskOpenRegistration:
		return "OPEN_REGISTRATION"
	case TaskInProgress:
		return "IN_PROGRESS"
	case TaskCompleted:
		return "COMPLETED"
	case TaskCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// ValueCategory is the valuation tier derived once at creation.
// It determines the creator's required stake.
type ValueCategory int

const (
	CategoryLow ValueCategory = iota
	CategoryBasic
	CategoryMedium
	CategoryHigh
	CategoryVeryHigh
	CategoryUltraHigh
)

// NumCategories is the number of valuation tiers.
const NumCategories = 6

// String returns the category name.
func (c ValueCategory) String() string {
	switch c {
	case CategoryLow:
		return "LOW"
	case CategoryBasic:
		return "BASIC"
	case CategoryMedium:
		return "MEDIUM"
	case CategoryHigh:
		return "HIGH"
	case CategoryVeryHigh:
		return "VERY_HIGH"
	case CategoryUltraHigh:
		return "ULTRA_HIGH"
	default:
		return "UNKNOWN"
	}
}

// Task is a unit of paid work with escrowed reward and two-sided collateral.
// Amounts are int64 base units. Stake lock flags are true exactly while the
// corresponding funds sit in escrow unresolved; both must be false before a
// terminal state is reached.
type Task struct {
	ID            uint64        `json:"id"`
	Title         string        `json:"title"`
	Reference     string        `json:"reference"` // External work description (URL)
	Status        TaskStatus    `json:"status"`
	Category      ValueCategory `json:"category"` // Immutable after creation
	Creator       Identity      `json:"creator"`
	Member        Identity      `json:"member,omitempty"` // Unset until assignment
	Reward        int64         `json:"reward"`
	CreatorStake  int64         `json:"creator_stake"`
	MemberStake   int64         `json:"member_stake"`
	DeadlineHours int64         `json:"deadline_hours"`
	DeadlineAt    time.Time     `json:"deadline_at,omitempty"` // Set only on assignment
	MaxRevision   int           `json:"max_revision"`

	CreatorStakeLocked bool `json:"creator_stake_locked"`
	MemberStakeLocked  bool `json:"member_stake_locked"`
	RewardClaimed      bool `json:"reward_claimed"`
	Exists             bool `json:"exists"`

	CreatedAt  time.Time `json:"created_at"`
	AssignedAt time.Time `json:"assigned_at,omitempty"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`
}

// IsTerminal reports whether the task has reached a final state.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskCompleted || t.Status == TaskCancelled
}

// Escrowed returns the total funds currently held by the task.
func (t *Task) Escrowed() int64 {
	total := int64(0)
	if !t.RewardClaimed && !t.IsTerminal() {
		total += t.Reward
	}
	if t.CreatorStakeLocked {
		total += t.CreatorStake
	}
	if t.MemberStakeLocked {
		total += t.MemberStake
	}
	return total
}
