// Package authz centralizes role checks. Every operation asks
// Can(identity, action) instead of re-implementing owner/privileged
// distinctions inline.
package authz

import "github.com/workstake-network/workstake/internal/domain"

// Action is a privileged capability gate.
type Action int

const (
	ActionSetParams Action = iota // Change economic parameters
	ActionSweepFees               // Transfer the fee pot to the treasury
	ActionCreateTask              // Post a task (denied to privileged callers)
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionSetParams:
		return "SET_PARAMS"
	case ActionSweepFees:
		return "SWEEP_FEES"
	case ActionCreateTask:
		return "CREATE_TASK"
	default:
		return "UNKNOWN"
	}
}

// Service answers authorization questions from a fixed owner identity and
// privileged set, both taken from node configuration.
type Service struct {
	owner      domain.Identity
	privileged map[domain.Identity]bool
}

// New creates an authorization service.
func New(owner domain.Identity, privileged []domain.Identity) *Service {
	set := make(map[domain.Identity]bool, len(privileged))
	for _, id := range privileged {
		set[id] = true
	}
	if !owner.IsZero() {
		set[owner] = true
	}
	return &Service{owner: owner, privileged: set}
}

// Owner returns the owner identity.
func (s *Service) Owner() domain.Identity { return s.owner }

// IsPrivileged reports whether the identity is the owner or a configured
// privileged caller.
func (s *Service) IsPrivileged(id domain.Identity) bool {
	return s.privileged[id]
}

// Can reports whether the identity may perform the action.
func (s *Service) Can(id domain.Identity, a Action) bool {
	if id.IsZero() {
		return false
	}
	switch a {
	case ActionSetParams, ActionSweepFees:
		return id == s.owner
	case ActionCreateTask:
		// Privileged identities operate the market; they do not trade on it.
		return !s.IsPrivileged(id)
	default:
		return false
	}
}
