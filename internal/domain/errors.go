package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Every failure
// aborts the attempted transition as a whole; nothing is retried by the
// core.

var (
	// Not-found
	ErrTaskNotFound       = errors.New("task not found")
	ErrRequestNotFound    = errors.New("join request not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrUserNotFound       = errors.New("user not found")

	// Authorization
	ErrUnauthorized  = errors.New("caller not authorized for this operation")
	ErrNotRegistered = errors.New("caller is not a registered user")

	// State machine
	ErrInvalidState       = errors.New("operation not legal from current status")
	ErrDeadlineNotReached = errors.New("deadline has not passed")
	ErrAlreadyClaimed     = errors.New("reward already claimed")
	ErrAlreadyPending     = errors.New("a pending request or submission already exists")
	ErrAlreadyRegistered  = errors.New("user already registered")

	// Input
	ErrZeroIdentity  = errors.New("zero identity")
	ErrInvalidAmount = errors.New("transferred amount does not match required amount")
	ErrInvalidInput  = errors.New("invalid input")
	ErrStakeTooLarge = errors.New("stake exceeds configured maximum")

	// Funds
	ErrInsufficientFunds = errors.New("insufficient withdrawable balance")
	ErrTransferFailed    = errors.New("external transfer failed")
	ErrReentrantCall     = errors.New("reentrant call rejected")
)
