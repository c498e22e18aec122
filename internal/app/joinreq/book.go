// Package joinreq owns the per-task join request book: an append-only,
// insertion-ordered sequence of applications. Lookups scan linearly,
// which is O(n) per task and acceptable at expected scale. At most one
// pending request per applicant may exist at any time.
package joinreq

import (
	"time"

	"github.com/workstake-network/workstake/internal/domain"
)

// Book holds one task's join requests. Not goroutine-safe: the market
// engine owns all books under its own lock.
type Book struct {
	reqs []domain.JoinRequest
}

// NewBook creates an empty book.
func NewBook() *Book { return &Book{} }

// Append adds a pending request, enforcing pending-uniqueness per applicant.
func (b *Book) Append(taskID uint64, applicant domain.Identity, stake int64, now time.Time) (domain.JoinRequest, error) {
	if applicant.IsZero() {
		return domain.JoinRequest{}, domain.ErrZeroIdentity
	}
	if _, _, ok := b.FindPending(applicant); ok {
		return domain.JoinRequest{}, domain.ErrAlreadyPending
	}
	r := domain.JoinRequest{
		TaskID:      taskID,
		Position:    len(b.reqs),
		Applicant:   applicant,
		StakeAmount: stake,
		Status:      domain.RequestPending,
		Pending:     true,
		CreatedAt:   now,
	}
	b.reqs = append(b.reqs, r)
	return r, nil
}

// FindPending returns the applicant's pending, unwithdrawn request.
func (b *Book) FindPending(applicant domain.Identity) (int, domain.JoinRequest, bool) {
	for i, r := range b.reqs {
		if r.Applicant == applicant && r.Pending && !r.Withdrawn {
			return i, r, true
		}
	}
	return 0, domain.JoinRequest{}, false
}

// Get returns the request at a position.
func (b *Book) Get(pos int) (domain.JoinRequest, bool) {
	if pos < 0 || pos >= len(b.reqs) {
		return domain.JoinRequest{}, false
	}
	return b.reqs[pos], true
}

// Set installs a staged request copy at its position.
func (b *Book) Set(r domain.JoinRequest) {
	if r.Position >= 0 && r.Position < len(b.reqs) {
		b.reqs[r.Position] = r
	}
}

// Install re-inserts a persisted request at its recorded position,
// growing the book as needed (startup load path).
func (b *Book) Install(r domain.JoinRequest) {
	for len(b.reqs) <= r.Position {
		b.reqs = append(b.reqs, domain.JoinRequest{})
	}
	b.reqs[r.Position] = r
}

// All returns a copy of the request list in insertion order.
func (b *Book) All() []domain.JoinRequest {
	out := make([]domain.JoinRequest, len(b.reqs))
	copy(out, b.reqs)
	return out
}

// Len returns the number of requests ever appended.
func (b *Book) Len() int { return len(b.reqs) }

// ─── Resolution transitions ─────────────────────────────────────────────────
// Each resolution clears Pending exactly once and flips Withdrawn
// monotonically; a resolved request's stake is permanently zero — the
// funds moved either to the ledger or into the task escrow.

// Accept marks a pending request accepted; its stake moves into the task.
func Accept(r *domain.JoinRequest) error {
	if err := resolvable(r); err != nil {
		return err
	}
	r.Status = domain.RequestAccepted
	r.Pending = false
	r.Withdrawn = true
	r.StakeAmount = 0
	return nil
}

// Reject marks a pending request rejected; its stake returns via ledger.
func Reject(r *domain.JoinRequest) error {
	if err := resolvable(r); err != nil {
		return err
	}
	r.Status = domain.RequestRejected
	r.Pending = false
	r.Withdrawn = true
	r.StakeAmount = 0
	return nil
}

// Withdraw marks a pending request cancelled by its applicant.
func Withdraw(r *domain.JoinRequest) error {
	if err := resolvable(r); err != nil {
		return err
	}
	r.Status = domain.RequestCancelled
	r.Pending = false
	r.Withdrawn = true
	r.StakeAmount = 0
	return nil
}

func resolvable(r *domain.JoinRequest) error {
	if !r.Pending || r.Withdrawn {
		return domain.ErrInvalidState
	}
	return nil
}
