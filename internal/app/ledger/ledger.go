// Package ledger implements the pull-payment ledger: the single map of
// withdrawable balances. Lifecycle transitions only ever credit it;
// funds leave through an explicit withdrawal that zeroes the balance
// BEFORE attempting the external transfer, so a malicious or failing
// callee can never re-enter and observe stale, unspent funds. An
// explicit per-identity guard rejects reentrant withdrawals outright
// rather than relying on call-stack discipline.
package ledger

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/workstake-network/workstake/internal/domain"
)

// TransferFunc performs the external value transfer. A nil error means
// the funds left the system; any error aborts the whole withdrawal and
// the balance is restored.
type TransferFunc func(to domain.Identity, amount int64) error

// Ledger holds per-identity withdrawable balances, the activation fee
// pot, and the append-only audit trail.
type Ledger struct {
	mu       sync.Mutex
	balances map[domain.Identity]int64
	feePot   int64
	entries  []domain.LedgerEntry
	transfer TransferFunc
	inFlight map[domain.Identity]bool // Reentrancy guard per identity
	sweeping bool                     // Reentrancy guard for the fee pot

	now func() time.Time
}

// New creates a ledger around an external transfer primitive.
func New(transfer TransferFunc) *Ledger {
	return &Ledger{
		balances: make(map[domain.Identity]int64),
		inFlight: make(map[domain.Identity]bool),
		transfer: transfer,
		now:      time.Now,
	}
}

// SetClock overrides the clock (tests).
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// Balance returns the withdrawable balance of an identity.
func (l *Ledger) Balance(id domain.Identity) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[id]
}

// FeePot returns the accrued, unswept fees.
func (l *Ledger) FeePot() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.feePot
}

// Entries returns the most recent audit rows, newest last.
func (l *Ledger) Entries(limit int) []domain.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.LedgerEntry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// ─── Staging (market engine commit path) ────────────────────────────────────
// The engine stages audit rows against current balances, persists them,
// then installs. Each transition credits an account at most once, so a
// staged balance never goes stale within one commit.

// StageCredit builds the audit row for crediting an account.
func (l *Ledger) StageCredit(id domain.Identity, amount int64, taskID uint64, reason string) domain.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return domain.LedgerEntry{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Kind:      domain.EntryCredit,
		Account:   id,
		Amount:    amount,
		TaskID:    taskID,
		Reason:    reason,
		Balance:   saturatingAdd(l.balances[id], amount),
	}
}

// StageFee builds the audit row for accruing an activation fee.
func (l *Ledger) StageFee(amount int64, taskID uint64) domain.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	return domain.LedgerEntry{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Kind:      domain.EntryFee,
		Account:   domain.FeeAccount,
		Amount:    amount,
		TaskID:    taskID,
		Reason:    "activation fee",
		Balance:   saturatingAdd(l.feePot, amount),
	}
}

// Install applies a persisted audit row to memory.
func (l *Ledger) Install(e domain.LedgerEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Account == domain.FeeAccount {
		l.feePot = e.Balance
	} else {
		l.balances[e.Account] = e.Balance
	}
	l.entries = append(l.entries, e)
}

// Restore loads a persisted snapshot (startup path).
func (l *Ledger) Restore(balances map[domain.Identity]int64, feePot int64, entries []domain.LedgerEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances = make(map[domain.Identity]int64, len(balances))
	for id, bal := range balances {
		l.balances[id] = bal
	}
	l.feePot = feePot
	l.entries = append([]domain.LedgerEntry(nil), entries...)
}

// ─── Withdrawal ─────────────────────────────────────────────────────────────

// Withdraw transfers the full balance out. The balance is zeroed before
// the transfer runs; on transfer failure it is restored and the call
// fails — funds are never dropped. A second call finds a zero balance
// and transfers nothing.
func (l *Ledger) Withdraw(id domain.Identity) (int64, domain.LedgerEntry, error) {
	if id.IsZero() {
		return 0, domain.LedgerEntry{}, domain.ErrZeroIdentity
	}

	l.mu.Lock()
	if l.inFlight[id] {
		l.mu.Unlock()
		return 0, domain.LedgerEntry{}, domain.ErrReentrantCall
	}
	amount := l.balances[id]
	if amount <= 0 {
		l.mu.Unlock()
		return 0, domain.LedgerEntry{}, domain.ErrInsufficientFunds
	}
	l.balances[id] = 0
	l.inFlight[id] = true
	l.mu.Unlock()

	err := l.transfer(id, amount)

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.inFlight, id)
	if err != nil {
		l.balances[id] = amount
		return 0, domain.LedgerEntry{}, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	entry := domain.LedgerEntry{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Kind:      domain.EntryWithdraw,
		Account:   id,
		Amount:    amount,
		Reason:    "withdrawal",
		Balance:   0,
	}
	l.entries = append(l.entries, entry)
	return amount, entry, nil
}

// SweepFees transfers the whole fee pot to the treasury with the same
// zero-before-transfer ordering as Withdraw.
func (l *Ledger) SweepFees(treasury domain.Identity) (int64, domain.LedgerEntry, error) {
	if treasury.IsZero() {
		return 0, domain.LedgerEntry{}, domain.ErrZeroIdentity
	}

	l.mu.Lock()
	if l.sweeping {
		l.mu.Unlock()
		return 0, domain.LedgerEntry{}, domain.ErrReentrantCall
	}
	amount := l.feePot
	if amount <= 0 {
		l.mu.Unlock()
		return 0, domain.LedgerEntry{}, domain.ErrInsufficientFunds
	}
	l.feePot = 0
	l.sweeping = true
	l.mu.Unlock()

	err := l.transfer(treasury, amount)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweeping = false
	if err != nil {
		l.feePot = amount
		return 0, domain.LedgerEntry{}, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	entry := domain.LedgerEntry{
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Kind:      domain.EntrySweep,
		Account:   domain.FeeAccount,
		Amount:    amount,
		Reason:    "fee sweep to " + string(treasury),
		Balance:   0,
	}
	l.entries = append(l.entries, entry)
	return amount, entry, nil
}

// Balances returns a copy of every non-zero balance.
func (l *Ledger) Balances() map[domain.Identity]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[domain.Identity]int64, len(l.balances))
	for id, bal := range l.balances {
		out[id] = bal
	}
	return out
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
