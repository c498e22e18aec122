package domain

import "time"

// EntryKind classifies a ledger movement.
type EntryKind string

const (
	EntryCredit   EntryKind = "CREDIT"   // Funds released from task escrow
	EntryWithdraw EntryKind = "WITHDRAW" // Full balance transferred out
	EntryFee      EntryKind = "FEE"      // Activation fee accrued to the pot
	EntrySweep    EntryKind = "SWEEP"    // Fee pot transferred to treasury
)

// FeeAccount is the reserved identity holding accrued activation fees.
const FeeAccount Identity = "fee_pot"

// LedgerEntry is an audit row for a single balance movement.
// Balance records the account balance after the movement applied.
type LedgerEntry struct {
	ID        string    `json:"id"` // UUID
	Timestamp time.Time `json:"timestamp"`
	Kind      EntryKind `json:"kind"`
	Account   Identity  `json:"account"`
	Amount    int64     `json:"amount"`
	TaskID    uint64    `json:"task_id,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Balance   int64     `json:"balance"`
}
