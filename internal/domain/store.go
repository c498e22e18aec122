package domain

// ─── Persistence Boundary ───────────────────────────────────────────────────
// The market engine mutates state only through staged copies: every
// operation builds a ChangeSet, persists it atomically, and installs the
// copies into memory afterwards. A nil store leaves the engine ephemeral.

// ChangeSet is the full effect of one committed transition.
// Zero-valued fields mean "unchanged". Balances and the fee pot are
// derived from the audit rows: each LedgerEntry carries the post-movement
// balance of its account.
type ChangeSet struct {
	Tasks        []Task
	Users        []User
	DeletedUsers []Identity
	Requests     []JoinRequest // Keyed by (TaskID, Position)
	Submissions  []Submission
	Entries      []LedgerEntry
	Events       []Event

	NextTaskID uint64 // 0 = unchanged
	ParamsYAML []byte // nil = unchanged
}

// Snapshot is the complete persisted state loaded at startup.
type Snapshot struct {
	Users       []User
	Tasks       []Task
	Requests    []JoinRequest
	Submissions []Submission
	Balances    map[Identity]int64
	Entries     []LedgerEntry
	Events      []Event
	NextTaskID  uint64
	FeePot      int64
	ParamsYAML  []byte
}

// MarketStore persists committed transitions. Apply must be atomic:
// either the whole ChangeSet is durable or none of it is.
type MarketStore interface {
	Load() (*Snapshot, error)
	Apply(cs ChangeSet) error
	Close() error
}
