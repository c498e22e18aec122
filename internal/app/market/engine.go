// Package market implements the task lifecycle state machine — the core
// of the marketplace. The engine owns every Task, join request book and
// submission record, and is the only writer of task status. Monetary
// outcomes are realized exclusively as ledger credits (pull payment).
//
// Execution model: every mutating operation is an atomic, serialized
// transaction. An operation validates against current state, stages
// copies of everything it changes, persists the staged ChangeSet in one
// store transaction, and only then installs the copies into memory and
// emits events. A failure anywhere before install leaves no partial
// state behind. Deadlines are lazy: nothing is scheduled, an expired
// task resolves only when some caller invokes TriggerDeadline.
package market

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/workstake-network/workstake/internal/app/authz"
	"github.com/workstake-network/workstake/internal/app/joinreq"
	"github.com/workstake-network/workstake/internal/app/ledger"
	"github.com/workstake-network/workstake/internal/app/params"
	"github.com/workstake-network/workstake/internal/app/users"
	"github.com/workstake-network/workstake/internal/domain"
	"github.com/workstake-network/workstake/internal/infra/metrics"
)

// maxEvents bounds the in-memory audit feed; the store keeps the rest.
const maxEvents = 1024

// Config wires the engine's collaborators.
type Config struct {
	Params   *params.Store
	Auth     *authz.Service
	Ledger   *ledger.Ledger
	Store    domain.MarketStore // nil = ephemeral
	Treasury domain.Identity    // Fee sweep destination
}

// Engine is the task lifecycle state machine.
type Engine struct {
	mu sync.RWMutex

	params   *params.Store
	auth     *authz.Service
	users    *users.Registry
	ledger   *ledger.Ledger
	store    domain.MarketStore
	treasury domain.Identity

	tasks      map[uint64]*domain.Task
	books      map[uint64]*joinreq.Book
	subs       map[uint64]*domain.Submission
	nextTaskID uint64 // Monotonic, never reused, never zero

	events []domain.Event
	sink   func(domain.Event) // Optional live feed hook; must not block

	// now is injectable for deadline tests.
	now func() time.Time
}

// NewEngine creates the engine and, when a store is present, restores the
// persisted state.
func NewEngine(cfg Config) (*Engine, error) {
	e := &Engine{
		params:     cfg.Params,
		auth:       cfg.Auth,
		users:      users.NewRegistry(),
		ledger:     cfg.Ledger,
		store:      cfg.Store,
		treasury:   cfg.Treasury,
		tasks:      make(map[uint64]*domain.Task),
		books:      make(map[uint64]*joinreq.Book),
		subs:       make(map[uint64]*domain.Submission),
		nextTaskID: 1,
		now:        time.Now,
	}
	if cfg.Store != nil {
		if err := e.load(); err != nil {
			return nil, fmt.Errorf("load market state: %w", err)
		}
	}
	return e, nil
}

// SetClock overrides the clock (tests).
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// SetEventSink installs a live event hook. The sink runs inside the
// engine's transaction and must not block.
func (e *Engine) SetEventSink(sink func(domain.Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sink = sink
}

// Users exposes the registry for read-only consumers.
func (e *Engine) Users() *users.Registry { return e.users }

// load restores the snapshot produced by previously applied ChangeSets.
func (e *Engine) load() error {
	snap, err := e.store.Load()
	if err != nil {
		return err
	}
	for _, u := range snap.Users {
		e.users.Put(u)
	}
	for _, t := range snap.Tasks {
		task := t
		e.tasks[t.ID] = &task
	}
	for _, r := range snap.Requests {
		e.book(r.TaskID).Install(r)
	}
	for _, s := range snap.Submissions {
		sub := s
		e.subs[s.TaskID] = &sub
	}
	e.ledger.Restore(snap.Balances, snap.FeePot, snap.Entries)
	if snap.NextTaskID > 0 {
		e.nextTaskID = snap.NextTaskID
	}
	if len(snap.Events) > maxEvents {
		snap.Events = snap.Events[len(snap.Events)-maxEvents:]
	}
	e.events = append(e.events, snap.Events...)
	if len(snap.ParamsYAML) > 0 {
		p, err := params.FromYAML(snap.ParamsYAML)
		if err != nil {
			return fmt.Errorf("restore params: %w", err)
		}
		if err := e.params.Set(p); err != nil {
			return err
		}
	}
	return nil
}

// ─── Commit path ────────────────────────────────────────────────────────────

// commit persists a staged ChangeSet and installs it into memory.
// Persistence failure aborts the transition with no memory effects.
func (e *Engine) commit(cs domain.ChangeSet) error {
	if e.store != nil {
		if err := e.store.Apply(cs); err != nil {
			return fmt.Errorf("persist transition: %w", err)
		}
	}
	e.install(cs)
	return nil
}

// install applies staged copies to the in-memory state and emits events.
func (e *Engine) install(cs domain.ChangeSet) {
	for _, t := range cs.Tasks {
		task := t
		e.tasks[t.ID] = &task
	}
	for _, u := range cs.Users {
		e.users.Put(u)
	}
	for _, id := range cs.DeletedUsers {
		_ = e.users.Unregister(id)
	}
	for _, r := range cs.Requests {
		e.book(r.TaskID).Install(r)
	}
	for _, s := range cs.Submissions {
		sub := s
		e.subs[s.TaskID] = &sub
	}
	for _, entry := range cs.Entries {
		e.ledger.Install(entry)
		if entry.Kind == domain.EntryCredit {
			metrics.LedgerCredits.Inc()
		}
	}
	if cs.NextTaskID > 0 {
		e.nextTaskID = cs.NextTaskID
	}
	e.installEvents(cs.Events)
}

// installEvents appends to the bounded feed and notifies the sink.
func (e *Engine) installEvents(events []domain.Event) {
	for _, ev := range events {
		e.events = append(e.events, ev)
		if len(e.events) > maxEvents {
			e.events = e.events[len(e.events)-maxEvents:]
		}
		if e.sink != nil {
			e.sink(ev)
		}
	}
}

// newEvent builds an audit event stamped with the engine clock.
func (e *Engine) newEvent(typ domain.EventType, taskID uint64, actor domain.Identity, amount int64, note string) domain.Event {
	return domain.Event{
		ID:     uuid.NewString(),
		Type:   typ,
		TaskID: taskID,
		Actor:  actor,
		Amount: amount,
		Note:   note,
		At:     e.now(),
	}
}

// book returns (creating if needed) the join request book of a task.
func (e *Engine) book(taskID uint64) *joinreq.Book {
	b, ok := e.books[taskID]
	if !ok {
		b = joinreq.NewBook()
		e.books[taskID] = b
	}
	return b
}

// taskByID returns the live task record; callers must hold the lock.
func (e *Engine) taskByID(id uint64) (*domain.Task, error) {
	t, ok := e.tasks[id]
	if !ok || !t.Exists {
		return nil, domain.ErrTaskNotFound
	}
	return t, nil
}

// ─── User operations ────────────────────────────────────────────────────────

// RegisterUser creates a user record with the configured initial
// reputation. Re-registration restarts counters at zero.
func (e *Engine) RegisterUser(caller domain.Identity, displayName, contact string) (domain.User, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.users.IsRegistered(caller) {
		return domain.User{}, domain.ErrAlreadyRegistered
	}
	u, err := users.New(caller, displayName, contact, e.params.Get().InitialReputation, e.now())
	if err != nil {
		return domain.User{}, err
	}

	cs := domain.ChangeSet{
		Users:  []domain.User{u},
		Events: []domain.Event{e.newEvent(domain.EvUserRegistered, 0, caller, 0, displayName)},
	}
	if err := e.commit(cs); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// UnregisterUser clears the caller's record. Single use.
func (e *Engine) UnregisterUser(caller domain.Identity) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.users.IsRegistered(caller) {
		return domain.ErrNotRegistered
	}
	cs := domain.ChangeSet{
		DeletedUsers: []domain.Identity{caller},
		Events:       []domain.Event{e.newEvent(domain.EvUserUnregistered, 0, caller, 0, "")},
	}
	return e.commit(cs)
}

// ─── Money operations ───────────────────────────────────────────────────────

// Withdraw transfers the caller's full withdrawable balance out. The
// ledger zeroes the balance before the external transfer runs; a second
// call finds nothing to transfer.
func (e *Engine) Withdraw(caller domain.Identity) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	amount, entry, err := e.ledger.Withdraw(caller)
	if err != nil {
		return 0, err
	}
	// The transfer already happened; record it. The durable record can
	// only lag the external world here, never lead it.
	cs := domain.ChangeSet{
		Entries: []domain.LedgerEntry{entry},
		Events:  []domain.Event{e.newEvent(domain.EvWithdrawal, 0, caller, amount, "")},
	}
	if e.store != nil {
		if err := e.store.Apply(cs); err != nil {
			e.installEvents(cs.Events)
			return amount, fmt.Errorf("withdrawal transferred but not recorded: %w", err)
		}
	}
	e.installEvents(cs.Events)
	metrics.Withdrawals.Inc()
	metrics.WithdrawalUnits.Add(float64(amount))
	return amount, nil
}

// SweepFees transfers the accrued fee pot to the configured treasury.
// Owner only.
func (e *Engine) SweepFees(caller domain.Identity) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.auth.Can(caller, authz.ActionSweepFees) {
		return 0, domain.ErrUnauthorized
	}
	amount, entry, err := e.ledger.SweepFees(e.treasury)
	if err != nil {
		return 0, err
	}
	cs := domain.ChangeSet{
		Entries: []domain.LedgerEntry{entry},
		Events:  []domain.Event{e.newEvent(domain.EvFeeSwept, 0, caller, amount, string(e.treasury))},
	}
	if e.store != nil {
		if err := e.store.Apply(cs); err != nil {
			e.installEvents(cs.Events)
			return amount, fmt.Errorf("sweep transferred but not recorded: %w", err)
		}
	}
	e.installEvents(cs.Events)
	return amount, nil
}

// SetParams replaces the economic parameter set. Owner only.
func (e *Engine) SetParams(caller domain.Identity, p params.Params) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.auth.Can(caller, authz.ActionSetParams) {
		return domain.ErrUnauthorized
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	blob, err := p.ToYAML()
	if err != nil {
		return err
	}
	cs := domain.ChangeSet{
		ParamsYAML: blob,
		Events:     []domain.Event{e.newEvent(domain.EvParamsChanged, 0, caller, 0, "")},
	}
	if e.store != nil {
		if err := e.store.Apply(cs); err != nil {
			return fmt.Errorf("persist params: %w", err)
		}
	}
	if err := e.params.Set(p); err != nil {
		return err
	}
	e.installEvents(cs.Events)
	return nil
}
