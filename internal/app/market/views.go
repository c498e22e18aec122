package market

import (
	"sort"

	"github.com/workstake-network/workstake/internal/app/params"
	"github.com/workstake-network/workstake/internal/domain"
)

// Stats is an aggregate view of the marketplace.
type Stats struct {
	Users            int   `json:"users"`
	TotalTasks       int   `json:"total_tasks"`
	Created          int   `json:"created"`
	Active           int   `json:"active"`
	OpenRegistration int   `json:"open_registration"`
	InProgress       int   `json:"in_progress"`
	Completed        int   `json:"completed"`
	Cancelled        int   `json:"cancelled"`
	EscrowLocked     int64 `json:"escrow_locked"`
	FeePot           int64 `json:"fee_pot"`
	LedgerTotal      int64 `json:"ledger_total"`
}

// GetTask returns a copy of a task. Deleted tasks are not found.
func (e *Engine) GetTask(taskID uint64) (domain.Task, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return domain.Task{}, err
	}
	return *t, nil
}

// ListTasks returns existing tasks ordered by ID, optionally filtered by
// status.
func (e *Engine) ListTasks(status *domain.TaskStatus) []domain.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.Task, 0, len(e.tasks))
	for _, t := range e.tasks {
		if !t.Exists {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TasksByCreator returns the creator's existing tasks ordered by ID.
func (e *Engine) TasksByCreator(creator domain.Identity) []domain.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []domain.Task
	for _, t := range e.tasks {
		if t.Exists && t.Creator == creator {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Requests returns a task's join requests in insertion order.
func (e *Engine) Requests(taskID uint64) ([]domain.JoinRequest, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, err := e.taskByID(taskID); err != nil {
		return nil, err
	}
	return e.book(taskID).All(), nil
}

// GetSubmission returns the task's live submission record.
func (e *Engine) GetSubmission(taskID uint64) (domain.Submission, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, err := e.taskByID(taskID); err != nil {
		return domain.Submission{}, err
	}
	sub, ok := e.subs[taskID]
	if !ok || sub.Status == domain.SubmitNone {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return *sub, nil
}

// GetUser returns a user record.
func (e *Engine) GetUser(id domain.Identity) (domain.User, error) {
	return e.users.Get(id)
}

// BalanceOf returns an identity's withdrawable balance.
func (e *Engine) BalanceOf(id domain.Identity) int64 {
	return e.ledger.Balance(id)
}

// FeePot returns the accrued, unswept activation fees.
func (e *Engine) FeePot() int64 {
	return e.ledger.FeePot()
}

// LedgerEntries returns recent audit rows.
func (e *Engine) LedgerEntries(limit int) []domain.LedgerEntry {
	return e.ledger.Entries(limit)
}

// Params returns the current economic parameters.
func (e *Engine) Params() params.Params {
	return e.params.Get()
}

// Events returns the most recent audit events, oldest first.
func (e *Engine) Events(limit int) []domain.Event {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n := len(e.events)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.Event, n)
	copy(out, e.events[len(e.events)-n:])
	return out
}

// Stats returns aggregate marketplace metrics.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Stats{
		Users:  e.users.Count(),
		FeePot: e.ledger.FeePot(),
	}
	for _, t := range e.tasks {
		if !t.Exists && t.Status != domain.TaskCancelled {
			continue
		}
		s.TotalTasks++
		switch t.Status {
		case domain.TaskCreated:
			s.Created++
		case domain.TaskActive:
			s.Active++
		case domain.TaskOpenRegistration:
			s.OpenRegistration++
		case domain.TaskInProgress:
			s.InProgress++
		case domain.TaskCompleted:
			s.Completed++
		case domain.TaskCancelled:
			s.Cancelled++
		}
		s.EscrowLocked += t.Escrowed()
	}
	for _, bal := range e.ledger.Balances() {
		s.LedgerTotal += bal
	}
	return s
}
