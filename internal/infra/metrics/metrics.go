// Package metrics provides Prometheus collectors for the marketplace:
// task lifecycle counters, escrow gauges, ledger movement counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TasksCreated counts posted tasks.
var TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "workstake",
	Name:      "tasks_created_total",
	Help:      "Total tasks created.",
})

// TasksCompleted counts approved tasks.
var TasksCompleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "workstake",
	Name:      "tasks_completed_total",
	Help:      "Total tasks completed.",
})

// TasksCancelled counts terminal cancellations by reason.
var TasksCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "workstake",
	Name:      "tasks_cancelled_total",
	Help:      "Total tasks cancelled.",
}, []string{"reason"})

// EscrowLocked tracks the total stake units currently locked in tasks.
var EscrowLocked = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "workstake",
	Name:      "escrow_locked_units",
	Help:      "Stake units currently locked in task escrow.",
})

// DeadlineTriggers counts lazy deadline resolutions.
var DeadlineTriggers = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "workstake",
	Name:      "deadline_triggers_total",
	Help:      "Total expired tasks resolved by deadline trigger.",
})

// ─── Join requests ──────────────────────────────────────────────────────────

// JoinRequests counts join request outcomes.
var JoinRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "workstake",
	Name:      "join_requests_total",
	Help:      "Total join requests by outcome.",
}, []string{"outcome"})

// ─── Ledger ─────────────────────────────────────────────────────────────────

// LedgerCredits counts credits released from escrow into the ledger.
var LedgerCredits = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "workstake",
	Name:      "ledger_credits_total",
	Help:      "Total credit movements into withdrawable balances.",
})

// Withdrawals counts completed withdrawals.
var Withdrawals = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "workstake",
	Name:      "withdrawals_total",
	Help:      "Total completed withdrawals.",
})

// WithdrawalUnits sums withdrawn amounts.
var WithdrawalUnits = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "workstake",
	Name:      "withdrawal_units_total",
	Help:      "Total units transferred out by withdrawals.",
})

// FeesAccrued sums activation fees added to the pot.
var FeesAccrued = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "workstake",
	Name:      "fees_accrued_total",
	Help:      "Total activation fee units accrued.",
})

// ─── Reputation ─────────────────────────────────────────────────────────────

// ReputationPenalties counts reputation penalty applications by kind.
var ReputationPenalties = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "workstake",
	Name:      "reputation_penalties_total",
	Help:      "Total reputation penalties applied.",
}, []string{"kind"})
