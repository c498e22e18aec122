package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestTaskMetricsRegistered(t *testing.T) {
	TasksCreated.Inc()
	TasksCompleted.Inc()
	TasksCancelled.WithLabelValues("deadline").Inc()
	EscrowLocked.Set(1975)
	DeadlineTriggers.Inc()

	names := gatheredNames(t)
	for _, name := range []string{
		"workstake_tasks_created_total",
		"workstake_tasks_completed_total",
		"workstake_tasks_cancelled_total",
		"workstake_escrow_locked_units",
		"workstake_deadline_triggers_total",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestLedgerMetricsRegistered(t *testing.T) {
	LedgerCredits.Inc()
	Withdrawals.Inc()
	WithdrawalUnits.Add(1500)
	FeesAccrued.Add(25)

	names := gatheredNames(t)
	for _, name := range []string{
		"workstake_ledger_credits_total",
		"workstake_withdrawals_total",
		"workstake_withdrawal_units_total",
		"workstake_fees_accrued_total",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestLabelledMetricsRegistered(t *testing.T) {
	JoinRequests.WithLabelValues("requested").Inc()
	JoinRequests.WithLabelValues("withdrawn").Inc()
	ReputationPenalties.WithLabelValues("cancel").Inc()

	names := gatheredNames(t)
	if !names["workstake_join_requests_total"] {
		t.Error("workstake_join_requests_total not found")
	}
	if !names["workstake_reputation_penalties_total"] {
		t.Error("workstake_reputation_penalties_total not found")
	}
}
