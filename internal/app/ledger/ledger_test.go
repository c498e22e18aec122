package ledger

import (
	"errors"
	"sync"
	"testing"

	"github.com/workstake-network/workstake/internal/domain"
)

// recordingTransfer captures outgoing transfers.
type recordingTransfer struct {
	mu    sync.Mutex
	calls []int64
	fail  error
}

func (r *recordingTransfer) fn(to domain.Identity, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.calls = append(r.calls, amount)
	return nil
}

func credit(l *Ledger, id domain.Identity, amount int64) {
	l.Install(l.StageCredit(id, amount, 1, "test"))
}

func TestWithdrawZeroesBeforeTransfer(t *testing.T) {
	var rec recordingTransfer
	l := New(rec.fn)
	credit(l, "alice", 1500)

	amount, entry, err := l.Withdraw("alice")
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if amount != 1500 {
		t.Errorf("amount = %d, want 1500", amount)
	}
	if entry.Kind != domain.EntryWithdraw || entry.Balance != 0 {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if l.Balance("alice") != 0 {
		t.Errorf("balance = %d, want 0", l.Balance("alice"))
	}

	// A second withdrawal finds nothing.
	if _, _, err := l.Withdraw("alice"); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("second withdraw err = %v, want ErrInsufficientFunds", err)
	}
	if len(rec.calls) != 1 {
		t.Errorf("transfer called %d times, want 1", len(rec.calls))
	}
}

func TestWithdrawRestoresOnTransferFailure(t *testing.T) {
	rec := recordingTransfer{fail: errors.New("rpc down")}
	l := New(rec.fn)
	credit(l, "alice", 700)

	if _, _, err := l.Withdraw("alice"); !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("err = %v, want ErrTransferFailed", err)
	}
	if l.Balance("alice") != 700 {
		t.Errorf("balance = %d, want 700 restored", l.Balance("alice"))
	}

	// A retry after the transport recovers succeeds.
	rec.fail = nil
	amount, _, err := l.Withdraw("alice")
	if err != nil || amount != 700 {
		t.Errorf("retry = %d, %v; want 700, nil", amount, err)
	}
}

func TestWithdrawRejectsReentrantCall(t *testing.T) {
	l := New(nil)
	var inner error
	l.transfer = func(to domain.Identity, amount int64) error {
		// A malicious callee re-entering during the transfer.
		_, _, inner = l.Withdraw(to)
		return nil
	}
	credit(l, "alice", 100)

	if _, _, err := l.Withdraw("alice"); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	// The reentrant call sees a zero balance (already moved out) or the
	// in-flight guard; either way it must not double-pay.
	if !errors.Is(inner, domain.ErrInsufficientFunds) && !errors.Is(inner, domain.ErrReentrantCall) {
		t.Errorf("reentrant err = %v, want guard rejection", inner)
	}
}

func TestWithdrawGuards(t *testing.T) {
	l := New((&recordingTransfer{}).fn)

	if _, _, err := l.Withdraw(domain.ZeroIdentity); !errors.Is(err, domain.ErrZeroIdentity) {
		t.Errorf("zero identity err = %v", err)
	}
	if _, _, err := l.Withdraw("nobody"); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("empty balance err = %v", err)
	}
}

func TestSweepFees(t *testing.T) {
	var rec recordingTransfer
	l := New(rec.fn)
	l.Install(l.StageFee(25, 1))
	l.Install(l.StageFee(40, 2))

	if l.FeePot() != 65 {
		t.Fatalf("fee pot = %d, want 65", l.FeePot())
	}

	amount, entry, err := l.SweepFees("treasury")
	if err != nil {
		t.Fatalf("SweepFees: %v", err)
	}
	if amount != 65 || entry.Kind != domain.EntrySweep {
		t.Errorf("swept %d (%s), want 65 SWEEP", amount, entry.Kind)
	}
	if l.FeePot() != 0 {
		t.Errorf("fee pot = %d after sweep, want 0", l.FeePot())
	}
	if _, _, err := l.SweepFees("treasury"); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("empty sweep err = %v, want ErrInsufficientFunds", err)
	}
}

func TestSweepRestoresOnFailure(t *testing.T) {
	rec := recordingTransfer{fail: errors.New("rpc down")}
	l := New(rec.fn)
	l.Install(l.StageFee(30, 1))

	if _, _, err := l.SweepFees("treasury"); !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("err = %v, want ErrTransferFailed", err)
	}
	if l.FeePot() != 30 {
		t.Errorf("fee pot = %d, want 30 restored", l.FeePot())
	}
}

func TestStageCreditComputesPostBalance(t *testing.T) {
	l := New(nil)
	credit(l, "alice", 100)

	entry := l.StageCredit("alice", 50, 3, "more")
	if entry.Balance != 150 {
		t.Errorf("staged balance = %d, want 150", entry.Balance)
	}
	// Staging does not apply; install does.
	if l.Balance("alice") != 100 {
		t.Errorf("balance = %d before install, want 100", l.Balance("alice"))
	}
	l.Install(entry)
	if l.Balance("alice") != 150 {
		t.Errorf("balance = %d after install, want 150", l.Balance("alice"))
	}
}

func TestRestore(t *testing.T) {
	l := New(nil)
	l.Restore(map[domain.Identity]int64{"alice": 10, "bob": 20}, 5, []domain.LedgerEntry{
		{ID: "e1", Kind: domain.EntryCredit, Account: "alice", Amount: 10, Balance: 10},
	})

	if l.Balance("alice") != 10 || l.Balance("bob") != 20 || l.FeePot() != 5 {
		t.Error("restored state mismatch")
	}
	if len(l.Entries(0)) != 1 {
		t.Errorf("entries = %d, want 1", len(l.Entries(0)))
	}
}

func TestEntriesLimit(t *testing.T) {
	l := New(nil)
	for i := 0; i < 5; i++ {
		credit(l, "alice", 1)
	}
	if got := len(l.Entries(3)); got != 3 {
		t.Errorf("Entries(3) len = %d, want 3", got)
	}
	if got := len(l.Entries(0)); got != 5 {
		t.Errorf("Entries(0) len = %d, want 5", got)
	}
}
