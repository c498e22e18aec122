package sqlite

import (
	"testing"
	"time"

	"github.com/workstake-network/workstake/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	db.Close()

	// Reopening runs the migrations again without error.
	db, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	db.Close()
}

func TestApplyLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	now := time.Unix(1772366400, 0)

	cs := domain.ChangeSet{
		Users: []domain.User{{
			ID: "alice", DisplayName: "Alice", Contact: "a@example.com",
			Reputation: 10, Registered: true, RegisteredAt: now, TasksCreated: 1,
		}},
		Tasks: []domain.Task{{
			ID: 1, Title: "build", Reference: "ref", Status: domain.TaskInProgress,
			Category: domain.CategoryMedium, Creator: "alice", Member: "bob",
			Reward: 1000, CreatorStake: 475, MemberStake: 500,
			DeadlineHours: 1, DeadlineAt: now.Add(time.Hour), MaxRevision: 1,
			CreatorStakeLocked: true, MemberStakeLocked: true, Exists: true,
			CreatedAt: now, AssignedAt: now,
		}},
		Requests: []domain.JoinRequest{{
			TaskID: 1, Position: 0, Applicant: "bob", Status: domain.RequestAccepted,
			Withdrawn: true, CreatedAt: now,
		}},
		Submissions: []domain.Submission{{
			TaskID: 1, Reference: "v1", Submitter: "bob", Status: domain.SubmitPending,
			UpdatedAt: now,
		}},
		Entries: []domain.LedgerEntry{
			{ID: "e1", Timestamp: now, Kind: domain.EntryFee, Account: domain.FeeAccount,
				Amount: 25, TaskID: 1, Reason: "activation fee", Balance: 25},
			{ID: "e2", Timestamp: now, Kind: domain.EntryCredit, Account: "carol",
				Amount: 500, TaskID: 1, Reason: "join request rejected", Balance: 500},
		},
		Events: []domain.Event{
			{ID: "ev1", Type: domain.EvTaskCreated, TaskID: 1, Actor: "alice", Amount: 1000, At: now},
		},
		NextTaskID: 2,
		ParamsYAML: []byte("fee_percent: 9\n"),
	}
	if err := db.Apply(cs); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	snap, err := db.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(snap.Users) != 1 || snap.Users[0].ID != "alice" || snap.Users[0].Reputation != 10 {
		t.Errorf("users = %+v", snap.Users)
	}
	if len(snap.Tasks) != 1 {
		t.Fatalf("tasks = %+v", snap.Tasks)
	}
	task := snap.Tasks[0]
	if task.Status != domain.TaskInProgress || task.Member != "bob" || !task.Exists {
		t.Errorf("task = %+v", task)
	}
	if !task.DeadlineAt.Equal(now.Add(time.Hour)) {
		t.Errorf("deadline = %v", task.DeadlineAt)
	}
	if !task.ResolvedAt.IsZero() {
		t.Errorf("resolved_at should stay zero, got %v", task.ResolvedAt)
	}
	if len(snap.Requests) != 1 || snap.Requests[0].Status != domain.RequestAccepted {
		t.Errorf("requests = %+v", snap.Requests)
	}
	if len(snap.Submissions) != 1 || snap.Submissions[0].Reference != "v1" {
		t.Errorf("submissions = %+v", snap.Submissions)
	}
	if snap.FeePot != 25 {
		t.Errorf("fee pot = %d, want 25", snap.FeePot)
	}
	if snap.Balances["carol"] != 500 {
		t.Errorf("carol balance = %d, want 500", snap.Balances["carol"])
	}
	if len(snap.Entries) != 2 || snap.Entries[0].Kind != domain.EntryFee {
		t.Errorf("entries = %+v", snap.Entries)
	}
	if len(snap.Events) != 1 || snap.Events[0].Type != domain.EvTaskCreated {
		t.Errorf("events = %+v", snap.Events)
	}
	if snap.NextTaskID != 2 {
		t.Errorf("next task id = %d, want 2", snap.NextTaskID)
	}
	if string(snap.ParamsYAML) != "fee_percent: 9\n" {
		t.Errorf("params yaml = %q", snap.ParamsYAML)
	}
}

func TestApplyUpsertsInPlace(t *testing.T) {
	db := openTestDB(t)
	now := time.Unix(1772366400, 0)

	base := domain.Task{
		ID: 1, Title: "build", Status: domain.TaskCreated, Creator: "alice",
		Reward: 1000, DeadlineHours: 1, Exists: true, CreatedAt: now,
	}
	if err := db.Apply(domain.ChangeSet{Tasks: []domain.Task{base}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	updated := base
	updated.Status = domain.TaskActive
	updated.CreatorStake = 475
	updated.CreatorStakeLocked = true
	if err := db.Apply(domain.ChangeSet{Tasks: []domain.Task{updated}}); err != nil {
		t.Fatalf("second Apply: %v", err)
	}

	snap, err := db.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Tasks) != 1 {
		t.Fatalf("tasks = %d rows, want 1", len(snap.Tasks))
	}
	if snap.Tasks[0].Status != domain.TaskActive || snap.Tasks[0].CreatorStake != 475 {
		t.Errorf("task = %+v", snap.Tasks[0])
	}
}

func TestDeletedUsersAreRemoved(t *testing.T) {
	db := openTestDB(t)
	now := time.Unix(1772366400, 0)

	u := domain.User{ID: "alice", Registered: true, RegisteredAt: now}
	if err := db.Apply(domain.ChangeSet{Users: []domain.User{u}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := db.Apply(domain.ChangeSet{DeletedUsers: []domain.Identity{"alice"}}); err != nil {
		t.Fatalf("delete Apply: %v", err)
	}

	snap, err := db.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Users) != 0 {
		t.Errorf("users = %+v, want none", snap.Users)
	}
}

func TestBalanceRowFollowsLatestEntry(t *testing.T) {
	db := openTestDB(t)
	now := time.Unix(1772366400, 0)

	entries := []domain.LedgerEntry{
		{ID: "e1", Timestamp: now, Kind: domain.EntryCredit, Account: "bob", Amount: 100, Balance: 100},
	}
	if err := db.Apply(domain.ChangeSet{Entries: entries}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	withdraw := []domain.LedgerEntry{
		{ID: "e2", Timestamp: now, Kind: domain.EntryWithdraw, Account: "bob", Amount: 100, Balance: 0},
	}
	if err := db.Apply(domain.ChangeSet{Entries: withdraw}); err != nil {
		t.Fatalf("withdraw Apply: %v", err)
	}

	snap, err := db.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.Balances["bob"] != 0 {
		t.Errorf("bob balance = %d, want 0", snap.Balances["bob"])
	}
	if len(snap.Entries) != 2 {
		t.Errorf("entries = %d, want 2 (audit trail is append-only)", len(snap.Entries))
	}
}
