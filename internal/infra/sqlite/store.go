package sqlite

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/workstake-network/workstake/internal/domain"
)

// ─── MarketStore implementation ─────────────────────────────────────────────
// Apply persists one committed transition atomically: everything in the
// ChangeSet lands in a single transaction or not at all. Balances and
// the fee pot are derived from the audit rows (each entry carries the
// post-movement balance of its account).

const (
	metaNextTaskID = "next_task_id"
	metaParamsYAML = "params_yaml"
)

// Apply persists a ChangeSet in one transaction.
func (d *DB) Apply(cs domain.ChangeSet) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, u := range cs.Users {
		if err := upsertUser(tx, u); err != nil {
			return fmt.Errorf("upsert user %s: %w", u.ID, err)
		}
	}
	for _, id := range cs.DeletedUsers {
		if _, err := tx.Exec(`DELETE FROM users WHERE id = ?`, string(id)); err != nil {
			return fmt.Errorf("delete user %s: %w", id, err)
		}
	}
	for _, t := range cs.Tasks {
		if err := upsertTask(tx, t); err != nil {
			return fmt.Errorf("upsert task %d: %w", t.ID, err)
		}
	}
	for _, r := range cs.Requests {
		if err := upsertRequest(tx, r); err != nil {
			return fmt.Errorf("upsert request %d/%d: %w", r.TaskID, r.Position, err)
		}
	}
	for _, s := range cs.Submissions {
		if err := upsertSubmission(tx, s); err != nil {
			return fmt.Errorf("upsert submission %d: %w", s.TaskID, err)
		}
	}
	for _, e := range cs.Entries {
		if err := insertEntry(tx, e); err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO balances (account, balance) VALUES (?, ?)
			 ON CONFLICT(account) DO UPDATE SET balance=excluded.balance`,
			string(e.Account), e.Balance,
		); err != nil {
			return fmt.Errorf("update balance %s: %w", e.Account, err)
		}
	}
	for _, ev := range cs.Events {
		if err := insertEvent(tx, ev); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if cs.NextTaskID > 0 {
		if err := setMeta(tx, metaNextTaskID, strconv.FormatUint(cs.NextTaskID, 10)); err != nil {
			return err
		}
	}
	if len(cs.ParamsYAML) > 0 {
		if err := setMeta(tx, metaParamsYAML, string(cs.ParamsYAML)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Load reads the full persisted state.
func (d *DB) Load() (*domain.Snapshot, error) {
	snap := &domain.Snapshot{Balances: make(map[domain.Identity]int64)}

	if err := d.loadUsers(snap); err != nil {
		return nil, err
	}
	if err := d.loadTasks(snap); err != nil {
		return nil, err
	}
	if err := d.loadRequests(snap); err != nil {
		return nil, err
	}
	if err := d.loadSubmissions(snap); err != nil {
		return nil, err
	}
	if err := d.loadBalances(snap); err != nil {
		return nil, err
	}
	if err := d.loadEntries(snap); err != nil {
		return nil, err
	}
	if err := d.loadEvents(snap); err != nil {
		return nil, err
	}

	if v, err := d.getMeta(metaNextTaskID); err != nil {
		return nil, err
	} else if v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse next_task_id: %w", err)
		}
		snap.NextTaskID = id
	}
	if v, err := d.getMeta(metaParamsYAML); err != nil {
		return nil, err
	} else if v != "" {
		snap.ParamsYAML = []byte(v)
	}

	return snap, nil
}

// ─── Writers ────────────────────────────────────────────────────────────────

func upsertUser(tx *sql.Tx, u domain.User) error {
	_, err := tx.Exec(
		`INSERT INTO users (id, display_name, contact, reputation, registered, registered_at,
		                    tasks_created, tasks_completed, tasks_failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			reputation=excluded.reputation,
			registered=excluded.registered,
			tasks_created=excluded.tasks_created,
			tasks_completed=excluded.tasks_completed,
			tasks_failed=excluded.tasks_failed`,
		string(u.ID), u.DisplayName, u.Contact, u.Reputation, u.Registered,
		u.RegisteredAt.Unix(), u.TasksCreated, u.TasksCompleted, u.TasksFailed,
	)
	return err
}

func upsertTask(tx *sql.Tx, t domain.Task) error {
	_, err := tx.Exec(
		`INSERT INTO tasks (id, title, reference, status, category, creator, member,
		                    reward, creator_stake, member_stake, deadline_hours, deadline_at,
		                    max_revision, creator_stake_locked, member_stake_locked,
		                    reward_claimed, task_exists, created_at, assigned_at, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			member=excluded.member,
			creator_stake=excluded.creator_stake,
			member_stake=excluded.member_stake,
			deadline_at=excluded.deadline_at,
			creator_stake_locked=excluded.creator_stake_locked,
			member_stake_locked=excluded.member_stake_locked,
			reward_claimed=excluded.reward_claimed,
			task_exists=excluded.task_exists,
			assigned_at=excluded.assigned_at,
			resolved_at=excluded.resolved_at`,
		t.ID, t.Title, t.Reference, int(t.Status), int(t.Category),
		string(t.Creator), string(t.Member), t.Reward, t.CreatorStake, t.MemberStake,
		t.DeadlineHours, nullableUnix(t.DeadlineAt), t.MaxRevision,
		t.CreatorStakeLocked, t.MemberStakeLocked, t.RewardClaimed, t.Exists,
		t.CreatedAt.Unix(), nullableUnix(t.AssignedAt), nullableUnix(t.ResolvedAt),
	)
	return err
}

func upsertRequest(tx *sql.Tx, r domain.JoinRequest) error {
	_, err := tx.Exec(
		`INSERT INTO join_requests (task_id, position, applicant, stake_amount, status, pending, withdrawn, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(task_id, position) DO UPDATE SET
			stake_amount=excluded.stake_amount,
			status=excluded.status,
			pending=excluded.pending,
			withdrawn=excluded.withdrawn`,
		r.TaskID, r.Position, string(r.Applicant), r.StakeAmount,
		int(r.Status), r.Pending, r.Withdrawn, r.CreatedAt.Unix(),
	)
	return err
}

func upsertSubmission(tx *sql.Tx, s domain.Submission) error {
	_, err := tx.Exec(
		`INSERT INTO submissions (task_id, reference, submitter, note, status, revision_time, new_deadline, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(task_id) DO UPDATE SET
			reference=excluded.reference,
			submitter=excluded.submitter,
			note=excluded.note,
			status=excluded.status,
			revision_time=excluded.revision_time,
			new_deadline=excluded.new_deadline,
			updated_at=excluded.updated_at`,
		s.TaskID, s.Reference, string(s.Submitter), s.Note,
		int(s.Status), s.RevisionTime, nullableUnix(s.NewDeadline), s.UpdatedAt.Unix(),
	)
	return err
}

func insertEntry(tx *sql.Tx, e domain.LedgerEntry) error {
	_, err := tx.Exec(
		`INSERT INTO ledger_entries (id, timestamp, kind, account, amount, task_id, reason, balance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.Unix(), string(e.Kind), string(e.Account),
		e.Amount, e.TaskID, e.Reason, e.Balance,
	)
	return err
}

func insertEvent(tx *sql.Tx, ev domain.Event) error {
	_, err := tx.Exec(
		`INSERT INTO events (id, type, task_id, actor, amount, note, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.Type), ev.TaskID, string(ev.Actor), ev.Amount, ev.Note, ev.At.Unix(),
	)
	return err
}

func setMeta(tx *sql.Tx, key, value string) error {
	_, err := tx.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	return err
}

func (d *DB) getMeta(key string) (string, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// ─── Readers ────────────────────────────────────────────────────────────────

func (d *DB) loadUsers(snap *domain.Snapshot) error {
	rows, err := d.db.Query(
		`SELECT id, display_name, contact, reputation, registered, registered_at,
		        tasks_created, tasks_completed, tasks_failed
		 FROM users`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u domain.User
		var id string
		var regAt int64
		if err := rows.Scan(&id, &u.DisplayName, &u.Contact, &u.Reputation,
			&u.Registered, &regAt, &u.TasksCreated, &u.TasksCompleted, &u.TasksFailed); err != nil {
			return err
		}
		u.ID = domain.Identity(id)
		u.RegisteredAt = timeFromNull(sql.NullInt64{Int64: regAt, Valid: true})
		snap.Users = append(snap.Users, u)
	}
	return rows.Err()
}

func (d *DB) loadTasks(snap *domain.Snapshot) error {
	rows, err := d.db.Query(
		`SELECT id, title, reference, status, category, creator, member,
		        reward, creator_stake, member_stake, deadline_hours, deadline_at,
		        max_revision, creator_stake_locked, member_stake_locked,
		        reward_claimed, task_exists, created_at, assigned_at, resolved_at
		 FROM tasks ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return err
		}
		snap.Tasks = append(snap.Tasks, t)
	}
	return rows.Err()
}

func scanTask(s scanner) (domain.Task, error) {
	var t domain.Task
	var status, category int
	var creator, member string
	var createdAt int64
	var deadlineAt, assignedAt, resolvedAt sql.NullInt64

	err := s.Scan(&t.ID, &t.Title, &t.Reference, &status, &category, &creator, &member,
		&t.Reward, &t.CreatorStake, &t.MemberStake, &t.DeadlineHours, &deadlineAt,
		&t.MaxRevision, &t.CreatorStakeLocked, &t.MemberStakeLocked,
		&t.RewardClaimed, &t.Exists, &createdAt, &assignedAt, &resolvedAt)
	if err != nil {
		return domain.Task{}, err
	}
	t.Status = domain.TaskStatus(status)
	t.Category = domain.ValueCategory(category)
	t.Creator = domain.Identity(creator)
	t.Member = domain.Identity(member)
	t.CreatedAt = timeFromNull(sql.NullInt64{Int64: createdAt, Valid: true})
	t.DeadlineAt = timeFromNull(deadlineAt)
	t.AssignedAt = timeFromNull(assignedAt)
	t.ResolvedAt = timeFromNull(resolvedAt)
	return t, nil
}

func (d *DB) loadRequests(snap *domain.Snapshot) error {
	rows, err := d.db.Query(
		`SELECT task_id, position, applicant, stake_amount, status, pending, withdrawn, created_at
		 FROM join_requests ORDER BY task_id, position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.JoinRequest
		var applicant string
		var status int
		var createdAt int64
		if err := rows.Scan(&r.TaskID, &r.Position, &applicant, &r.StakeAmount,
			&status, &r.Pending, &r.Withdrawn, &createdAt); err != nil {
			return err
		}
		r.Applicant = domain.Identity(applicant)
		r.Status = domain.RequestStatus(status)
		r.CreatedAt = timeFromNull(sql.NullInt64{Int64: createdAt, Valid: true})
		snap.Requests = append(snap.Requests, r)
	}
	return rows.Err()
}

func (d *DB) loadSubmissions(snap *domain.Snapshot) error {
	rows, err := d.db.Query(
		`SELECT task_id, reference, submitter, note, status, revision_time, new_deadline, updated_at
		 FROM submissions`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.Submission
		var submitter string
		var status int
		var updatedAt int64
		var newDeadline sql.NullInt64
		if err := rows.Scan(&s.TaskID, &s.Reference, &submitter, &s.Note,
			&status, &s.RevisionTime, &newDeadline, &updatedAt); err != nil {
			return err
		}
		s.Submitter = domain.Identity(submitter)
		s.Status = domain.SubmitStatus(status)
		s.NewDeadline = timeFromNull(newDeadline)
		s.UpdatedAt = timeFromNull(sql.NullInt64{Int64: updatedAt, Valid: true})
		snap.Submissions = append(snap.Submissions, s)
	}
	return rows.Err()
}

func (d *DB) loadBalances(snap *domain.Snapshot) error {
	rows, err := d.db.Query(`SELECT account, balance FROM balances`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var account string
		var balance int64
		if err := rows.Scan(&account, &balance); err != nil {
			return err
		}
		if domain.Identity(account) == domain.FeeAccount {
			snap.FeePot = balance
			continue
		}
		snap.Balances[domain.Identity(account)] = balance
	}
	return rows.Err()
}

func (d *DB) loadEntries(snap *domain.Snapshot) error {
	rows, err := d.db.Query(
		`SELECT id, timestamp, kind, account, amount, task_id, reason, balance
		 FROM ledger_entries ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.LedgerEntry
		var kind, account string
		var ts int64
		var taskID sql.NullInt64
		var reason sql.NullString
		if err := rows.Scan(&e.ID, &ts, &kind, &account, &e.Amount, &taskID, &reason, &e.Balance); err != nil {
			return err
		}
		e.Kind = domain.EntryKind(kind)
		e.Account = domain.Identity(account)
		e.Timestamp = timeFromNull(sql.NullInt64{Int64: ts, Valid: true})
		if taskID.Valid {
			e.TaskID = uint64(taskID.Int64)
		}
		if reason.Valid {
			e.Reason = reason.String
		}
		snap.Entries = append(snap.Entries, e)
	}
	return rows.Err()
}

func (d *DB) loadEvents(snap *domain.Snapshot) error {
	rows, err := d.db.Query(
		`SELECT id, type, task_id, actor, amount, note, at FROM events ORDER BY rowid`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ev domain.Event
		var typ, actor string
		var at int64
		var note sql.NullString
		if err := rows.Scan(&ev.ID, &typ, &ev.TaskID, &actor, &ev.Amount, &note, &at); err != nil {
			return err
		}
		ev.Type = domain.EventType(typ)
		ev.Actor = domain.Identity(actor)
		if note.Valid {
			ev.Note = note.String
		}
		ev.At = timeFromNull(sql.NullInt64{Int64: at, Valid: true})
		snap.Events = append(snap.Events, ev)
	}
	return rows.Err()
}
