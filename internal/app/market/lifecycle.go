package market

import (
	"time"

	"github.com/workstake-network/workstake/internal/app/authz"
	"github.com/workstake-network/workstake/internal/app/joinreq"
	"github.com/workstake-network/workstake/internal/app/users"
	"github.com/workstake-network/workstake/internal/app/valuation"
	"github.com/workstake-network/workstake/internal/domain"
	"github.com/workstake-network/workstake/internal/infra/metrics"
)

// stageCredit appends the audit row and event for releasing funds from
// task escrow into an identity's withdrawable balance. Zero credits are
// dropped (a 100% penalty can leave nothing for one side).
func (e *Engine) stageCredit(cs *domain.ChangeSet, to domain.Identity, amount int64, taskID uint64, reason string) {
	if amount <= 0 {
		return
	}
	cs.Entries = append(cs.Entries, e.ledger.StageCredit(to, amount, taskID, reason))
	cs.Events = append(cs.Events, e.newEvent(domain.EvFundsCredited, taskID, to, amount, reason))
}

// ─── Creation ───────────────────────────────────────────────────────────────

// CreateTask posts a new task. The caller must be registered and must not
// be a privileged operator; paid is the full reward and must accompany
// the call. The value category is derived once from the task parameters
// and the creator's reputation, and never changes afterwards.
func (e *Engine) CreateTask(caller domain.Identity, title, reference string, deadlineHours int64, maxRevision int, paid int64) (domain.Task, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.users.IsRegistered(caller) {
		return domain.Task{}, domain.ErrNotRegistered
	}
	if !e.auth.Can(caller, authz.ActionCreateTask) {
		return domain.Task{}, domain.ErrUnauthorized
	}
	p := e.params.Get()
	if title == "" || deadlineHours <= 0 || maxRevision < 0 || maxRevision > p.MaxRevision {
		return domain.Task{}, domain.ErrInvalidInput
	}
	if paid <= 0 {
		return domain.Task{}, domain.ErrInvalidAmount
	}

	creator, err := e.users.Get(caller)
	if err != nil {
		return domain.Task{}, err
	}
	category, _ := valuation.Appraise(p, deadlineHours, maxRevision, paid, creator.Reputation)

	task := domain.Task{
		ID:            e.nextTaskID,
		Title:         title,
		Reference:     reference,
		Status:        domain.TaskCreated,
		Category:      category,
		Creator:       caller,
		Reward:        paid,
		DeadlineHours: deadlineHours,
		MaxRevision:   maxRevision,
		Exists:        true,
		CreatedAt:     e.now(),
	}
	creator.TasksCreated++

	cs := domain.ChangeSet{
		Tasks:      []domain.Task{task},
		Users:      []domain.User{creator},
		NextTaskID: task.ID + 1,
		Events:     []domain.Event{e.newEvent(domain.EvTaskCreated, task.ID, caller, paid, title)},
	}
	if err := e.commit(cs); err != nil {
		return domain.Task{}, err
	}
	metrics.TasksCreated.Inc()
	return task, nil
}

// DeleteTask cancels a task that was never activated and refunds the
// escrowed reward to its creator. Guards: the task must exist, must
// still be in Created, and only the creator may delete it — an
// unguarded delete would let any caller drain refunds.
func (e *Engine) DeleteTask(caller domain.Identity, taskID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return err
	}
	if t.Status != domain.TaskCreated {
		return domain.ErrInvalidState
	}
	if caller != t.Creator {
		return domain.ErrUnauthorized
	}

	staged := *t
	staged.Status = domain.TaskCancelled
	staged.Exists = false
	staged.CreatorStakeLocked = false
	staged.ResolvedAt = e.now()

	refund := t.Reward
	if t.CreatorStakeLocked {
		refund += t.CreatorStake
	}

	cs := domain.ChangeSet{
		Tasks:  []domain.Task{staged},
		Events: []domain.Event{e.newEvent(domain.EvTaskDeleted, taskID, caller, refund, "")},
	}
	e.stageCredit(&cs, t.Creator, refund, taskID, "task deleted")
	if err := e.commit(cs); err != nil {
		return err
	}
	metrics.TasksCancelled.WithLabelValues("deleted").Inc()
	return nil
}

// ActivateTask locks the creator's collateral. The transferred amount
// must equal the category's stake tier exactly; the activation fee is
// deducted from it and accrued to the fee pot, the remainder is locked
// as the creator stake.
func (e *Engine) ActivateTask(caller domain.Identity, taskID uint64, paid int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return err
	}
	if t.Status != domain.TaskCreated {
		return domain.ErrInvalidState
	}
	if caller != t.Creator {
		return domain.ErrUnauthorized
	}
	p := e.params.Get()
	required := valuation.CreatorStake(p, t.Category)
	if paid != required {
		return domain.ErrInvalidAmount
	}

	fee := required * p.FeePercent / 100
	staged := *t
	staged.CreatorStake = required - fee
	staged.CreatorStakeLocked = true
	staged.Status = domain.TaskActive

	cs := domain.ChangeSet{
		Tasks:  []domain.Task{staged},
		Events: []domain.Event{e.newEvent(domain.EvTaskActivated, taskID, caller, staged.CreatorStake, "")},
	}
	if fee > 0 {
		cs.Entries = append(cs.Entries, e.ledger.StageFee(fee, taskID))
	}
	if err := e.commit(cs); err != nil {
		return err
	}
	metrics.FeesAccrued.Add(float64(fee))
	metrics.EscrowLocked.Add(float64(staged.CreatorStake))
	return nil
}

// OpenRegistration starts accepting join requests. Creator only.
func (e *Engine) OpenRegistration(caller domain.Identity, taskID uint64) error {
	return e.toggleRegistration(caller, taskID, domain.TaskActive, domain.TaskOpenRegistration, domain.EvRegistrationOpened)
}

// CloseRegistration stops accepting join requests. Creator only.
func (e *Engine) CloseRegistration(caller domain.Identity, taskID uint64) error {
	return e.toggleRegistration(caller, taskID, domain.TaskOpenRegistration, domain.TaskActive, domain.EvRegistrationClosed)
}

func (e *Engine) toggleRegistration(caller domain.Identity, taskID uint64, from, to domain.TaskStatus, ev domain.EventType) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return err
	}
	if t.Status != from {
		return domain.ErrInvalidState
	}
	if caller != t.Creator {
		return domain.ErrUnauthorized
	}

	staged := *t
	staged.Status = to
	return e.commit(domain.ChangeSet{
		Tasks:  []domain.Task{staged},
		Events: []domain.Event{e.newEvent(ev, taskID, caller, 0, "")},
	})
}

// ─── Join requests ──────────────────────────────────────────────────────────

// RequestJoin applies to claim a task. The transferred stake must be
// exactly reward × memberStakePercent and within the configured maximum;
// an applicant may hold at most one pending request per task.
func (e *Engine) RequestJoin(caller domain.Identity, taskID uint64, paid int64) (domain.JoinRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return domain.JoinRequest{}, err
	}
	if t.Status != domain.TaskOpenRegistration {
		return domain.JoinRequest{}, domain.ErrInvalidState
	}
	if !e.users.IsRegistered(caller) {
		return domain.JoinRequest{}, domain.ErrNotRegistered
	}
	if caller == t.Creator {
		return domain.JoinRequest{}, domain.ErrUnauthorized
	}
	p := e.params.Get()
	required := valuation.MemberStake(p, t.Reward)
	if required > p.MaxStake {
		return domain.JoinRequest{}, domain.ErrStakeTooLarge
	}
	if paid != required {
		return domain.JoinRequest{}, domain.ErrInvalidAmount
	}

	book := e.book(taskID)
	if _, _, ok := book.FindPending(caller); ok {
		return domain.JoinRequest{}, domain.ErrAlreadyPending
	}
	staged := domain.JoinRequest{
		TaskID:      taskID,
		Position:    book.Len(),
		Applicant:   caller,
		StakeAmount: paid,
		Status:      domain.RequestPending,
		Pending:     true,
		CreatedAt:   e.now(),
	}

	cs := domain.ChangeSet{
		Requests: []domain.JoinRequest{staged},
		Events:   []domain.Event{e.newEvent(domain.EvJoinRequested, taskID, caller, paid, "")},
	}
	if err := e.commit(cs); err != nil {
		return domain.JoinRequest{}, err
	}
	metrics.JoinRequests.WithLabelValues("requested").Inc()
	return staged, nil
}

// WithdrawJoin cancels the caller's pending request and credits the
// stake back to the caller's withdrawable balance.
func (e *Engine) WithdrawJoin(caller domain.Identity, taskID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.taskByID(taskID); err != nil {
		return err
	}
	_, staged, ok := e.book(taskID).FindPending(caller)
	if !ok {
		return domain.ErrRequestNotFound
	}
	stake := staged.StakeAmount
	if err := joinreq.Withdraw(&staged); err != nil {
		return err
	}

	cs := domain.ChangeSet{
		Requests: []domain.JoinRequest{staged},
		Events:   []domain.Event{e.newEvent(domain.EvJoinWithdrawn, taskID, caller, stake, "")},
	}
	e.stageCredit(&cs, caller, stake, taskID, "join request withdrawn")
	if err := e.commit(cs); err != nil {
		return err
	}
	metrics.JoinRequests.WithLabelValues("withdrawn").Inc()
	return nil
}

// ApproveJoin assigns the applicant as the task member. The request's
// stake moves into the task escrow (not the ledger), the absolute
// deadline starts running, and the task enters InProgress.
func (e *Engine) ApproveJoin(caller domain.Identity, taskID uint64, applicant domain.Identity) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return err
	}
	if t.Status != domain.TaskOpenRegistration {
		return domain.ErrInvalidState
	}
	if caller != t.Creator {
		return domain.ErrUnauthorized
	}
	_, staged, ok := e.book(taskID).FindPending(applicant)
	if !ok {
		return domain.ErrRequestNotFound
	}
	stake := staged.StakeAmount
	if err := joinreq.Accept(&staged); err != nil {
		return err
	}

	now := e.now()
	stagedTask := *t
	stagedTask.Member = applicant
	stagedTask.MemberStake = stake
	stagedTask.MemberStakeLocked = true
	stagedTask.DeadlineAt = now.Add(time.Duration(t.DeadlineHours) * time.Hour)
	stagedTask.AssignedAt = now
	stagedTask.Status = domain.TaskInProgress

	cs := domain.ChangeSet{
		Tasks:    []domain.Task{stagedTask},
		Requests: []domain.JoinRequest{staged},
		Events: []domain.Event{
			e.newEvent(domain.EvJoinApproved, taskID, caller, stake, string(applicant)),
			e.newEvent(domain.EvTaskAssigned, taskID, applicant, 0, ""),
		},
	}
	if err := e.commit(cs); err != nil {
		return err
	}
	metrics.JoinRequests.WithLabelValues("approved").Inc()
	metrics.EscrowLocked.Add(float64(stake))
	return nil
}

// RejectJoin declines a pending request and refunds the applicant's
// stake via the ledger. The creator may reject leftover requests even
// after a member has been assigned.
func (e *Engine) RejectJoin(caller domain.Identity, taskID uint64, applicant domain.Identity) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return err
	}
	if caller != t.Creator {
		return domain.ErrUnauthorized
	}
	_, staged, ok := e.book(taskID).FindPending(applicant)
	if !ok {
		return domain.ErrRequestNotFound
	}
	stake := staged.StakeAmount
	if err := joinreq.Reject(&staged); err != nil {
		return err
	}

	cs := domain.ChangeSet{
		Requests: []domain.JoinRequest{staged},
		Events:   []domain.Event{e.newEvent(domain.EvJoinRejected, taskID, caller, stake, string(applicant))},
	}
	e.stageCredit(&cs, applicant, stake, taskID, "join request rejected")
	if err := e.commit(cs); err != nil {
		return err
	}
	metrics.JoinRequests.WithLabelValues("rejected").Inc()
	return nil
}

// ─── Cancellation and deadlines ─────────────────────────────────────────────

// CancelByMe cancels an in-progress task from either side. The
// cancelling party forfeits negPenalty% of their own stake to the
// counterparty and keeps the remainder; the reward returns to the
// creator. The canceller loses reputation and gains a failed-task mark.
func (e *Engine) CancelByMe(caller domain.Identity, taskID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return err
	}
	if t.Status != domain.TaskInProgress {
		return domain.ErrInvalidState
	}
	if caller != t.Creator && caller != t.Member {
		return domain.ErrUnauthorized
	}
	p := e.params.Get()

	staged := *t
	staged.Status = domain.TaskCancelled
	staged.CreatorStakeLocked = false
	staged.MemberStakeLocked = false
	staged.ResolvedAt = e.now()

	cs := domain.ChangeSet{
		Tasks:  []domain.Task{staged},
		Events: []domain.Event{e.newEvent(domain.EvTaskCancelled, taskID, caller, 0, "cancelled by "+string(caller))},
	}
	if caller == t.Member {
		penalty := t.MemberStake * p.NegPenaltyPercent / 100
		e.stageCredit(&cs, t.Member, t.MemberStake-penalty, taskID, "member stake returned minus penalty")
		e.stageCredit(&cs, t.Creator, penalty+t.CreatorStake+t.Reward, taskID, "cancellation settlement")
	} else {
		penalty := t.CreatorStake * p.NegPenaltyPercent / 100
		e.stageCredit(&cs, t.Member, t.MemberStake+penalty, taskID, "cancellation settlement")
		e.stageCredit(&cs, t.Creator, t.CreatorStake-penalty+t.Reward, taskID, "creator stake returned minus penalty")
	}

	canceller, err := e.users.Get(caller)
	if err == nil {
		users.AdjustReputation(&canceller, -p.CancelPenalty)
		canceller.TasksFailed++
		cs.Users = append(cs.Users, canceller)
	}

	if err := e.commit(cs); err != nil {
		return err
	}
	metrics.TasksCancelled.WithLabelValues("cancelled").Inc()
	metrics.ReputationPenalties.WithLabelValues("cancel").Inc()
	metrics.EscrowLocked.Sub(float64(t.CreatorStake + t.MemberStake))
	return nil
}

// TriggerDeadline lazily resolves an expired in-progress task. Any
// caller may invoke it; nothing is scheduled by the core. The member
// forfeits negPenalty% of their stake to the creator and keeps the
// rest; the creator additionally recovers their stake and the reward.
// With no member assigned the creator is refunded in full.
func (e *Engine) TriggerDeadline(caller domain.Identity, taskID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return err
	}
	if t.Status != domain.TaskInProgress {
		return domain.ErrInvalidState
	}
	if sub, ok := e.subs[taskID]; ok && sub.Status == domain.SubmitPending {
		// A submission awaiting review blocks the trigger.
		return domain.ErrInvalidState
	}
	if t.DeadlineAt.IsZero() || !e.now().After(t.DeadlineAt) {
		return domain.ErrDeadlineNotReached
	}
	p := e.params.Get()

	staged := *t
	staged.Status = domain.TaskCancelled
	staged.CreatorStakeLocked = false
	staged.MemberStakeLocked = false
	staged.ResolvedAt = e.now()

	cs := domain.ChangeSet{
		Tasks: []domain.Task{staged},
		Events: []domain.Event{
			e.newEvent(domain.EvDeadlineTriggered, taskID, caller, 0, ""),
			e.newEvent(domain.EvTaskCancelled, taskID, caller, 0, "deadline expired"),
		},
	}

	if !t.Member.IsZero() {
		penalty := t.MemberStake * p.NegPenaltyPercent / 100
		e.stageCredit(&cs, t.Member, t.MemberStake-penalty, taskID, "member stake returned minus deadline penalty")
		e.stageCredit(&cs, t.Creator, penalty+t.CreatorStake+t.Reward, taskID, "deadline settlement")

		if member, err := e.users.Get(t.Member); err == nil {
			users.AdjustReputation(&member, -p.DeadlineMemberPenalty)
			member.TasksFailed++
			cs.Users = append(cs.Users, member)
		}
	} else {
		e.stageCredit(&cs, t.Creator, t.CreatorStake+t.Reward, taskID, "deadline refund")
	}
	if creator, err := e.users.Get(t.Creator); err == nil {
		users.AdjustReputation(&creator, -p.DeadlineCreatorPenalty)
		creator.TasksFailed++
		cs.Users = append(cs.Users, creator)
	}

	if err := e.commit(cs); err != nil {
		return err
	}
	metrics.DeadlineTriggers.Inc()
	metrics.TasksCancelled.WithLabelValues("deadline").Inc()
	metrics.ReputationPenalties.WithLabelValues("deadline").Inc()
	metrics.EscrowLocked.Sub(float64(t.CreatorStake + t.MemberStake))
	return nil
}
