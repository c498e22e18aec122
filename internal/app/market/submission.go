package market

import (
	"time"

	"github.com/workstake-network/workstake/internal/app/users"
	"github.com/workstake-network/workstake/internal/domain"
	"github.com/workstake-network/workstake/internal/infra/metrics"
)

// Revision rule: the revision counter may pass the task's maxRevision by
// exactly one grant. RequestRevision checks the counter before
// incrementing; ResubmitWork checks the stored counter. Once RevisionTime
// exceeds maxRevision, both paths route to internal approval instead of
// continuing the loop, so an exhausted revision budget always completes
// the task.

// SubmitWork files the member's first submission for an in-progress task.
func (e *Engine) SubmitWork(caller domain.Identity, taskID uint64, reference, note string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return err
	}
	if t.Status != domain.TaskInProgress {
		return domain.ErrInvalidState
	}
	if caller != t.Member {
		return domain.ErrUnauthorized
	}
	if reference == "" {
		return domain.ErrInvalidInput
	}
	if sub, ok := e.subs[taskID]; ok &&
		(sub.Status == domain.SubmitPending || sub.Status == domain.SubmitRevisionNeeded) {
		return domain.ErrAlreadyPending
	}

	staged := domain.Submission{
		TaskID:    taskID,
		Reference: reference,
		Submitter: caller,
		Note:      note,
		Status:    domain.SubmitPending,
		UpdatedAt: e.now(),
	}
	return e.commit(domain.ChangeSet{
		Submissions: []domain.Submission{staged},
		Events:      []domain.Event{e.newEvent(domain.EvWorkSubmitted, taskID, caller, 0, reference)},
	})
}

// ResubmitWork files revised work after a revision request. When the
// revision budget is already exhausted the resubmission auto-completes
// the task instead of re-entering the review loop.
func (e *Engine) ResubmitWork(caller domain.Identity, taskID uint64, reference, note string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return err
	}
	if t.Status != domain.TaskInProgress {
		return domain.ErrInvalidState
	}
	if caller != t.Member {
		return domain.ErrUnauthorized
	}
	sub, ok := e.subs[taskID]
	if !ok || sub.Status == domain.SubmitNone {
		return domain.ErrSubmissionNotFound
	}
	if sub.Status != domain.SubmitRevisionNeeded {
		return domain.ErrInvalidState
	}

	if sub.RevisionTime > t.MaxRevision {
		return e.approveStaged(t, *sub, caller)
	}

	if reference == "" {
		return domain.ErrInvalidInput
	}
	staged := *sub
	staged.Reference = reference
	staged.Note = note
	staged.Status = domain.SubmitPending
	staged.UpdatedAt = e.now()

	return e.commit(domain.ChangeSet{
		Submissions: []domain.Submission{staged},
		Events:      []domain.Event{e.newEvent(domain.EvWorkResubmitted, taskID, caller, 0, reference)},
	})
}

// RequestRevision sends a pending submission back for rework, extending
// the deadline and charging both parties the revision reputation
// penalty. If the budget was already exhausted it approves instead.
func (e *Engine) RequestRevision(caller domain.Identity, taskID uint64, note string, extraHours int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return err
	}
	if t.Status != domain.TaskInProgress {
		return domain.ErrInvalidState
	}
	if caller != t.Creator {
		return domain.ErrUnauthorized
	}
	if extraHours < 0 {
		return domain.ErrInvalidInput
	}
	sub, ok := e.subs[taskID]
	if !ok || sub.Status == domain.SubmitNone {
		return domain.ErrSubmissionNotFound
	}
	if sub.Status != domain.SubmitPending {
		return domain.ErrInvalidState
	}

	// Pre-increment check: a counter already past the budget approves.
	if sub.RevisionTime > t.MaxRevision {
		return e.approveStaged(t, *sub, caller)
	}

	p := e.params.Get()
	newDeadline := t.DeadlineAt.Add(time.Duration(extraHours) * time.Hour)

	stagedTask := *t
	stagedTask.DeadlineAt = newDeadline

	stagedSub := *sub
	stagedSub.RevisionTime++
	stagedSub.Status = domain.SubmitRevisionNeeded
	stagedSub.Note = note
	stagedSub.NewDeadline = newDeadline
	stagedSub.UpdatedAt = e.now()

	cs := domain.ChangeSet{
		Tasks:       []domain.Task{stagedTask},
		Submissions: []domain.Submission{stagedSub},
		Events:      []domain.Event{e.newEvent(domain.EvRevisionRequested, taskID, caller, extraHours, note)},
	}
	// Revisions cost both sides reputation.
	for _, id := range []domain.Identity{t.Creator, t.Member} {
		if u, err := e.users.Get(id); err == nil {
			users.AdjustReputation(&u, -p.RevisionPenalty)
			cs.Users = append(cs.Users, u)
		}
	}
	if err := e.commit(cs); err != nil {
		return err
	}
	metrics.ReputationPenalties.WithLabelValues("revision").Inc()
	return nil
}

// ApproveWork accepts the pending submission and settles the task.
func (e *Engine) ApproveWork(caller domain.Identity, taskID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, err := e.taskByID(taskID)
	if err != nil {
		return err
	}
	if t.Status != domain.TaskInProgress {
		return domain.ErrInvalidState
	}
	if caller != t.Creator {
		return domain.ErrUnauthorized
	}
	sub, ok := e.subs[taskID]
	if !ok || sub.Status != domain.SubmitPending {
		return domain.ErrInvalidState
	}
	return e.approveStaged(t, *sub, caller)
}

// approveStaged settles a task as Completed: the member is credited
// reward + member stake, the creator recovers the creator stake, both
// locks clear, reputations and completion counters rise, and the
// submission record is accepted and emptied. Callers hold the lock.
func (e *Engine) approveStaged(t *domain.Task, sub domain.Submission, actor domain.Identity) error {
	if t.RewardClaimed {
		return domain.ErrAlreadyClaimed
	}
	if sub.Submitter.IsZero() {
		return domain.ErrSubmissionNotFound
	}
	if t.Member.IsZero() {
		return domain.ErrInvalidState
	}
	p := e.params.Get()

	stagedTask := *t
	stagedTask.Status = domain.TaskCompleted
	stagedTask.RewardClaimed = true
	stagedTask.CreatorStakeLocked = false
	stagedTask.MemberStakeLocked = false
	stagedTask.ResolvedAt = e.now()

	stagedSub := sub
	stagedSub.Status = domain.SubmitAccepted
	stagedSub.Reference = ""
	stagedSub.Note = ""
	stagedSub.NewDeadline = time.Time{}
	stagedSub.UpdatedAt = e.now()

	cs := domain.ChangeSet{
		Tasks:       []domain.Task{stagedTask},
		Submissions: []domain.Submission{stagedSub},
		Events:      []domain.Event{e.newEvent(domain.EvTaskCompleted, t.ID, actor, t.Reward, "")},
	}
	e.stageCredit(&cs, t.Member, t.Reward+t.MemberStake, t.ID, "reward and member stake")
	e.stageCredit(&cs, t.Creator, t.CreatorStake, t.ID, "creator stake returned")

	if creator, err := e.users.Get(t.Creator); err == nil {
		users.AdjustReputation(&creator, p.AcceptCreatorBonus)
		creator.TasksCompleted++
		cs.Users = append(cs.Users, creator)
	}
	if member, err := e.users.Get(t.Member); err == nil {
		users.AdjustReputation(&member, p.AcceptMemberBonus)
		member.TasksCompleted++
		cs.Users = append(cs.Users, member)
	}

	if err := e.commit(cs); err != nil {
		return err
	}
	metrics.TasksCompleted.Inc()
	metrics.EscrowLocked.Sub(float64(t.CreatorStake + t.MemberStake))
	return nil
}
