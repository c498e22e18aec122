package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/workstake-network/workstake/internal/app/params"
	"github.com/workstake-network/workstake/internal/domain"
)

// taskID parses the {id} URL parameter.
func taskID(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.ErrTaskNotFound
	}
	return id, nil
}

func decode(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}

// ─── Users ──────────────────────────────────────────────────────────────────

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName string `json:"display_name"`
		Contact     string `json:"contact"`
	}
	if err := decode(r, &req); err != nil && r.ContentLength > 0 {
		writeError(w, err)
		return
	}
	u, err := s.engine.RegisterUser(caller(r), req.DisplayName, req.Contact)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.UnregisterUser(caller(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unregistered"})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.engine.GetUser(domain.Identity(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title         string `json:"title"`
		Reference     string `json:"reference"`
		DeadlineHours int64  `json:"deadline_hours"`
		MaxRevision   int    `json:"max_revision"`
		Paid          int64  `json:"paid"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	task, err := s.engine.CreateTask(caller(r), req.Title, req.Reference,
		req.DeadlineHours, req.MaxRevision, req.Paid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var filter *domain.TaskStatus
	if v := r.URL.Query().Get("status"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, domain.ErrInvalidInput)
			return
		}
		st := domain.TaskStatus(n)
		filter = &st
	}
	if creator := r.URL.Query().Get("creator"); creator != "" {
		writeJSON(w, http.StatusOK, s.engine.TasksByCreator(domain.Identity(creator)))
		return
	}
	writeJSON(w, http.StatusOK, s.engine.ListTasks(filter))
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := s.engine.GetTask(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.engine.DeleteTask(caller(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Paid int64 `json:"paid"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.engine.ActivateTask(caller(r), id, req.Paid); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

func (s *Server) handleOpenRegistration(w http.ResponseWriter, r *http.Request) {
	s.simpleTaskOp(w, r, s.engine.OpenRegistration, "registration open")
}

func (s *Server) handleCloseRegistration(w http.ResponseWriter, r *http.Request) {
	s.simpleTaskOp(w, r, s.engine.CloseRegistration, "registration closed")
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.simpleTaskOp(w, r, s.engine.CancelByMe, "cancelled")
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.simpleTaskOp(w, r, s.engine.ApproveWork, "completed")
}

func (s *Server) handleDeadline(w http.ResponseWriter, r *http.Request) {
	s.simpleTaskOp(w, r, s.engine.TriggerDeadline, "deadline triggered")
}

func (s *Server) handleWithdrawJoin(w http.ResponseWriter, r *http.Request) {
	s.simpleTaskOp(w, r, s.engine.WithdrawJoin, "join request withdrawn")
}

// simpleTaskOp runs a (caller, taskID) engine operation.
func (s *Server) simpleTaskOp(w http.ResponseWriter, r *http.Request, op func(domain.Identity, uint64) error, status string) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := op(caller(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// ─── Join requests ──────────────────────────────────────────────────────────

func (s *Server) handleRequestJoin(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Paid int64 `json:"paid"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	jr, err := s.engine.RequestJoin(caller(r), id, req.Paid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, jr)
}

func (s *Server) handleApproveJoin(w http.ResponseWriter, r *http.Request) {
	s.resolveJoin(w, r, s.engine.ApproveJoin, "approved")
}

func (s *Server) handleRejectJoin(w http.ResponseWriter, r *http.Request) {
	s.resolveJoin(w, r, s.engine.RejectJoin, "rejected")
}

func (s *Server) resolveJoin(w http.ResponseWriter, r *http.Request, op func(domain.Identity, uint64, domain.Identity) error, status string) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	applicant := domain.Identity(chi.URLParam(r, "applicant"))
	if err := op(caller(r), id, applicant); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	reqs, err := s.engine.Requests(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// ─── Submissions ────────────────────────────────────────────────────────────

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.submitOp(w, r, s.engine.SubmitWork)
}

func (s *Server) handleResubmit(w http.ResponseWriter, r *http.Request) {
	s.submitOp(w, r, s.engine.ResubmitWork)
}

func (s *Server) submitOp(w http.ResponseWriter, r *http.Request, op func(domain.Identity, uint64, string, string) error) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Reference string `json:"reference"`
		Note      string `json:"note"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := op(caller(r), id, req.Reference, req.Note); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "submitted"})
}

func (s *Server) handleRevision(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Note       string `json:"note"`
		ExtraHours int64  `json:"extra_hours"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.engine.RequestRevision(caller(r), id, req.Note, req.ExtraHours); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revision requested"})
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sub, err := s.engine.GetSubmission(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// ─── Money ──────────────────────────────────────────────────────────────────

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	id := domain.Identity(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": id,
		"balance": s.engine.BalanceOf(id),
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	amount, err := s.engine.Withdraw(caller(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"withdrawn": amount})
}

func (s *Server) handleSweepFees(w http.ResponseWriter, r *http.Request) {
	amount, err := s.engine.SweepFees(caller(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"swept": amount})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, s.engine.LedgerEntries(limit))
}

// ─── Observability ──────────────────────────────────────────────────────────

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, http.StatusOK, s.engine.Events(limit))
}

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Params())
}

func (s *Server) handleSetParams(w http.ResponseWriter, r *http.Request) {
	var p params.Params
	if err := decode(r, &p); err != nil {
		writeError(w, err)
		return
	}
	if err := s.engine.SetParams(caller(r), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
