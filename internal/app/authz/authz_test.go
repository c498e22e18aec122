package authz

import (
	"testing"

	"github.com/workstake-network/workstake/internal/domain"
)

func TestOwnerOnlyActions(t *testing.T) {
	s := New("owner", []domain.Identity{"ops"})

	for _, a := range []Action{ActionSetParams, ActionSweepFees} {
		if !s.Can("owner", a) {
			t.Errorf("owner denied %s", a)
		}
		if s.Can("ops", a) {
			t.Errorf("privileged non-owner allowed %s", a)
		}
		if s.Can("alice", a) {
			t.Errorf("regular identity allowed %s", a)
		}
	}
}

func TestPrivilegedCannotCreateTasks(t *testing.T) {
	s := New("owner", []domain.Identity{"ops"})

	if s.Can("owner", ActionCreateTask) {
		t.Error("owner should not create tasks")
	}
	if s.Can("ops", ActionCreateTask) {
		t.Error("privileged identity should not create tasks")
	}
	if !s.Can("alice", ActionCreateTask) {
		t.Error("regular identity denied task creation")
	}
}

func TestZeroIdentityDeniedEverything(t *testing.T) {
	s := New("owner", nil)
	for _, a := range []Action{ActionSetParams, ActionSweepFees, ActionCreateTask} {
		if s.Can(domain.ZeroIdentity, a) {
			t.Errorf("zero identity allowed %s", a)
		}
	}
}

func TestIsPrivilegedIncludesOwner(t *testing.T) {
	s := New("owner", []domain.Identity{"ops"})
	if !s.IsPrivileged("owner") || !s.IsPrivileged("ops") {
		t.Error("owner and configured identities must be privileged")
	}
	if s.IsPrivileged("alice") {
		t.Error("regular identity must not be privileged")
	}
}
