package joinreq

import (
	"testing"
	"time"

	"github.com/workstake-network/workstake/internal/domain"
)

func TestAppendKeepsInsertionOrder(t *testing.T) {
	b := NewBook()
	now := time.Now()

	for i, id := range []domain.Identity{"a", "b", "c"} {
		r, err := b.Append(1, id, 100, now)
		if err != nil {
			t.Fatalf("Append(%s): %v", id, err)
		}
		if r.Position != i {
			t.Errorf("position = %d, want %d", r.Position, i)
		}
	}
	all := b.All()
	if len(all) != 3 || all[0].Applicant != "a" || all[2].Applicant != "c" {
		t.Errorf("order lost: %+v", all)
	}
}

func TestPendingUniquenessPerApplicant(t *testing.T) {
	b := NewBook()
	now := time.Now()

	if _, err := b.Append(1, "a", 100, now); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := b.Append(1, "a", 100, now); err != domain.ErrAlreadyPending {
		t.Errorf("duplicate pending err = %v, want ErrAlreadyPending", err)
	}

	// Resolving the first allows a new request.
	_, r, _ := b.FindPending("a")
	if err := Withdraw(&r); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	b.Set(r)
	if _, err := b.Append(1, "a", 100, now); err != nil {
		t.Errorf("re-apply after withdrawal: %v", err)
	}
}

func TestResolutionsAreMonotonic(t *testing.T) {
	tests := []struct {
		name    string
		resolve func(*domain.JoinRequest) error
		want    domain.RequestStatus
	}{
		{"accept", Accept, domain.RequestAccepted},
		{"reject", Reject, domain.RequestRejected},
		{"withdraw", Withdraw, domain.RequestCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBook()
			r, err := b.Append(1, "a", 250, time.Now())
			if err != nil {
				t.Fatalf("Append: %v", err)
			}

			if err := tt.resolve(&r); err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if r.Status != tt.want {
				t.Errorf("status = %s, want %s", r.Status, tt.want)
			}
			if r.Pending || !r.Withdrawn {
				t.Error("resolution must clear Pending and set Withdrawn")
			}
			if r.StakeAmount != 0 {
				t.Errorf("stake = %d, want 0 after resolution", r.StakeAmount)
			}

			// A second resolution of any kind must fail.
			for _, again := range []func(*domain.JoinRequest) error{Accept, Reject, Withdraw} {
				if err := again(&r); err != domain.ErrInvalidState {
					t.Errorf("re-resolve err = %v, want ErrInvalidState", err)
				}
			}
		})
	}
}

func TestAppendRejectsZeroIdentity(t *testing.T) {
	b := NewBook()
	if _, err := b.Append(1, domain.ZeroIdentity, 100, time.Now()); err != domain.ErrZeroIdentity {
		t.Errorf("err = %v, want ErrZeroIdentity", err)
	}
}

func TestInstallGrowsBook(t *testing.T) {
	b := NewBook()
	b.Install(domain.JoinRequest{TaskID: 1, Position: 2, Applicant: "c", Pending: true})

	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	r, ok := b.Get(2)
	if !ok || r.Applicant != "c" {
		t.Errorf("Get(2) = %+v, %v", r, ok)
	}
}
