package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/workstake-network/workstake/internal/app/authz"
	"github.com/workstake-network/workstake/internal/app/ledger"
	"github.com/workstake-network/workstake/internal/app/market"
	"github.com/workstake-network/workstake/internal/app/params"
	"github.com/workstake-network/workstake/internal/domain"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ps, err := params.NewStore(params.Default())
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	engine, err := market.NewEngine(market.Config{
		Params:   ps,
		Auth:     authz.New("owner", nil),
		Ledger:   ledger.New(func(to domain.Identity, amount int64) error { return nil }),
		Treasury: "treasury",
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	srv := NewServer(engine, "test")
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, identity string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if identity != "" {
		req.Header.Set(identityHeader, identity)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, "GET", "/health", "", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}
	resp, body = do(t, ts, "GET", "/api/version", "", nil)
	if resp.StatusCode != http.StatusOK || body["version"] != "test" {
		t.Errorf("version = %d %v", resp.StatusCode, body)
	}
}

func TestRegisterAndFetchUser(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, "POST", "/api/users/register", "alice",
		map[string]string{"display_name": "Alice"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register = %d %v", resp.StatusCode, body)
	}
	if body["reputation"] != float64(10) {
		t.Errorf("reputation = %v, want 10", body["reputation"])
	}

	resp, body = do(t, ts, "GET", "/api/users/alice", "", nil)
	if resp.StatusCode != http.StatusOK || body["display_name"] != "Alice" {
		t.Errorf("get user = %d %v", resp.StatusCode, body)
	}

	// Missing identity header means a zero identity.
	resp, _ = do(t, ts, "POST", "/api/users/register", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("register without identity = %d, want 400", resp.StatusCode)
	}
	// Re-registration conflicts.
	resp, _ = do(t, ts, "POST", "/api/users/register", "alice", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate register = %d, want 409", resp.StatusCode)
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	do(t, ts, "POST", "/api/users/register", "alice", nil)
	do(t, ts, "POST", "/api/users/register", "bob", nil)

	resp, body := do(t, ts, "POST", "/api/tasks", "alice", map[string]interface{}{
		"title": "build", "reference": "ref", "deadline_hours": 1, "max_revision": 1, "paid": 1000,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create = %d %v", resp.StatusCode, body)
	}
	id := uint64(body["id"].(float64))
	taskPath := fmt.Sprintf("/api/tasks/%d", id)

	if resp, body = do(t, ts, "POST", taskPath+"/activate", "alice",
		map[string]int64{"paid": 500}); resp.StatusCode != http.StatusOK {
		t.Fatalf("activate = %d %v", resp.StatusCode, body)
	}
	if resp, body = do(t, ts, "POST", taskPath+"/registration/open", "alice", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("open = %d %v", resp.StatusCode, body)
	}
	if resp, body = do(t, ts, "POST", taskPath+"/join", "bob",
		map[string]int64{"paid": 500}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("join = %d %v", resp.StatusCode, body)
	}
	if resp, body = do(t, ts, "POST", taskPath+"/join/bob/approve", "alice", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("approve join = %d %v", resp.StatusCode, body)
	}
	if resp, body = do(t, ts, "POST", taskPath+"/submit", "bob",
		map[string]string{"reference": "v1"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("submit = %d %v", resp.StatusCode, body)
	}
	if resp, body = do(t, ts, "POST", taskPath+"/approve", "alice", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("approve = %d %v", resp.StatusCode, body)
	}

	resp, body = do(t, ts, "GET", "/api/balances/bob", "", nil)
	if resp.StatusCode != http.StatusOK || body["balance"] != float64(1500) {
		t.Errorf("bob balance = %v", body)
	}

	resp, body = do(t, ts, "POST", "/api/withdraw", "bob", nil)
	if resp.StatusCode != http.StatusOK || body["withdrawn"] != float64(1500) {
		t.Errorf("withdraw = %d %v", resp.StatusCode, body)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	ts := newTestServer(t)
	do(t, ts, "POST", "/api/users/register", "alice", nil)
	do(t, ts, "POST", "/api/users/register", "bob", nil)

	// Unknown task -> 404.
	resp, _ := do(t, ts, "GET", "/api/tasks/999", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown task = %d, want 404", resp.StatusCode)
	}

	// Unregistered creator -> 403.
	resp, _ = do(t, ts, "POST", "/api/tasks", "stranger", map[string]interface{}{
		"title": "t", "deadline_hours": 1, "paid": 100,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("unregistered create = %d, want 403", resp.StatusCode)
	}

	// Wrong activation amount -> 400.
	_, body := do(t, ts, "POST", "/api/tasks", "alice", map[string]interface{}{
		"title": "t", "deadline_hours": 1, "max_revision": 1, "paid": 1000,
	})
	id := uint64(body["id"].(float64))
	resp, _ = do(t, ts, "POST", fmt.Sprintf("/api/tasks/%d/activate", id), "alice",
		map[string]int64{"paid": 1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("wrong amount = %d, want 400", resp.StatusCode)
	}

	// Delete by non-creator -> 403.
	resp, _ = do(t, ts, "DELETE", fmt.Sprintf("/api/tasks/%d", id), "bob", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign delete = %d, want 403", resp.StatusCode)
	}

	// Fee sweep by non-owner -> 403.
	resp, _ = do(t, ts, "POST", "/api/fees/sweep", "alice", nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-owner sweep = %d, want 403", resp.StatusCode)
	}
}

func TestParamsEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts, "GET", "/api/params", "", nil)
	if resp.StatusCode != http.StatusOK || body["fee_percent"] != float64(5) {
		t.Errorf("get params = %d %v", resp.StatusCode, body["fee_percent"])
	}

	p := params.Default()
	p.FeePercent = 7
	resp, _ = do(t, ts, "POST", "/api/params", "alice", p)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-owner set = %d, want 403", resp.StatusCode)
	}
	resp, _ = do(t, ts, "POST", "/api/params", "owner", p)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("owner set = %d, want 200", resp.StatusCode)
	}
	_, body = do(t, ts, "GET", "/api/params", "", nil)
	if body["fee_percent"] != float64(7) {
		t.Errorf("fee after set = %v, want 7", body["fee_percent"])
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	do(t, ts, "POST", "/api/users/register", "alice", nil)

	resp, body := do(t, ts, "GET", "/api/stats", "", nil)
	if resp.StatusCode != http.StatusOK || body["users"] != float64(1) {
		t.Errorf("stats = %d %v", resp.StatusCode, body)
	}
}
