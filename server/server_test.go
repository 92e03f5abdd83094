package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zeu5/mdp-policy/store"
	"github.com/zeu5/mdp-policy/types"
)

func setup(t *testing.T) (http.Handler, store.Run) {
	t.Helper()
	s := store.NewMemoryStore()
	p := types.NewPolicy(types.NewIndex("state", []int{1, 2, 3}), types.NewIndex("action", []int{7, 8}))
	p.Set(2, 1)
	run := store.NewRun("small", &types.Result{Policy: p, Diagnostics: types.NewDiagnostics("q-learning")})
	if err := s.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("save: %v", err)
	}
	return NewServer("127.0.0.1:0", s).Router(), run
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestPolicyRoute(t *testing.T) {
	h, run := setup(t)
	rec := get(h, "/runs/"+run.ID+"/policy")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if rec.Body.String() != "7\n7\n8\n" {
		t.Errorf("unexpected policy %q", rec.Body.String())
	}
}

func TestActionRoute(t *testing.T) {
	h, run := setup(t)
	rec := get(h, "/runs/"+run.ID+"/action/3")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var out struct {
		State  int `json:"state"`
		Action int `json:"action"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.State != 3 || out.Action != 8 {
		t.Errorf("unexpected answer %+v", out)
	}

	tests := map[string]int{
		"/runs/" + run.ID + "/action/4":   http.StatusNotFound,
		"/runs/" + run.ID + "/action/one": http.StatusBadRequest,
		"/runs/unknown/action/1":          http.StatusNotFound,
		"/runs/unknown":                   http.StatusNotFound,
	}
	for path, code := range tests {
		if rec := get(h, path); rec.Code != code {
			t.Errorf("%s: expected %d, got %d", path, code, rec.Code)
		}
	}
}

func TestListRoute(t *testing.T) {
	h, run := setup(t)
	rec := get(h, "/runs")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var out []runSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0].ID != run.ID || out[0].States != 3 || out[0].Method != "q-learning" {
		t.Errorf("unexpected runs %+v", out)
	}
}

func TestStartReturnsNilOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewServer("127.0.0.1:0", store.NewMemoryStore()).Start(ctx)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
