package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEvaluate_AllHealthy(t *testing.T) {
	root := NewReadyGraph()
	root.Add("config", CheckFunc(func() error { return nil }))
	root.Add("otel", CheckAlwaysReady())

	res := Evaluate(context.Background(), root)
	if !res.Healthy {
		t.Fatalf("expected healthy, got %+v", res)
	}
	if len(res.Deps) != 2 {
		t.Fatalf("expected 2 deps, got %d", len(res.Deps))
	}
}

func TestEvaluate_FailingDep(t *testing.T) {
	root := NewReadyGraph()
	root.Add("prod", CheckFunc(func() error { return errors.New("down") }))
	root.Add("stg", CheckAlwaysReady())

	res := Evaluate(context.Background(), root)
	if res.Healthy {
		t.Fatalf("expected unhealthy")
	}
	if got := res.Deps["prod"].Error; got != "down" {
		t.Fatalf("prod error=%q, want down", got)
	}
}

func TestSQLPing_NilPool(t *testing.T) {
	if err := SQLPing(nil)(context.Background()); err == nil {
		t.Fatalf("expected error for nil pool")
	}
}

func TestHandler_NotServing(t *testing.T) {
	h := Handler(NewReadyGraph(), func() bool { return false })
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}
