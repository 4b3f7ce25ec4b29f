package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Node is a dependency in the readiness graph. A node is healthy when its
// own check passes and all of its deps are healthy.
type Node struct {
	Name  string
	Check Check
	Deps  []*Node
}

type Result struct {
	Name       string            `json:"name"`
	Healthy    bool              `json:"healthy"`
	Error      string            `json:"error,omitempty"`
	DurationMS float64           `json:"duration_ms"`
	Deps       map[string]Result `json:"deps,omitempty"`
}

// NewReadyGraph returns a root node for readiness dependencies.
// Callers add named deps via ready.Add("prod", SQLPing(pool)), etc.
func NewReadyGraph() *Node {
	return &Node{Name: "ready"}
}

// CheckAlwaysReady returns a check that always succeeds.
func CheckAlwaysReady() Check {
	return func(context.Context) error { return nil }
}

// Add appends a named dependency node to n and returns the created node.
func (n *Node) Add(name string, check Check) *Node {
	child := &Node{Name: name, Check: check}
	n.Deps = append(n.Deps, child)
	return child
}

// Evaluate runs n's check and, if it passes, every dep. Deps are not
// evaluated below a failing node.
func Evaluate(ctx context.Context, n *Node) Result {
	start := time.Now()
	res := Result{Name: n.Name, Healthy: true}

	if n.Check != nil {
		if err := n.Check(ctx); err != nil {
			res.Healthy = false
			res.Error = err.Error()
			return finish(res, start)
		}
	}
	if len(n.Deps) > 0 {
		res.Deps = make(map[string]Result, len(n.Deps))
	}
	for _, d := range n.Deps {
		dr := Evaluate(ctx, d)
		res.Deps[dr.Name] = dr
		res.Healthy = res.Healthy && dr.Healthy
	}
	return finish(res, start)
}

func finish(res Result, start time.Time) Result {
	res.DurationMS = float64(time.Since(start).Microseconds()) / 1000
	return res
}

// Handler returns an http.Handler that evaluates the dependency graph.
// If serving() is provided and returns false, the handler returns 503 immediately.
func Handler(root *Node, serving func() bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if serving != nil && !serving() {
			http.Error(w, "NOT_SERVING", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		out := Evaluate(ctx, root)
		w.Header().Set("Content-Type", "application/json")
		if !out.Healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	})
}

// Livez is a simple liveness handler.
func Livez() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}
