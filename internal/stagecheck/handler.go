package stagecheck

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"stagecheck/internal/platform/httpmw"
	"stagecheck/internal/platform/logging"

	"go.uber.org/zap"
)

// maxEventBytes bounds the (ignored) event payload read from a trigger request.
const maxEventBytes = 1 << 20

// Checker is the part of Comparator the HTTP trigger needs.
type Checker interface {
	Compare(ctx context.Context) (Report, error)
}

// Routes returns the trigger endpoints:
//
//	POST /v1/check         text/plain "True" or "False"
//	POST /v1/check/report  application/json Report
func Routes(log *zap.Logger, c Checker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/v1/check", CheckHandler(log, c, false))
	mux.Handle("/v1/check/report", CheckHandler(log, c, true))
	return mux
}

// CheckHandler runs one check per request. The request body is the trigger's
// event payload; it is drained and ignored.
func CheckHandler(log *zap.Logger, c Checker, report bool) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, maxEventBytes))

		lg := logging.WithTrace(r.Context(), log)
		if rid, ok := httpmw.RequestIDFrom(r.Context()); ok {
			lg = lg.With(zap.String("request_id", rid))
		}

		rep, err := c.Compare(logging.With(r.Context(), lg))
		if err != nil {
			lg.Error("check request failed", zap.Error(err))
			http.Error(w, "check failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("X-Stagecheck-Outcome", rep.Outcome.String())
		if report {
			w.Header().Set("Content-Type", "application/json")
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			_ = enc.Encode(rep)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, rep.Outcome.String())
	})
}
