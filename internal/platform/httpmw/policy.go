package httpmw

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TriggerPolicy defines the middleware policy for the check trigger endpoint.
type TriggerPolicy struct {
	// ServiceName is used for OpenTelemetry span names + access log fields.
	ServiceName string

	// Timeout bounds total handler time. A check acquires two connections
	// (up to 30s each) before it queries, so keep this well above a minute.
	Timeout time.Duration

	// MaxInFlight limits concurrent checks. Checks hold a connection on each
	// side for their whole duration; the default of 1 serializes them.
	MaxInFlight int

	// Rate and Burst configure the per-IP limiter. Rate <= 0 disables it.
	Rate  rate.Limit
	Burst int

	// Methods restricts accepted request methods (default POST).
	Methods []string

	// Outer is applied outside the default chain, so it also sees requests the
	// chain rejects (e.g. request metrics).
	Outer Chain

	// Leaf is applied closest to the business handler, inside the default chain.
	Leaf Chain
}

// DefaultTrigger returns the default trigger chain, excluding Wrap() and any leaf middleware.
func DefaultTrigger(log *zap.Logger, p TriggerPolicy) Chain {
	if p.Timeout <= 0 {
		p.Timeout = 2 * time.Minute
	}
	if p.MaxInFlight <= 0 {
		p.MaxInFlight = 1
	}
	if len(p.Methods) == 0 {
		p.Methods = []string{http.MethodPost}
	}

	c := Chain{
		RequestID,
		WithRecover(log),
		SecurityHeaders,
		WithMethods(p.Methods...),
	}
	if p.Rate > 0 {
		burst := p.Burst
		if burst <= 0 {
			burst = 1
		}
		c = c.Append(NewIPLimiter(p.Rate, burst, 10*time.Minute).Middleware)
	}
	return c.Append(
		WithTimeout(p.Timeout),
		WithInFlightLimit(p.MaxInFlight),
	)
}

// BuildTriggerHandler composes the policy-driven middleware stack around next.
//
// Final order (outer -> inner):
//
//	Wrap, Outer..., RequestID, Recover, SecurityHeaders, Methods, RateLimit, Timeout, InFlightLimit, Leaf..., next
func BuildTriggerHandler(log *zap.Logger, p TriggerPolicy, next http.Handler) http.Handler {
	if p.ServiceName == "" {
		p.ServiceName = "stagecheck"
	}

	h := DefaultTrigger(log, p).Then(p.Leaf.Then(next))
	h = p.Outer.Then(h)

	// Tracing + access logging sit outside the policy chain so rejected
	// requests are still logged.
	return WithWrap(p.ServiceName, log)(h)
}
