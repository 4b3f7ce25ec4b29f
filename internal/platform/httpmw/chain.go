package httpmw

import "net/http"

// Middleware is a standard net/http middleware signature.
type Middleware func(http.Handler) http.Handler

// Chain is an ordered list of middleware.
// The first element is treated as the outermost wrapper; nil entries are skipped.
type Chain []Middleware

// Then applies the middleware chain to h and returns the wrapped handler.
func (c Chain) Then(h http.Handler) http.Handler {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i] != nil {
			h = c[i](h)
		}
	}
	return h
}

// Append returns a new chain with mw added as the innermost entries.
func (c Chain) Append(mw ...Middleware) Chain {
	return append(append(make(Chain, 0, len(c)+len(mw)), c...), mw...)
}
