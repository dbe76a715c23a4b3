package middleware

import (
	"net/http"

	"timeoff/internal/unitwork"
)

// UnitOfWork starts an idempotency-guard scope for each request. Cascading
// calls inside the request (employee create triggering allocation rules,
// and any downstream re-trigger) are deduplicated against this scope, and
// the scope dies with the request context.
func UnitOfWork(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(unitwork.Begin(r.Context())))
	})
}
