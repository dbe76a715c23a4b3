// Package unitwork deduplicates operations within one unit of work.
//
// A tracker is attached to the request context at the transport boundary.
// The first call for a given (operation, entity) key claims it; re-entrant
// or cascading calls with the same key see false and skip. The tracker dies
// with the context, so unrelated future requests are never deduplicated.
package unitwork

import "context"

type ctxKey struct{}

type tracker struct {
	seen map[string]struct{}
}

// Begin attaches a fresh tracker to ctx, starting a unit of work.
func Begin(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, &tracker{seen: make(map[string]struct{})})
}

// Once reports whether this is the first call for (op, entityID) within the
// current unit of work, claiming the key if so. A context without a tracker
// always reports true: callers outside a unit of work run unconditionally.
func Once(ctx context.Context, op, entityID string) bool {
	t, ok := ctx.Value(ctxKey{}).(*tracker)
	if !ok {
		return true
	}
	key := op + ":" + entityID
	if _, dup := t.seen[key]; dup {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}
