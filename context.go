package weave

import "context"

type contextKey int

const (
	joinPointKey contextKey = iota
)

// JoinPointFromContext returns the JoinPoint of the intercepted call the
// context belongs to. Returns nil if not present.
func JoinPointFromContext(ctx context.Context) *JoinPoint {
	if jp, ok := ctx.Value(joinPointKey).(*JoinPoint); ok {
		return jp
	}
	return nil
}

// withJoinPoint returns a context with the given join point.
func withJoinPoint(ctx context.Context, jp *JoinPoint) context.Context {
	return context.WithValue(ctx, joinPointKey, jp)
}
