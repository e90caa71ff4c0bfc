package weave

import "context"

// Point is a lifecycle point relative to an intercepted call.
type Point int

const (
	PointBefore         Point = iota // before the call
	PointAfter                       // after the call, on every outcome
	PointAfterReturning              // after a successful return
	PointAfterThrowing               // after the operation returned an error
	PointAround                      // wraps the call with an explicit continuation
)

func (p Point) String() string {
	switch p {
	case PointBefore:
		return "before"
	case PointAfter:
		return "after"
	case PointAfterReturning:
		return "after-returning"
	case PointAfterThrowing:
		return "after-throwing"
	case PointAround:
		return "around"
	default:
		return "unknown"
	}
}

// BeforeFunc runs before the call. Returning an error aborts the call.
type BeforeFunc func(ctx context.Context, jp *JoinPoint) error

// AfterFunc runs once per intercepted call, whatever the outcome.
type AfterFunc func(ctx context.Context, jp *JoinPoint, out Outcome) error

// AfterReturningFunc runs after the operation returned without error.
type AfterReturningFunc func(ctx context.Context, jp *JoinPoint, result any) error

// AfterThrowingFunc runs after the operation returned an error.
type AfterThrowingFunc func(ctx context.Context, jp *JoinPoint, err error) error

// Proceed continues into the next around advice or the real operation.
type Proceed func(ctx context.Context) (any, error)

// AroundFunc wraps the call. It decides whether and how often to invoke
// proceed, and its return values become the call's outcome: returning a
// nil error after proceed failed suppresses that failure.
type AroundFunc func(ctx context.Context, jp *JoinPoint, proceed Proceed) (any, error)

// Outcome is the result of an intercepted call as seen by after advice.
type Outcome struct {
	result   any
	err      error
	executed bool
}

// Success returns the outcome of an operation that returned result.
func Success(result any) Outcome {
	return Outcome{result: result, executed: true}
}

// Failure returns the outcome of an operation that returned err.
func Failure(err error) Outcome {
	return Outcome{err: err, executed: true}
}

// NotExecuted returns the outcome of a call whose operation never ran,
// because a before advice failed or an around advice did not proceed.
func NotExecuted(result any, err error) Outcome {
	return Outcome{result: result, err: err}
}

// Result returns the value handed back to the caller.
func (o Outcome) Result() any { return o.result }

// Err returns the error handed back to the caller.
func (o Outcome) Err() error { return o.err }

// Failed reports whether the caller receives an error.
func (o Outcome) Failed() bool { return o.err != nil }

// Executed reports whether the real operation ran at least once.
func (o Outcome) Executed() bool { return o.executed }

type advice[F any] struct {
	pointcut Pointcut
	fn       F
}

func matching[F any](list []advice[F], sig Signature) []F {
	var out []F
	for _, a := range list {
		if a.pointcut.Matches(sig) {
			out = append(out, a.fn)
		}
	}
	return out
}
