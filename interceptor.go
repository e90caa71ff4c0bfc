package weave

import (
	"context"
	"slices"
	"sync/atomic"

	"go.uber.org/zap"
)

// Interceptor dispatches advice around matched calls. It is immutable and
// safe for concurrent use.
type Interceptor struct {
	logger         *zap.Logger
	registrations  []Registration
	before         []advice[BeforeFunc]
	after          []advice[AfterFunc]
	afterReturning []advice[AfterReturningFunc]
	afterThrowing  []advice[AfterThrowingFunc]
	around         []advice[AroundFunc]
}

// chain is the advice matching one signature, in registration order.
type chain struct {
	before         []BeforeFunc
	after          []AfterFunc
	afterReturning []AfterReturningFunc
	afterThrowing  []AfterThrowingFunc
	around         []AroundFunc
}

func (c *chain) empty() bool {
	return len(c.before) == 0 && len(c.after) == 0 && len(c.afterReturning) == 0 &&
		len(c.afterThrowing) == 0 && len(c.around) == 0
}

func (ic *Interceptor) chainFor(sig Signature) *chain {
	return &chain{
		before:         matching(ic.before, sig),
		after:          matching(ic.after, sig),
		afterReturning: matching(ic.afterReturning, sig),
		afterThrowing:  matching(ic.afterThrowing, sig),
		around:         matching(ic.around, sig),
	}
}

// Advised returns the registrations whose pointcut matches sig.
func (ic *Interceptor) Advised(sig Signature) []Registration {
	var out []Registration
	for _, r := range ic.registrations {
		if r.Pointcut.Matches(sig) {
			out = append(out, r)
		}
	}
	return out
}

// Registrations returns every registration known to the interceptor.
func (ic *Interceptor) Registrations() []Registration {
	return slices.Clone(ic.registrations)
}

// Call runs op as the method identified by sig on target, dispatching all
// matching advice. args are recorded on the JoinPoint only; op receives
// nothing but the context.
func (ic *Interceptor) Call(ctx context.Context, target any, sig Signature, args []any, op Proceed) (any, error) {
	return ic.dispatch(ctx, ic.chainFor(sig), newJoinPoint(sig, target, args), op)
}

// dispatch runs the advice chain for one call:
// before advice, the around chain wrapping the operation and its
// after-returning or after-throwing advice, then after advice.
func (ic *Interceptor) dispatch(ctx context.Context, c *chain, jp *JoinPoint, op Proceed) (any, error) {
	if c.empty() {
		return op(ctx)
	}
	ctx = withJoinPoint(ctx, jp)

	for _, fn := range c.before {
		if err := fn(ctx, jp); err != nil {
			aerr := ic.adviceError(PointBefore, jp, err)
			return ic.complete(ctx, c, jp, NotExecuted(nil, aerr))
		}
	}

	var (
		executed  atomic.Bool
		adviceErr atomic.Pointer[AdviceError]
	)
	proceed := func(ctx context.Context) (any, error) {
		executed.Store(true)
		result, err := op(ctx)
		if err != nil {
			for _, fn := range c.afterThrowing {
				if herr := fn(ctx, jp, err); herr != nil {
					aerr := ic.adviceError(PointAfterThrowing, jp, herr)
					adviceErr.CompareAndSwap(nil, aerr)
					return nil, aerr
				}
			}
			return result, err
		}
		for _, fn := range c.afterReturning {
			if herr := fn(ctx, jp, result); herr != nil {
				aerr := ic.adviceError(PointAfterReturning, jp, herr)
				adviceErr.CompareAndSwap(nil, aerr)
				return nil, aerr
			}
		}
		return result, nil
	}

	// First registered around advice is outermost.
	for i := len(c.around) - 1; i >= 0; i-- {
		proceed = wrapAround(c.around[i], jp, proceed)
	}

	result, err := proceed(ctx)
	// An advice failure reaches the caller even if an around swallowed it.
	if aerr := adviceErr.Load(); aerr != nil {
		return ic.complete(ctx, c, jp, Failure(aerr))
	}
	return ic.complete(ctx, c, jp, Outcome{result: result, err: err, executed: executed.Load()})
}

func wrapAround(fn AroundFunc, jp *JoinPoint, next Proceed) Proceed {
	return func(ctx context.Context) (any, error) {
		return fn(ctx, jp, next)
	}
}

// complete fires after advice and returns the outcome to the caller.
func (ic *Interceptor) complete(ctx context.Context, c *chain, jp *JoinPoint, out Outcome) (any, error) {
	for _, fn := range c.after {
		if err := fn(ctx, jp, out); err != nil {
			return nil, ic.adviceError(PointAfter, jp, err)
		}
	}
	return out.result, out.err
}

func (ic *Interceptor) adviceError(point Point, jp *JoinPoint, err error) *AdviceError {
	ic.logger.Debug("advice failed",
		zap.Stringer("point", point),
		zap.String("method", jp.sig.Qualified()),
		zap.String("joinPoint", jp.id),
		zap.Error(err),
	)
	return &AdviceError{Point: point, Signature: jp.sig, Err: err}
}
