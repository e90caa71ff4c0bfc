package weave

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Logger receives registration and advice failure diagnostics. Default: no-op.
	Logger *zap.Logger
}

// Registration describes one registered advice.
type Registration struct {
	Point    Point
	Pointcut Pointcut
}

func (r Registration) String() string {
	return r.Point.String() + " " + r.Pointcut.String()
}

// Registry collects advice at startup. It is not safe for concurrent use;
// call Build once registration is complete.
type Registry struct {
	logger         *zap.Logger
	registrations  []Registration
	before         []advice[BeforeFunc]
	after          []advice[AfterFunc]
	afterReturning []advice[AfterReturningFunc]
	afterThrowing  []advice[AfterThrowingFunc]
	around         []advice[AroundFunc]
}

// NewRegistry creates an empty advice registry.
func NewRegistry(opts ...RegistryOptions) *Registry {
	logger := zap.NewNop()
	if len(opts) > 0 && opts[0].Logger != nil {
		logger = opts[0].Logger
	}
	return &Registry{logger: logger}
}

// Register adds callback at the given lifecycle point for every call whose
// qualified name matches pattern (see [Pattern]). The callback must be the
// advice func type of the point, or a func literal of the same shape.
func (r *Registry) Register(point Point, pattern string, callback any) error {
	pc, err := Pattern(pattern)
	if err != nil {
		return err
	}
	return r.RegisterPointcut(point, pc, callback)
}

// RegisterPointcut is like Register but takes an explicit Pointcut.
func (r *Registry) RegisterPointcut(point Point, pc Pointcut, callback any) error {
	if pc == nil {
		return fmt.Errorf("%w: nil pointcut", ErrInvalidPointcut)
	}
	ok := false
	switch point {
	case PointBefore:
		var fn BeforeFunc
		if fn, ok = asBefore(callback); ok {
			r.Before(pc, fn)
		}
	case PointAfter:
		var fn AfterFunc
		if fn, ok = asAfter(callback); ok {
			r.After(pc, fn)
		}
	case PointAfterReturning:
		var fn AfterReturningFunc
		if fn, ok = asAfterReturning(callback); ok {
			r.AfterReturning(pc, fn)
		}
	case PointAfterThrowing:
		var fn AfterThrowingFunc
		if fn, ok = asAfterThrowing(callback); ok {
			r.AfterThrowing(pc, fn)
		}
	case PointAround:
		var fn AroundFunc
		if fn, ok = asAround(callback); ok {
			r.Around(pc, fn)
		}
	default:
		return fmt.Errorf("%w: unknown point %d", ErrInvalidAdvice, int(point))
	}
	if !ok {
		return fmt.Errorf("%w: %T cannot be used as %s advice", ErrInvalidAdvice, callback, point)
	}
	return nil
}

// Before registers before advice.
func (r *Registry) Before(pc Pointcut, fn BeforeFunc) {
	r.before = append(r.before, advice[BeforeFunc]{pc, fn})
	r.record(PointBefore, pc)
}

// After registers after advice.
func (r *Registry) After(pc Pointcut, fn AfterFunc) {
	r.after = append(r.after, advice[AfterFunc]{pc, fn})
	r.record(PointAfter, pc)
}

// AfterReturning registers after-returning advice.
func (r *Registry) AfterReturning(pc Pointcut, fn AfterReturningFunc) {
	r.afterReturning = append(r.afterReturning, advice[AfterReturningFunc]{pc, fn})
	r.record(PointAfterReturning, pc)
}

// AfterThrowing registers after-throwing advice.
func (r *Registry) AfterThrowing(pc Pointcut, fn AfterThrowingFunc) {
	r.afterThrowing = append(r.afterThrowing, advice[AfterThrowingFunc]{pc, fn})
	r.record(PointAfterThrowing, pc)
}

// Around registers around advice. Around advice registered first wraps
// around advice registered later.
func (r *Registry) Around(pc Pointcut, fn AroundFunc) {
	r.around = append(r.around, advice[AroundFunc]{pc, fn})
	r.record(PointAround, pc)
}

func (r *Registry) record(point Point, pc Pointcut) {
	r.registrations = append(r.registrations, Registration{Point: point, Pointcut: pc})
	r.logger.Debug("advice registered",
		zap.Stringer("point", point),
		zap.String("pointcut", pc.String()),
	)
}

// Registrations returns all registrations in registration order.
func (r *Registry) Registrations() []Registration {
	return slices.Clone(r.registrations)
}

// Build returns an Interceptor holding a snapshot of the registered advice.
// Later registrations do not affect the returned Interceptor.
func (r *Registry) Build() *Interceptor {
	return &Interceptor{
		logger:         r.logger,
		registrations:  slices.Clone(r.registrations),
		before:         slices.Clone(r.before),
		after:          slices.Clone(r.after),
		afterReturning: slices.Clone(r.afterReturning),
		afterThrowing:  slices.Clone(r.afterThrowing),
		around:         slices.Clone(r.around),
	}
}

func asBefore(cb any) (BeforeFunc, bool) {
	switch f := cb.(type) {
	case BeforeFunc:
		return f, f != nil
	case func(context.Context, *JoinPoint) error:
		return f, f != nil
	}
	return nil, false
}

func asAfter(cb any) (AfterFunc, bool) {
	switch f := cb.(type) {
	case AfterFunc:
		return f, f != nil
	case func(context.Context, *JoinPoint, Outcome) error:
		return f, f != nil
	}
	return nil, false
}

func asAfterReturning(cb any) (AfterReturningFunc, bool) {
	switch f := cb.(type) {
	case AfterReturningFunc:
		return f, f != nil
	case func(context.Context, *JoinPoint, any) error:
		return f, f != nil
	}
	return nil, false
}

func asAfterThrowing(cb any) (AfterThrowingFunc, bool) {
	switch f := cb.(type) {
	case AfterThrowingFunc:
		return f, f != nil
	case func(context.Context, *JoinPoint, error) error:
		return f, f != nil
	}
	return nil, false
}

func asAround(cb any) (AroundFunc, bool) {
	switch f := cb.(type) {
	case AroundFunc:
		return f, f != nil
	case func(context.Context, *JoinPoint, Proceed) (any, error):
		return f, f != nil
	}
	return nil, false
}
