// Package aspects holds the advice applied to the users controller.
package aspects

import (
	"context"

	"go.uber.org/zap"

	"github.com/madeeasy/weave"
)

// AroundOptions configures the around advice of UsersAspect.
type AroundOptions struct {
	// Enabled registers the around advice.
	Enabled bool
	// Suppress swallows errors returned by the operation; the caller then
	// receives a nil result instead of the error.
	Suppress bool
}

// UsersAspect logs every lifecycle point of calls to the users controller.
type UsersAspect struct {
	logger *zap.Logger
	around AroundOptions
}

// NewUsersAspect creates the aspect. A nil logger discards output.
func NewUsersAspect(logger *zap.Logger, around AroundOptions) *UsersAspect {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UsersAspect{
		logger: logger.Named("users-aspect"),
		around: around,
	}
}

// Register adds the aspect's advice for calls selected by pc.
func (a *UsersAspect) Register(r *weave.Registry, pc weave.Pointcut) {
	r.Before(pc, a.Before)
	r.After(pc, a.After)
	r.AfterReturning(pc, a.AfterReturning)
	r.AfterThrowing(pc, a.AfterThrowing)
	if a.around.Enabled {
		r.Around(pc, a.Around)
	}
}

// Before logs the call before the operation runs.
func (a *UsersAspect) Before(ctx context.Context, jp *weave.JoinPoint) error {
	a.logger.Info("beforeAdvice", joinPointFields(jp)...)
	return nil
}

// After logs the final outcome of every call.
func (a *UsersAspect) After(ctx context.Context, jp *weave.JoinPoint, out weave.Outcome) error {
	a.logger.Info("afterAdvice", append(joinPointFields(jp),
		zap.Bool("executed", out.Executed()),
		zap.Bool("failed", out.Failed()),
	)...)
	return nil
}

// AfterReturning logs a successful return.
func (a *UsersAspect) AfterReturning(ctx context.Context, jp *weave.JoinPoint, result any) error {
	a.logger.Info("afterReturningAdvice", joinPointFields(jp)...)
	return nil
}

// AfterThrowing logs the error returned by the operation.
func (a *UsersAspect) AfterThrowing(ctx context.Context, jp *weave.JoinPoint, err error) error {
	a.logger.Info("afterThrowingAdvice", append(joinPointFields(jp), zap.String("exception", err.Error()))...)
	return nil
}

// Around logs both sides of the operation and, when configured, swallows
// its error.
func (a *UsersAspect) Around(ctx context.Context, jp *weave.JoinPoint, proceed weave.Proceed) (result any, err error) {
	a.logger.Info("aroundAdvice before join point", joinPointFields(jp)...)
	defer a.logger.Info("aroundAdvice after join point", joinPointFields(jp)...)

	result, err = proceed(ctx)
	if err != nil {
		a.logger.Error("aroundAdvice caught error", append(joinPointFields(jp),
			zap.Error(err),
			zap.Bool("suppressed", a.around.Suppress),
		)...)
		if a.around.Suppress {
			return nil, nil
		}
	}
	return result, err
}

func joinPointFields(jp *weave.JoinPoint) []zap.Field {
	return []zap.Field{
		zap.String("method", jp.Name()),
		zap.Any("args", jp.Args()),
		zap.String("target", jp.Signature().DeclaringType()),
		zap.String("joinPoint", jp.ID()),
	}
}
