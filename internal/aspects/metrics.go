package aspects

import (
	"context"
	"fmt"
	"time"

	"github.com/madeeasy/weave"
	"github.com/madeeasy/weave/internal/telemetry"
)

// Recorder receives per-call observations.
type Recorder interface {
	ObserveReturn(method string)
	ObserveError(method string, errorType string)
	ObserveCall(method string, status string, duration time.Duration)
}

// MetricsAspect feeds call outcomes and durations to a Recorder.
type MetricsAspect struct {
	recorder Recorder
}

// NewMetricsAspect creates an aspect reporting to recorder.
func NewMetricsAspect(recorder Recorder) *MetricsAspect {
	return &MetricsAspect{recorder: recorder}
}

// Register adds the aspect's advice for calls selected by pc.
func (m *MetricsAspect) Register(r *weave.Registry, pc weave.Pointcut) {
	r.AfterReturning(pc, func(ctx context.Context, jp *weave.JoinPoint, result any) error {
		m.recorder.ObserveReturn(metricName(jp))
		return nil
	})
	r.AfterThrowing(pc, func(ctx context.Context, jp *weave.JoinPoint, err error) error {
		m.recorder.ObserveError(metricName(jp), fmt.Sprintf("%T", err))
		return nil
	})
	r.After(pc, func(ctx context.Context, jp *weave.JoinPoint, out weave.Outcome) error {
		status := telemetry.StatusSuccess
		switch {
		case !out.Executed():
			status = telemetry.StatusSkipped
		case out.Failed():
			status = telemetry.StatusError
		}
		m.recorder.ObserveCall(metricName(jp), status, time.Since(jp.Started()))
		return nil
	})
}

func metricName(jp *weave.JoinPoint) string {
	sig := jp.Signature()
	return sig.Type + "." + sig.Method
}
