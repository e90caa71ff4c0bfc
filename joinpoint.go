package weave

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// JoinPoint is the read-only snapshot of one intercepted invocation. A new
// JoinPoint is created for every call and shared by all advice of that call.
type JoinPoint struct {
	id      string
	sig     Signature
	args    []any
	target  any
	started time.Time
}

func newJoinPoint(sig Signature, target any, args []any) *JoinPoint {
	return &JoinPoint{
		id:      uuid.NewString(),
		sig:     sig,
		args:    slices.Clone(args),
		target:  target,
		started: time.Now(),
	}
}

// ID returns the unique identifier of this invocation.
func (jp *JoinPoint) ID() string { return jp.id }

// Signature returns the identity of the intercepted method.
func (jp *JoinPoint) Signature() Signature { return jp.sig }

// Name returns the intercepted method name.
func (jp *JoinPoint) Name() string { return jp.sig.Method }

// Args returns a copy of the call arguments, excluding the context.
func (jp *JoinPoint) Args() []any { return slices.Clone(jp.args) }

// Target returns the receiving object.
func (jp *JoinPoint) Target() any { return jp.target }

// Started returns the time the invocation was intercepted.
func (jp *JoinPoint) Started() time.Time { return jp.started }

func (jp *JoinPoint) String() string {
	return fmt.Sprintf("%s %v", jp.sig.Qualified(), jp.args)
}
