package weave

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Pointcut selects the method calls an advice applies to.
type Pointcut interface {
	Matches(sig Signature) bool
	String() string
}

type patternPointcut struct {
	pattern string
}

// Pattern returns a pointcut that glob-matches the qualified method name
// (see [Signature.Qualified]). A single '*' matches within one package path
// segment, so "example.com/app/controller.UsersController.*" selects every
// method of UsersController. A "**/" prefix matches any package path, as in
// "**/controller.UsersController.List*".
func Pattern(pattern string) (Pointcut, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPointcut)
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPointcut, pattern)
	}
	return patternPointcut{pattern: pattern}, nil
}

// MustPattern is like Pattern but panics on an invalid pattern.
func MustPattern(pattern string) Pointcut {
	pc, err := Pattern(pattern)
	if err != nil {
		panic(err)
	}
	return pc
}

func (p patternPointcut) Matches(sig Signature) bool {
	ok, err := doublestar.Match(p.pattern, sig.Qualified())
	return err == nil && ok
}

func (p patternPointcut) String() string {
	return p.pattern
}

type withinPointcut struct {
	declaringType string
}

// Within matches every method of the given fully-qualified declaring type.
func Within(declaringType string) Pointcut {
	return withinPointcut{declaringType: declaringType}
}

func (p withinPointcut) Matches(sig Signature) bool {
	return sig.DeclaringType() == p.declaringType
}

func (p withinPointcut) String() string {
	return "within(" + p.declaringType + ")"
}

type exactPointcut struct {
	declaringType string
	method        string
}

// Exact matches a single method of the given fully-qualified declaring type.
func Exact(declaringType, method string) Pointcut {
	return exactPointcut{declaringType: declaringType, method: method}
}

func (p exactPointcut) Matches(sig Signature) bool {
	return sig.Method == p.method && sig.DeclaringType() == p.declaringType
}

func (p exactPointcut) String() string {
	return p.declaringType + "." + p.method
}

type funcPointcut struct {
	name string
	fn   func(Signature) bool
}

// Func adapts a predicate into a named pointcut.
func Func(name string, fn func(Signature) bool) Pointcut {
	return funcPointcut{name: name, fn: fn}
}

func (p funcPointcut) Matches(sig Signature) bool {
	return p.fn(sig)
}

func (p funcPointcut) String() string {
	return p.name
}
