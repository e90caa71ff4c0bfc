package weave

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test target covering the proxyable method shapes
type calculator struct{}

func (c *calculator) Add(a, b int) int { return a + b }
func (c *calculator) Scale(ctx context.Context, f float64, v []int) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = f * float64(x)
	}
	return out
}
func (c *calculator) Reset()                          {}
func (c *calculator) Check(ctx context.Context) error { return nil }
func (c *calculator) Sum(values ...int) int           { return len(values) }
func (c *calculator) Split() (int, int, error)        { return 0, 0, nil }
func (c *calculator) Pair() (int, string)             { return 0, "" }

func TestProxyDiscoversMethods(t *testing.T) {
	p, err := NewRegistry().Build().Proxy(&calculator{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Add", "Check", "Reset", "Scale"}, p.Methods())
	assert.True(t, p.Has("Add"))
	assert.False(t, p.Has("Sum"))
	assert.False(t, p.Has("Split"))
	assert.False(t, p.Has("Pair"))

	info, ok := p.Method("Scale")
	require.True(t, ok)
	assert.Len(t, info.Params, 2)
	assert.Equal(t, "github.com/madeeasy/weave.calculator.Scale", info.Signature.Qualified())

	sigs := p.Signatures()
	require.Len(t, sigs, 4)
	assert.Equal(t, "Add", sigs[0].Method)
}

func TestProxyInvokeShapes(t *testing.T) {
	p, err := NewRegistry().Build().Proxy(&calculator{})
	require.NoError(t, err)
	ctx := context.Background()

	result, err := p.Invoke(ctx, "Add", 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, result)

	// JSON-decoded numbers arrive as float64.
	result, err = p.Invoke(ctx, "Add", 2.0, float64(5))
	require.NoError(t, err)
	assert.Equal(t, 7, result)

	result, err = p.Invoke(ctx, "Scale", 2, []int{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, result)

	result, err = p.Invoke(ctx, "Scale", 1.5, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{}, result)

	result, err = p.Invoke(ctx, "Reset")
	require.NoError(t, err)
	assert.Nil(t, result)

	result, err = p.Invoke(ctx, "Check")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestProxyInvokeErrors(t *testing.T) {
	p, err := NewRegistry().Build().Proxy(&calculator{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = p.Invoke(ctx, "Missing")
	assert.ErrorIs(t, err, ErrMethodNotFound)

	_, err = p.Invoke(ctx, "Add", 1)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = p.Invoke(ctx, "Add", "1", 2)
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = p.Invoke(ctx, "Add", nil, 2)
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestProxyRejectsLossyNumbers(t *testing.T) {
	p, err := NewRegistry().Build().Proxy(&calculator{})
	require.NoError(t, err)
	ctx := context.Background()

	for _, arg := range []any{2.9, -0.5, 1e20, math.Inf(1), math.NaN(), uint64(math.MaxUint64)} {
		_, err = p.Invoke(ctx, "Add", arg, 1)
		assert.ErrorIs(t, err, ErrInvalidArguments, "arg %v", arg)
	}

	result, err := p.Invoke(ctx, "Add", -3.0, uint8(4))
	require.NoError(t, err)
	assert.Equal(t, 1, result)
}

func TestConvertArgNumericRange(t *testing.T) {
	tests := []struct {
		arg  any
		to   reflect.Type
		want bool
	}{
		{300, reflect.TypeFor[int8](), false},
		{-1, reflect.TypeFor[uint](), false},
		{int64(255), reflect.TypeFor[uint8](), true},
		{uint32(7), reflect.TypeFor[int16](), true},
		{1e40, reflect.TypeFor[float32](), false},
		{float32(1.5), reflect.TypeFor[float64](), true},
		{3.0, reflect.TypeFor[uint16](), true},
		{-3.0, reflect.TypeFor[uint16](), false},
		{7, reflect.TypeFor[float64](), true},
	}
	for _, tt := range tests {
		_, ok := convertArg(tt.arg, tt.to)
		assert.Equal(t, tt.want, ok, "%T(%v) to %s", tt.arg, tt.arg, tt.to)
	}
}

func TestProxyRejectsInvalidTargets(t *testing.T) {
	ic := NewRegistry().Build()

	_, err := ic.Proxy(nil)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, err = ic.Proxy(calculator{})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	var nilCalc *calculator
	_, err = ic.Proxy(nilCalc)
	assert.ErrorIs(t, err, ErrInvalidTarget)

	n := 3
	_, err = ic.Proxy(&n)
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestProxyInvalidArgumentsSkipAdvice(t *testing.T) {
	rec := &recorder{}
	r := NewRegistry()
	r.Before(Within("github.com/madeeasy/weave.calculator"), func(ctx context.Context, jp *JoinPoint) error {
		rec.add("before")
		return nil
	})
	p, err := r.Build().Proxy(&calculator{})
	require.NoError(t, err)

	_, err = p.Invoke(context.Background(), "Add", 1)
	require.Error(t, err)
	assert.Empty(t, rec.list())
}
