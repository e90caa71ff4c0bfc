package weave

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"slices"
	"sort"
)

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
var errorType = reflect.TypeOf((*error)(nil)).Elem()

// MethodInfo contains metadata about a proxied method.
type MethodInfo struct {
	Name      string
	Signature Signature
	Params    []reflect.Type // parameters after the optional context.Context
	Result    reflect.Type   // nil when the method returns only an error or nothing
	method    reflect.Value
	takesCtx  bool
	hasError  bool
	chain     *chain
}

// Proxy intercepts calls to the exported methods of a target struct.
// A proxyable method has the shape
//
//	func([ctx context.Context,] args...) [(T)] [(T, error)] [(error)]
//
// Variadic methods and methods with more than two results are skipped.
type Proxy struct {
	ic      *Interceptor
	target  any
	methods map[string]*MethodInfo
}

// Proxy creates a proxy over target, which must be a pointer to a struct.
// The advice chain of each method is resolved once, here.
func (ic *Interceptor) Proxy(target any) (*Proxy, error) {
	v := reflect.ValueOf(target)
	if !v.IsValid() {
		return nil, ErrInvalidTarget
	}
	t := v.Type()
	if t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Struct || v.IsNil() {
		return nil, fmt.Errorf("%w, got %T", ErrInvalidTarget, target)
	}

	p := &Proxy{
		ic:      ic,
		target:  target,
		methods: make(map[string]*MethodInfo),
	}
	for i := 0; i < t.NumMethod(); i++ {
		method := t.Method(i)
		sig := Signature{
			Package: t.Elem().PkgPath(),
			Type:    t.Elem().Name(),
			Method:  method.Name,
		}
		if info := validateMethod(method, v, sig); info != nil {
			info.chain = ic.chainFor(sig)
			p.methods[info.Name] = info
		}
	}
	return p, nil
}

// validateMethod checks if a method can be proxied.
func validateMethod(method reflect.Method, target reflect.Value, sig Signature) *MethodInfo {
	mt := method.Type
	if mt.IsVariadic() || mt.NumOut() > 2 {
		return nil
	}

	info := &MethodInfo{
		Name:      method.Name,
		Signature: sig,
		method:    target.Method(method.Index),
	}

	// In(0) is the receiver.
	first := 1
	if mt.NumIn() > 1 && mt.In(1) == contextType {
		info.takesCtx = true
		first = 2
	}
	for i := first; i < mt.NumIn(); i++ {
		info.Params = append(info.Params, mt.In(i))
	}

	switch mt.NumOut() {
	case 1:
		if mt.Out(0) == errorType {
			info.hasError = true
		} else {
			info.Result = mt.Out(0)
		}
	case 2:
		if mt.Out(1) != errorType {
			return nil
		}
		info.Result = mt.Out(0)
		info.hasError = true
	}
	return info
}

// Target returns the proxied object.
func (p *Proxy) Target() any {
	return p.target
}

// Has reports whether the proxy exposes the named method.
func (p *Proxy) Has(method string) bool {
	_, ok := p.methods[method]
	return ok
}

// Method returns the metadata of the named method.
func (p *Proxy) Method(name string) (*MethodInfo, bool) {
	info, ok := p.methods[name]
	return info, ok
}

// Methods returns all proxied method names, sorted.
func (p *Proxy) Methods() []string {
	names := make([]string, 0, len(p.methods))
	for name := range p.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signatures returns the signatures of all proxied methods, sorted by name.
func (p *Proxy) Signatures() []Signature {
	sigs := make([]Signature, 0, len(p.methods))
	for _, name := range p.Methods() {
		sigs = append(sigs, p.methods[name].Signature)
	}
	return sigs
}

// Invoke calls the named method through the interceptor. Arguments must be
// assignable to the method parameters; numeric arguments are converted.
func (p *Proxy) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	info, ok := p.methods[method]
	if !ok {
		return nil, methodNotFound(method)
	}
	in, err := info.arguments(args)
	if err != nil {
		return nil, err
	}
	op := func(ctx context.Context) (any, error) {
		return info.call(ctx, in)
	}
	return p.ic.dispatch(ctx, info.chain, newJoinPoint(info.Signature, p.target, args), op)
}

func (info *MethodInfo) arguments(args []any) ([]reflect.Value, error) {
	if len(args) != len(info.Params) {
		return nil, invalidArguments(info.Signature,
			fmt.Sprintf("expected %d arguments, got %d", len(info.Params), len(args)))
	}
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, ok := convertArg(arg, info.Params[i])
		if !ok {
			return nil, invalidArguments(info.Signature,
				fmt.Sprintf("argument %d: cannot use %T as %s", i, arg, info.Params[i]))
		}
		in[i] = v
	}
	return in, nil
}

func (info *MethodInfo) call(ctx context.Context, args []reflect.Value) (any, error) {
	in := args
	if info.takesCtx {
		in = slices.Insert(slices.Clone(args), 0, reflect.ValueOf(&ctx).Elem())
	}
	results := info.method.Call(in)

	var result any
	if info.Result != nil {
		result = results[0].Interface()
	}
	if info.hasError {
		if errVal := results[len(results)-1].Interface(); errVal != nil {
			return result, errVal.(error)
		}
	}
	return result, nil
}

func convertArg(arg any, t reflect.Type) (reflect.Value, bool) {
	if arg == nil {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, true
	}
	if isNumeric(v.Kind()) && isNumeric(t.Kind()) && fits(v, t) {
		return v.Convert(t), true
	}
	return reflect.Value{}, false
}

// fits reports whether numeric v converts to t without losing its value.
// Floats must be integral to become integers; nothing may overflow.
func fits(v reflect.Value, t reflect.Type) bool {
	dst := reflect.Zero(t)
	switch {
	case v.CanInt():
		i := v.Int()
		switch {
		case dst.CanInt():
			return !dst.OverflowInt(i)
		case dst.CanUint():
			return i >= 0 && !dst.OverflowUint(uint64(i))
		}
		return true
	case v.CanUint():
		u := v.Uint()
		switch {
		case dst.CanInt():
			return u <= math.MaxInt64 && !dst.OverflowInt(int64(u))
		case dst.CanUint():
			return !dst.OverflowUint(u)
		}
		return true
	}
	f := v.Float()
	switch {
	case dst.CanFloat():
		return !dst.OverflowFloat(f)
	case math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f):
		return false
	case dst.CanInt():
		return f >= math.MinInt64 && f < math.MaxInt64 && !dst.OverflowInt(int64(f))
	}
	return f >= 0 && f < math.MaxUint64 && !dst.OverflowUint(uint64(f))
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
