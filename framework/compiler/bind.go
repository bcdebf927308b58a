package compiler

import (
	"fmt"
	"reflect"

	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/graph"
)

var (
	errorType      = reflect.TypeFor[error]()
	contextType    = reflect.TypeFor[core.Context]()
	streamType     = reflect.TypeFor[core.StreamWriter]()
	textStreamType = reflect.TypeFor[core.TextStreamWriter]()
	sseWriterType  = reflect.TypeFor[core.SSEWriter]()
)

// writerType returns the writer a streaming kind hands to its handler.
func writerType(k core.Kind) reflect.Type {
	switch k {
	case core.KindStream, core.KindStreamAsync:
		return streamType
	case core.KindTextStream, core.KindTextStreamAsync:
		return textStreamType
	case core.KindSSE, core.KindSSEAsync:
		return sseWriterType
	}
	return nil
}

// signature is the validated shape of an endpoint method.
type signature struct {
	params     []reflect.Type // arg params, then the writer if any
	wantsCtx   bool
	returnsVal bool
	returnsErr bool
}

// bind validates the method signature against its declaration and returns a
// reflective invoker. Accepted shapes:
//
//	func(args..., [writer], [ctx])
//	func(args..., [writer], [ctx]) error
//	func(args..., [writer], [ctx]) T
//	func(args..., [writer], [ctx]) (T, error)
//
// ctx may be typed as core.Context or context.Context.
func bind(instance any, node *graph.MethodNode, name string) (core.Handle, error) {
	fn := reflect.ValueOf(instance).MethodByName(node.Name)
	if !fn.IsValid() {
		return nil, &core.InvalidHandlerError{Method: name, Reason: "method not found on instance"}
	}
	sig, err := inspect(fn.Type(), node, name)
	if err != nil {
		return nil, err
	}

	return func(ctx core.Context, args []any) (any, error) {
		if len(args) != len(sig.params) {
			return nil, fmt.Errorf("%s: expected %d arguments, got %d", name, len(sig.params), len(args))
		}
		in := make([]reflect.Value, 0, len(args)+1)
		for i, a := range args {
			v, err := convert(a, sig.params[i])
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", name, i, err)
			}
			in = append(in, v)
		}
		if sig.wantsCtx {
			in = append(in, reflect.ValueOf(ctx))
		}

		out := fn.Call(in)
		var (
			result any
			rerr   error
		)
		switch {
		case sig.returnsVal && sig.returnsErr:
			result = out[0].Interface()
			rerr, _ = out[1].Interface().(error)
		case sig.returnsVal:
			result = out[0].Interface()
		case sig.returnsErr:
			rerr, _ = out[0].Interface().(error)
		}
		return result, rerr
	}, nil
}

func inspect(t reflect.Type, node *graph.MethodNode, name string) (*signature, error) {
	invalid := func(format string, a ...any) error {
		return &core.InvalidHandlerError{Method: name, Reason: fmt.Sprintf(format, a...)}
	}
	if t.IsVariadic() {
		return nil, invalid("variadic handlers are not supported")
	}

	sig := &signature{}
	nargs := len(node.Descriptor.Args)
	want := nargs
	wt := writerType(node.Kind)
	if wt != nil {
		want++
	}

	switch t.NumIn() {
	case want:
	case want + 1:
		last := t.In(want)
		if !contextType.AssignableTo(last) || last.Kind() != reflect.Interface || last.NumMethod() == 0 {
			return nil, invalid("last parameter must be core.Context or context.Context, got %v", last)
		}
		sig.wantsCtx = true
	default:
		return nil, invalid("takes %d parameters but %d argument factories are declared", t.NumIn(), nargs)
	}

	for i := 0; i < want; i++ {
		sig.params = append(sig.params, t.In(i))
	}
	if wt != nil && !wt.AssignableTo(t.In(nargs)) {
		return nil, invalid("parameter %d must accept %v for %s endpoints, got %v", nargs, wt, node.Kind, t.In(nargs))
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			sig.returnsErr = true
		} else {
			sig.returnsVal = true
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, invalid("second result must be error, got %v", t.Out(1))
		}
		sig.returnsVal, sig.returnsErr = true, true
	default:
		return nil, invalid("returns %d values; want at most (T, error)", t.NumOut())
	}
	if node.Kind.Async() && !sig.returnsVal {
		return nil, invalid("%s endpoints must return an iterator or channel", node.Kind)
	}
	return sig, nil
}

// convert turns an extracted argument into a value of the parameter type.
// Numeric values convert between numeric kinds so CLI flags parsed as
// float64 can feed int parameters, as long as the value survives the
// conversion.
func convert(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not assignable to %v", t)
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if numeric(rv.Kind()) && numeric(t.Kind()) {
		return convertNumber(rv, t)
	}
	if rv.Kind() == reflect.String && t.Kind() == reflect.String {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%T is not assignable to %v", v, t)
}

// convertNumber converts rv to t and fails when the value changes on the
// way, such as 2.7 to an int or -1 to a uint.
func convertNumber(rv reflect.Value, t reflect.Type) (reflect.Value, error) {
	out := rv.Convert(t)
	lossy := out.Convert(rv.Type()).Interface() != rv.Interface()
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			lossy = lossy || rv.Int() < 0
		case reflect.Float32, reflect.Float64:
			lossy = lossy || rv.Float() < 0
		}
	}
	if lossy {
		return reflect.Value{}, fmt.Errorf("%v cannot be represented as %v", rv.Interface(), t)
	}
	return out, nil
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
