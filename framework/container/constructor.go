package container

import (
	"context"
	"fmt"
	"reflect"

	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/metadata"
)

var errorType = reflect.TypeFor[error]()

// constructorInfo holds the analyzed signature of a constructor function.
//
// Supported signatures:
//   - func() T
//   - func() (T, error)
//   - func(Dep1, Dep2, ...) T
//   - func(Dep1, Dep2, ...) (T, error)
type constructorInfo struct {
	fn           reflect.Value
	paramTypes   []reflect.Type
	returnType   reflect.Type
	returnsError bool
}

func parseConstructor(constructor any) (*constructorInfo, error) {
	fn := reflect.ValueOf(constructor)
	fnType := fn.Type()
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %v", fnType)
	}

	numOut := fnType.NumOut()
	if numOut == 0 || numOut > 2 {
		return nil, fmt.Errorf("constructor must return T or (T, error), got %d return values", numOut)
	}
	returnsError := false
	if numOut == 2 {
		if fnType.Out(1) != errorType {
			return nil, fmt.Errorf("constructor's second return value must be error, got %v", fnType.Out(1))
		}
		returnsError = true
	}

	params := make([]reflect.Type, fnType.NumIn())
	for i := range params {
		params[i] = fnType.In(i)
	}
	return &constructorInfo{
		fn:           fn,
		paramTypes:   params,
		returnType:   fnType.Out(0),
		returnsError: returnsError,
	}, nil
}

// instantiate builds an instance of ref from its declared constructor and
// dependency tokens, resolving the dependencies through r.
func instantiate(ctx context.Context, r core.Resolver, ref core.Ref, rec *metadata.ClassRecord) (any, error) {
	var (
		ctor any
		deps []core.Token
	)
	if rec != nil {
		ctor, deps = rec.Constructor, rec.Deps
	}

	if ctor == nil {
		if len(deps) > 0 {
			return nil, &core.InvalidProviderError{Token: ref, Reason: "declares deps but no constructor"}
		}
		if ref.Kind() != reflect.Pointer || ref.Elem().Kind() != reflect.Struct {
			return nil, &core.InvalidProviderError{
				Token:  ref,
				Reason: "only pointer-to-struct types can be built without a constructor",
			}
		}
		return reflect.New(ref.Elem()).Interface(), nil
	}

	info, err := parseConstructor(ctor)
	if err != nil {
		return nil, &core.InvalidProviderError{Token: ref, Reason: err.Error()}
	}
	if !info.returnType.AssignableTo(ref) {
		return nil, &core.InvalidProviderError{
			Token:  ref,
			Reason: fmt.Sprintf("constructor returns %v, not assignable to %v", info.returnType, ref),
		}
	}

	tokens := deps
	if len(tokens) == 0 {
		tokens = make([]core.Token, len(info.paramTypes))
		for i, t := range info.paramTypes {
			tokens[i] = t
		}
	}
	if len(tokens) != len(info.paramTypes) {
		return nil, &core.InvalidProviderError{
			Token:  ref,
			Reason: fmt.Sprintf("constructor takes %d parameters but %d deps are declared", len(info.paramTypes), len(tokens)),
		}
	}

	params := make([]reflect.Value, len(tokens))
	for i, token := range tokens {
		v, err := r.Resolve(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %d: %w", core.RefName(ref), i, err)
		}
		pv, err := assign(v, info.paramTypes[i])
		if err != nil {
			return nil, &core.InvalidProviderError{
				Token:  ref,
				Reason: fmt.Sprintf("parameter %d (%s): %v", i, core.TokenName(token), err),
			}
		}
		params[i] = pv
	}

	results := info.fn.Call(params)
	if info.returnsError && !results[1].IsNil() {
		return nil, results[1].Interface().(error)
	}
	return results[0].Interface(), nil
}

// assign converts a resolved value to a parameter of type t.
func assign(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not assignable to %v", t)
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%T is not assignable to %v", v, t)
	}
	return rv, nil
}
