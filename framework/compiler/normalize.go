package compiler

import (
	"context"
	"fmt"
	"reflect"

	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/core"
)

var (
	middlewareHandlerType = reflect.TypeFor[core.MiddlewareHandler]()
	guardType             = reflect.TypeFor[core.Guard]()
	catcherType           = reflect.TypeFor[core.Catcher]()
)

// middlewares resolves every declared variant into a MiddlewareFunc.
func (s *session) middlewares(ctx context.Context, inj *container.Injector, specs []core.MiddlewareSpec) ([]core.MiddlewareFunc, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make([]core.MiddlewareFunc, 0, len(specs))
	for _, spec := range specs {
		switch v := spec.(type) {
		case core.MiddlewareFunc:
			if v == nil {
				return nil, fmt.Errorf("nil middleware")
			}
			out = append(out, v)

		case core.HandlerClass:
			if !v.Ref.Implements(middlewareHandlerType) {
				return nil, &core.InvalidMiddlewareError{Name: core.RefName(v.Ref), Contract: "Handle(ctx, next)"}
			}
			inst, err := resolveClass(ctx, inj, v.Ref)
			if err != nil {
				return nil, err
			}
			out = append(out, inst.(core.MiddlewareHandler).Handle)

		case core.GuardClass:
			if !v.Ref.Implements(guardType) {
				return nil, &core.InvalidMiddlewareError{Name: core.RefName(v.Ref), Contract: "CanActivate(ctx)"}
			}
			inst, err := resolveClass(ctx, inj, v.Ref)
			if err != nil {
				return nil, err
			}
			out = append(out, guard(core.RefName(v.Ref), inst.(core.Guard)))

		default:
			return nil, fmt.Errorf("unsupported middleware %T", spec)
		}
	}
	return out, nil
}

// guard adapts a Guard: true continues the chain, false rejects.
func guard(name string, g core.Guard) core.MiddlewareFunc {
	return func(ctx core.Context, next core.Next) (any, error) {
		ok, err := g.CanActivate(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &core.GuardRejectionError{Guard: name}
		}
		return next()
	}
}

// errorHandler resolves a declared error handler; nil stays nil.
func (s *session) errorHandler(ctx context.Context, inj *container.Injector, spec core.ErrorHandlerSpec) (core.ErrorHandlerFunc, error) {
	switch v := spec.(type) {
	case nil:
		return nil, nil
	case core.ErrorHandlerFunc:
		return v, nil
	case core.CatcherClass:
		if !v.Ref.Implements(catcherType) {
			return nil, &core.InvalidErrorHandlerError{Name: core.RefName(v.Ref)}
		}
		inst, err := resolveClass(ctx, inj, v.Ref)
		if err != nil {
			return nil, err
		}
		return inst.(core.Catcher).Catch, nil
	default:
		return nil, &core.InvalidErrorHandlerError{Name: fmt.Sprintf("%T", spec)}
	}
}
