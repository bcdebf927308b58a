package container

import (
	"context"
	"fmt"

	"github.com/km-arc/go-composer/framework/core"
)

// Resolve resolves token through r and type-asserts the result.
//
//	// Instead of: v, err := inj.Resolve(ctx, "db"); db := v.(*sql.DB)
//	// Write:      db, err := container.Resolve[*sql.DB](ctx, inj, "db")
func Resolve[T any](ctx context.Context, r core.Resolver, token core.Token) (T, error) {
	var zero T
	v, err := r.Resolve(ctx, token)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("container: Resolve[%T]: %s resolved to %T", zero, core.TokenName(token), v)
	}
	return typed, nil
}

// ResolveType resolves the type T itself as the token.
//
//	svc, err := container.ResolveType[*UserService](ctx, inj)
func ResolveType[T any](ctx context.Context, r core.Resolver) (T, error) {
	return Resolve[T](ctx, r, core.RefOf[T]())
}

// MustResolve is like Resolve but panics on failure. Useful in tests and
// composition roots where a missing binding is a programming error.
func MustResolve[T any](ctx context.Context, r core.Resolver, token core.Token) T {
	v, err := Resolve[T](ctx, r, token)
	if err != nil {
		panic(err)
	}
	return v
}
