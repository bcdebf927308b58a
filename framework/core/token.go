package core

import (
	"context"
	"fmt"
	"reflect"
)

// ── Tokens ────────────────────────────────────────────────────────────────────

// Token identifies a requestable dependency. It is a string, a *Symbol or a
// Ref. Tokens are compared with ==, so strings match by value while symbols
// and refs match by identity.
type Token = any

// Ref is the identity of a framework entity: a module, controller, middleware
// or any other injectable type. Use RefOf to obtain one.
//
//	core.RefOf[*UsersController]()
type Ref = reflect.Type

// RefOf returns the Ref for T.
func RefOf[T any]() Ref {
	return reflect.TypeFor[T]()
}

// Symbol is a named token compared by identity: two symbols with the same
// name are different tokens.
type Symbol struct {
	name string
}

// NewSymbol creates a unique symbol token.
//
//	var DB = core.NewSymbol("db")
func NewSymbol(name string) *Symbol {
	return &Symbol{name: name}
}

func (s *Symbol) String() string { return "Symbol(" + s.name + ")" }

// TokenName renders a token for error messages and logs.
func TokenName(token Token) string {
	switch t := token.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("%q", t)
	case *Symbol:
		return t.String()
	case reflect.Type:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// RefName returns the short type name of ref ("UsersController" for
// *app.UsersController).
func RefName(ref Ref) string {
	if ref == nil {
		return "<nil>"
	}
	t := ref
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return ref.String()
	}
	return t.Name()
}

// ── Providers ─────────────────────────────────────────────────────────────────

// Resolver is the read side of an injector handed to provider factories.
type Resolver interface {
	Resolve(ctx context.Context, token Token) (any, error)
}

// Factory builds the value of a provider. The resolver it receives is scoped
// to the injector that owns the provider.
type Factory func(ctx context.Context, r Resolver) (any, error)

// Provider binds a token to the factory that produces its value.
type Provider struct {
	Token   Token
	Factory Factory
}

// Value returns a provider that always yields v.
//
//	core.Value("cfg", "test")
func Value(token Token, v any) Provider {
	return Provider{
		Token:   token,
		Factory: func(context.Context, Resolver) (any, error) { return v, nil },
	}
}

// FactoryOf returns a provider for token built by fn.
func FactoryOf(token Token, fn Factory) Provider {
	return Provider{Token: token, Factory: fn}
}
