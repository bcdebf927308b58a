package metadata

import "github.com/km-arc/go-composer/framework/core"

// ModuleOptions is the declared shape of a module.
type ModuleOptions struct {
	Name  string
	Route string // mount prefix (HTTP path or CLI namespace)
	Help  string

	Imports     []core.Ref
	Providers   []any // core.Provider or core.Ref
	Controllers []core.Ref

	Middlewares  []core.MiddlewareSpec
	ErrorHandler core.ErrorHandlerSpec

	Deps        []core.Token
	Constructor any
}

// ControllerOptions is the declared shape of a controller.
type ControllerOptions struct {
	Name  string
	Route string
	Help  string

	Middlewares  []core.MiddlewareSpec
	ErrorHandler core.ErrorHandlerSpec

	Deps        []core.Token
	Constructor any
}

// MethodOptions is the declared shape of an endpoint method.
type MethodOptions struct {
	Kind  core.Kind
	Route string
	Help  string

	Middlewares  []core.MiddlewareSpec
	ErrorHandler core.ErrorHandlerSpec

	// Args extract the handler arguments, in parameter order.
	Args []core.ArgFactory
}

// InjectableOptions declares how a plain type is constructed.
//
// Constructor is a function returning T or (T, error). Its parameters are
// resolved from Deps in order; when Deps is empty the parameter types
// themselves are used as tokens.
type InjectableOptions struct {
	Deps        []core.Token
	Constructor any
}

// ── Default store ─────────────────────────────────────────────────────────────

// Default is the process-wide store written by the package-level functions.
var Default = NewStore()

// Module declares ref as a module in the Default store.
func Module(ref core.Ref, opts ModuleOptions) { Default.Module(ref, opts) }

// Controller declares ref as a controller in the Default store.
func Controller(ref core.Ref, opts ControllerOptions) { Default.Controller(ref, opts) }

// Endpoint declares an endpoint method in the Default store.
func Endpoint(ref core.Ref, method string, opts MethodOptions) {
	Default.Endpoint(ref, method, opts)
}

// Injectable declares a constructor in the Default store.
func Injectable(ref core.Ref, opts InjectableOptions) { Default.Injectable(ref, opts) }

// Reset clears the Default store. Intended for tests.
func Reset() { Default.Reset() }
