package compiler

import (
	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/graph"
)

// CompiledModule mirrors a ModuleNode with live instances. A module imported
// from several places compiles to one shared CompiledModule.
type CompiledModule struct {
	Node     *graph.ModuleNode
	Instance any
	Injector *container.Injector

	Middlewares  []core.MiddlewareFunc
	ErrorHandler core.ErrorHandlerFunc // nil when none is declared

	Imports     []*CompiledModule
	Controllers []*CompiledController
}

// Name returns the module name.
func (m *CompiledModule) Name() string { return m.Node.Name }

// CompiledController mirrors a ControllerNode with its live instance.
type CompiledController struct {
	Node     *graph.ControllerNode
	Instance any

	Middlewares  []core.MiddlewareFunc
	ErrorHandler core.ErrorHandlerFunc

	Methods []*CompiledMethod
}

// Name returns the controller name.
func (c *CompiledController) Name() string { return c.Node.Name }

// CompiledMethod is an endpoint bound to its controller instance.
type CompiledMethod struct {
	Node *graph.MethodNode
	Name string // Controller.Method

	Handle       core.Handle
	Args         []core.ArgFactory
	Middlewares  []core.MiddlewareFunc
	ErrorHandler core.ErrorHandlerFunc
}

// Kind returns the declared endpoint kind.
func (m *CompiledMethod) Kind() core.Kind { return m.Node.Kind }
