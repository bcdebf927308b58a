// Package lifecycle dispatches module hooks across a compiled tree.
//
// Module and controller instances opt in by implementing any of:
//
//	OnModuleInit(ctx, tree) error               // after compile
//	OnModuleActivate(ctx, tree, app) error      // after link
//	OnModuleShutdown(ctx, tree, app) error      // before exit
//
// Hooks run sequentially, depth first in pre-order: a module, then its
// imports, then its controllers, in declaration order. An instance shared
// by several importers runs its hook once. The first error aborts.
package lifecycle

import (
	"context"
	"fmt"
	"reflect"

	"github.com/km-arc/go-composer/framework/compiler"
)

// Initializer is called once the tree is compiled.
type Initializer interface {
	OnModuleInit(ctx context.Context, tree *compiler.CompiledModule) error
}

// Activator is called once the tree is linked into app.
type Activator interface {
	OnModuleActivate(ctx context.Context, tree *compiler.CompiledModule, app any) error
}

// ShutdownHook is called before the application exits.
type ShutdownHook interface {
	OnModuleShutdown(ctx context.Context, tree *compiler.CompiledModule, app any) error
}

// Init runs OnModuleInit hooks.
func Init(ctx context.Context, tree *compiler.CompiledModule) error {
	return dispatch(ctx, tree, "init", func(inst any) error {
		if h, ok := inst.(Initializer); ok {
			return h.OnModuleInit(ctx, tree)
		}
		return nil
	})
}

// Activate runs OnModuleActivate hooks.
func Activate(ctx context.Context, tree *compiler.CompiledModule, app any) error {
	return dispatch(ctx, tree, "activate", func(inst any) error {
		if h, ok := inst.(Activator); ok {
			return h.OnModuleActivate(ctx, tree, app)
		}
		return nil
	})
}

// Shutdown runs OnModuleShutdown hooks.
func Shutdown(ctx context.Context, tree *compiler.CompiledModule, app any) error {
	return dispatch(ctx, tree, "shutdown", func(inst any) error {
		if h, ok := inst.(ShutdownHook); ok {
			return h.OnModuleShutdown(ctx, tree, app)
		}
		return nil
	})
}

// Instances returns every module and controller instance in hook order.
func Instances(tree *compiler.CompiledModule) []any {
	var out []any
	walk(tree, func(_ string, inst any) error {
		out = append(out, inst)
		return nil
	})
	return out
}

func dispatch(ctx context.Context, tree *compiler.CompiledModule, phase string, call func(any) error) error {
	return walk(tree, func(name string, inst any) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := call(inst); err != nil {
			return fmt.Errorf("%s hook %s: %w", phase, name, err)
		}
		return nil
	})
}

// walk visits instances with an explicit stack. Each stack entry is either a
// module (expanded into itself, its imports and its controllers) or a leaf.
func walk(tree *compiler.CompiledModule, fn func(name string, inst any) error) error {
	type item struct {
		module *compiler.CompiledModule
		ctrl   *compiler.CompiledController
	}
	seen := make(map[any]bool)
	visit := func(name string, inst any) error {
		if inst == nil {
			return nil
		}
		if reflect.TypeOf(inst).Comparable() {
			if seen[inst] {
				return nil
			}
			seen[inst] = true
		}
		return fn(name, inst)
	}

	stack := []item{{module: tree}}
	visited := make(map[*compiler.CompiledModule]bool)
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if it.ctrl != nil {
			if err := visit(it.ctrl.Name(), it.ctrl.Instance); err != nil {
				return err
			}
			continue
		}

		m := it.module
		if visited[m] {
			continue
		}
		visited[m] = true
		if err := visit(m.Name(), m.Instance); err != nil {
			return err
		}
		// Pushed in reverse so imports pop first, then controllers.
		for i := len(m.Controllers) - 1; i >= 0; i-- {
			stack = append(stack, item{ctrl: m.Controllers[i]})
		}
		for i := len(m.Imports) - 1; i >= 0; i-- {
			stack = append(stack, item{module: m.Imports[i]})
		}
	}
	return nil
}
