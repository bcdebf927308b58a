package graph

import (
	"reflect"

	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/metadata"
)

// ModuleNode is a module in the built graph. Nodes are read-only once Build
// returns; a module imported from several places is one shared node.
type ModuleNode struct {
	Ref   core.Ref
	Name  string
	Route string
	Help  string

	Descriptor  *metadata.ClassRecord
	Imports     []*ModuleNode
	Controllers []*ControllerNode
}

// ControllerNode is a controller declared by a module.
type ControllerNode struct {
	Ref   core.Ref
	Name  string
	Route string
	Help  string

	Descriptor *metadata.ClassRecord
	Methods    []*MethodNode
}

// MethodNode is one endpoint method of a controller.
type MethodNode struct {
	Name  string
	Route string
	Kind  core.Kind
	Help  string

	Descriptor *metadata.MethodRecord
	Method     reflect.Method
}

// FullName is "Controller.Method", used in errors and logs.
func (m *MethodNode) FullName(c *ControllerNode) string {
	return c.Name + "." + m.Name
}

// Walk visits every distinct module reachable from root exactly once,
// root first, imports in declaration order.
func Walk(root *ModuleNode, fn func(*ModuleNode) error) error {
	seen := make(map[*ModuleNode]bool)
	stack := []*ModuleNode{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		if err := fn(n); err != nil {
			return err
		}
		for i := len(n.Imports) - 1; i >= 0; i-- {
			stack = append(stack, n.Imports[i])
		}
	}
	return nil
}
