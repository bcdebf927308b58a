package graph

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/metadata"
)

// Builder turns module metadata into a node tree. Nodes are memoized per
// Builder, so every Build on the same Builder shares module nodes.
type Builder struct {
	store  *metadata.Store
	logger *zap.Logger

	mu   sync.Mutex
	memo map[core.Ref]*ModuleNode
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for debug traces.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder creates a Builder reading from store.
func NewBuilder(store *metadata.Store, opts ...Option) *Builder {
	b := &Builder{
		store:  store,
		logger: zap.NewNop(),
		memo:   make(map[core.Ref]*ModuleNode),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build is a shorthand for NewBuilder(metadata.Default).Build(root).
func Build(root core.Ref) (*ModuleNode, error) {
	return NewBuilder(metadata.Default).Build(root)
}

// frame is one module on the current DFS path.
type frame struct {
	rec     *metadata.ClassRecord
	next    int
	imports []*ModuleNode
}

// Build constructs the graph rooted at root.
func (b *Builder) Build(root core.Ref) (*ModuleNode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n, ok := b.memo[root]; ok {
		return n, nil
	}
	rec, err := b.module(root)
	if err != nil {
		return nil, err
	}

	stack := []*frame{{rec: rec}}
	onPath := map[core.Ref]int{root: 0}

	for {
		f := stack[len(stack)-1]

		if f.next < len(f.rec.Imports) {
			ref := f.rec.Imports[f.next]
			f.next++

			if idx, ok := onPath[ref]; ok {
				return nil, cyclePath(stack[idx:])
			}
			if n, ok := b.memo[ref]; ok {
				f.imports = append(f.imports, n)
				continue
			}
			rec, err := b.module(ref)
			if err != nil {
				return nil, fmt.Errorf("module %s: import: %w", f.rec.Name, err)
			}
			onPath[ref] = len(stack)
			stack = append(stack, &frame{rec: rec})
			continue
		}

		node, err := b.finish(f)
		if err != nil {
			return nil, err
		}
		b.memo[f.rec.Ref] = node
		delete(onPath, f.rec.Ref)
		stack = stack[:len(stack)-1]

		if len(stack) == 0 {
			return node, nil
		}
		parent := stack[len(stack)-1]
		parent.imports = append(parent.imports, node)
	}
}

func (b *Builder) module(ref core.Ref) (*metadata.ClassRecord, error) {
	rec, ok := b.store.Class(ref)
	if !ok || !rec.IsModule {
		return nil, &core.NotAModuleError{Name: core.RefName(ref)}
	}
	return rec, nil
}

// finish builds the node for a module whose imports are all built.
func (b *Builder) finish(f *frame) (*ModuleNode, error) {
	node := &ModuleNode{
		Ref:        f.rec.Ref,
		Name:       f.rec.Name,
		Route:      f.rec.Route,
		Help:       f.rec.Help,
		Descriptor: f.rec,
		Imports:    f.imports,
	}
	for _, ref := range f.rec.Controllers {
		c, err := b.controller(ref)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", node.Name, err)
		}
		node.Controllers = append(node.Controllers, c)
	}
	b.logger.Debug("graph: module built",
		zap.String("module", node.Name),
		zap.Int("imports", len(node.Imports)),
		zap.Int("controllers", len(node.Controllers)))
	return node, nil
}

func (b *Builder) controller(ref core.Ref) (*ControllerNode, error) {
	rec, ok := b.store.Class(ref)
	if !ok || !rec.IsController {
		return nil, &core.NotAControllerError{Name: core.RefName(ref)}
	}
	node := &ControllerNode{
		Ref:        ref,
		Name:       rec.Name,
		Route:      rec.Route,
		Help:       rec.Help,
		Descriptor: rec,
	}
	for _, m := range rec.Methods {
		method, ok := ref.MethodByName(m.Name)
		if !ok {
			return nil, &core.InvalidHandlerError{
				Method: rec.Name + "." + m.Name,
				Reason: fmt.Sprintf("%s has no exported method %s", ref, m.Name),
			}
		}
		node.Methods = append(node.Methods, &MethodNode{
			Name:       m.Name,
			Route:      m.Route,
			Kind:       m.Kind,
			Help:       m.Help,
			Descriptor: m,
			Method:     method,
		})
	}
	return node, nil
}

// cyclePath reports frames (starting at the repeated module) closed back on
// the first one: A -> B -> C -> A.
func cyclePath(frames []*frame) error {
	path := make([]string, 0, len(frames)+1)
	for _, f := range frames {
		path = append(path, f.rec.Name)
	}
	path = append(path, frames[0].rec.Name)
	return &core.CircularDependencyError{Path: path}
}
