package compiler

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/graph"
)

// Compiler instantiates a module graph through per-module injectors.
type Compiler struct {
	registry *container.Registry
	logger   *zap.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for debug traces.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// New creates a Compiler resolving through registry.
func New(registry *container.Registry, opts ...Option) *Compiler {
	c := &Compiler{registry: registry, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// session carries the per-call memo, so a module shared by several importers
// is compiled once.
type session struct {
	*Compiler
	memo map[*graph.ModuleNode]*CompiledModule
}

// Compile walks root depth first in declaration order and returns the
// compiled tree. Every module, controller, middleware and error handler is
// resolved before Compile returns.
func (c *Compiler) Compile(ctx context.Context, root *graph.ModuleNode) (*CompiledModule, error) {
	s := &session{Compiler: c, memo: make(map[*graph.ModuleNode]*CompiledModule)}
	return s.module(ctx, root)
}

func (s *session) module(ctx context.Context, node *graph.ModuleNode) (*CompiledModule, error) {
	if m, ok := s.memo[node]; ok {
		return m, nil
	}

	inj, err := s.registry.Get(node.Ref)
	if err != nil {
		return nil, err
	}
	instance, err := inj.Resolve(ctx, node.Ref)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", node.Name, err)
	}

	m := &CompiledModule{Node: node, Instance: instance, Injector: inj}

	for _, cn := range node.Controllers {
		cc, err := s.controller(ctx, inj, cn)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", node.Name, err)
		}
		m.Controllers = append(m.Controllers, cc)
	}
	for _, in := range node.Imports {
		im, err := s.module(ctx, in)
		if err != nil {
			return nil, err
		}
		m.Imports = append(m.Imports, im)
	}

	if m.Middlewares, err = s.middlewares(ctx, inj, node.Descriptor.Middlewares); err != nil {
		return nil, fmt.Errorf("module %s: %w", node.Name, err)
	}
	if m.ErrorHandler, err = s.errorHandler(ctx, inj, node.Descriptor.ErrorHandler); err != nil {
		return nil, fmt.Errorf("module %s: %w", node.Name, err)
	}

	s.memo[node] = m
	s.logger.Debug("compiler: module compiled",
		zap.String("module", node.Name),
		zap.Int("controllers", len(m.Controllers)),
		zap.Int("imports", len(m.Imports)))
	return m, nil
}

func (s *session) controller(ctx context.Context, inj *container.Injector, node *graph.ControllerNode) (*CompiledController, error) {
	instance, err := inj.Resolve(ctx, node.Ref)
	if err != nil {
		return nil, fmt.Errorf("controller %s: %w", node.Name, err)
	}
	c := &CompiledController{Node: node, Instance: instance}

	for _, mn := range node.Methods {
		cm, err := s.method(ctx, inj, node, instance, mn)
		if err != nil {
			return nil, err
		}
		c.Methods = append(c.Methods, cm)
	}

	if c.Middlewares, err = s.middlewares(ctx, inj, node.Descriptor.Middlewares); err != nil {
		return nil, fmt.Errorf("controller %s: %w", node.Name, err)
	}
	if c.ErrorHandler, err = s.errorHandler(ctx, inj, node.Descriptor.ErrorHandler); err != nil {
		return nil, fmt.Errorf("controller %s: %w", node.Name, err)
	}

	s.logger.Debug("compiler: controller compiled",
		zap.String("controller", node.Name),
		zap.Int("methods", len(c.Methods)))
	return c, nil
}

func (s *session) method(ctx context.Context, inj *container.Injector, ctrl *graph.ControllerNode, instance any, node *graph.MethodNode) (*CompiledMethod, error) {
	name := node.FullName(ctrl)
	handle, err := bind(instance, node, name)
	if err != nil {
		return nil, err
	}
	m := &CompiledMethod{
		Node:   node,
		Name:   name,
		Handle: handle,
		Args:   node.Descriptor.Args,
	}
	if m.Middlewares, err = s.middlewares(ctx, inj, node.Descriptor.Middlewares); err != nil {
		return nil, fmt.Errorf("method %s: %w", name, err)
	}
	if m.ErrorHandler, err = s.errorHandler(ctx, inj, node.Descriptor.ErrorHandler); err != nil {
		return nil, fmt.Errorf("method %s: %w", name, err)
	}
	return m, nil
}

// resolveClass resolves a middleware or error handler type, registering it
// on the module injector when no module in scope provides it.
func resolveClass(ctx context.Context, inj *container.Injector, ref core.Ref) (any, error) {
	v, err := inj.Resolve(ctx, ref)
	var notFound *core.ProviderNotFoundError
	if errors.As(err, &notFound) && notFound.Token == ref {
		if err := inj.TryRegister(ref); err != nil {
			return nil, err
		}
		return inj.Resolve(ctx, ref)
	}
	return v, err
}
