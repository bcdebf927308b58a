package linker

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/go-composer/framework/compiler"
	"github.com/km-arc/go-composer/framework/core"
)

// Linker mounts a compiled module tree onto an Adapter.
type Linker struct {
	adapter     Adapter
	middlewares []core.MiddlewareFunc
	logger      *zap.Logger
}

// Option configures a Linker.
type Option func(*Linker)

// WithMiddlewares prepends global middlewares to every endpoint chain.
func WithMiddlewares(mw ...core.MiddlewareFunc) Option {
	return func(l *Linker) { l.middlewares = append(l.middlewares, mw...) }
}

// WithLogger sets the logger used for mount traces.
func WithLogger(log *zap.Logger) Option {
	return func(l *Linker) { l.logger = log }
}

// New creates a Linker for adapter.
func New(adapter Adapter, opts ...Option) *Linker {
	l := &Linker{adapter: adapter, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// scope is the chain of enclosing modules of the feature being linked, root
// first. Middlewares run outer to inner; error handlers are searched inner to
// outer.
type scope struct {
	middlewares []core.MiddlewareFunc
	handlers    []core.ErrorHandlerFunc // nearest last
}

func (s scope) with(mw []core.MiddlewareFunc, eh core.ErrorHandlerFunc) scope {
	next := scope{
		middlewares: append(append([]core.MiddlewareFunc(nil), s.middlewares...), mw...),
		handlers:    append([]core.ErrorHandlerFunc(nil), s.handlers...),
	}
	if eh != nil {
		next.handlers = append(next.handlers, eh)
	}
	return next
}

// session tracks the modules already linked during one Link call.
type session struct {
	*Linker
	linked map[*compiler.CompiledModule]bool
}

// Link mounts root and returns what the adapter's Finalize produces.
// Modules and controllers without reachable endpoints are pruned; the root
// feature is always created. A module imported from several places is
// linked once, at its first import site in declaration order.
func (l *Linker) Link(root *compiler.CompiledModule) (any, error) {
	s := &session{Linker: l, linked: make(map[*compiler.CompiledModule]bool)}
	base := scope{middlewares: append([]core.MiddlewareFunc(nil), l.middlewares...)}
	feature, err := s.feature(root, base, true)
	if err != nil {
		return nil, err
	}
	app, err := l.adapter.Finalize(feature)
	if err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}
	return app, nil
}

func (l *session) feature(m *compiler.CompiledModule, parent scope, root bool) (any, error) {
	if l.linked[m] {
		l.logger.Debug("linker: module already mounted", zap.String("module", m.Name()))
		return nil, nil
	}
	l.linked[m] = true
	if !root && !reachable(m, l.linked) {
		l.logger.Debug("linker: pruned empty module", zap.String("module", m.Name()))
		return nil, nil
	}

	sc := parent.with(m.Middlewares, m.ErrorHandler)
	feature, err := l.adapter.CreateFeature(Scope{Name: m.Name(), Route: m.Node.Route, Help: m.Node.Help})
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", m.Name(), err)
	}

	for _, im := range m.Imports {
		child, err := l.feature(im, sc, false)
		if err != nil {
			return nil, err
		}
		if child == nil {
			continue
		}
		if err := l.adapter.MountFeature(feature, child, im.Node.Route); err != nil {
			return nil, fmt.Errorf("module %s: mount %s: %w", m.Name(), im.Name(), err)
		}
	}

	for _, c := range m.Controllers {
		ctrl, err := l.controller(c, sc)
		if err != nil {
			return nil, fmt.Errorf("module %s: %w", m.Name(), err)
		}
		if ctrl == nil {
			continue
		}
		if err := l.adapter.MountController(feature, ctrl, c.Node.Route); err != nil {
			return nil, fmt.Errorf("module %s: mount %s: %w", m.Name(), c.Name(), err)
		}
	}

	l.logger.Debug("linker: feature mounted", zap.String("module", m.Name()), zap.String("route", m.Node.Route))
	return feature, nil
}

func (l *session) controller(c *compiler.CompiledController, parent scope) (any, error) {
	if len(c.Methods) == 0 {
		l.logger.Debug("linker: pruned empty controller", zap.String("controller", c.Name()))
		return nil, nil
	}

	sc := parent.with(c.Middlewares, c.ErrorHandler)
	ctrl, err := l.adapter.CreateController(Scope{Name: c.Name(), Route: c.Node.Route, Help: c.Node.Help})
	if err != nil {
		return nil, fmt.Errorf("controller %s: %w", c.Name(), err)
	}

	for _, m := range c.Methods {
		ep, err := l.endpoint(m, sc.with(m.Middlewares, m.ErrorHandler))
		if err != nil {
			return nil, err
		}
		route := Route{Path: m.Node.Route, Kind: m.Kind(), Name: m.Name, Help: m.Node.Help}
		if err := l.adapter.MountEndpoint(ctrl, ep, route); err != nil {
			return nil, fmt.Errorf("controller %s: mount %s: %w", c.Name(), m.Name, err)
		}
		l.logger.Debug("linker: endpoint mounted",
			zap.String("endpoint", m.Name),
			zap.String("kind", string(m.Kind())),
			zap.String("route", m.Node.Route))
	}
	return ctrl, nil
}

// endpoint selects the construction strategy for the method kind.
func (l *Linker) endpoint(m *compiler.CompiledMethod, sc scope) (any, error) {
	kind := m.Kind()
	if !kind.Known() {
		return nil, &core.UnknownEndpointKindError{Kind: kind, Method: m.Name}
	}
	d := &dispatcher{method: m, middlewares: sc.middlewares, handlers: sc.handlers}

	switch kind {
	case core.KindStream, core.KindStreamAsync:
		a, ok := l.adapter.(StreamAdapter)
		if !ok {
			return nil, &core.UnsupportedEndpointKindError{Kind: kind, Method: m.Name}
		}
		return a.CreateStreamEndpoint(d.stream)

	case core.KindTextStream, core.KindTextStreamAsync:
		a, ok := l.adapter.(TextStreamAdapter)
		if !ok {
			return nil, &core.UnsupportedEndpointKindError{Kind: kind, Method: m.Name}
		}
		return a.CreateTextStreamEndpoint(d.textStream)

	case core.KindSSE, core.KindSSEAsync:
		a, ok := l.adapter.(SSEAdapter)
		if !ok {
			return nil, &core.UnsupportedEndpointKindError{Kind: kind, Method: m.Name}
		}
		return a.CreateSSEEndpoint(d.sse)

	default:
		return l.adapter.CreateEndpoint(d.standard)
	}
}

// reachable reports whether m or any of its imports not yet linked has a
// method to mount.
func reachable(m *compiler.CompiledModule, linked map[*compiler.CompiledModule]bool) bool {
	seen := make(map[*compiler.CompiledModule]bool)
	stack := []*compiler.CompiledModule{m}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] || (cur != m && linked[cur]) {
			continue
		}
		seen[cur] = true
		for _, c := range cur.Controllers {
			if len(c.Methods) > 0 {
				return true
			}
		}
		stack = append(stack, cur.Imports...)
	}
	return false
}
