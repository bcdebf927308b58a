package routing

import (
	"fmt"
	"net/http"
	"path"

	"go.uber.org/zap"

	"github.com/km-arc/go-composer/framework/core"
	gohttp "github.com/km-arc/go-composer/framework/http"
	"github.com/km-arc/go-composer/framework/linker"
)

// Adapter mounts linked endpoints onto a chi Router. Features and
// controllers are collected as route groups; Finalize registers every
// endpoint under the joined routes of its enclosing groups.
type Adapter struct {
	logger      *zap.Logger
	expose      bool
	middlewares []func(http.Handler) http.Handler
	extra       []route
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the request and error logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *Adapter) { a.logger = log }
}

// WithExposeErrors renders messages of internal errors instead of a generic
// one. Meant for debug mode.
func WithExposeErrors(expose bool) Option {
	return func(a *Adapter) { a.expose = expose }
}

// WithMiddleware appends chi middleware to the finalized router.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(a *Adapter) { a.middlewares = append(a.middlewares, mw...) }
}

// WithHandler mounts a plain handler, such as a metrics endpoint, next to
// the linked routes. An empty method serves every method.
func WithHandler(method, pattern string, h http.Handler) Option {
	return func(a *Adapter) { a.extra = append(a.extra, route{method: method, pattern: pattern, handler: h}) }
}

// NewAdapter creates the HTTP adapter.
func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var (
	_ linker.Adapter           = (*Adapter)(nil)
	_ linker.StreamAdapter     = (*Adapter)(nil)
	_ linker.TextStreamAdapter = (*Adapter)(nil)
	_ linker.SSEAdapter        = (*Adapter)(nil)
)

// group is a feature or a controller.
type group struct {
	name     string
	children []mounted
	routes   []route
}

type mounted struct {
	prefix string
	group  *group
}

type route struct {
	method  string
	pattern string
	handler http.Handler
}

func (a *Adapter) CreateFeature(scope linker.Scope) (any, error) {
	return &group{name: scope.Name}, nil
}

func (a *Adapter) CreateController(scope linker.Scope) (any, error) {
	return &group{name: scope.Name}, nil
}

func (a *Adapter) MountFeature(parent, child any, prefix string) error {
	return mount(parent, child, prefix)
}

func (a *Adapter) MountController(feature, controller any, prefix string) error {
	return mount(feature, controller, prefix)
}

func mount(parent, child any, prefix string) error {
	p, ok := parent.(*group)
	if !ok {
		return fmt.Errorf("routing: unexpected parent %T", parent)
	}
	c, ok := child.(*group)
	if !ok {
		return fmt.Errorf("routing: unexpected child %T", child)
	}
	p.children = append(p.children, mounted{prefix: prefix, group: c})
	return nil
}

func (a *Adapter) MountEndpoint(controller, endpoint any, r linker.Route) error {
	g, ok := controller.(*group)
	if !ok {
		return fmt.Errorf("routing: unexpected controller %T", controller)
	}
	h, ok := endpoint.(http.Handler)
	if !ok {
		return fmt.Errorf("routing: unexpected endpoint %T", endpoint)
	}
	method, ok := httpMethod(r.Kind)
	if !ok {
		return &core.UnsupportedEndpointKindError{Kind: r.Kind, Method: r.Name}
	}
	g.routes = append(g.routes, route{method: method, pattern: r.Path, handler: h})
	return nil
}

// Finalize builds the Router from the group tree.
func (a *Adapter) Finalize(root any) (any, error) {
	g, ok := root.(*group)
	if !ok {
		return nil, fmt.Errorf("routing: unexpected root %T", root)
	}
	router := NewRouter(a.logger)
	router.Middleware(a.middlewares...)

	type frame struct {
		prefix string
		group  *group
	}
	seen := make(map[string]bool)
	register := func(r route, pattern string) error {
		key := r.method + " " + pattern
		if seen[key] {
			return &DuplicateRouteError{Method: r.method, Pattern: pattern}
		}
		seen[key] = true
		if r.method == "" {
			router.Handle(pattern, r.handler)
		} else {
			router.Method(r.method, pattern, r.handler)
		}
		a.logger.Debug("routing: route registered", zap.String("method", r.method), zap.String("pattern", pattern))
		return nil
	}

	stack := []frame{{prefix: "/", group: g}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, r := range f.group.routes {
			if err := register(r, joinPath(f.prefix, r.pattern)); err != nil {
				return nil, err
			}
		}
		for i := len(f.group.children) - 1; i >= 0; i-- {
			c := f.group.children[i]
			stack = append(stack, frame{prefix: joinPath(f.prefix, c.prefix), group: c.group})
		}
	}
	for _, r := range a.extra {
		if err := register(r, r.pattern); err != nil {
			return nil, err
		}
	}
	return router, nil
}

// DuplicateRouteError is returned by Finalize when two endpoints share a
// method and pattern.
type DuplicateRouteError struct {
	Method  string
	Pattern string
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("routing: duplicate route %s %s", e.Method, e.Pattern)
}

// ── Endpoints ─────────────────────────────────────────────────────────────────

func (a *Adapter) CreateEndpoint(ep linker.Endpoint) (any, error) {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := gohttp.NewContext(w, r)
		res, err := ep(c)
		if err == nil {
			err = gohttp.Render(c, res)
		}
		if err != nil {
			a.fail(c, err)
		}
	}), nil
}

func (a *Adapter) CreateStreamEndpoint(ep linker.StreamEndpoint) (any, error) {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := gohttp.NewContext(w, r)
		if err := ep(c, gohttp.NewStreamWriter(c.Response())); err != nil {
			a.fail(c, err)
		}
	}), nil
}

func (a *Adapter) CreateTextStreamEndpoint(ep linker.TextStreamEndpoint) (any, error) {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := gohttp.NewContext(w, r)
		if err := ep(c, gohttp.NewTextStreamWriter(c.Response())); err != nil {
			a.fail(c, err)
		}
	}), nil
}

func (a *Adapter) CreateSSEEndpoint(ep linker.SSEEndpoint) (any, error) {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := gohttp.NewContext(w, r)
		if err := ep(c, gohttp.NewSSEWriter(c.Response())); err != nil {
			a.fail(c, err)
		}
	}), nil
}

// fail renders err, or only logs it once the response has started.
func (a *Adapter) fail(c *gohttp.Context, err error) {
	status := gohttp.StatusOf(err)
	if status >= http.StatusInternalServerError || c.Response().Written() {
		a.logger.Error("http: endpoint failed",
			zap.String("endpoint", core.Endpoint(c)),
			zap.Bool("response_started", c.Response().Written()),
			zap.Error(err))
	}
	gohttp.RenderError(c, err, a.expose)
}

// httpMethod maps an endpoint kind to its HTTP method. Streaming kinds are
// served on GET.
func httpMethod(k core.Kind) (string, bool) {
	switch k {
	case core.KindGet, core.KindPost, core.KindPut, core.KindDelete, core.KindPatch:
		return string(k), true
	}
	if k.Streaming() {
		return http.MethodGet, true
	}
	return "", false
}

// joinPath joins route segments into a chi pattern with a leading slash and
// no trailing one.
func joinPath(prefix, p string) string { return path.Join("/", prefix, p) }
