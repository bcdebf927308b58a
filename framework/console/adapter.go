package console

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/linker"
)

// Adapter links endpoints as CLI commands. COMMAND endpoints are named by
// joining the non-empty routes of their enclosing modules, controller and
// method with ":" ("db:migrate"); a MAIN endpoint is the app's only entry
// point. Text and raw streams write to the invocation's output.
type Adapter struct {
	name   string
	logger *zap.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithName sets the program name shown in usage output.
func WithName(name string) Option {
	return func(a *Adapter) { a.name = name }
}

// WithLogger sets the logger for command registration traces.
func WithLogger(log *zap.Logger) Option {
	return func(a *Adapter) { a.logger = log }
}

// NewAdapter creates the CLI adapter.
func NewAdapter(opts ...Option) *Adapter {
	a := &Adapter{name: "app", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var (
	_ linker.Adapter           = (*Adapter)(nil)
	_ linker.StreamAdapter     = (*Adapter)(nil)
	_ linker.TextStreamAdapter = (*Adapter)(nil)
)

type group struct {
	help     string
	children []mounted
	commands []*command
}

type mounted struct {
	route string
	group *group
}

// command is one mounted endpoint.
type command struct {
	name     string
	route    linker.Route
	ctrlHelp string
	run      func(c *Context) error
}

// Help returns the method help, falling back to the controller's.
func (c *command) Help() string {
	if c.route.Help != "" {
		return c.route.Help
	}
	return c.ctrlHelp
}

func (a *Adapter) CreateFeature(scope linker.Scope) (any, error) {
	return &group{help: scope.Help}, nil
}

func (a *Adapter) CreateController(scope linker.Scope) (any, error) {
	return &group{help: scope.Help}, nil
}

func (a *Adapter) MountFeature(parent, child any, route string) error {
	return mount(parent, child, route)
}

func (a *Adapter) MountController(feature, controller any, route string) error {
	return mount(feature, controller, route)
}

func mount(parent, child any, route string) error {
	p, ok := parent.(*group)
	if !ok {
		return fmt.Errorf("console: unexpected parent %T", parent)
	}
	c, ok := child.(*group)
	if !ok {
		return fmt.Errorf("console: unexpected child %T", child)
	}
	p.children = append(p.children, mounted{route: route, group: c})
	return nil
}

func (a *Adapter) MountEndpoint(controller, endpoint any, r linker.Route) error {
	g, ok := controller.(*group)
	if !ok {
		return fmt.Errorf("console: unexpected controller %T", controller)
	}
	run, ok := endpoint.(func(c *Context) error)
	if !ok {
		return fmt.Errorf("console: unexpected endpoint %T", endpoint)
	}
	switch r.Kind {
	case core.KindCommand, core.KindMain,
		core.KindStream, core.KindStreamAsync, core.KindTextStream, core.KindTextStreamAsync:
	default:
		return &core.UnsupportedEndpointKindError{Kind: r.Kind, Method: r.Name}
	}
	g.commands = append(g.commands, &command{route: r, ctrlHelp: g.help, run: run})
	return nil
}

// Finalize names every command and builds the App. Duplicate names and a
// MAIN next to named commands are rejected here.
func (a *Adapter) Finalize(root any) (any, error) {
	g, ok := root.(*group)
	if !ok {
		return nil, fmt.Errorf("console: unexpected root %T", root)
	}
	app := &App{name: a.name, help: g.help, commands: make(map[string]*command)}

	type frame struct {
		prefix []string
		group  *group
	}
	stack := []frame{{group: g}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, cmd := range f.group.commands {
			if cmd.route.Kind == core.KindMain {
				if app.main != nil {
					return nil, &DuplicateCommandNameError{Name: "main"}
				}
				cmd.name = cmd.route.Name
				app.main = cmd
				continue
			}
			cmd.name = commandName(append(f.prefix, cmd.route.Path)...)
			if cmd.name == "" {
				return nil, fmt.Errorf("console: command %s has no name", cmd.route.Name)
			}
			if _, dup := app.commands[cmd.name]; dup {
				return nil, &DuplicateCommandNameError{Name: cmd.name}
			}
			app.commands[cmd.name] = cmd
			app.names = append(app.names, cmd.name)
			a.logger.Debug("console: command registered", zap.String("command", cmd.name), zap.String("endpoint", cmd.route.Name))
		}
		for i := len(f.group.children) - 1; i >= 0; i-- {
			c := f.group.children[i]
			prefix := append(append([]string(nil), f.prefix...), c.route)
			stack = append(stack, frame{prefix: prefix, group: c.group})
		}
	}
	sort.Strings(app.names)

	if app.main != nil && len(app.names) > 0 {
		return nil, &MainAndSubcommandsConflictError{Main: app.main.name, Commands: app.names}
	}
	return app, nil
}

func commandName(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.Trim(s, "/: "); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ":")
}

// ── Endpoints ─────────────────────────────────────────────────────────────────

func (a *Adapter) CreateEndpoint(ep linker.Endpoint) (any, error) {
	return func(c *Context) error {
		v, err := ep(c)
		if err != nil {
			return err
		}
		return Print(c.out, v)
	}, nil
}

func (a *Adapter) CreateStreamEndpoint(ep linker.StreamEndpoint) (any, error) {
	return func(c *Context) error { return ep(c, c.out) }, nil
}

func (a *Adapter) CreateTextStreamEndpoint(ep linker.TextStreamEndpoint) (any, error) {
	return func(c *Context) error { return ep(c, lineWriter{c.out}) }, nil
}

type lineWriter struct{ w io.Writer }

func (l lineWriter) WriteLine(line string) error {
	_, err := io.WriteString(l.w, line+"\n")
	return err
}
