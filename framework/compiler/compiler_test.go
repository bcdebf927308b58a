package compiler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-composer/framework/compiler"
	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/graph"
	"github.com/km-arc/go-composer/framework/metadata"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type (
	rootModule   struct{}
	configModule struct{}
	leftModule   struct{}
	rightModule  struct{}
	sharedModule struct{}
)

type usersController struct{ prefix string }

func newUsersController(prefix string) *usersController {
	return &usersController{prefix: prefix}
}

func (c *usersController) Show(id string, ctx core.Context) (string, error) {
	return c.prefix + id, nil
}

func (c *usersController) Fail() error { return errors.New("boom") }

func (c *usersController) NoResult() {}

type badController struct{}

func (c *badController) TooMany(a, b string) string { return a + b }

type authGuard struct{}

func (g *authGuard) CanActivate(ctx core.Context) (bool, error) {
	v, _ := ctx.Get("user")
	return v != nil, nil
}

type notAGuard struct{}

type catcher struct{ seen error }

func (c *catcher) Catch(err error, ctx core.Context) (any, error) {
	c.seen = err
	return "handled", nil
}

type tagger struct{}

func (tagger) Handle(ctx core.Context, next core.Next) (any, error) {
	ctx.Set("tagged", true)
	return next()
}

func ref[T any]() core.Ref { return core.RefOf[T]() }

func compile(t *testing.T, s *metadata.Store, root core.Ref) (*compiler.CompiledModule, error) {
	t.Helper()
	node, err := graph.NewBuilder(s).Build(root)
	require.NoError(t, err)
	return compiler.New(container.NewRegistry(s)).Compile(context.Background(), node)
}

func constant(v any) core.ArgFactory {
	return func(core.Context) (any, error) { return v, nil }
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCompile_ImportedProviderVisibleFromRoot(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*configModule](), metadata.ModuleOptions{Providers: []any{core.Value("cfg", "test")}})
	s.Module(ref[*rootModule](), metadata.ModuleOptions{Imports: []core.Ref{ref[*configModule]()}})

	compiled, err := compile(t, s, ref[*rootModule]())
	require.NoError(t, err)

	got, err := compiled.Injector.Resolve(context.Background(), "cfg")
	require.NoError(t, err)
	assert.Equal(t, "test", got)
	require.Len(t, compiled.Imports, 1)
	assert.Empty(t, compiled.Imports[0].Controllers)
}

func TestCompile_DiamondSharesCompiledModule(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*sharedModule](), metadata.ModuleOptions{})
	s.Module(ref[*leftModule](), metadata.ModuleOptions{Imports: []core.Ref{ref[*sharedModule]()}})
	s.Module(ref[*rightModule](), metadata.ModuleOptions{Imports: []core.Ref{ref[*sharedModule]()}})
	s.Module(ref[*rootModule](), metadata.ModuleOptions{Imports: []core.Ref{ref[*leftModule](), ref[*rightModule]()}})

	compiled, err := compile(t, s, ref[*rootModule]())
	require.NoError(t, err)

	left, right := compiled.Imports[0], compiled.Imports[1]
	assert.Same(t, left.Imports[0], right.Imports[0])
	assert.Same(t, left.Imports[0].Instance, right.Imports[0].Instance)
}

func TestCompile_ControllerBoundThroughInjector(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*rootModule](), metadata.ModuleOptions{
		Providers:   []any{core.Value("prefix", "user-")},
		Controllers: []core.Ref{ref[*usersController]()},
	})
	s.Controller(ref[*usersController](), metadata.ControllerOptions{
		Route:       "/users",
		Deps:        []core.Token{"prefix"},
		Constructor: newUsersController,
	})
	s.Endpoint(ref[*usersController](), "Show", metadata.MethodOptions{
		Kind: core.KindGet, Route: "/{id}", Args: []core.ArgFactory{constant("7")},
	})
	s.Endpoint(ref[*usersController](), "Fail", metadata.MethodOptions{Kind: core.KindPost})
	s.Endpoint(ref[*usersController](), "NoResult", metadata.MethodOptions{Kind: core.KindDelete})

	compiled, err := compile(t, s, ref[*rootModule]())
	require.NoError(t, err)
	require.Len(t, compiled.Controllers, 1)

	ctrl := compiled.Controllers[0]
	require.Len(t, ctrl.Methods, 3)
	assert.Equal(t, "usersController.Show", ctrl.Methods[0].Name)
	assert.Equal(t, core.KindGet, ctrl.Methods[0].Kind())

	ctx := core.NewBaseContext(context.Background(), nil)
	got, err := ctrl.Methods[0].Handle(ctx, []any{"7"})
	require.NoError(t, err)
	assert.Equal(t, "user-7", got)

	_, err = ctrl.Methods[1].Handle(ctx, nil)
	assert.EqualError(t, err, "boom")

	got, err = ctrl.Methods[2].Handle(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCompile_HandlerSignatureMismatch(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*rootModule](), metadata.ModuleOptions{Controllers: []core.Ref{ref[*badController]()}})
	s.Controller(ref[*badController](), metadata.ControllerOptions{})
	s.Endpoint(ref[*badController](), "TooMany", metadata.MethodOptions{
		Kind: core.KindGet, Args: []core.ArgFactory{constant("a")},
	})

	_, err := compile(t, s, ref[*rootModule]())
	var invalid *core.InvalidHandlerError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "badController.TooMany", invalid.Method)
}

func TestCompile_StreamingHandlerNeedsWriter(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*rootModule](), metadata.ModuleOptions{Controllers: []core.Ref{ref[*badController]()}})
	s.Controller(ref[*badController](), metadata.ControllerOptions{})
	s.Endpoint(ref[*badController](), "TooMany", metadata.MethodOptions{
		Kind: core.KindSSE, Args: []core.ArgFactory{constant("a")},
	})

	_, err := compile(t, s, ref[*rootModule]())
	var invalid *core.InvalidHandlerError
	require.ErrorAs(t, err, &invalid)
}

func TestCompile_GuardNormalization(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*rootModule](), metadata.ModuleOptions{
		Middlewares: []core.MiddlewareSpec{core.UseGuard(ref[*authGuard]())},
	})

	compiled, err := compile(t, s, ref[*rootModule]())
	require.NoError(t, err)
	require.Len(t, compiled.Middlewares, 1)

	mw := compiled.Middlewares[0]
	next := func() (any, error) { return "next", nil }

	ctx := core.NewBaseContext(context.Background(), nil)
	_, err = mw(ctx, next)
	var rejected *core.GuardRejectionError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "authGuard", rejected.Guard)

	ctx.Set("user", "ada")
	got, err := mw(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, "next", got)
}

func TestCompile_GuardMustImplementContract(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*rootModule](), metadata.ModuleOptions{
		Middlewares: []core.MiddlewareSpec{core.UseGuard(ref[*notAGuard]())},
	})

	_, err := compile(t, s, ref[*rootModule]())
	var invalid *core.InvalidMiddlewareError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "notAGuard", invalid.Name)
}

func TestCompile_HandlerClassMiddleware(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*rootModule](), metadata.ModuleOptions{
		Middlewares: []core.MiddlewareSpec{core.UseHandler(ref[*tagger]())},
	})

	compiled, err := compile(t, s, ref[*rootModule]())
	require.NoError(t, err)

	ctx := core.NewBaseContext(context.Background(), nil)
	_, err = compiled.Middlewares[0](ctx, func() (any, error) { return nil, nil })
	require.NoError(t, err)
	tagged, _ := ctx.Get("tagged")
	assert.Equal(t, true, tagged)
}

func TestCompile_CatcherResolvedThroughInjector(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*rootModule](), metadata.ModuleOptions{ErrorHandler: core.CatchWith(ref[*catcher]())})

	compiled, err := compile(t, s, ref[*rootModule]())
	require.NoError(t, err)
	require.NotNil(t, compiled.ErrorHandler)

	got, err := compiled.ErrorHandler(errors.New("x"), core.NewBaseContext(context.Background(), nil))
	require.NoError(t, err)
	assert.Equal(t, "handled", got)

	// Registered on the module injector on first use.
	assert.True(t, compiled.Injector.Resolved(ref[*catcher]()))
}

func TestCompile_InvalidCatcher(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*rootModule](), metadata.ModuleOptions{ErrorHandler: core.CatchWith(ref[*notAGuard]())})

	_, err := compile(t, s, ref[*rootModule]())
	var invalid *core.InvalidErrorHandlerError
	require.ErrorAs(t, err, &invalid)
}

func TestCompile_NoErrorHandlerIsNil(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*rootModule](), metadata.ModuleOptions{})

	compiled, err := compile(t, s, ref[*rootModule]())
	require.NoError(t, err)
	assert.Nil(t, compiled.ErrorHandler)
	assert.Empty(t, compiled.Middlewares)
}
