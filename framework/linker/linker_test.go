package linker_test

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-composer/framework/compiler"
	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/graph"
	"github.com/km-arc/go-composer/framework/linker"
	"github.com/km-arc/go-composer/framework/metadata"
)

// ── fake adapter ──────────────────────────────────────────────────────────────

type fakeFeature struct {
	scope       linker.Scope
	features    []*fakeFeature
	controllers []*fakeController
}

type fakeController struct {
	scope     linker.Scope
	endpoints map[string]any
	routes    []linker.Route
}

type fakeAdapter struct {
	endpoints map[string]any
}

func newFakeAdapter() *fakeAdapter { return &fakeAdapter{endpoints: make(map[string]any)} }

func (a *fakeAdapter) CreateFeature(s linker.Scope) (any, error) { return &fakeFeature{scope: s}, nil }

func (a *fakeAdapter) CreateController(s linker.Scope) (any, error) {
	return &fakeController{scope: s, endpoints: make(map[string]any)}, nil
}

func (a *fakeAdapter) CreateEndpoint(ep linker.Endpoint) (any, error) { return ep, nil }

func (a *fakeAdapter) MountFeature(parent, child any, _ string) error {
	p := parent.(*fakeFeature)
	p.features = append(p.features, child.(*fakeFeature))
	return nil
}

func (a *fakeAdapter) MountController(feature, controller any, _ string) error {
	f := feature.(*fakeFeature)
	f.controllers = append(f.controllers, controller.(*fakeController))
	return nil
}

func (a *fakeAdapter) MountEndpoint(controller, endpoint any, route linker.Route) error {
	c := controller.(*fakeController)
	c.endpoints[route.Name] = endpoint
	c.routes = append(c.routes, route)
	a.endpoints[route.Name] = endpoint
	return nil
}

func (a *fakeAdapter) Finalize(root any) (any, error) { return root, nil }

// sseAdapter adds the SSE capability.
type sseAdapter struct{ *fakeAdapter }

func (a sseAdapter) CreateSSEEndpoint(ep linker.SSEEndpoint) (any, error) { return ep, nil }

type recordingSSE struct{ msgs []core.SSEMessage }

func (w *recordingSSE) WriteSSE(m core.SSEMessage) error {
	w.msgs = append(w.msgs, m)
	return nil
}

// ── fixtures ──────────────────────────────────────────────────────────────────

type (
	appModule    struct{}
	emptyModule  struct{}
	leftModule   struct{}
	rightModule  struct{}
	sharedModule struct{}
)

type itemsController struct{ calls *[]string }

func (c *itemsController) List(ctx core.Context) (string, error) {
	if c.calls != nil {
		*c.calls = append(*c.calls, "handler")
	}
	return "items", nil
}

func (c *itemsController) Fail() error { return errors.New("boom") }

func (c *itemsController) Events(w core.SSEWriter) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, s := range []string{"a", "b", "c"} {
			if !yield(s) {
				return
			}
		}
	}
}

func (c *itemsController) NotIterable(w core.SSEWriter) string { return "nope" }

func (c *itemsController) Push(w core.SSEWriter) error {
	return w.WriteSSE(core.SSEMessage{Event: "ping"})
}

func ref[T any]() core.Ref { return core.RefOf[T]() }

func recorder(calls *[]string, label string) core.MiddlewareSpec {
	return core.Use(func(ctx core.Context, next core.Next) (any, error) {
		*calls = append(*calls, label)
		return next()
	})
}

func labelled(label string) core.ErrorHandlerSpec {
	return core.Catch(func(err error, ctx core.Context) (any, error) {
		return label + ":" + err.Error(), nil
	})
}

func compiled(t *testing.T, s *metadata.Store) *compiler.CompiledModule {
	t.Helper()
	node, err := graph.NewBuilder(s).Build(ref[*appModule]())
	require.NoError(t, err)
	m, err := compiler.New(container.NewRegistry(s)).Compile(context.Background(), node)
	require.NoError(t, err)
	return m
}

func ctx() core.Context { return core.NewBaseContext(context.Background(), nil) }

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestLink_MiddlewareOrder(t *testing.T) {
	var calls []string
	s := metadata.NewStore()
	s.Module(ref[*appModule](), metadata.ModuleOptions{
		Controllers: []core.Ref{ref[*itemsController]()},
		Middlewares: []core.MiddlewareSpec{recorder(&calls, "m1")},
	})
	s.Controller(ref[*itemsController](), metadata.ControllerOptions{
		Middlewares: []core.MiddlewareSpec{recorder(&calls, "m2")},
		Constructor: func() *itemsController { return &itemsController{calls: &calls} },
	})
	s.Endpoint(ref[*itemsController](), "List", metadata.MethodOptions{
		Kind:        core.KindGet,
		Middlewares: []core.MiddlewareSpec{recorder(&calls, "m3")},
	})

	adapter := newFakeAdapter()
	global := func(c core.Context, next core.Next) (any, error) {
		calls = append(calls, "global")
		return next()
	}
	_, err := linker.New(adapter, linker.WithMiddlewares(global)).Link(compiled(t, s))
	require.NoError(t, err)

	ep := adapter.endpoints["itemsController.List"].(linker.Endpoint)
	c := ctx()
	got, err := ep(c)
	require.NoError(t, err)
	assert.Equal(t, "items", got)
	assert.Equal(t, []string{"global", "m1", "m2", "m3", "handler"}, calls)
	assert.Equal(t, "itemsController.List", core.Endpoint(c))
}

func TestLink_NearestErrorHandlerWins(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*appModule](), metadata.ModuleOptions{
		Controllers:  []core.Ref{ref[*itemsController]()},
		ErrorHandler: labelled("module"),
	})
	s.Controller(ref[*itemsController](), metadata.ControllerOptions{ErrorHandler: labelled("controller")})
	s.Endpoint(ref[*itemsController](), "Fail", metadata.MethodOptions{
		Kind:         core.KindPost,
		ErrorHandler: labelled("method"),
	})

	adapter := newFakeAdapter()
	_, err := linker.New(adapter).Link(compiled(t, s))
	require.NoError(t, err)

	got, err := adapter.endpoints["itemsController.Fail"].(linker.Endpoint)(ctx())
	require.NoError(t, err)
	assert.Equal(t, "method:boom", got)
}

func TestLink_ErrorHandlerFallsBackOutward(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*appModule](), metadata.ModuleOptions{
		Controllers:  []core.Ref{ref[*itemsController]()},
		ErrorHandler: labelled("module"),
	})
	s.Controller(ref[*itemsController](), metadata.ControllerOptions{})
	s.Endpoint(ref[*itemsController](), "Fail", metadata.MethodOptions{Kind: core.KindPost})

	adapter := newFakeAdapter()
	_, err := linker.New(adapter).Link(compiled(t, s))
	require.NoError(t, err)

	got, err := adapter.endpoints["itemsController.Fail"].(linker.Endpoint)(ctx())
	require.NoError(t, err)
	assert.Equal(t, "module:boom", got)
}

func TestLink_UnhandledErrorPropagates(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*appModule](), metadata.ModuleOptions{Controllers: []core.Ref{ref[*itemsController]()}})
	s.Controller(ref[*itemsController](), metadata.ControllerOptions{})
	s.Endpoint(ref[*itemsController](), "Fail", metadata.MethodOptions{Kind: core.KindPost})

	adapter := newFakeAdapter()
	_, err := linker.New(adapter).Link(compiled(t, s))
	require.NoError(t, err)

	_, err = adapter.endpoints["itemsController.Fail"].(linker.Endpoint)(ctx())
	assert.EqualError(t, err, "boom")
}

func TestLink_UnsupportedKindFailsAtLinkTime(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*appModule](), metadata.ModuleOptions{Controllers: []core.Ref{ref[*itemsController]()}})
	s.Controller(ref[*itemsController](), metadata.ControllerOptions{})
	s.Endpoint(ref[*itemsController](), "Push", metadata.MethodOptions{Kind: core.KindSSE})

	_, err := linker.New(newFakeAdapter()).Link(compiled(t, s))
	var unsupported *core.UnsupportedEndpointKindError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, core.KindSSE, unsupported.Kind)
}

func TestLink_UnknownKindFailsLoudly(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*appModule](), metadata.ModuleOptions{Controllers: []core.Ref{ref[*itemsController]()}})
	s.Controller(ref[*itemsController](), metadata.ControllerOptions{})
	s.Endpoint(ref[*itemsController](), "List", metadata.MethodOptions{Kind: core.Kind("TELEPORT")})

	_, err := linker.New(newFakeAdapter()).Link(compiled(t, s))
	var unknown *core.UnknownEndpointKindError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "itemsController.List", unknown.Method)
}

func TestLink_AsyncSSEDrainsInOrder(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*appModule](), metadata.ModuleOptions{Controllers: []core.Ref{ref[*itemsController]()}})
	s.Controller(ref[*itemsController](), metadata.ControllerOptions{})
	s.Endpoint(ref[*itemsController](), "Events", metadata.MethodOptions{Kind: core.KindSSEAsync})

	adapter := sseAdapter{newFakeAdapter()}
	_, err := linker.New(adapter).Link(compiled(t, s))
	require.NoError(t, err)

	w := &recordingSSE{}
	err = adapter.endpoints["itemsController.Events"].(linker.SSEEndpoint)(ctx(), w)
	require.NoError(t, err)
	require.Len(t, w.msgs, 3)
	assert.Equal(t, "a", w.msgs[0].Data)
	assert.Equal(t, "b", w.msgs[1].Data)
	assert.Equal(t, "c", w.msgs[2].Data)
}

func TestLink_AsyncSSENotIterable(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*appModule](), metadata.ModuleOptions{Controllers: []core.Ref{ref[*itemsController]()}})
	s.Controller(ref[*itemsController](), metadata.ControllerOptions{})
	s.Endpoint(ref[*itemsController](), "NotIterable", metadata.MethodOptions{Kind: core.KindSSEAsync})

	adapter := sseAdapter{newFakeAdapter()}
	_, err := linker.New(adapter).Link(compiled(t, s))
	require.NoError(t, err)

	err = adapter.endpoints["itemsController.NotIterable"].(linker.SSEEndpoint)(ctx(), &recordingSSE{})
	var notGen *core.NotAnAsyncGeneratorError
	require.ErrorAs(t, err, &notGen)
	assert.Equal(t, "itemsController.NotIterable", notGen.Method)
}

func TestLink_SyncSSEWritesDirectly(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*appModule](), metadata.ModuleOptions{Controllers: []core.Ref{ref[*itemsController]()}})
	s.Controller(ref[*itemsController](), metadata.ControllerOptions{})
	s.Endpoint(ref[*itemsController](), "Push", metadata.MethodOptions{Kind: core.KindSSE})

	adapter := sseAdapter{newFakeAdapter()}
	_, err := linker.New(adapter).Link(compiled(t, s))
	require.NoError(t, err)

	w := &recordingSSE{}
	require.NoError(t, adapter.endpoints["itemsController.Push"].(linker.SSEEndpoint)(ctx(), w))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "ping", w.msgs[0].Event)
}

func TestLink_PrunesEmptyModulesKeepsRoot(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*emptyModule](), metadata.ModuleOptions{})
	s.Module(ref[*appModule](), metadata.ModuleOptions{Imports: []core.Ref{ref[*emptyModule]()}})

	app, err := linker.New(newFakeAdapter()).Link(compiled(t, s))
	require.NoError(t, err)

	root := app.(*fakeFeature)
	assert.Equal(t, "appModule", root.scope.Name)
	assert.Empty(t, root.features)
	assert.Empty(t, root.controllers)
}

func TestLink_MountsNestedFeatures(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*emptyModule](), metadata.ModuleOptions{
		Route:       "/api",
		Controllers: []core.Ref{ref[*itemsController]()},
	})
	s.Module(ref[*appModule](), metadata.ModuleOptions{Imports: []core.Ref{ref[*emptyModule]()}})
	s.Controller(ref[*itemsController](), metadata.ControllerOptions{Route: "/items"})
	s.Endpoint(ref[*itemsController](), "List", metadata.MethodOptions{Kind: core.KindGet, Route: "/"})

	app, err := linker.New(newFakeAdapter()).Link(compiled(t, s))
	require.NoError(t, err)

	root := app.(*fakeFeature)
	require.Len(t, root.features, 1)
	api := root.features[0]
	assert.Equal(t, "/api", api.scope.Route)
	require.Len(t, api.controllers, 1)
	assert.Equal(t, []linker.Route{{Path: "/", Kind: core.KindGet, Name: "itemsController.List"}}, api.controllers[0].routes)
}

func TestLink_SharedModuleMountedOnce(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*sharedModule](), metadata.ModuleOptions{
		Route:       "/shared",
		Controllers: []core.Ref{ref[*itemsController]()},
	})
	s.Module(ref[*leftModule](), metadata.ModuleOptions{Imports: []core.Ref{ref[*sharedModule]()}})
	s.Module(ref[*rightModule](), metadata.ModuleOptions{Imports: []core.Ref{ref[*sharedModule]()}})
	s.Module(ref[*appModule](), metadata.ModuleOptions{
		Imports: []core.Ref{ref[*leftModule](), ref[*rightModule]()},
	})
	s.Controller(ref[*itemsController](), metadata.ControllerOptions{Route: "/items"})
	s.Endpoint(ref[*itemsController](), "List", metadata.MethodOptions{Kind: core.KindGet, Route: "/"})

	app, err := linker.New(newFakeAdapter()).Link(compiled(t, s))
	require.NoError(t, err)

	root := app.(*fakeFeature)
	require.Len(t, root.features, 1, "right has nothing left to mount")
	left := root.features[0]
	assert.Equal(t, "leftModule", left.scope.Name)
	require.Len(t, left.features, 1)
	shared := left.features[0]
	assert.Equal(t, "sharedModule", shared.scope.Name)
	require.Len(t, shared.controllers, 1)
	assert.Len(t, shared.controllers[0].routes, 1)
}
