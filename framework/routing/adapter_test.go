package routing_test

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-composer/framework/compiler"
	"github.com/km-arc/go-composer/framework/container"
	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/graph"
	gohttp "github.com/km-arc/go-composer/framework/http"
	"github.com/km-arc/go-composer/framework/linker"
	"github.com/km-arc/go-composer/framework/metadata"
	"github.com/km-arc/go-composer/framework/routing"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type (
	appModule struct{}
	apiModule struct{}
)

type user struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type usersController struct{}

func (c *usersController) Show(id string) (*user, error) {
	if id == "0" {
		return nil, gohttp.Abort(http.StatusNotFound, "user not found")
	}
	return &user{ID: id, Name: "Ada"}, nil
}

func (c *usersController) Create(u user) gohttp.Responder { return gohttp.Created(u) }

func (c *usersController) Remove(id string) error { return nil }

func (c *usersController) Crash() error { return errors.New("db down") }

func (c *usersController) Feed(w core.SSEWriter) iter.Seq[core.SSEMessage] {
	return func(yield func(core.SSEMessage) bool) {
		for _, id := range []string{"1", "2"} {
			if !yield(core.SSEMessage{Event: "user", ID: id, Data: id}) {
				return
			}
		}
	}
}

func (c *usersController) Log(w core.TextStreamWriter, ctx core.Context) error {
	if err := w.WriteLine("a"); err != nil {
		return err
	}
	return w.WriteLine(core.Endpoint(ctx))
}

func ref[T any]() core.Ref { return core.RefOf[T]() }

func newApp(t *testing.T, opts ...routing.Option) *routing.Router {
	t.Helper()
	s := metadata.NewStore()
	s.Module(ref[*apiModule](), metadata.ModuleOptions{
		Route:       "/api",
		Controllers: []core.Ref{ref[*usersController]()},
	})
	s.Module(ref[*appModule](), metadata.ModuleOptions{Imports: []core.Ref{ref[*apiModule]()}})
	s.Controller(ref[*usersController](), metadata.ControllerOptions{Route: "/users"})

	ctrl := ref[*usersController]()
	s.Endpoint(ctrl, "Show", metadata.MethodOptions{Kind: core.KindGet, Route: "/{id}", Args: []core.ArgFactory{gohttp.Param("id")}})
	s.Endpoint(ctrl, "Create", metadata.MethodOptions{Kind: core.KindPost, Route: "/", Args: []core.ArgFactory{gohttp.Body[user]()}})
	s.Endpoint(ctrl, "Remove", metadata.MethodOptions{Kind: core.KindDelete, Route: "/{id}", Args: []core.ArgFactory{gohttp.Param("id")}})
	s.Endpoint(ctrl, "Crash", metadata.MethodOptions{Kind: core.KindPut, Route: "/crash"})
	s.Endpoint(ctrl, "Feed", metadata.MethodOptions{Kind: core.KindSSEAsync, Route: "/feed"})
	s.Endpoint(ctrl, "Log", metadata.MethodOptions{Kind: core.KindTextStream, Route: "/log"})

	node, err := graph.NewBuilder(s).Build(ref[*appModule]())
	require.NoError(t, err)
	compiled, err := compiler.New(container.NewRegistry(s)).Compile(context.Background(), node)
	require.NoError(t, err)
	app, err := linker.New(routing.NewAdapter(opts...)).Link(compiled)
	require.NoError(t, err)
	return app.(*routing.Router)
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestAdapter_RoutesJoinModuleControllerAndMethod(t *testing.T) {
	app := newApp(t)
	assert.Equal(t, []string{
		"DELETE /api/users/{id}",
		"GET /api/users/feed",
		"GET /api/users/log",
		"GET /api/users/{id}",
		"POST /api/users",
		"PUT /api/users/crash",
	}, app.Routes())
}

func TestAdapter_DefaultEnvelope(t *testing.T) {
	rr := do(newApp(t), http.MethodGet, "/api/users/7", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"id":"7","name":"Ada"}}`, rr.Body.String())
}

func TestAdapter_ResponderPassesThrough(t *testing.T) {
	rr := do(newApp(t), http.MethodPost, "/api/users", `{"id":"9","name":"Grace"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"data":{"id":"9","name":"Grace"}}`, rr.Body.String())
}

func TestAdapter_NilIsNoContent(t *testing.T) {
	rr := do(newApp(t), http.MethodDelete, "/api/users/7", "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestAdapter_Errors(t *testing.T) {
	rr := do(newApp(t), http.MethodGet, "/api/users/0", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"message":"user not found"}`, rr.Body.String())

	rr = do(newApp(t), http.MethodPut, "/api/users/crash", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"message":"Server Error."}`, rr.Body.String())

	rr = do(newApp(t, routing.WithExposeErrors(true)), http.MethodPut, "/api/users/crash", "")
	assert.JSONEq(t, `{"message":"db down"}`, rr.Body.String())
}

func TestAdapter_SSE(t *testing.T) {
	rr := do(newApp(t), http.MethodGet, "/api/users/feed", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.Equal(t, "event: user\nid: 1\ndata: 1\n\nevent: user\nid: 2\ndata: 2\n\n", rr.Body.String())
}

func TestAdapter_TextStream(t *testing.T) {
	rr := do(newApp(t), http.MethodGet, "/api/users/log", "")
	assert.Equal(t, "a\nusersController.Log\n", rr.Body.String())
}

func TestAdapter_ExtraHandler(t *testing.T) {
	extra := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	})
	app := newApp(t, routing.WithHandler(http.MethodGet, "/healthz", extra))

	rr := do(app, http.MethodGet, "/healthz", "")
	assert.JSONEq(t, `{"ok":"yes"}`, rr.Body.String())
}

func TestAdapter_ExtraHandlerWithoutMethodServesAll(t *testing.T) {
	extra := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Method))
	})
	app := newApp(t, routing.WithHandler("", "/ping", extra))

	assert.Equal(t, "GET", do(app, http.MethodGet, "/ping", "").Body.String())
	assert.Equal(t, "POST", do(app, http.MethodPost, "/ping", "").Body.String())
}

func TestAdapter_DuplicateRouteRejected(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*appModule](), metadata.ModuleOptions{Controllers: []core.Ref{ref[*usersController]()}})
	s.Controller(ref[*usersController](), metadata.ControllerOptions{})
	s.Endpoint(ref[*usersController](), "Crash", metadata.MethodOptions{Kind: core.KindGet, Route: "/x"})
	s.Endpoint(ref[*usersController](), "Feed", metadata.MethodOptions{Kind: core.KindSSEAsync, Route: "/x/"})

	node, err := graph.NewBuilder(s).Build(ref[*appModule]())
	require.NoError(t, err)
	compiled, err := compiler.New(container.NewRegistry(s)).Compile(context.Background(), node)
	require.NoError(t, err)

	_, err = linker.New(routing.NewAdapter()).Link(compiled)
	var dup *routing.DuplicateRouteError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "GET", dup.Method)
	assert.Equal(t, "/x", dup.Pattern)
}

func TestAdapter_ExtraHandlerCollidingWithEndpoint(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*appModule](), metadata.ModuleOptions{Controllers: []core.Ref{ref[*usersController]()}})
	s.Controller(ref[*usersController](), metadata.ControllerOptions{})
	s.Endpoint(ref[*usersController](), "Crash", metadata.MethodOptions{Kind: core.KindGet, Route: "/metrics"})

	node, err := graph.NewBuilder(s).Build(ref[*appModule]())
	require.NoError(t, err)
	compiled, err := compiler.New(container.NewRegistry(s)).Compile(context.Background(), node)
	require.NoError(t, err)

	_, err = linker.New(routing.NewAdapter(routing.WithHandler(http.MethodGet, "/metrics", http.NotFoundHandler()))).Link(compiled)
	var dup *routing.DuplicateRouteError
	assert.ErrorAs(t, err, &dup)
}

func TestAdapter_CommandKindUnsupported(t *testing.T) {
	s := metadata.NewStore()
	s.Module(ref[*appModule](), metadata.ModuleOptions{Controllers: []core.Ref{ref[*usersController]()}})
	s.Controller(ref[*usersController](), metadata.ControllerOptions{})
	s.Endpoint(ref[*usersController](), "Crash", metadata.MethodOptions{Kind: core.KindCommand, Route: "crash"})

	node, err := graph.NewBuilder(s).Build(ref[*appModule]())
	require.NoError(t, err)
	compiled, err := compiler.New(container.NewRegistry(s)).Compile(context.Background(), node)
	require.NoError(t, err)

	_, err = linker.New(routing.NewAdapter()).Link(compiled)
	var unsupported *core.UnsupportedEndpointKindError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, core.KindCommand, unsupported.Kind)
}
