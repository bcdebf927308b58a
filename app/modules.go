// Package app is the example application: a users API served over HTTP and
// a CLI managing the same users.
package app

import (
	"github.com/km-arc/go-composer/framework/console"
	"github.com/km-arc/go-composer/framework/core"
	gohttp "github.com/km-arc/go-composer/framework/http"
	"github.com/km-arc/go-composer/framework/metadata"
	"github.com/km-arc/go-composer/framework/providers"
)

type (
	// AppModule is the HTTP root, mounted under /api.
	AppModule struct{}
	// ConsoleModule is the CLI root.
	ConsoleModule struct{}
	// UsersModule provides UserService.
	UsersModule struct{}
)

// Declare registers the application's modules on store.
func Declare(store *metadata.Store, opts ...providers.Option) {
	framework := providers.Register(store, opts...)

	store.Module(core.RefOf[*UsersModule](), metadata.ModuleOptions{
		Imports:   []core.Ref{framework},
		Providers: []any{core.RefOf[*UserService]()},
	})
	store.Injectable(core.RefOf[*UserService](), metadata.InjectableOptions{Constructor: NewUserService})
	store.Injectable(core.RefOf[*AuthGuard](), metadata.InjectableOptions{Constructor: NewAuthGuard})

	declareHTTP(store, framework)
	declareConsole(store)
}

func declareHTTP(store *metadata.Store, framework core.Ref) {
	store.Module(core.RefOf[*AppModule](), metadata.ModuleOptions{
		Route:       "/api",
		Imports:     []core.Ref{framework, core.RefOf[*UsersModule]()},
		Controllers: []core.Ref{core.RefOf[*UsersController]()},
		Middlewares: []core.MiddlewareSpec{core.Use(poweredBy)},
	})

	users := core.RefOf[*UsersController]()
	store.Controller(users, metadata.ControllerOptions{
		Route:        "/users",
		Constructor:  NewUsersController,
		ErrorHandler: core.Catch(usersErrors),
	})
	store.Endpoint(users, "List", metadata.MethodOptions{Kind: core.KindGet, Route: "/"})
	store.Endpoint(users, "Show", metadata.MethodOptions{
		Kind:  core.KindGet,
		Route: "/{id}",
		Args:  []core.ArgFactory{gohttp.Param("id")},
	})
	store.Endpoint(users, "Create", metadata.MethodOptions{
		Kind:        core.KindPost,
		Route:       "/",
		Middlewares: []core.MiddlewareSpec{core.UseGuard(core.RefOf[*AuthGuard]())},
		Args:        []core.ArgFactory{gohttp.Body[CreateUser]()},
	})
	store.Endpoint(users, "Events", metadata.MethodOptions{Kind: core.KindSSEAsync, Route: "/events"})
}

func declareConsole(store *metadata.Store) {
	store.Module(core.RefOf[*ConsoleModule](), metadata.ModuleOptions{
		Help:        "Manage the users of the example application.",
		Imports:     []core.Ref{core.RefOf[*UsersModule]()},
		Controllers: []core.Ref{core.RefOf[*UsersCommand]()},
	})

	cmd := core.RefOf[*UsersCommand]()
	store.Controller(cmd, metadata.ControllerOptions{
		Route:       "users",
		Help:        "User commands.",
		Constructor: NewUsersCommand,
	})
	store.Endpoint(cmd, "List", metadata.MethodOptions{
		Kind:  core.KindCommand,
		Route: "list",
		Help:  "List users.",
		Args:  []core.ArgFactory{console.Out()},
	})
	store.Endpoint(cmd, "Add", metadata.MethodOptions{
		Kind:  core.KindCommand,
		Route: "add",
		Help:  "Add a user: users:add <name> --email=<email>",
		Args:  []core.ArgFactory{console.Positional(0, ""), console.StringFlag("email")},
	})
}

func poweredBy(ctx core.Context, next core.Next) (any, error) {
	if c, ok := gohttp.FromContext(ctx); ok {
		c.Response().Header().Set("X-Powered-By", "go-composer")
	}
	return next()
}
