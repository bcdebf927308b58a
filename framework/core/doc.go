// Package core holds the vocabulary shared by every phase of the framework:
// tokens and providers, the request Context, the middleware, guard and error
// handler variants, endpoint kinds, stream writers and the error taxonomy.
//
// # Tokens
//
//	"config"                              // string token
//	var DB = core.NewSymbol("db")         // identity token
//	core.RefOf[*UserService]()            // type token
//
// # Middleware variants
//
// A middleware entry is declared in one of three ways and normalized by the
// compiler into a single MiddlewareFunc:
//
//	core.Use(func(ctx core.Context, next core.Next) (any, error) { return next() })
//	core.UseHandler(core.RefOf[*AuditMiddleware]())  // Handle(ctx, next)
//	core.UseGuard(core.RefOf[*AuthGuard]())          // CanActivate(ctx)
//
// Error handlers are either core.Catch(fn) or core.CatchWith(ref) where the
// type implements Catch(err, ctx).
package core
