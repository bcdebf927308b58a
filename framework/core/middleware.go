package core

// ── Normalized shapes ─────────────────────────────────────────────────────────

// Next continues a middleware chain: the following middleware or, once the
// chain is exhausted, the endpoint itself.
type Next func() (any, error)

// MiddlewareFunc is the single shape every middleware is normalized into.
// Returning without calling next short-circuits the chain.
type MiddlewareFunc func(ctx Context, next Next) (any, error)

// ErrorHandlerFunc is the normalized error handler shape. Its result replaces
// the failed endpoint's result; returning an error propagates it outward.
type ErrorHandlerFunc func(err error, ctx Context) (any, error)

// ── Class contracts ───────────────────────────────────────────────────────────

// MiddlewareHandler is implemented by stateful middleware types.
type MiddlewareHandler interface {
	Handle(ctx Context, next Next) (any, error)
}

// Guard is implemented by guard types. A false result rejects the request.
type Guard interface {
	CanActivate(ctx Context) (bool, error)
}

// Catcher is implemented by error handler types.
type Catcher interface {
	Catch(err error, ctx Context) (any, error)
}

// ── Middleware variants ───────────────────────────────────────────────────────

// MiddlewareSpec is one declared middleware entry: a MiddlewareFunc, a
// HandlerClass or a GuardClass. The compiler resolves every variant into a
// MiddlewareFunc once.
type MiddlewareSpec interface {
	middlewareSpec()
}

func (MiddlewareFunc) middlewareSpec() {}

// HandlerClass declares a middleware type implementing MiddlewareHandler,
// instantiated through the module injector.
type HandlerClass struct{ Ref Ref }

func (HandlerClass) middlewareSpec() {}

// GuardClass declares a guard type implementing Guard, instantiated through
// the module injector.
type GuardClass struct{ Ref Ref }

func (GuardClass) middlewareSpec() {}

// Use wraps a plain function as a middleware entry.
func Use(fn func(ctx Context, next Next) (any, error)) MiddlewareSpec {
	return MiddlewareFunc(fn)
}

// UseHandler declares a stateful middleware type.
func UseHandler(ref Ref) MiddlewareSpec { return HandlerClass{Ref: ref} }

// UseGuard declares a guard type.
func UseGuard(ref Ref) MiddlewareSpec { return GuardClass{Ref: ref} }

// ── Error handler variants ────────────────────────────────────────────────────

// ErrorHandlerSpec is a declared error handler: an ErrorHandlerFunc or a
// CatcherClass.
type ErrorHandlerSpec interface {
	errorHandlerSpec()
}

func (ErrorHandlerFunc) errorHandlerSpec() {}

// CatcherClass declares an error handler type implementing Catcher.
type CatcherClass struct{ Ref Ref }

func (CatcherClass) errorHandlerSpec() {}

// Catch wraps a plain function as an error handler.
func Catch(fn func(err error, ctx Context) (any, error)) ErrorHandlerSpec {
	return ErrorHandlerFunc(fn)
}

// CatchWith declares an error handler type.
func CatchWith(ref Ref) ErrorHandlerSpec { return CatcherClass{Ref: ref} }
