// Package http is the HTTP side of endpoint dispatch: the request context,
// request and response helpers, stream writers and argument factories used
// by the chi adapter in package routing.
//
// # Context
//
// Every request gets a *Context (a core.Context). Handlers that need the raw
// transport take it as their last parameter:
//
//	func (c *UsersController) Show(id string, ctx core.Context) (*User, error) {
//	    hc, _ := gohttp.FromContext(ctx)
//	    token := hc.Request().BearerToken()
//	    ...
//	}
//
// # Arguments
//
//	gohttp.Param("id")        // chi route parameter
//	gohttp.Query("page", "1") // query string with fallback
//	gohttp.Header("X-Trace")
//	gohttp.Body[CreateUser]() // JSON or form body, validated when it declares Rules
//	gohttp.RequestArg()       // *Request
//	gohttp.ResponseArg()      // *Response
//
// # Results
//
// A handler result is rendered by Render:
//
//	nil            → 204 No Content
//	Responder      → rendered by itself (gohttp.JSON, gohttp.Created, gohttp.Text, gohttp.Redirect)
//	*Response      → passed through when the handler already wrote it
//	anything else  → 200 {"data": v}
//
// Errors are rendered by RenderError as {"message": "..."} with the status of
// an *HTTPError (see Abort), 422 with the bag for *validation.Errors, 403 for
// a guard rejection, and 500 otherwise.
//
// # Streams
//
// StreamWriter, TextStreamWriter and SSEWriter implement the core writer
// contracts and flush after every write.
package http
