package http

import (
	"errors"
	"net/http"

	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/http/validation"
)

// Context is the core.Context of an HTTP request.
type Context struct {
	*core.BaseContext

	req *Request
	res *Response
}

// NewContext builds the context for one request. The request context is the
// parent, so handlers observe client disconnects.
func NewContext(w http.ResponseWriter, r *http.Request) *Context {
	return &Context{
		BaseContext: core.NewBaseContext(r.Context(), r),
		req:         NewRequest(r),
		res:         NewResponse(w),
	}
}

func (c *Context) Request() *Request   { return c.req }
func (c *Context) Response() *Response { return c.res }

// FromContext returns the HTTP context behind ctx.
func FromContext(ctx core.Context) (*Context, bool) {
	c, ok := ctx.(*Context)
	return c, ok
}

var errNotHTTP = errors.New("not an HTTP context")

// Render writes an endpoint result: nil is 204, a Responder renders itself,
// anything else is sent as {"data": v}. Nothing is written when the handler
// already wrote the response.
func Render(c *Context, v any) error {
	if c.res.Written() {
		return nil
	}
	switch r := v.(type) {
	case nil:
		c.res.NoContent()
	case *Response:
		if !r.Written() {
			c.res.NoContent()
		}
	case Responder:
		return r.Respond(c.res, c.req)
	default:
		c.res.Success(v)
	}
	return nil
}

// RenderError writes err as {"message": ...} with the status from StatusOf.
// Validation failures render their error bag. Messages of 5xx errors that
// are not *HTTPError are hidden unless expose is set.
func RenderError(c *Context, err error, expose bool) {
	if c.res.Written() {
		return
	}
	var ve *validation.Errors
	if errors.As(err, &ve) {
		c.res.ValidationError(ve)
		return
	}

	status := StatusOf(err)
	msg := err.Error()
	var he *HTTPError
	if status >= http.StatusInternalServerError && !errors.As(err, &he) && !expose {
		msg = "Server Error."
	}
	c.res.Error(status, msg)
}
