package console

import (
	"context"
	"io"

	"github.com/km-arc/go-composer/framework/core"
)

// Context is the core.Context of one command invocation.
type Context struct {
	*core.BaseContext

	args Args
	out  io.Writer
}

// NewContext builds the context for a command run with args, writing to out.
func NewContext(parent context.Context, args Args, out io.Writer) *Context {
	if out == nil {
		out = io.Discard
	}
	return &Context{
		BaseContext: core.NewBaseContext(parent, args),
		args:        args,
		out:         out,
	}
}

func (c *Context) Args() Args     { return c.args }
func (c *Context) Out() io.Writer { return c.out }

// FromContext returns the console context behind ctx.
func FromContext(ctx core.Context) (*Context, bool) {
	c, ok := ctx.(*Context)
	return c, ok
}
