package core

import (
	"context"
	"sync"
)

// EndpointKey is the context key under which the linker stores the name of
// the endpoint being dispatched ("UsersController.Show").
const EndpointKey = "composer.endpoint"

// Context is the transport-neutral view of one request or invocation.
// Adapters embed *BaseContext in their own context types and add transport
// accessors on top.
type Context interface {
	context.Context

	// Raw returns the adapter-native request object.
	Raw() any

	// Get returns a value stored with Set.
	Get(key string) (any, bool)

	// Set stores a request-scoped value.
	Set(key string, value any)
}

// BaseContext implements Context over a context.Context and a value bag.
type BaseContext struct {
	context.Context

	raw    any
	mu     sync.RWMutex
	values map[string]any
}

// NewBaseContext wraps parent and the adapter-native request raw.
func NewBaseContext(parent context.Context, raw any) *BaseContext {
	if parent == nil {
		parent = context.Background()
	}
	return &BaseContext{Context: parent, raw: raw, values: make(map[string]any)}
}

func (c *BaseContext) Raw() any { return c.raw }

func (c *BaseContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *BaseContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Endpoint returns the endpoint name stored by the linker, or "".
func Endpoint(ctx Context) string {
	v, _ := ctx.Get(EndpointKey)
	s, _ := v.(string)
	return s
}

// ArgFactory extracts one handler argument from the live context.
type ArgFactory func(ctx Context) (any, error)

// Handle is a compiled endpoint: the bound controller method, called with the
// extracted arguments (plus the stream writer for streaming kinds) and the
// context last.
type Handle func(ctx Context, args []any) (any, error)
