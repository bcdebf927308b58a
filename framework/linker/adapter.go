package linker

import (
	"io"

	"github.com/km-arc/go-composer/framework/core"
)

// Scope describes a feature (module) or controller being created.
type Scope struct {
	Name  string
	Route string
	Help  string
}

// Route describes where and how an endpoint is mounted.
type Route struct {
	Path string    // method route, relative to its controller
	Kind core.Kind // verb, command kind or streaming kind
	Name string    // "Controller.Method"
	Help string
}

// Endpoint is a standard dispatchable endpoint. The adapter builds the
// context, calls the endpoint and renders the result: transport-native
// responses pass through, other values go into its default envelope.
type Endpoint func(ctx core.Context) (any, error)

// StreamEndpoint writes raw bytes to w.
type StreamEndpoint func(ctx core.Context, w io.Writer) error

// TextStreamEndpoint writes lines to w.
type TextStreamEndpoint func(ctx core.Context, w core.TextStreamWriter) error

// SSEEndpoint writes server-sent events to w.
type SSEEndpoint func(ctx core.Context, w core.SSEWriter) error

// Adapter mounts linked endpoints onto a transport. Feature, controller and
// endpoint values are adapter-native and opaque to the linker. Middleware
// chains and error routing are composed by the linker before an endpoint is
// handed over, so adapters only deal with transport concerns.
type Adapter interface {
	CreateFeature(scope Scope) (any, error)
	CreateController(scope Scope) (any, error)
	CreateEndpoint(ep Endpoint) (any, error)

	MountFeature(parent, child any, route string) error
	MountController(feature, controller any, route string) error
	MountEndpoint(controller, endpoint any, route Route) error

	// Finalize turns the root feature into the runnable application.
	Finalize(root any) (any, error)
}

// StreamAdapter is implemented by adapters supporting STREAM kinds.
type StreamAdapter interface {
	CreateStreamEndpoint(ep StreamEndpoint) (any, error)
}

// TextStreamAdapter is implemented by adapters supporting TEXT_STREAM kinds.
type TextStreamAdapter interface {
	CreateTextStreamEndpoint(ep TextStreamEndpoint) (any, error)
}

// SSEAdapter is implemented by adapters supporting SSE kinds.
type SSEAdapter interface {
	CreateSSEEndpoint(ep SSEEndpoint) (any, error)
}
