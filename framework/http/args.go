package http

import (
	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/http/validation"
)

// Argument factories for endpoint declarations:
//
//	metadata.Endpoint(ref, "Show", metadata.MethodOptions{
//	    Kind:  core.KindGet,
//	    Route: "/{id}",
//	    Args:  []core.ArgFactory{gohttp.Param("id")},
//	})

func request(ctx core.Context) (*Context, error) {
	c, ok := FromContext(ctx)
	if !ok {
		return nil, errNotHTTP
	}
	return c, nil
}

// Param extracts a chi route parameter.
func Param(name string) core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := request(ctx)
		if err != nil {
			return nil, err
		}
		return c.req.Param(name), nil
	}
}

// Query extracts a query-string value.
func Query(name string, fallback ...string) core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := request(ctx)
		if err != nil {
			return nil, err
		}
		return c.req.Query(name, fallback...), nil
	}
}

// Header extracts a request header.
func Header(name string) core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := request(ctx)
		if err != nil {
			return nil, err
		}
		return c.req.Header(name), nil
	}
}

// Body decodes the request body into a T. When *T or T implements
// validation.Validatable its rules are checked and a failure is returned as
// *validation.Errors.
func Body[T any]() core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := request(ctx)
		if err != nil {
			return nil, err
		}
		var v T
		if err := c.req.Bind(&v); err != nil {
			return nil, err
		}
		if err := validation.Check(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// RequestArg passes the *Request.
func RequestArg() core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := request(ctx)
		if err != nil {
			return nil, err
		}
		return c.req, nil
	}
}

// ResponseArg passes the *Response. Handlers that write it directly should
// return nil or the response itself.
func ResponseArg() core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := request(ctx)
		if err != nil {
			return nil, err
		}
		return c.res, nil
	}
}
