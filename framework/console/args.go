package console

import (
	"errors"
	"fmt"

	"github.com/km-arc/go-composer/framework/core"
)

// Argument factories for command declarations:
//
//	metadata.Endpoint(ref, "Migrate", metadata.MethodOptions{
//	    Kind:  core.KindCommand,
//	    Route: "migrate",
//	    Args:  []core.ArgFactory{console.IntFlag("steps", 1)},
//	})

var errNotConsole = errors.New("not a console context")

func invocation(ctx core.Context) (*Context, error) {
	c, ok := FromContext(ctx)
	if !ok {
		return nil, errNotConsole
	}
	return c, nil
}

// Positional extracts the i-th positional argument after the command name.
func Positional(i int, fallback ...string) core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := invocation(ctx)
		if err != nil {
			return nil, err
		}
		if i < len(c.args.Positional) {
			return c.args.Positional[i], nil
		}
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return nil, fmt.Errorf("missing argument #%d", i+1)
	}
}

// Positionals extracts every positional argument after the command name.
func Positionals() core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := invocation(ctx)
		if err != nil {
			return nil, err
		}
		return append([]string(nil), c.args.Positional...), nil
	}
}

// Flag extracts a flag value as parsed, or fallback when it is absent.
func Flag(name string, fallback ...any) core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := invocation(ctx)
		if err != nil {
			return nil, err
		}
		if v, ok := c.args.Flags[name]; ok {
			return v, nil
		}
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return nil, nil
	}
}

func StringFlag(name string, fallback ...string) core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := invocation(ctx)
		if err != nil {
			return nil, err
		}
		return c.args.String(name, fallback...), nil
	}
}

func BoolFlag(name string) core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := invocation(ctx)
		if err != nil {
			return nil, err
		}
		return c.args.Bool(name), nil
	}
}

func IntFlag(name string, fallback int) core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := invocation(ctx)
		if err != nil {
			return nil, err
		}
		return c.args.Int(name, fallback)
	}
}

// Out extracts the invocation's output writer.
func Out() core.ArgFactory {
	return func(ctx core.Context) (any, error) {
		c, err := invocation(ctx)
		if err != nil {
			return nil, err
		}
		return c.out, nil
	}
}
