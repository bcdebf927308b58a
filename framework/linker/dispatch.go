package linker

import (
	"fmt"
	"io"
	"reflect"

	"github.com/km-arc/go-composer/framework/compiler"
	"github.com/km-arc/go-composer/framework/core"
)

// dispatcher runs one compiled method behind its composed middleware chain.
type dispatcher struct {
	method      *compiler.CompiledMethod
	middlewares []core.MiddlewareFunc
	handlers    []core.ErrorHandlerFunc // nearest last
}

// run executes the chain. invoke is called once the chain is exhausted with
// the extracted arguments.
func (d *dispatcher) run(ctx core.Context, invoke func(args []any) (any, error)) (any, error) {
	ctx.Set(core.EndpointKey, d.method.Name)

	i := 0
	var next core.Next
	next = func() (any, error) {
		if i < len(d.middlewares) {
			mw := d.middlewares[i]
			i++
			return mw(ctx, next)
		}
		args := make([]any, 0, len(d.method.Args)+1)
		for n, factory := range d.method.Args {
			v, err := factory(ctx)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", d.method.Name, n, err)
			}
			args = append(args, v)
		}
		return invoke(args)
	}

	res, err := next()
	if err == nil {
		return res, nil
	}
	if len(d.handlers) == 0 {
		return nil, err
	}
	return d.handlers[len(d.handlers)-1](err, ctx)
}

func (d *dispatcher) standard(ctx core.Context) (any, error) {
	return d.run(ctx, func(args []any) (any, error) {
		return d.method.Handle(ctx, args)
	})
}

func (d *dispatcher) stream(ctx core.Context, w io.Writer) error {
	return d.streaming(ctx, w, func(v any) error { return writeBytes(w, v) })
}

func (d *dispatcher) textStream(ctx core.Context, w core.TextStreamWriter) error {
	return d.streaming(ctx, w, func(v any) error { return writeLine(w, v) })
}

func (d *dispatcher) sse(ctx core.Context, w core.SSEWriter) error {
	return d.streaming(ctx, w, func(v any) error { return writeSSE(w, v) })
}

// streaming hands writer to the handler second to last. Async kinds drain
// the returned iterator through write inside the chain, so errors raised
// while draining reach the same error handlers.
func (d *dispatcher) streaming(ctx core.Context, writer any, write func(any) error) error {
	async := d.method.Kind().Async()
	_, err := d.run(ctx, func(args []any) (any, error) {
		res, err := d.method.Handle(ctx, append(args, writer))
		if err != nil || !async {
			return nil, err
		}
		return nil, drain(ctx, d.method.Name, res, write)
	})
	return err
}

// drain consumes an iter.Seq, an iter.Seq2 whose second value is an error,
// or a receive channel, calling write for each value in order.
func drain(ctx core.Context, method string, it any, write func(any) error) error {
	rv := reflect.ValueOf(it)
	if !rv.IsValid() || (isNillable(rv.Kind()) && rv.IsNil()) {
		return &core.NotAnAsyncGeneratorError{Method: method, Got: fmt.Sprintf("%T", it)}
	}

	switch rv.Kind() {
	case reflect.Chan:
		if rv.Type().ChanDir()&reflect.RecvDir == 0 {
			break
		}
		cases := []reflect.SelectCase{
			{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
			{Dir: reflect.SelectRecv, Chan: rv},
		}
		for {
			chosen, v, ok := reflect.Select(cases)
			if chosen == 0 {
				return ctx.Err()
			}
			if !ok {
				return nil
			}
			if err := write(v.Interface()); err != nil {
				return err
			}
		}

	case reflect.Func:
		yield, ok := yieldType(rv.Type())
		if !ok {
			break
		}
		var werr error
		fn := reflect.MakeFunc(yield, func(in []reflect.Value) []reflect.Value {
			if len(in) == 2 {
				if e, _ := in[1].Interface().(error); e != nil {
					werr = e
					return []reflect.Value{reflect.ValueOf(false)}
				}
			}
			if err := ctx.Err(); err != nil {
				werr = err
				return []reflect.Value{reflect.ValueOf(false)}
			}
			if err := write(in[0].Interface()); err != nil {
				werr = err
				return []reflect.Value{reflect.ValueOf(false)}
			}
			return []reflect.Value{reflect.ValueOf(true)}
		})
		rv.Call([]reflect.Value{fn})
		return werr
	}
	return &core.NotAnAsyncGeneratorError{Method: method, Got: fmt.Sprintf("%T", it)}
}

// yieldType returns the yield parameter of an iter.Seq[V] or
// iter.Seq2[V, error] shaped function.
func yieldType(t reflect.Type) (reflect.Type, bool) {
	if t.NumIn() != 1 || t.NumOut() != 0 {
		return nil, false
	}
	y := t.In(0)
	if y.Kind() != reflect.Func || y.NumOut() != 1 || y.Out(0).Kind() != reflect.Bool {
		return nil, false
	}
	switch y.NumIn() {
	case 1:
		return y, true
	case 2:
		return y, y.In(1) == reflect.TypeFor[error]()
	}
	return nil, false
}

func isNillable(k reflect.Kind) bool {
	switch k {
	case reflect.Chan, reflect.Func, reflect.Map, reflect.Pointer, reflect.Interface, reflect.Slice:
		return true
	}
	return false
}

func writeBytes(w io.Writer, v any) error {
	var err error
	switch b := v.(type) {
	case []byte:
		_, err = w.Write(b)
	case string:
		_, err = io.WriteString(w, b)
	default:
		_, err = fmt.Fprint(w, v)
	}
	return err
}

func writeLine(w core.TextStreamWriter, v any) error {
	if s, ok := v.(string); ok {
		return w.WriteLine(s)
	}
	return w.WriteLine(fmt.Sprint(v))
}

func writeSSE(w core.SSEWriter, v any) error {
	switch m := v.(type) {
	case core.SSEMessage:
		return w.WriteSSE(m)
	case *core.SSEMessage:
		return w.WriteSSE(*m)
	default:
		return w.WriteSSE(core.SSEMessage{Data: v})
	}
}
