package console

import (
	"math"
	"strconv"
	"strings"
)

// Args is a parsed command line: positional tokens plus named flags.
type Args struct {
	Positional []string
	Flags      map[string]any
}

// Parse splits argv the way minimist does:
//
//	--name=value   name = value
//	--name value   name = value, unless value starts with "-"
//	--name         name = true
//	--no-name      name = false
//	-abc           a = b = true, c takes the next token as above
//	-n5            n = 5
//	--             every later token is positional
//
// Numeric values become int or float64 and "true"/"false" become bools.
// Flags listed in booleans never consume the next token. A flag given twice
// collects its values in a []any.
func Parse(argv []string, booleans ...string) Args {
	args := Args{Positional: []string{}, Flags: make(map[string]any)}
	isBool := make(map[string]bool, len(booleans))
	for _, b := range booleans {
		isBool[b] = true
	}

	// value consumes argv[i+1] as the value of name when it can.
	value := func(name string, i *int) any {
		if isBool[name] || *i+1 >= len(argv) {
			return true
		}
		next := argv[*i+1]
		if strings.HasPrefix(next, "-") && next != "-" {
			return true
		}
		*i++
		return coerce(next)
	}

	for i := 0; i < len(argv); i++ {
		tok := argv[i]
		switch {
		case tok == "--":
			args.Positional = append(args.Positional, argv[i+1:]...)
			return args

		case strings.HasPrefix(tok, "--"):
			name := tok[2:]
			if k, v, ok := strings.Cut(name, "="); ok {
				args.set(k, coerce(v))
				continue
			}
			if k, ok := strings.CutPrefix(name, "no-"); ok {
				args.set(k, false)
				continue
			}
			args.set(name, value(name, &i))

		case len(tok) > 1 && tok[0] == '-':
			letters := tok[1:]
			if k, v, ok := strings.Cut(letters, "="); ok && len(k) == 1 {
				args.set(k, coerce(v))
				continue
			}
			for j := 0; j < len(letters); j++ {
				name := letters[j : j+1]
				rest := letters[j+1:]
				if rest == "" {
					args.set(name, value(name, &i))
					break
				}
				if n, ok := number(rest); ok {
					args.set(name, n)
					break
				}
				args.set(name, true)
			}

		default:
			args.Positional = append(args.Positional, tok)
		}
	}
	return args
}

func (a *Args) set(name string, v any) {
	prev, ok := a.Flags[name]
	if !ok {
		a.Flags[name] = v
		return
	}
	if list, ok := prev.([]any); ok {
		a.Flags[name] = append(list, v)
		return
	}
	a.Flags[name] = []any{prev, v}
}

// Has reports whether the flag was given.
func (a Args) Has(name string) bool {
	_, ok := a.Flags[name]
	return ok
}

// Bool reports whether the flag is set to a truthy value.
func (a Args) Bool(name string) bool {
	switch v := a.Flags[name].(type) {
	case bool:
		return v
	case nil:
		return false
	case string:
		return v != ""
	case int:
		return v != 0
	case float64:
		return v != 0
	}
	return true
}

// String returns the flag formatted as a string, or fallback.
func (a Args) String(name string, fallback ...string) string {
	v, ok := a.Flags[name]
	if !ok {
		if len(fallback) > 0 {
			return fallback[0]
		}
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		return a.last(name)
	}
	return ""
}

func (a Args) last(name string) string {
	list, _ := a.Flags[name].([]any)
	if len(list) == 0 {
		return ""
	}
	sub := Args{Flags: map[string]any{name: list[len(list)-1]}}
	return sub.String(name)
}

// Int returns the flag as an int, or fallback when it is absent. A repeated
// flag yields its last value. Values that are not whole numbers fail with
// InvalidFlagError.
func (a Args) Int(name string, fallback int) (int, error) {
	v, ok := a.Flags[name]
	if !ok {
		return fallback, nil
	}
	if list, ok := v.([]any); ok && len(list) > 0 {
		v = list[len(list)-1]
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt && n < -math.MinInt {
			return int(n), nil
		}
	}
	return 0, &InvalidFlagError{Flag: name, Value: v, Want: "an integer"}
}

func coerce(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, ok := number(s); ok {
		return n
	}
	return s
}

func number(s string) (any, bool) {
	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "xXpP_nN") {
		return f, true
	}
	return nil, false
}
