package validation

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Errors is the bag of failed rules per field. It renders as
// {"errors": {"field": ["msg"]}} and is itself an error.
type Errors struct {
	Bag map[string][]string `json:"errors"`
}

// Add records a message for field.
func (e *Errors) Add(field, msg string) {
	if e.Bag == nil {
		e.Bag = make(map[string][]string)
	}
	e.Bag[field] = append(e.Bag[field], msg)
}

// Has reports whether any rule failed.
func (e *Errors) Has() bool { return len(e.Bag) > 0 }

// First returns the first message for field.
func (e *Errors) First(field string) string {
	if msgs := e.Bag[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Error joins the first message of every field, in field order.
func (e *Errors) Error() string {
	fields := make([]string, 0, len(e.Bag))
	for f := range e.Bag {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e.First(f))
	}
	return "validation failed: " + strings.Join(msgs, " ")
}

// Rules maps a field to its pipe-separated rules:
//
//	validation.Rules{"email": "required|email", "age": "numeric|gte:18"}
type Rules map[string]string

// Validatable is implemented by request bodies that declare rules.
type Validatable interface {
	Rules() Rules
}

// Validator checks a flat map of input values.
type Validator struct {
	data   map[string]string
	rules  Rules
	errors *Errors
	done   bool
}

// Make creates a Validator for data.
func Make(data map[string]string, rules Rules) *Validator {
	return &Validator{data: data, rules: rules, errors: &Errors{}}
}

// Fails runs the rules once and reports whether any failed.
func (v *Validator) Fails() bool {
	if !v.done {
		v.validate()
		v.done = true
	}
	return v.errors.Has()
}

// Passes is the negation of Fails.
func (v *Validator) Passes() bool { return !v.Fails() }

// Errors returns the error bag.
func (v *Validator) Errors() *Errors { return v.errors }

// Check validates v when it (or what it points to) is Validatable. Fields are
// read from v's JSON form. It returns *Errors on failure.
func Check(v any) error {
	target, ok := v.(Validatable)
	if !ok {
		return nil
	}
	data, err := flatten(v)
	if err != nil {
		return err
	}
	val := Make(data, target.Rules())
	if val.Fails() {
		return val.Errors()
	}
	return nil
}

func flatten(v any) (map[string]string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("validation: %T does not encode to an object", v)
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		switch x := val.(type) {
		case nil:
		case string:
			out[k] = x
		case float64:
			out[k] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[k] = fmt.Sprint(x)
		}
	}
	return out, nil
}

// ── Rules ────────────────────────────────────────────────────────────────────

// input is what a rule sees.
type input struct {
	field, value, param string
	data                map[string]string
}

// rule returns a failure message, or "" when the value passes.
type rule func(in input) string

var (
	alphaRe     = regexp.MustCompile(`^[a-zA-Z]+$`)
	alphaNumRe  = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	alphaDashRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	urlRe       = regexp.MustCompile(`^https?://`)
)

var registry = map[string]rule{
	"required": func(in input) string {
		if strings.TrimSpace(in.value) == "" {
			return fmt.Sprintf("The %s field is required.", in.field)
		}
		return ""
	},
	"string": func(input) string { return "" },
	"numeric": func(in input) string {
		if _, err := strconv.ParseFloat(in.value, 64); err != nil {
			return fmt.Sprintf("The %s must be a number.", in.field)
		}
		return ""
	},
	"integer": func(in input) string {
		if _, err := strconv.Atoi(in.value); err != nil {
			return fmt.Sprintf("The %s must be an integer.", in.field)
		}
		return ""
	},
	"boolean": func(in input) string {
		switch strings.ToLower(in.value) {
		case "true", "false", "1", "0", "yes", "no":
			return ""
		}
		return fmt.Sprintf("The %s field must be true or false.", in.field)
	},
	"email": func(in input) string {
		if _, err := mail.ParseAddress(in.value); err != nil {
			return fmt.Sprintf("The %s must be a valid email address.", in.field)
		}
		return ""
	},
	"url":        matches(urlRe, "The %s must be a valid URL."),
	"alpha":      matches(alphaRe, "The %s may only contain letters."),
	"alpha_num":  matches(alphaNumRe, "The %s may only contain letters and numbers."),
	"alpha_dash": matches(alphaDashRe, "The %s may only contain letters, numbers, dashes and underscores."),
	"regex": func(in input) string {
		re, err := regexp.Compile(in.param)
		if err != nil || !re.MatchString(in.value) {
			return fmt.Sprintf("The %s format is invalid.", in.field)
		}
		return ""
	},
	"min":  length(func(l, n int) bool { return l >= n }, "The %s must be at least %d characters."),
	"max":  length(func(l, n int) bool { return l <= n }, "The %s may not be greater than %d characters."),
	"size": length(func(l, n int) bool { return l == n }, "The %s must be %d characters."),
	"between": func(in input) string {
		lo, hi, ok := strings.Cut(in.param, ",")
		if !ok {
			return ""
		}
		lower, _ := strconv.Atoi(strings.TrimSpace(lo))
		upper, _ := strconv.Atoi(strings.TrimSpace(hi))
		if l := utf8.RuneCountInString(in.value); l < lower || l > upper {
			return fmt.Sprintf("The %s must be between %d and %d characters.", in.field, lower, upper)
		}
		return ""
	},
	"in": func(in input) string {
		if !slices.Contains(options(in.param), in.value) {
			return fmt.Sprintf("The selected %s is invalid.", in.field)
		}
		return ""
	},
	"not_in": func(in input) string {
		if slices.Contains(options(in.param), in.value) {
			return fmt.Sprintf("The selected %s is invalid.", in.field)
		}
		return ""
	},
	"confirmed": func(in input) string {
		if in.data[in.field+"_confirmation"] != in.value {
			return fmt.Sprintf("The %s confirmation does not match.", in.field)
		}
		return ""
	},
	"same": func(in input) string {
		if in.data[in.param] != in.value {
			return fmt.Sprintf("The %s and %s must match.", in.field, in.param)
		}
		return ""
	},
	"different": func(in input) string {
		if in.data[in.param] == in.value {
			return fmt.Sprintf("The %s and %s must be different.", in.field, in.param)
		}
		return ""
	},
	"gt":  compare(func(a, b float64) bool { return a > b }, "greater than"),
	"gte": compare(func(a, b float64) bool { return a >= b }, "greater than or equal to"),
	"lt":  compare(func(a, b float64) bool { return a < b }, "less than"),
	"lte": compare(func(a, b float64) bool { return a <= b }, "less than or equal to"),
}

func matches(re *regexp.Regexp, format string) rule {
	return func(in input) string {
		if !re.MatchString(in.value) {
			return fmt.Sprintf(format, in.field)
		}
		return ""
	}
}

func length(ok func(l, n int) bool, format string) rule {
	return func(in input) string {
		n, _ := strconv.Atoi(in.param)
		if !ok(utf8.RuneCountInString(in.value), n) {
			return fmt.Sprintf(format, in.field, n)
		}
		return ""
	}
}

func compare(ok func(a, b float64) bool, phrase string) rule {
	return func(in input) string {
		a, _ := strconv.ParseFloat(in.value, 64)
		b, _ := strconv.ParseFloat(in.param, 64)
		if !ok(a, b) {
			return fmt.Sprintf("The %s must be %s %s.", in.field, phrase, in.param)
		}
		return ""
	}
}

func options(param string) []string {
	opts := strings.Split(param, ",")
	for i := range opts {
		opts[i] = strings.TrimSpace(opts[i])
	}
	return opts
}

// validate applies each field's rules in order and stops at the first
// failure. "sometimes" and "nullable" skip the remaining rules of an empty
// field; unknown rules are ignored.
func (v *Validator) validate() {
	for field, spec := range v.rules {
		value := v.data[field]
		for _, r := range strings.Split(spec, "|") {
			name, param, _ := strings.Cut(strings.TrimSpace(r), ":")
			if name == "" {
				continue
			}
			if name == "sometimes" || name == "nullable" {
				if value == "" {
					break
				}
				continue
			}
			fn, ok := registry[name]
			if !ok {
				continue
			}
			if msg := fn(input{field: field, value: value, param: param, data: v.data}); msg != "" {
				v.errors.Add(field, msg)
				break
			}
		}
	}
}
