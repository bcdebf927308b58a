package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxMemory = 32 << 20 // 32 MB

// Request wraps *http.Request with input helpers for handlers and argument
// factories.
type Request struct {
	raw *http.Request
}

// NewRequest wraps a standard *http.Request.
func NewRequest(r *http.Request) *Request {
	return &Request{raw: r}
}

// Raw returns the underlying *http.Request.
func (req *Request) Raw() *http.Request { return req.raw }

// ── Binding ──────────────────────────────────────────────────────────────────

// Bind decodes the request body into v. JSON bodies decode through
// encoding/json; urlencoded and multipart forms are mapped through their
// json tags. Failures are *HTTPError with status 400.
func (req *Request) Bind(v any) error {
	ct := req.ContentType()

	var err error
	switch {
	case strings.Contains(ct, "application/json"):
		err = req.bindJSON(v)
	case strings.Contains(ct, "multipart/form-data"):
		if err = req.raw.ParseMultipartForm(maxMemory); err == nil {
			err = bindForm(req.raw.MultipartForm.Value, v)
		}
	default:
		if err = req.raw.ParseForm(); err == nil {
			err = bindForm(req.raw.PostForm, v)
		}
	}
	if err != nil {
		return &HTTPError{Status: http.StatusBadRequest, Message: err.Error()}
	}
	return nil
}

func (req *Request) bindJSON(v any) error {
	if req.raw.Body == nil {
		return errors.New("empty request body")
	}
	defer req.raw.Body.Close()

	dec := json.NewDecoder(req.raw.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty request body")
		}
		return err
	}
	return nil
}

// bindForm maps form values onto v: single values become strings, repeated
// keys become string slices.
func bindForm(values map[string][]string, v any) error {
	m := make(map[string]any, len(values))
	for k, vals := range values {
		if len(vals) == 1 {
			m[k] = vals[0]
		} else {
			m[k] = vals
		}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// ── Input ────────────────────────────────────────────────────────────────────

// Input returns a value from the query string or the form body.
func (req *Request) Input(key string, fallback ...string) string {
	_ = req.raw.ParseForm()
	return or(req.raw.FormValue(key), fallback)
}

// Query returns a query-string value.
func (req *Request) Query(key string, fallback ...string) string {
	return or(req.raw.URL.Query().Get(key), fallback)
}

// All returns the first value of every query and form key.
func (req *Request) All() map[string]string {
	_ = req.raw.ParseForm()
	out := make(map[string]string, len(req.raw.Form))
	for k, v := range req.raw.Form {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// Has reports whether key is present and non-empty.
func (req *Request) Has(key string) bool { return req.Input(key) != "" }

// Param returns a chi route parameter.
func (req *Request) Param(key string) string { return chi.URLParam(req.raw, key) }

// Header returns a request header value.
func (req *Request) Header(key string) string { return req.raw.Header.Get(key) }

// BearerToken extracts the token from "Authorization: Bearer <token>".
func (req *Request) BearerToken() string {
	token, ok := strings.CutPrefix(req.raw.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return ""
	}
	return token
}

// IP returns the client address; RealIP middleware rewrites it upstream.
func (req *Request) IP() string { return req.raw.RemoteAddr }

func (req *Request) Method() string      { return req.raw.Method }
func (req *Request) Path() string        { return req.raw.URL.Path }
func (req *Request) ContentType() string { return req.raw.Header.Get("Content-Type") }

// WantsJSON reports whether the client accepts or sends JSON.
func (req *Request) WantsJSON() bool {
	return strings.Contains(req.raw.Header.Get("Accept"), "application/json") ||
		strings.Contains(req.ContentType(), "application/json")
}

// File returns an uploaded file by field name.
func (req *Request) File(key string) (*multipart.FileHeader, error) {
	if err := req.raw.ParseMultipartForm(maxMemory); err != nil {
		return nil, err
	}
	_, fh, err := req.raw.FormFile(key)
	return fh, err
}

func or(v string, fallback []string) string {
	if v == "" && len(fallback) > 0 {
		return fallback[0]
	}
	return v
}
