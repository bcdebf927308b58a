package http

import (
	"encoding/json"
	"net/http"

	"github.com/km-arc/go-composer/framework/http/validation"
)

// Response wraps http.ResponseWriter and remembers whether a status line
// has been written, so the adapter never renders twice.
type Response struct {
	w       http.ResponseWriter
	status  int
	written bool
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// Header returns the response headers.
func (res *Response) Header() http.Header { return res.w.Header() }

// Written reports whether the status line has been sent.
func (res *Response) Written() bool { return res.written }

// Status returns the status written, or 0.
func (res *Response) Status() int { return res.status }

// WriteHeader sends the status line once.
func (res *Response) WriteHeader(status int) {
	if res.written {
		return
	}
	res.status, res.written = status, true
	res.w.WriteHeader(status)
}

// Write sends body bytes, implying 200 when no status was written.
func (res *Response) Write(p []byte) (int, error) {
	if !res.written {
		res.WriteHeader(http.StatusOK)
	}
	return res.w.Write(p)
}

// Flush flushes buffered data to the client when supported.
func (res *Response) Flush() {
	if f, ok := res.w.(http.Flusher); ok {
		f.Flush()
	}
}

// ── JSON ──────────────────────────────────────────────────────────────────────

// JSON sends v as JSON with status.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, v any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	_ = json.NewEncoder(res).Encode(v)
}

// Success sends 200 {"data": v}.
func (res *Response) Success(v any) { res.JSON(http.StatusOK, envelope{"data": v}) }

// Created sends 201 {"data": v}.
func (res *Response) Created(v any) { res.JSON(http.StatusCreated, envelope{"data": v}) }

// NoContent sends 204 with no body.
func (res *Response) NoContent() { res.WriteHeader(http.StatusNoContent) }

// Error sends {"message": message} with status.
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// ValidationError sends 422 with the error bag.
func (res *Response) ValidationError(errs *validation.Errors) {
	res.JSON(http.StatusUnprocessableEntity, errs)
}

// Redirect sends a redirect to url.
func (res *Response) Redirect(status int, url string) {
	res.w.Header().Set("Location", url)
	res.WriteHeader(status)
}

// ── Responders ────────────────────────────────────────────────────────────────

// Responder is a handler result that renders itself. The adapter passes it
// through instead of wrapping it in the default envelope.
type Responder interface {
	Respond(res *Response, req *Request) error
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(res *Response, req *Request) error

func (f ResponderFunc) Respond(res *Response, req *Request) error { return f(res, req) }

// JSON returns a Responder sending v with status, without the envelope.
func JSON(status int, v any) Responder {
	return ResponderFunc(func(res *Response, _ *Request) error {
		res.JSON(status, v)
		return nil
	})
}

// Created returns a Responder sending 201 {"data": v}.
func Created(v any) Responder {
	return ResponderFunc(func(res *Response, _ *Request) error {
		res.Created(v)
		return nil
	})
}

// Text returns a Responder sending a plain text body.
func Text(status int, body string) Responder {
	return ResponderFunc(func(res *Response, _ *Request) error {
		res.Header().Set("Content-Type", "text/plain; charset=utf-8")
		res.WriteHeader(status)
		_, err := res.Write([]byte(body))
		return err
	})
}

// Redirect returns a Responder redirecting to url.
func Redirect(status int, url string) Responder {
	return ResponderFunc(func(res *Response, _ *Request) error {
		res.Redirect(status, url)
		return nil
	})
}

type envelope map[string]any
