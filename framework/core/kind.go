package core

import "io"

// Kind is the endpoint kind declared on a method: an HTTP verb, a CLI command
// or a streaming variant.
type Kind string

const (
	KindGet    Kind = "GET"
	KindPost   Kind = "POST"
	KindPut    Kind = "PUT"
	KindDelete Kind = "DELETE"
	KindPatch  Kind = "PATCH"

	// KindCommand is a named CLI command; the method route is the name.
	KindCommand Kind = "COMMAND"
	// KindMain is the reserved single CLI entry point.
	KindMain Kind = "MAIN"

	KindStream          Kind = "STREAM"
	KindStreamAsync     Kind = "STREAM_ASYNC"
	KindTextStream      Kind = "TEXT_STREAM"
	KindTextStreamAsync Kind = "TEXT_STREAM_ASYNC"
	KindSSE             Kind = "SSE"
	KindSSEAsync        Kind = "SSE_ASYNC"
)

// Known reports whether k is one of the declared kinds.
func (k Kind) Known() bool {
	switch k {
	case KindGet, KindPost, KindPut, KindDelete, KindPatch, KindCommand, KindMain,
		KindStream, KindStreamAsync, KindTextStream, KindTextStreamAsync, KindSSE, KindSSEAsync:
		return true
	}
	return false
}

// Streaming reports whether handlers of this kind receive a stream writer.
func (k Kind) Streaming() bool {
	switch k {
	case KindStream, KindStreamAsync, KindTextStream, KindTextStreamAsync, KindSSE, KindSSEAsync:
		return true
	}
	return false
}

// Async reports whether handlers of this kind must return an iterable.
func (k Kind) Async() bool {
	return k == KindStreamAsync || k == KindTextStreamAsync || k == KindSSEAsync
}

// ── Stream writers ────────────────────────────────────────────────────────────

// StreamWriter receives raw bytes from STREAM endpoints.
type StreamWriter = io.Writer

// TextStreamWriter receives lines from TEXT_STREAM endpoints.
type TextStreamWriter interface {
	WriteLine(line string) error
}

// SSEMessage is one server-sent event.
type SSEMessage struct {
	Event string
	ID    string
	Retry int
	Data  any
}

// SSEWriter receives events from SSE endpoints.
type SSEWriter interface {
	WriteSSE(msg SSEMessage) error
}
