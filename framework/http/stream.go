package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/km-arc/go-composer/framework/core"
)

// StreamWriter writes raw chunks, flushing after each one.
type StreamWriter struct{ res *Response }

// NewStreamWriter prepares res for a raw byte stream.
func NewStreamWriter(res *Response) *StreamWriter {
	if res.Header().Get("Content-Type") == "" {
		res.Header().Set("Content-Type", "application/octet-stream")
	}
	return &StreamWriter{res: res}
}

func (s *StreamWriter) Write(p []byte) (int, error) {
	n, err := s.res.Write(p)
	s.res.Flush()
	return n, err
}

// TextStreamWriter writes newline-terminated lines.
type TextStreamWriter struct{ res *Response }

// NewTextStreamWriter prepares res for a line-oriented text stream.
func NewTextStreamWriter(res *Response) *TextStreamWriter {
	res.Header().Set("Content-Type", "text/plain; charset=utf-8")
	res.Header().Set("X-Content-Type-Options", "nosniff")
	return &TextStreamWriter{res: res}
}

func (t *TextStreamWriter) WriteLine(line string) error {
	_, err := io.WriteString(t.res, line+"\n")
	t.res.Flush()
	return err
}

// SSEWriter frames server-sent events.
type SSEWriter struct{ res *Response }

// NewSSEWriter prepares res for an event stream.
func NewSSEWriter(res *Response) *SSEWriter {
	h := res.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	return &SSEWriter{res: res}
}

// WriteSSE writes one event. String and byte data are sent as-is, one data
// line per line of text; other values are JSON encoded.
func (s *SSEWriter) WriteSSE(msg core.SSEMessage) error {
	var b bytes.Buffer
	if msg.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", msg.ID)
	}
	if msg.Retry > 0 {
		b.WriteString("retry: " + strconv.Itoa(msg.Retry) + "\n")
	}

	var data string
	switch d := msg.Data.(type) {
	case nil:
	case string:
		data = d
	case []byte:
		data = string(d)
	default:
		enc, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("sse: encode data: %w", err)
		}
		data = string(enc)
	}
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteByte('\n')

	_, err := s.res.Write(b.Bytes())
	s.res.Flush()
	return err
}
