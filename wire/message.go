// Package wire is the HTTP/1.1 serialization/parsing layer the reactor
// engine treats as an external collaborator (spec §1, §6): it produces the
// bytes a Connection writes and consumes the bytes a Connection reads, and
// is the one place that inspects the Connection header to decide whether a
// response keeps the socket alive.
package wire

import (
	"io"
	"net/http"
	"net/url"
)

// Request is the value the dispatcher writes onto a connection. URL must be
// absolute (scheme+host); a missing port defaults to 80, or 443 for https.
// The reactor never looks inside it beyond Host/Scheme/Port.
type Request struct {
	Method        string
	URL           *url.URL
	Header        http.Header
	Body          io.Reader
	ContentLength int64 // -1 if unknown

	// CloseRequested, when set by the caller, makes the engine close the
	// connection after this response instead of recycling it. It is not
	// derived from Header, and WriteRequest does not add a
	// "Connection: close" header for it.
	CloseRequested bool
}

// NewRequest builds a Request with an initialized header map, mirroring
// the convenience constructors callers expect from an HTTP client package.
func NewRequest(method string, u *url.URL, body io.Reader) *Request {
	return &Request{
		Method:        method,
		URL:           u,
		Header:        make(http.Header),
		Body:          body,
		ContentLength: -1,
	}
}

// Response is what a Connection hands back to the dispatcher after
// reading a response head. Body streaming beyond the head is the
// Connection's responsibility (spec §4.1: "the Connection only owns
// sequencing"); wire only describes how to frame it.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser

	// KeepAlive reports whether the response, combined with the request's
	// protocol version, permits the connection to be recycled. The
	// Connection evaluates this alongside its own keep-alive cap and
	// timeout configuration (spec §4.1) — wire only reports what the wire
	// format itself says.
	KeepAlive bool
}
