// Package engineerr holds the error taxonomy surfaced by the reactor
// engine's request future and, for a subset, observed by Inspectors instead
// of (or alongside) the caller.
package engineerr

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTLSContext is returned immediately, before any network I/O,
	// when an HTTPS request is attempted on an engine with no TLS context
	// configured.
	ErrMissingTLSContext = errors.New("engine: https request requires a configured tls context")

	// ErrShuttingDown is returned for any request submitted after Stop has
	// begun draining the engine.
	ErrShuttingDown = errors.New("engine: client is shutting down")

	// ErrPoolClosed names a closed connection pool. No operation in this
	// module returns it: requests submitted after Stop get ErrShuttingDown.
	ErrPoolClosed = errors.New("engine: connection pool closed")

	// ErrNoResolvableHost is returned when a request's URL carries no host
	// component (the request builder is expected to prevent this for
	// absolute URLs, but the dispatcher checks regardless).
	ErrNoResolvableHost = errors.New("engine: request has no resolvable host")
)

// ResolveError wraps a DNS resolution failure other than a not-found
// answer (those are reported as DNSQueryError), carrying the hostname that
// failed to resolve.
type ResolveError struct {
	Host string
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("engine: resolve %s: %v", e.Host, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// DNSQueryError wraps an unsuccessful (but not I/O-failed) DNS response,
// such as NXDOMAIN, carrying the response code reported by the resolver.
type DNSQueryError struct {
	Host string
	Code string
}

func (e *DNSQueryError) Error() string {
	return fmt.Sprintf("engine: dns query for %s failed: %s", e.Host, e.Code)
}

// ConnectError wraps a transport-level dial failure, carrying the peer
// address that could not be reached.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("engine: connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// TLSError wraps a handshake failure. It satisfies the same routing
// surface as ConnectError (callers that only check for connect failures
// still catch it via errors.As on *ConnectError is NOT implied — Inspectors
// that care about the TLS/non-TLS distinction should check for *TLSError
// specifically), but is tracked as its own type per the observability
// requirement that TLS failures be distinguishable from plain dial
// failures.
type TLSError struct {
	Addr string
	Host string
	Err  error
}

func (e *TLSError) Error() string {
	return fmt.Sprintf("engine: tls handshake with %s (sni %s): %v", e.Addr, e.Host, e.Err)
}

func (e *TLSError) Unwrap() error { return e.Err }

// TimeoutKind distinguishes the two sweeper-synthesized timeout errors.
type TimeoutKind int

const (
	// ReadTimeout indicates the active deadline expired while awaiting
	// response data.
	ReadTimeout TimeoutKind = iota
	// WriteTimeout indicates the active deadline expired while the request
	// was still being written.
	WriteTimeout
)

func (k TimeoutKind) String() string {
	if k == WriteTimeout {
		return "write"
	}
	return "read"
}

// TimeoutError is synthesized by the expiry sweeper when a Busy connection
// exceeds the active (read/write) deadline. It is applied to whatever
// request is in flight on that connection.
type TimeoutError struct {
	Kind TimeoutKind
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("engine: %s timeout exceeded", e.Kind)
}

// ProtocolError indicates a malformed response or a body that overflowed
// the configured max body size.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("engine: protocol error: %s", e.Reason)
}

// IsConnectFailure reports whether err represents any flavor of dial/TLS
// failure, i.e. an error produced at the dial or TLS-wrap step of the
// request pipeline.
func IsConnectFailure(err error) bool {
	var ce *ConnectError
	var te *TLSError
	return errors.As(err, &ce) || errors.As(err, &te)
}
