package reactor

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/watt-toolkit/shockwave-engine/resolver"
	"github.com/watt-toolkit/shockwave-engine/transport"
)

// fakeAddr is a minimal net.Addr for fakeConn.
type fakeAddr string

func (a fakeAddr) Network() string { return "tcp" }
func (a fakeAddr) String() string  { return string(a) }

// fakeConn is an in-memory net.Conn whose responses are scripted ahead of
// time: every write to it is recorded (see writtenString), and every read is served from a
// queue of canned byte slices (one HTTP/1.1 response each, or io.EOF to
// simulate the peer closing the socket). Grounded on the table-driven fake
// transport style the teacher's own http11 tests use for connection.go.
type fakeConn struct {
	mu       sync.Mutex
	reads    []io.Reader
	readIdx  int
	closed   bool
	writeErr error
	written  bytes.Buffer
}

func newFakeConn(responses ...string) *fakeConn {
	readers := make([]io.Reader, len(responses))
	for i, r := range responses {
		readers[i] = bytes.NewReader([]byte(r))
	}
	return &fakeConn{reads: readers}
}

func (c *fakeConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readIdx >= len(c.reads) {
		return 0, io.EOF
	}
	n, err := c.reads[c.readIdx].Read(p)
	if err == io.EOF {
		c.readIdx++
		if n > 0 {
			return n, nil
		}
		return c.Read(p)
	}
	return n, err
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.written.Write(p)
	return len(p), nil
}

func (c *fakeConn) writtenString() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.written.String()
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) LocalAddr() net.Addr                { return fakeAddr("local") }
func (c *fakeConn) RemoteAddr() net.Addr               { return fakeAddr("remote") }
func (c *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

var _ net.Conn = (*fakeConn)(nil)

// fakeResolver always resolves to the same fixed set of IPs, regardless of
// the host asked for — tests care about round-robin and pooling, not DNS.
type fakeResolver struct {
	ips []net.IP
	err error
}

func (f *fakeResolver) ResolveA(ctx context.Context, host string) (resolver.Result, error) {
	if f.err != nil {
		return resolver.Result{}, f.err
	}
	return resolver.Result{IPs: f.ips}, nil
}

var _ resolver.Resolver = (*fakeResolver)(nil)

// fakeDialer keeps a queue of pre-built fakeConns per peer address and
// hands them out in the order Dial is called for that address, or
// errDialRefused once that address's queue runs out.
type fakeDialer struct {
	mu    sync.Mutex
	byKey map[string][]*fakeConn
}

var errDialRefused = errors.New("fake: connection refused")

func newFakeDialer() *fakeDialer {
	return &fakeDialer{byKey: make(map[string][]*fakeConn)}
}

func (d *fakeDialer) script(addr string, conns ...*fakeConn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byKey[addr] = append(d.byKey[addr], conns...)
}

func (d *fakeDialer) Dial(ctx context.Context, addr string, timeout time.Duration, settings transport.Settings) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	queue := d.byKey[addr]
	if len(queue) == 0 {
		return nil, errDialRefused
	}
	c := queue[0]
	d.byKey[addr] = queue[1:]
	return c, nil
}

var _ transport.Dialer = (*fakeDialer)(nil)

// noopTLSWrapper is never exercised by the non-TLS test scenarios; it
// exists only so Engine construction always has a non-nil TLSWrapper.
type noopTLSWrapper struct{}

func (noopTLSWrapper) Wrap(ctx context.Context, conn net.Conn, host string, cfg *tls.Config) (net.Conn, error) {
	return conn, nil
}

var _ transport.TLSWrapper = noopTLSWrapper{}
