// Package reactor implements the single-threaded cooperative core of
// spec.md: the connection pool, the expiry sweeper, and the round-robin
// dispatcher, all mutated from exactly one goroutine (REDESIGN FLAG 1 in
// SPEC_FULL.md). Every exported entry point is safe to call from any
// goroutine — it hands work to the reactor goroutine through a mailbox
// channel of closures and waits for a result, the same "forward
// cross-thread calls through a bounded mailbox" idiom spec.md §5
// recommends for host integrations that are not themselves single
// threaded.
package reactor

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"

	"github.com/watt-toolkit/shockwave-engine/config"
	"github.com/watt-toolkit/shockwave-engine/engineerr"
	"github.com/watt-toolkit/shockwave-engine/inspector"
	"github.com/watt-toolkit/shockwave-engine/resolver"
	"github.com/watt-toolkit/shockwave-engine/transport"
	"github.com/watt-toolkit/shockwave-engine/wire"
)

// Engine is the dispatcher, pool registry, and lifecycle controller
// described across spec.md §3-5, bundled the way the teacher bundles a
// connection pool and its client into one handle (shockwave/client.Client).
type Engine struct {
	cfg      config.Config
	resolver resolver.Resolver
	dialer   transport.Dialer
	tlsWrap  transport.TLSWrapper
	insp     inspector.Inspector
	clock    clockSource

	registry *registry
	sweeper  *sweeper

	cursor     uint32
	nextConnID uint64

	mailbox chan func()

	shuttingDown bool
	drainDone    chan struct{}
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithResolver overrides the default net.Resolver-backed implementation.
func WithResolver(r resolver.Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

// WithDialer overrides the default net.Dialer-backed implementation.
func WithDialer(d transport.Dialer) Option {
	return func(e *Engine) { e.dialer = d }
}

// WithTLSWrapper overrides the default crypto/tls-backed implementation.
func WithTLSWrapper(t transport.TLSWrapper) Option {
	return func(e *Engine) { e.tlsWrap = t }
}

// WithInspector attaches an observer chain. Defaults to inspector.NopInspector{}.
func WithInspector(i inspector.Inspector) Option {
	return func(e *Engine) { e.insp = i }
}

// withClock is unexported: only tests substitute a fake clock.
func withClock(c clockSource) Option {
	return func(e *Engine) { e.clock = c }
}

// New builds an Engine. Call Start before issuing any Do calls.
func New(cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:     cfg,
		insp:    inspector.NopInspector{},
		clock:   systemClock{},
		mailbox: make(chan func(), 64),
	}
	e.registry = newRegistry()
	e.sweeper = newSweeper(e)
	for _, opt := range opts {
		opt(e)
	}
	if e.resolver == nil {
		e.resolver = resolver.NewDefault()
	}
	if e.dialer == nil {
		e.dialer = transport.DefaultDialer{}
	}
	if e.tlsWrap == nil {
		e.tlsWrap = transport.DefaultTLSWrapper{}
	}
	return e
}

// Start launches the reactor goroutine. Safe to call once per Engine.
func (e *Engine) Start() {
	go e.loop()
}

func (e *Engine) loop() {
	for fn := range e.mailbox {
		fn()
	}
}

// post hands fn to the reactor goroutine and returns immediately. fn must
// not block — any suspending work (DNS, dial, TLS, socket I/O) belongs in
// a throwaway goroutine that posts a continuation back.
func (e *Engine) post(fn func()) {
	e.mailbox <- fn
}

// Do runs the 9-step dispatch algorithm of spec.md §4.4 for req and blocks
// until a response arrives, ctx is done, or the engine is shutting down.
func (e *Engine) Do(ctx context.Context, req *wire.Request) (*wire.Response, error) {
	type outcome struct {
		resp *wire.Response
		err  error
	}
	out := make(chan outcome, 1)
	e.post(func() {
		e.dispatch(ctx, req, false, func(resp *wire.Response, err error) {
			out <- outcome{resp, err}
		})
	})
	select {
	case o := <-out:
		return o.resp, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// dispatch is steps 1-3 of spec.md §4.4: emit on_request, extract the
// target host, and kick off resolution. Runs only on the reactor goroutine.
func (e *Engine) dispatch(ctx context.Context, req *wire.Request, retried bool, cb func(*wire.Response, error)) {
	if e.shuttingDown {
		cb(nil, engineerr.ErrShuttingDown)
		return
	}
	if !retried {
		e.insp.OnRequest(req.Method, req.URL.String())
	}

	host := req.URL.Hostname()
	if host == "" {
		cb(nil, engineerr.ErrNoResolvableHost)
		return
	}
	scheme := req.URL.Scheme
	port := req.URL.Port()
	if port == "" {
		if scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}
	if scheme == "https" && e.cfg.TLSConfig == nil {
		cb(nil, engineerr.ErrMissingTLSContext)
		return
	}

	go func() {
		res, resolveErr := e.resolver.ResolveA(ctx, host)
		e.post(func() {
			e.onResolved(ctx, req, host, port, scheme, res, resolveErr, cb)
		})
	}()
}

// onResolved is step 4 (round-robin select) and step 5 (try_take_idle) of
// spec.md §4.4.
func (e *Engine) onResolved(ctx context.Context, req *wire.Request, host, port, scheme string, res resolver.Result, resolveErr error, cb func(*wire.Response, error)) {
	if resolveErr != nil {
		e.insp.OnResolveError(host, resolveErr)
		var dnsErr *net.DNSError
		if errors.As(resolveErr, &dnsErr) && dnsErr.IsNotFound {
			cb(nil, &engineerr.DNSQueryError{Host: host, Code: dnsErr.Err})
			return
		}
		cb(nil, &engineerr.ResolveError{Host: host, Err: resolveErr})
		return
	}
	if len(res.IPs) == 0 {
		cb(nil, engineerr.ErrNoResolvableHost)
		return
	}
	e.insp.OnResolve(host, res.IPs)

	idx := int(e.cursor % uint32(len(res.IPs)))
	e.cursor++
	portNum, _ := strconv.Atoi(port)
	peer := Peer{IP: res.IPs[idx], Port: portNum}

	if c := e.registry.tryTakeIdle(peer); c != nil {
		e.sendOnConn(ctx, c, req, true, cb)
		return
	}

	e.dialAndSend(ctx, peer, scheme, host, req, cb)
}

// dialAndSend is step 6 of spec.md §4.4: dial a fresh socket (and wrap TLS
// for https) on a throwaway goroutine, then resume on the reactor.
func (e *Engine) dialAndSend(ctx context.Context, peer Peer, scheme, host string, req *wire.Request, cb func(*wire.Response, error)) {
	go func() {
		netConn, dialErr := e.dialer.Dial(ctx, peer.Addr(), e.cfg.ConnectTimeout, e.cfg.SocketSettings)
		if dialErr == nil && scheme == "https" {
			var tlsErr error
			netConn, tlsErr = e.tlsWrap.Wrap(ctx, netConn, host, e.cfg.TLSConfig)
			if tlsErr != nil {
				e.post(func() {
					e.insp.OnConnectError(peer.Addr(), tlsErr)
					cb(nil, &engineerr.TLSError{Addr: peer.Addr(), Host: host, Err: tlsErr})
				})
				return
			}
		}
		e.post(func() {
			e.onDialed(ctx, peer, netConn, dialErr, req, cb)
		})
	}()
}

// onDialed registers the freshly dialed connection and proceeds to send.
func (e *Engine) onDialed(ctx context.Context, peer Peer, netConn net.Conn, dialErr error, req *wire.Request, cb func(*wire.Response, error)) {
	if dialErr != nil {
		e.insp.OnConnectError(peer.Addr(), dialErr)
		cb(nil, &engineerr.ConnectError{Addr: peer.Addr(), Err: dialErr})
		return
	}

	e.nextConnID++
	c := &conn{
		id:                   e.nextConnID,
		peer:                 peer,
		netConn:              netConn,
		br:                   wire.GetReader(netConn),
		maxKeepAliveRequests: e.cfg.MaxKeepAliveRequests,
		keepAliveTimeout:     e.cfg.KeepAliveTimeout,
		engine:               e,
	}
	c.touch()
	e.registry.registerNewBusy(c)
	e.sweeper.ensureScheduled()
	e.insp.OnConnect(peer.Addr())

	e.sendOnConn(ctx, c, req, false, cb)
}

// sendOnConn is step 7 of spec.md §4.4: write the request (including its
// body, if any) and read the response head on a throwaway goroutine
// (socket I/O suspends), then resume on the reactor for step 8 (recycle or
// close). The response body is not read here — spec.md §4.1 gives the
// Connection only sequencing responsibility, so draining and the resulting
// recycle/close decision are deferred to the caller closing resp.Body.
func (e *Engine) sendOnConn(ctx context.Context, c *conn, req *wire.Request, wasIdle bool, cb func(*wire.Response, error)) {
	var once sync.Once
	deliver := func(resp *wire.Response, err error) {
		once.Do(func() { cb(resp, err) })
	}

	c.pendingTimeout = func() {
		deliver(nil, &engineerr.TimeoutError{Kind: engineerr.ReadTimeout})
	}

	go func() {
		bw := wire.GetWriter(c.netConn)
		writeErr := wire.WriteRequest(bw, req)
		if writeErr == nil {
			writeErr = bw.Flush()
		}
		wire.PutWriter(bw)

		var resp *wire.Response
		var err error
		if writeErr != nil {
			err = writeErr
		} else {
			resp, err = wire.ReadResponse(c.br, req.Method)
		}

		e.post(func() {
			c.pendingTimeout = nil
			e.onResponse(ctx, c, req, resp, err, wasIdle, deliver)
		})
	}()
}

// onResponse is step 8 of spec.md §4.4 for the failure path, and prepares
// the body framing for the success path — the recycle-or-close decision
// itself happens in finishConn, once the caller has finished reading
// resp.Body. A failure on a connection taken from the idle pool is
// retried once transparently on a fresh connection, per spec.md's
// stale-idle-connection edge case — the peer may have closed the socket
// between keep-alive reuse and this request without the reactor having
// observed it yet.
func (e *Engine) onResponse(ctx context.Context, c *conn, req *wire.Request, resp *wire.Response, err error, wasIdle bool, cb func(*wire.Response, error)) {
	if err != nil {
		e.registry.evict(c)
		e.closeEvicted(c)
		e.insp.OnHTTPError(c.peer.Addr(), wasIdle, err)
		if wasIdle {
			e.dispatch(ctx, req, true, cb)
			return
		}
		cb(nil, err)
		return
	}

	e.insp.OnHTTPResponse(c.peer.Addr(), resp.StatusCode)
	c.touch()
	c.keepAliveCount++

	maxBodySize := e.cfg.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = config.DefaultMaxBodySize
	}

	framing, contentLength, ferr := wire.Framing(req.Method, resp, maxBodySize)
	if ferr != nil {
		e.registry.evict(c)
		e.closeEvicted(c)
		e.insp.OnHTTPError(c.peer.Addr(), false, ferr)
		cb(nil, ferr)
		return
	}

	recyclable := resp.KeepAlive && !req.CloseRequested
	if recyclable && c.maxKeepAliveRequests > 0 && c.keepAliveCount >= c.maxKeepAliveRequests {
		recyclable = false
	}
	if recyclable && c.keepAliveTimeout <= 0 {
		recyclable = false
	}

	body := wire.NewBodyReader(c.br, framing, contentLength, maxBodySize)
	resp.Body = &bodyCloser{r: body, engine: e, conn: c, recyclable: recyclable}

	cb(resp, nil)
}

// bodyCloser wraps a response body reader so that closing it — whether
// the caller drains it fully or abandons it early — is the single point
// where the connection is handed back to the pool or torn down. This
// keeps the dispatcher from recycling a socket while bytes the caller
// never read are still sitting unconsumed on the wire.
type bodyCloser struct {
	r          io.Reader
	engine     *Engine
	conn       *conn
	recyclable bool
	closed     bool
}

func (b *bodyCloser) Read(p []byte) (int, error) { return b.r.Read(p) }

func (b *bodyCloser) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true

	ok := b.recyclable
	if ok {
		if _, err := io.Copy(io.Discard, b.r); err != nil {
			ok = false
		}
	}

	b.engine.post(func() {
		b.engine.finishConn(b.conn, ok)
	})
	return nil
}

// finishConn runs on the reactor goroutine and performs the actual
// recycle-or-close decision deferred by onResponse. A connection is never
// recycled into the idle pool once the engine is draining — Stop's idle
// sweep already ran once and nothing re-walks the idle list afterward, so
// a connection recycled after that point would sit there forever and
// e.drainDone would never fire.
func (e *Engine) finishConn(c *conn, recyclable bool) {
	if c.state == stateClosed {
		return
	}
	if recyclable && !e.shuttingDown {
		e.registry.returnToIdle(c)
		e.sweeper.ensureScheduled()
	} else {
		e.registry.evict(c)
		e.closeEvicted(c)
	}
}

// closeEvicted tears down an already-evicted connection's socket and, if
// the engine is draining, checks whether the drain can now complete.
func (e *Engine) closeEvicted(c *conn) {
	_ = c.netConn.Close()
	if e.shuttingDown && e.drainDone != nil && e.registry.liveCount() == 0 {
		close(e.drainDone)
		e.drainDone = nil
	}
}

// Stop begins the shutdown drain of spec.md §4.5: idle connections close
// immediately, busy connections are given until cfg.ShutdownRWTimeout to
// finish (enforced by the sweeper, which switches to the shortened
// deadline once shuttingDown is set), and Stop returns once every
// connection is gone or ctx is done.
func (e *Engine) Stop(ctx context.Context) error {
	done := make(chan struct{})
	e.post(func() {
		e.shuttingDown = true

		for c := e.registry.idleList.Front(); c != nil; {
			next := c.idleNext
			e.registry.evict(c)
			e.closeEvicted(c)
			c = next
		}

		if e.registry.liveCount() == 0 {
			close(done)
			return
		}
		e.drainDone = done
		e.sweeper.ensureScheduled()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats is a point-in-time snapshot of pool occupancy and sweeper
// counters, mirroring shockwave/client.Client.Stats for CLI/metrics use.
type Stats struct {
	Idle         int
	Busy         int
	IdleExpired  uint64
	BusyExpired  uint64
}

// Stats returns a snapshot. Safe to call from any goroutine.
func (e *Engine) Stats() Stats {
	out := make(chan Stats, 1)
	e.post(func() {
		out <- Stats{
			Idle:        e.registry.idleList.Len(),
			Busy:        e.registry.busyList.Len(),
			IdleExpired: e.registry.idleExpiredTotal,
			BusyExpired: e.registry.busyExpiredTotal,
		}
	})
	return <-out
}
