// Package transport defines the socket factory and TLS wrapper
// collaborators spec.md §6 specifies only at their interface: connect(addr,
// timeout_ms, settings) -> future<socket> and wrap_client(socket, host,
// port, context, executor) -> socket. Grounded on the teacher's
// shockwave/pkg/shockwave/client/pool.go createConnection, which dials with
// a configured net.Dialer and optionally upgrades via tls.DialWithDialer;
// here the dial and the TLS wrap are split into two steps so the
// dispatcher can report a plain dial failure as a ConnectError and a
// handshake failure as a TlsError independently (spec §4.4 steps 7-8, §7).
package transport

import (
	"context"
	"crypto/tls"
	"net"
	"time"
)

// Settings are opaque TCP parameters forwarded to the dialer. Only the
// fields the reactor's default Dialer understands are interpreted; a
// custom Dialer implementation may read its own out-of-band configuration
// instead and ignore this type entirely.
type Settings struct {
	KeepAlive    time.Duration
	NoDelay      bool
	LocalAddr    net.Addr
}

// Dialer opens a plain TCP socket to addr, bounded by timeout.
type Dialer interface {
	Dial(ctx context.Context, addr string, timeout time.Duration, settings Settings) (net.Conn, error)
}

// TLSWrapper upgrades a plain socket to TLS using host as the SNI name.
type TLSWrapper interface {
	Wrap(ctx context.Context, conn net.Conn, host string, cfg *tls.Config) (net.Conn, error)
}

// DefaultDialer is a net.Dialer-backed Dialer.
type DefaultDialer struct{}

// Dial implements Dialer.
func (DefaultDialer) Dial(ctx context.Context, addr string, timeout time.Duration, settings Settings) (net.Conn, error) {
	d := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: settings.KeepAlive,
		LocalAddr: settings.LocalAddr,
	}

	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if settings.NoDelay {
		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
	}

	return conn, nil
}

// DefaultTLSWrapper performs a client-side TLS handshake over an existing
// socket using crypto/tls.
type DefaultTLSWrapper struct{}

// Wrap implements TLSWrapper.
func (DefaultTLSWrapper) Wrap(ctx context.Context, conn net.Conn, host string, cfg *tls.Config) (net.Conn, error) {
	cloned := cfg.Clone()
	if cloned.ServerName == "" {
		cloned.ServerName = host
	}

	tlsConn := tls.Client(conn, cloned)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		return nil, err
	}

	return tlsConn, nil
}
