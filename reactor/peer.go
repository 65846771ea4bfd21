package reactor

import (
	"net"
	"strconv"
)

// Peer is a fully resolved (ip, port) endpoint, the keep-alive cache key
// spec.md §3 describes. Two Peers with the same IP bytes and port are the
// same cache entry even if the net.IP representations differ structurally,
// which is why peer equality goes through the string form below rather
// than struct comparison (net.IP is a []byte, not comparable).
type Peer struct {
	IP   net.IP
	Port int
}

// Key returns a comparable, map-safe representation of the peer.
func (p Peer) Key() string {
	return net.JoinHostPort(p.IP.String(), strconv.Itoa(p.Port))
}

// String implements fmt.Stringer for logging/inspection.
func (p Peer) String() string { return p.Key() }

// Addr returns the "host:port" form transport.Dialer expects.
func (p Peer) Addr() string { return p.Key() }
