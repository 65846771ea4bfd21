package reactor

import (
	"bufio"
	"net"
	"time"
)

// connState mirrors spec.md §3's Connection.state.
type connState int8

const (
	stateBusy connState = iota
	stateIdle
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateBusy:
		return "busy"
	case stateIdle:
		return "idle"
	default:
		return "closed"
	}
}

// conn is one pooled socket. All fields are touched only from the reactor
// goroutine — spec.md §3's "mutated only by the owning reactor thread".
//
// The three link-pair fields below give conn simultaneous membership in up
// to three intrusive lists (the global idle list, the global busy list, and
// its peer's per-address queue) without any extra allocation per list per
// membership, per spec.md §9's "three such index pairs per Connection cover
// all memberships" design note.
type conn struct {
	id      uint64
	peer    Peer
	netConn net.Conn
	br      *bufio.Reader

	state        connState
	lastActivity time.Time

	keepAliveCount       int
	maxKeepAliveRequests int // snapshot of cfg.MaxKeepAliveRequests at dial time; 0 = unlimited
	keepAliveTimeout     time.Duration // snapshot of cfg.KeepAliveTimeout at dial time

	engine *Engine

	// pendingTimeout, when non-nil, delivers a synthesized
	// engineerr.TimeoutError to the in-flight request's future. Set while
	// a send is outstanding on this connection and invoked by the sweeper
	// if the active deadline passes before the send's own goroutine
	// resumes on the reactor; guarded so whichever of the two fires first
	// is the only one that reaches the caller.
	pendingTimeout func()

	idlePrev, idleNext   *conn
	busyPrev, busyNext   *conn
	queuePrev, queueNext *conn
}

// touch stamps lastActivity with the reactor's monotonic clock. Called on
// pool transitions and I/O progress, per spec.md §3.
func (c *conn) touch() {
	c.lastActivity = c.engine.clock.now()
}
