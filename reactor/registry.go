package reactor

import (
	"github.com/watt-toolkit/shockwave-engine/internal/ring"
)

// registry is the PoolRegistry of spec.md §3/§4.2: two global lists (idle,
// busy) threading through every live Connection, plus a peer -> per-address
// queue map. Every operation here runs only on the reactor goroutine, so
// none of it needs locks (spec.md §5).
type registry struct {
	idleList *ring.List[*conn]
	busyList *ring.List[*conn]
	byPeer   map[string]*ring.List[*conn]

	idleExpiredTotal uint64
	busyExpiredTotal uint64
}

func newRegistry() *registry {
	return &registry{
		idleList: ring.New[*conn](
			func(c *conn) *conn { return c.idleNext },
			func(c, v *conn) { c.idleNext = v },
			func(c *conn) *conn { return c.idlePrev },
			func(c, v *conn) { c.idlePrev = v },
		),
		busyList: ring.New[*conn](
			func(c *conn) *conn { return c.busyNext },
			func(c, v *conn) { c.busyNext = v },
			func(c *conn) *conn { return c.busyPrev },
			func(c, v *conn) { c.busyPrev = v },
		),
		byPeer: make(map[string]*ring.List[*conn]),
	}
}

func newPerAddressQueue() *ring.List[*conn] {
	return ring.New[*conn](
		func(c *conn) *conn { return c.queueNext },
		func(c, v *conn) { c.queueNext = v },
		func(c *conn) *conn { return c.queuePrev },
		func(c, v *conn) { c.queuePrev = v },
	)
}

// tryTakeIdle implements spec.md §4.2: look up peer's queue, remove from
// its tail (hot connections preferred, cold ones age into expiry), remove
// the same node from idleList, and delete the map entry if the queue is
// now empty. Returns nil on miss.
func (r *registry) tryTakeIdle(peer Peer) *conn {
	key := peer.Key()
	q, ok := r.byPeer[key]
	if !ok {
		return nil
	}

	c := q.PopBack()
	if c == nil {
		return nil
	}

	r.idleList.Remove(c)
	if q.Len() == 0 {
		delete(r.byPeer, key)
	}

	c.state = stateBusy
	c.touch()
	r.busyList.PushBack(c)
	return c
}

// returnToIdle implements spec.md §4.2: asserts Busy on entry, moves c from
// busyList into its peer's per-address queue (creating the queue if
// needed) and the tail of idleList, stamps lastActivity, and transitions
// to Idle.
func (r *registry) returnToIdle(c *conn) {
	if c.state != stateBusy {
		panic("reactor: returnToIdle called on a connection that is not Busy")
	}

	r.busyList.Remove(c)

	key := c.peer.Key()
	q, ok := r.byPeer[key]
	if !ok {
		q = newPerAddressQueue()
		r.byPeer[key] = q
	}
	q.PushBack(c)
	r.idleList.PushBack(c)

	c.state = stateIdle
	c.touch()
}

// registerNewBusy adds a freshly dialed connection to busyList. The caller
// (the dispatcher) is responsible for ensuring the sweeper is scheduled
// afterward.
func (r *registry) registerNewBusy(c *conn) {
	c.state = stateBusy
	r.busyList.PushBack(c)
}

// evict removes c from whatever list holds it (a no-op if already Closed)
// and marks it Closed. It does not close the underlying socket — callers
// combine evict with netConn.Close() via conn teardown in engine.go.
func (r *registry) evict(c *conn) {
	switch c.state {
	case stateIdle:
		r.idleList.Remove(c)
		if q, ok := r.byPeer[c.peer.Key()]; ok {
			q.Remove(c)
			if q.Len() == 0 {
				delete(r.byPeer, c.peer.Key())
			}
		}
	case stateBusy:
		r.busyList.Remove(c)
	case stateClosed:
		return
	}
	c.state = stateClosed
}

// liveCount is the total number of Idle + Busy connections, used by the
// sweeper's scheduling invariant and the lifecycle controller's shutdown
// check.
func (r *registry) liveCount() int {
	return r.idleList.Len() + r.busyList.Len()
}
