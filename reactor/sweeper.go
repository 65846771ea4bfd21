package reactor

import "time"

// sweepInterval is the fixed cadence spec.md §4.3 mandates for the Expiry
// Sweeper.
const sweepInterval = 1000 * time.Millisecond

// sweeper is the single self-rescheduling timer of spec.md §4.3. It never
// runs its own walk directly off the time.AfterFunc goroutine — fire posts
// a closure onto the engine's mailbox so the walk (and every eviction it
// triggers) happens on the one reactor goroutine, same as everything else.
type sweeper struct {
	engine *Engine
	timer  *time.Timer
}

func newSweeper(e *Engine) *sweeper {
	return &sweeper{engine: e}
}

// ensureScheduled arms the timer if it isn't already running. Per spec.md
// §4.3's invariant, this is called whenever a connection is added to either
// the idle or busy list, and is a no-op if a timer is already pending.
func (s *sweeper) ensureScheduled() {
	if s.timer != nil {
		return
	}
	s.timer = time.AfterFunc(sweepInterval, s.fire)
}

// fire runs on its own goroutine (time.AfterFunc's contract) and must not
// touch any reactor-owned state directly; it only posts.
func (s *sweeper) fire() {
	s.engine.post(func() {
		s.timer = nil
		s.sweep()
		if s.engine.registry.liveCount() > 0 {
			s.ensureScheduled()
		}
	})
}

// sweep performs the two-phase walk of spec.md §4.3. Runs only on the
// reactor goroutine (called from inside an engine.post closure, or directly
// from tests that drive the reactor synchronously).
func (s *sweeper) sweep() {
	now := s.engine.clock.now()
	s.sweepIdle(now)
	s.sweepBusy(now)
}

// sweepIdle walks the idle list from its front (oldest lastActivity) and
// evicts while the keep-alive deadline has passed, stopping at the first
// connection still within its window — idleList is kept in insertion
// order by returnToIdle, and every idle connection shares the same
// KeepAliveTimeout snapshot, so the front is always the next-to-expire.
func (s *sweeper) sweepIdle(now time.Time) {
	for {
		c := s.engine.registry.idleList.Front()
		if c == nil {
			return
		}
		if c.keepAliveTimeout <= 0 {
			return
		}
		if now.Before(c.lastActivity.Add(c.keepAliveTimeout)) {
			return
		}
		s.engine.registry.evict(c)
		s.engine.registry.idleExpiredTotal++
		s.engine.insp.OnIdleExpired(c.peer.Addr())
		s.engine.closeEvicted(c)
	}
}

// sweepBusy walks the entire busy list — unlike idle connections, a busy
// connection's lastActivity is stamped again when its response head
// arrives while it keeps its place in the list, so the list is not kept
// in deadline order and needs a full scan. The active deadline
// switches to the shutdown-drain timeout once the engine is shutting down,
// per spec.md §4.5.
func (s *sweeper) sweepBusy(now time.Time) {
	deadline := s.engine.cfg.ReadWriteTimeout
	if s.engine.shuttingDown {
		deadline = s.engine.cfg.ShutdownRWTimeout
	}
	if deadline <= 0 {
		return
	}

	var toEvict []*conn
	for c := s.engine.registry.busyList.Front(); c != nil; c = c.busyNext {
		if !now.Before(c.lastActivity.Add(deadline)) {
			toEvict = append(toEvict, c)
		}
	}
	for _, c := range toEvict {
		hook := c.pendingTimeout
		c.pendingTimeout = nil
		s.engine.registry.evict(c)
		s.engine.registry.busyExpiredTotal++
		s.engine.insp.OnBusyExpired(c.peer.Addr())
		s.engine.closeEvicted(c)
		if hook != nil {
			hook()
		}
	}
}
