package ipcstream

import (
	"sync"

	"github.com/gossip-lsp/ipcstream/unixsock"
)

// phase is the open/close axis of a channel's state.
//
//	Idle -> Opening -> Open -> Interrupting -> Closed
//	           |         \__________________/^
//	           \___________________________/
//
// Interrupting counts as closed: no new I/O starts once it is entered.
type phase uint8

const (
	phaseIdle phase = iota
	phaseOpening
	phaseOpen
	phaseInterrupting
	phaseClosed
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseOpening:
		return "opening"
	case phaseOpen:
		return "open"
	case phaseInterrupting:
		return "interrupting"
	case phaseClosed:
		return "closed"
	}
	return "unknown"
}

// lifecycle is the channel's state machine. The health axis is the faulted
// flag, which only ever goes from false to true. Every method holds mu for
// the flag check-and-set only; no socket call is made under it apart from
// signalling the eventfd waker, which never blocks.
type lifecycle struct {
	mu   sync.Mutex
	cond sync.Cond

	phase    phase
	faulted  bool
	inflight int

	role  Role
	conn  roleConn
	waker *unixsock.Waker
}

func (l *lifecycle) init() { l.cond.L = &l.mu }

// beginOpen moves Idle to Opening and records the waker that an abort
// signals.
func (l *lifecycle) beginOpen(role Role, w *unixsock.Waker) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.phase {
	case phaseIdle:
	case phaseClosed, phaseInterrupting:
		return ErrClosed
	default:
		return ErrAlreadyOpen
	}
	l.phase = phaseOpening
	l.role = role
	l.waker = w
	return nil
}

// commitOpen activates the connection. It returns false if the open was
// aborted in the meantime; the caller then still owns conn and the waker.
func (l *lifecycle) commitOpen(conn roleConn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != phaseOpening {
		return false
	}
	l.phase = phaseOpen
	l.conn = conn
	return true
}

// failOpen leaves the channel unusable after a failed or aborted open. The
// caller owns the waker.
func (l *lifecycle) failOpen() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.phase = phaseClosed
	l.faulted = true
	l.waker = nil
	l.cond.Broadcast()
}

// abortOpen releases an Open that is still establishing the connection.
func (l *lifecycle) abortOpen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != phaseOpening {
		return false
	}
	l.phase = phaseClosed
	l.faulted = true
	_ = l.waker.Wake()
	return true
}

// aborted reports whether an in-progress open has been cancelled.
func (l *lifecycle) aborted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase != phaseOpening
}

// beginInterrupt decides whether the caller performs the unblock sequence.
// Exactly one caller gets actor == true; callers arriving while it runs
// block until endInterrupt. Anything else is a no-op.
func (l *lifecycle) beginInterrupt() (w *unixsock.Waker, actor bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.phase == phaseOpen && !l.faulted:
		l.phase = phaseInterrupting
		return l.waker, true
	case l.phase == phaseInterrupting:
		for l.phase == phaseInterrupting {
			l.cond.Wait()
		}
	}
	return nil, false
}

// endInterrupt finishes the actor's sequence and releases waiters.
func (l *lifecycle) endInterrupt() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.phase = phaseClosed
	l.cond.Broadcast()
}

// closing marks the channel closed and faulted, waits out an interrupt
// actor, and hands the descriptors to the caller. The waker is signalled so
// that every in-flight read returns. ok is false when there is nothing left
// to release. A channel that was never opened is left untouched.
func (l *lifecycle) closing() (conn roleConn, w *unixsock.Waker, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase == phaseIdle {
		return nil, nil, false
	}
	l.faulted = true
	for l.phase == phaseInterrupting {
		l.cond.Wait()
	}
	if l.phase == phaseOpening {
		_ = l.waker.Wake()
	}
	l.phase = phaseClosed
	if l.conn == nil {
		return nil, nil, false
	}
	conn, w = l.conn, l.waker
	l.conn, l.waker = nil, nil
	_ = w.Wake()
	l.cond.Broadcast()
	return conn, w, true
}

// acquire registers an I/O call. It fails unless the channel is open and
// healthy. Every successful acquire must be paired with release.
func (l *lifecycle) acquire() (*unixsock.Socket, *unixsock.Waker, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase != phaseOpen || l.faulted || l.conn == nil {
		return nil, nil, false
	}
	l.inflight++
	return l.conn.socket(), l.waker, true
}

func (l *lifecycle) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inflight--
	if l.inflight == 0 {
		l.cond.Broadcast()
	}
}

// drain waits until no I/O call holds the descriptors.
func (l *lifecycle) drain() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.inflight > 0 {
		l.cond.Wait()
	}
}

func (l *lifecycle) fault() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.faulted = true
}

// healthy is the liveness flag: set by a successful open, cleared for good
// by the first fault or close.
func (l *lifecycle) healthy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.faulted && l.phase >= phaseOpen
}

func (l *lifecycle) closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase >= phaseInterrupting
}

func (l *lifecycle) currentRole() Role {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.role
}

func (l *lifecycle) snapshot() (phase, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase, l.faulted
}
