//go:build linux

package ipcstream

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gossip-lsp/ipcstream/unixsock"
)

type fakeConn struct{ released atomic.Int32 }

func (f *fakeConn) role() Role               { return Sender }
func (f *fakeConn) socket() *unixsock.Socket { return nil }
func (f *fakeConn) release() error           { f.released.Add(1); return nil }

func newWaker(t *testing.T) *unixsock.Waker {
	t.Helper()
	w, err := unixsock.NewWaker()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

// openLifecycle returns a lifecycle that has gone through a successful open.
func openLifecycle(t *testing.T) (*lifecycle, *fakeConn, *unixsock.Waker) {
	t.Helper()
	l := &lifecycle{}
	l.init()
	w := newWaker(t)
	if err := l.beginOpen(Sender, w); err != nil {
		t.Fatal(err)
	}
	conn := &fakeConn{}
	if !l.commitOpen(conn) {
		t.Fatal("commitOpen returned false")
	}
	return l, conn, w
}

func TestBeginOpenOnce(t *testing.T) {
	l := &lifecycle{}
	l.init()
	w := newWaker(t)

	if err := l.beginOpen(Receiver, w); err != nil {
		t.Fatalf("first beginOpen: %v", err)
	}
	if err := l.beginOpen(Receiver, w); !errors.Is(err, ErrAlreadyOpen) {
		t.Errorf("second beginOpen = %v, want ErrAlreadyOpen", err)
	}
	l.failOpen()
	if err := l.beginOpen(Receiver, w); !errors.Is(err, ErrClosed) {
		t.Errorf("beginOpen after failed open = %v, want ErrClosed", err)
	}
}

func TestAbortOpen(t *testing.T) {
	l := &lifecycle{}
	l.init()
	w := newWaker(t)
	if err := l.beginOpen(Receiver, w); err != nil {
		t.Fatal(err)
	}
	if l.aborted() {
		t.Fatal("aborted before abortOpen")
	}

	if !l.abortOpen() {
		t.Fatal("abortOpen returned false while opening")
	}
	if !w.Woken() {
		t.Error("abortOpen did not signal the waker")
	}
	if !l.aborted() {
		t.Error("aborted() = false after abortOpen")
	}
	if l.commitOpen(&fakeConn{}) {
		t.Error("commitOpen succeeded after abortOpen")
	}
	if l.abortOpen() {
		t.Error("second abortOpen returned true")
	}
}

func TestHealthIsMonotonic(t *testing.T) {
	l := &lifecycle{}
	l.init()
	if l.healthy() {
		t.Fatal("healthy before open")
	}

	w := newWaker(t)
	l.beginOpen(Sender, w)
	if l.healthy() {
		t.Fatal("healthy while opening")
	}
	l.commitOpen(&fakeConn{})
	if !l.healthy() {
		t.Fatal("not healthy after open")
	}

	l.fault()
	if l.healthy() {
		t.Fatal("healthy after fault")
	}
	if _, actor := l.beginInterrupt(); actor {
		t.Error("interrupt actor chosen on a faulted channel")
	}
	if _, _, ok := l.acquire(); ok {
		t.Error("acquire succeeded on a faulted channel")
	}
	l.closing()
	if l.healthy() {
		t.Error("healthy after closing")
	}
}

func TestInterruptKeepsHealth(t *testing.T) {
	l, _, w := openLifecycle(t)

	got, actor := l.beginInterrupt()
	if !actor || got != w {
		t.Fatalf("beginInterrupt = %v, %t; want the waker and actor", got, actor)
	}
	if !l.closed() {
		t.Error("closed() = false while interrupting")
	}
	l.endInterrupt()

	if !l.healthy() {
		t.Error("interrupt alone cleared the health flag")
	}
	if _, _, ok := l.acquire(); ok {
		t.Error("acquire succeeded after interrupt")
	}
	if _, actor := l.beginInterrupt(); actor {
		t.Error("second interrupt chose another actor")
	}
}

func TestInterruptSingleActor(t *testing.T) {
	l, _, _ := openLifecycle(t)

	var (
		actors   atomic.Int32
		finished atomic.Bool
		early    atomic.Int32
		wg       sync.WaitGroup
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, actor := l.beginInterrupt()
			if !actor {
				if !finished.Load() {
					early.Add(1)
				}
				return
			}
			actors.Add(1)
			time.Sleep(20 * time.Millisecond)
			finished.Store(true)
			l.endInterrupt()
		}()
	}
	wg.Wait()

	if n := actors.Load(); n != 1 {
		t.Errorf("%d interrupt actors, want 1", n)
	}
	if n := early.Load(); n != 0 {
		t.Errorf("%d callers returned before the actor finished", n)
	}
}

func TestClosingReleasesOnce(t *testing.T) {
	l, conn, w := openLifecycle(t)

	got, gotW, ok := l.closing()
	if !ok || got != conn || gotW != w {
		t.Fatalf("first closing = %v, %v, %t", got, gotW, ok)
	}
	if !w.Woken() {
		t.Error("closing did not signal the waker")
	}
	if _, _, ok := l.closing(); ok {
		t.Error("second closing handed out the connection again")
	}
	if p, faulted := l.snapshot(); p != phaseClosed || !faulted {
		t.Errorf("state after closing = %s faulted=%t", p, faulted)
	}
}

func TestDrainWaitsForInflight(t *testing.T) {
	l, _, _ := openLifecycle(t)

	if _, _, ok := l.acquire(); !ok {
		t.Fatal("acquire failed on an open channel")
	}
	l.closing()

	drained := make(chan struct{})
	go func() {
		l.drain()
		close(drained)
	}()
	select {
	case <-drained:
		t.Fatal("drain returned with a call in flight")
	case <-time.After(20 * time.Millisecond):
	}

	l.release()
	select {
	case <-drained:
	case <-time.After(time.Second):
		t.Fatal("drain did not return after release")
	}
}
