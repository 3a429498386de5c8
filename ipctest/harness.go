// Package ipctest provides testing utilities for ipcstream channels. It
// hands out socket names that are safe to use in parallel tests and opens
// connected Receiver/Sender pairs that are torn down when the test ends.
package ipctest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/net/nettest"

	"github.com/gossip-lsp/ipcstream"
)

// OpenTimeout bounds how long NewPair waits for the two sides to connect.
var OpenTimeout = 5 * time.Second

var abstractSeq atomic.Uint64

// SkipUnlessSupported skips the test on platforms without AF_UNIX stream
// sockets.
func SkipUnlessSupported(t testing.TB) {
	t.Helper()
	if !nettest.TestableNetwork("unix") {
		t.Skip("unix sockets not supported on this platform")
	}
}

// SocketPath returns an unused filesystem socket path. Anything left at the
// path is removed when the test ends.
func SocketPath(t testing.TB) string {
	t.Helper()
	SkipUnlessSupported(t)
	path, err := nettest.LocalPath()
	if err != nil {
		t.Fatalf("allocating socket path: %v", err)
	}
	t.Cleanup(func() { os.Remove(path) })
	return path
}

// AbstractName returns a name for the abstract namespace that no other test
// in this or a concurrent process will use.
func AbstractName(t testing.TB) string {
	t.Helper()
	SkipUnlessSupported(t)
	base := strings.NewReplacer("/", "-", " ", "_").Replace(t.Name())
	name := fmt.Sprintf("ipctest-%d-%d-%s", os.Getpid(), abstractSeq.Add(1), base)
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

// Quiet is an option that discards the channel's log output.
func Quiet() ipcstream.Option {
	return ipcstream.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// NewPair opens a Receiver and a Sender on a fresh filesystem socket. Both
// channels are closed when the test ends. opts apply to both sides; their
// logs are discarded unless opts carries a logger.
func NewPair(t testing.TB, opts ...ipcstream.Option) (recv, send *ipcstream.Channel) {
	t.Helper()
	return NewPairAt(t, SocketPath(t), opts...)
}

// NewPairAt is NewPair on a caller-chosen name. Pass ipcstream.WithAbstract
// in opts for an abstract name.
func NewPairAt(t testing.TB, name string, opts ...ipcstream.Option) (recv, send *ipcstream.Channel) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), OpenTimeout)
	defer cancel()

	base := append([]ipcstream.Option{Quiet()}, opts...)
	recv = ipcstream.New(name, base...)
	opened := make(chan error, 1)
	go func() { opened <- recv.Open(ctx, ipcstream.Receiver) }()

	// The Receiver may not be listening yet; keep dialling until ctx ends.
	dialOpts := append([]ipcstream.Option{
		Quiet(),
		ipcstream.WithConnectRetry(int(OpenTimeout/(5*time.Millisecond)), 5*time.Millisecond),
	}, opts...)
	send, err := ipcstream.Dial(ctx, name, dialOpts...)
	if err != nil {
		recv.Close()
		<-opened
		t.Fatalf("dialling %s: %v", name, err)
	}
	if err := <-opened; err != nil {
		send.Close()
		t.Fatalf("listening on %s: %v", name, err)
	}

	t.Cleanup(func() {
		send.Close()
		recv.Close()
	})
	return recv, send
}
