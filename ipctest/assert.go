package ipctest

import (
	"errors"
	"io"
	"testing"
	"time"
)

// ReturnsWithin runs fn and fails the test if it has not returned after d.
// fn keeps running in the background in that case.
func ReturnsWithin(t testing.TB, d time.Duration, what string, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("%s did not return within %s", what, d)
	}
}

// ReadFull reads exactly n bytes from r, failing the test on error or if
// the bytes do not arrive within d.
func ReadFull(t testing.TB, r io.Reader, n int, d time.Duration) []byte {
	t.Helper()
	buf := make([]byte, n)
	var err error
	ReturnsWithin(t, d, "ReadFull", func() {
		_, err = io.ReadFull(r, buf)
	})
	if err != nil {
		t.Fatalf("reading %d bytes: %v", n, err)
	}
	return buf
}

// AssertErrorIs fails the test unless errors.Is(err, target).
func AssertErrorIs(t testing.TB, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("error = %v, want it to match %v", err, target)
	}
}

// Eventually polls cond until it holds or d has passed.
func Eventually(t testing.TB, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %s waiting for %s", d, what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
