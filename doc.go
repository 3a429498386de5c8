// Package ipcstream is a bidirectional byte stream between two processes on
// the same host over a local (AF_UNIX) stream socket. One side opens as a
// Receiver, binds a name and accepts exactly one peer; the other opens as a
// Sender and connects to it. The name lives either on the filesystem or in
// the Linux abstract namespace.
//
// A pair needs only a few lines:
//
//	recv, err := ipcstream.Listen(ctx, "/run/app/stream.sock")
//	...
//	send, err := ipcstream.Dial(ctx, "/run/app/stream.sock")
//	send.Write([]byte{1, 2, 3})
//
// Read blocks until data arrives. Interrupt or Close from any goroutine
// makes a blocked Read return ErrClosed; Close also releases the socket and,
// on the Receiver, removes the socket file. IsOK reports whether the
// channel is still usable.
//
// A Channel is a transport.Transport, so the middleware package can wrap it
// with logging, telemetry and monitor taps. The config package and
// LoadConfig read channel settings from TOML with hot reload.
package ipcstream
