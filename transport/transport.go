// Package transport defines the byte-stream abstraction shared by channels,
// middleware and the command-line bridge, plus the stdio and in-memory
// implementations used around an ipcstream.Channel.
package transport

import "io"

// Transport is a bidirectional, unframed byte stream. *ipcstream.Channel
// satisfies it, as do the stdio and memory transports in this package.
type Transport interface {
	io.ReadWriteCloser
}

// Join combines a separate reader and writer into one Transport. Close
// closes both, reader first, and reports the first error.
func Join(r io.ReadCloser, w io.WriteCloser) Transport {
	return &joined{r: r, w: w}
}

type joined struct {
	r io.ReadCloser
	w io.WriteCloser
}

func (j *joined) Read(p []byte) (int, error)  { return j.r.Read(p) }
func (j *joined) Write(p []byte) (int, error) { return j.w.Write(p) }
func (j *joined) Close() error {
	rerr := j.r.Close()
	if werr := j.w.Close(); rerr == nil {
		rerr = werr
	}
	return rerr
}
