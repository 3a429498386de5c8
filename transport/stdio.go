package transport

import (
	"io"
	"os"
)

// Stdio returns a Transport backed by os.Stdin and os.Stdout. Closing it
// closes stdout only, so a goroutine still blocked on stdin is left alone.
func Stdio() Transport {
	return &stdioTransport{in: os.Stdin, out: os.Stdout}
}

type stdioTransport struct {
	in  io.Reader
	out io.WriteCloser
}

func (s *stdioTransport) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *stdioTransport) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s *stdioTransport) Close() error                { return s.out.Close() }
