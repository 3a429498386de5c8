package ipctest

import (
	"os"
	"path/filepath"
	"testing"
)

// Payload returns n bytes of a repeating, non-zero pattern.
func Payload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i%251) + 1
	}
	return p
}

// WriteConfig writes a TOML config into a temporary directory and returns
// its path.
func WriteConfig(t testing.TB, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ipcstream.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
