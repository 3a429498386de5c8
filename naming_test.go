package ipcstream_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/gossip-lsp/ipcstream"
	"github.com/gossip-lsp/ipcstream/unixsock"
)

func TestParseContact(t *testing.T) {
	tests := []struct {
		in      string
		want    ipcstream.Contact
		wantErr bool
	}{
		{"localhost:10002", ipcstream.Contact{Host: "localhost", Port: 10002}, false},
		{"[::1]:80", ipcstream.Contact{Host: "::1", Port: 80}, false},
		{"localhost", ipcstream.Contact{}, true},
		{"localhost:http", ipcstream.Contact{}, true},
		{"localhost:0", ipcstream.Contact{}, true},
		{"localhost:70000", ipcstream.Contact{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ipcstream.ParseContact(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseContact(%q) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseContact(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPairNameAgreesAcrossRoles(t *testing.T) {
	recvSide := ipcstream.Contact{Host: "node1", Port: 10002}
	sendSide := ipcstream.Contact{Host: "node1", Port: 10005}
	want := filepath.Join("/run/app", "ipcstream-10002_10005.sock")

	asReceiver, err := ipcstream.PairName("/run/app", unixsock.Filesystem, ipcstream.Receiver, recvSide, sendSide)
	if err != nil {
		t.Fatal(err)
	}
	asSender, err := ipcstream.PairName("/run/app", unixsock.Filesystem, ipcstream.Sender, sendSide, recvSide)
	if err != nil {
		t.Fatal(err)
	}
	if asReceiver != want || asSender != want {
		t.Errorf("names = %q / %q, want %q for both", asReceiver, asSender, want)
	}

	abstract, err := ipcstream.PairName("/ignored", unixsock.Abstract, ipcstream.Sender, sendSide, recvSide)
	if err != nil {
		t.Fatal(err)
	}
	if abstract != "ipcstream-10002_10005.sock" {
		t.Errorf("abstract name = %q", abstract)
	}
}

func TestSocketPathForDefaultDir(t *testing.T) {
	got := ipcstream.SocketPathFor("", ipcstream.Contact{Port: 1}, ipcstream.Contact{Port: 2})
	if want := filepath.Join(ipcstream.DefaultSocketDir, "ipcstream-1_2.sock"); got != want {
		t.Errorf("SocketPathFor() = %q, want %q", got, want)
	}
}

func TestPairNameRejectsDifferentHosts(t *testing.T) {
	_, err := ipcstream.PairName("", unixsock.Filesystem, ipcstream.Sender,
		ipcstream.Contact{Host: "node1", Port: 1}, ipcstream.Contact{Host: "node2", Port: 2})
	if !errors.Is(err, ipcstream.ErrDifferentHosts) {
		t.Errorf("PairName() error = %v, want ErrDifferentHosts", err)
	}
	if err := ipcstream.SameHost(ipcstream.Contact{Host: "Node1"}, ipcstream.Contact{Host: "node1"}); err != nil {
		t.Errorf("SameHost() is case sensitive: %v", err)
	}
}
