package socktable

import (
	"net"
	"testing"

	"github.com/alisle/zerotrust-track/internal/model"
)

func TestParseHexAddr(t *testing.T) {
	ip, port, ok := parseHexAddr("669010AC:0016")
	if !ok {
		t.Fatalf("expected successful parse")
	}
	if !ip.Equal(net.ParseIP("172.16.144.102")) {
		t.Fatalf("expected 172.16.144.102, got %s", ip)
	}
	if port != 22 {
		t.Fatalf("expected port 22, got %d", port)
	}
}

func TestParseHexAddrMissingColon(t *testing.T) {
	_, _, ok := parseHexAddr("669010AC")
	if ok {
		t.Fatalf("expected missing-colon address to be rejected")
	}
}

func TestParseLine(t *testing.T) {
	// A synthetic /proc/net/tcp row: local 172.16.144.102:22, remote
	// 172.16.144.1:54645, uid 0, inode 1227937.
	line := "   1: 669010AC:0016 019010AC:D575 01 00000000:00000000 00:00000000 00000000     0        0 1227937 1 0000000000000000 20 4 30 10 -1"

	row, ok, err := parseLine(line)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected row to parse")
	}
	if !row.LocalIP.Equal(net.ParseIP("172.16.144.102")) || row.LocalPort != 22 {
		t.Fatalf("unexpected local endpoint: %s:%d", row.LocalIP, row.LocalPort)
	}
	if !row.RemoteIP.Equal(net.ParseIP("172.16.144.1")) || row.RemotePort != 54645 {
		t.Fatalf("unexpected remote endpoint: %s:%d", row.RemoteIP, row.RemotePort)
	}
	if row.UID != 0 {
		t.Fatalf("expected uid 0, got %d", row.UID)
	}
	if row.Inode != 1227937 {
		t.Fatalf("expected inode 1227937, got %d", row.Inode)
	}
}

func TestLookupDualKeyed(t *testing.T) {
	row, ok, err := parseLine("   1: 669010AC:0016 019010AC:D575 01 00000000:00000000 00:00000000 00000000     0        0 1227937 1 0000000000000000 20 4 30 10 -1")
	if err != nil || !ok {
		t.Fatalf("setup: failed to parse row: %v", err)
	}

	tbl := &Table{rows: make(map[model.Endpoint]model.SocketRow)}
	local := model.NewEndpoint(row.LocalIP, row.LocalPort)
	remote := model.NewEndpoint(row.RemoteIP, row.RemotePort)
	tbl.rows[local] = row
	tbl.rows[remote] = row

	if _, ok := tbl.Lookup(row.LocalIP, row.LocalPort); !ok {
		t.Errorf("expected lookup by local endpoint to succeed")
	}
	if _, ok := tbl.Lookup(row.RemoteIP, row.RemotePort); !ok {
		t.Errorf("expected lookup by remote endpoint to succeed")
	}
}
