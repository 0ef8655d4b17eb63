// Package socktable parses /proc/net/{tcp,udp} into a lookup table keyed
// by IPv4 endpoint, adapted from the teacher's procfs hex-address parser
// (internal/platform/linux_proc_net.go) but narrowed to IPv4 only (§1
// Non-goals) and dual-keyed under both the local and remote endpoint
// (§3 SocketTable invariant).
package socktable

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/alisle/zerotrust-track/internal/model"
)

// Table maps an Endpoint (whichever side of a connection is the local one)
// to the socket row that owns it. Last writer wins on key collisions,
// which is deliberate (§9 design note on shared endpoints).
type Table struct {
	rows map[model.Endpoint]model.SocketRow
	path string
}

// TCP returns a Table reader for /proc/net/tcp.
func TCP() *Table { return &Table{path: "/proc/net/tcp"} }

// UDP returns a Table reader for /proc/net/udp.
func UDP() *Table { return &Table{path: "/proc/net/udp"} }

// Update rereads the backing file in full and replaces the in-memory map.
// Refresh is pull-based: callers call Update immediately before each
// lookup attempt (§4.2) — there is no background timer.
func (t *Table) Update() error {
	f, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("socktable: open %s: %w", t.path, err)
	}
	defer f.Close()

	rows := make(map[model.Endpoint]model.SocketRow)
	scanner := bufio.NewScanner(f)

	if !scanner.Scan() {
		// Header line missing: empty but not an error.
		t.rows = rows
		return scanner.Err()
	}

	for scanner.Scan() {
		row, ok, err := parseLine(scanner.Text())
		if err != nil {
			return fmt.Errorf("socktable: parse %s: %w", t.path, err)
		}
		if !ok {
			continue
		}
		local := model.NewEndpoint(row.LocalIP, row.LocalPort)
		remote := model.NewEndpoint(row.RemoteIP, row.RemotePort)
		rows[local] = row
		rows[remote] = row
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("socktable: scan %s: %w", t.path, err)
	}

	t.rows = rows
	return nil
}

// Lookup finds the row indexed under the given endpoint. ok is false when
// no row is present for that endpoint.
func (t *Table) Lookup(ip net.IP, port uint16) (model.SocketRow, bool) {
	row, ok := t.rows[model.NewEndpoint(ip, port)]
	return row, ok
}

// parseLine parses one data row of /proc/net/{tcp,udp}. Columns (after
// whitespace splitting, empty tokens dropped): 1=local endpoint,
// 2=remote endpoint, 7=uid, 9=inode. A parse failure on a non-address
// column is fatal to the refresh (returned error); a missing colon in an
// address column means the row is skipped (ok=false, no error), per §4.2.
func parseLine(line string) (model.SocketRow, bool, error) {
	var row model.SocketRow

	fields := strings.Fields(line)
	if len(fields) < 10 {
		return row, false, nil
	}

	localIP, localPort, ok := parseHexAddr(fields[1])
	if !ok {
		return row, false, nil
	}
	remoteIP, remotePort, ok := parseHexAddr(fields[2])
	if !ok {
		return row, false, nil
	}

	uid, err := strconv.ParseUint(fields[7], 10, 16)
	if err != nil {
		return row, false, fmt.Errorf("parse uid column: %w", err)
	}
	inode, err := strconv.ParseUint(fields[9], 10, 32)
	if err != nil {
		return row, false, fmt.Errorf("parse inode column: %w", err)
	}

	row.LocalIP = localIP
	row.LocalPort = localPort
	row.RemoteIP = remoteIP
	row.RemotePort = remotePort
	row.UID = uint16(uid)
	row.Inode = uint32(inode)
	return row, true, nil
}

// parseHexAddr parses a /proc/net address of the form "HEXIP:HEXPORT".
// The IP is 8 hex chars encoding a little-endian uint32 (kernel-native
// order), byte-swapped to host order and reinterpreted as four octets;
// the port is 4 hex chars already in host byte order.
func parseHexAddr(s string) (net.IP, uint16, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return nil, 0, false
	}

	ipBytes, err := hex.DecodeString(parts[0])
	if err != nil || len(ipBytes) != 4 {
		return nil, 0, false
	}
	// The 4 bytes decode in kernel little-endian order; swapping them end
	// to end yields the dotted-form octets (leftmost = first octet).
	ip := net.IPv4(ipBytes[3], ipBytes[2], ipBytes[1], ipBytes[0]).To4()

	port, err := strconv.ParseUint(parts[1], 16, 16)
	if err != nil {
		return nil, 0, false
	}

	return ip, uint16(port), true
}
