// Package procindex maps socket inodes to owning processes by scanning
// /proc/<pid>/fd, following the teacher pack's inode-enumeration approach
// (ryawong47-sniffer/conn_linux.go's getProcInodes/listPids) adapted to
// build a pid index rather than a process-name cache.
package procindex

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"github.com/alisle/zerotrust-track/internal/model"
)

const socketFDPrefix = "socket:["

// Index maps a socket inode to the pid that currently holds it.
type Index struct {
	pids map[uint32]uint32
}

// New returns an empty Index; call Rebuild before first use.
func New() *Index {
	return &Index{pids: make(map[uint32]uint32)}
}

// Rebuild rescans every /proc/<pid> directory. Processes that disappear
// mid-scan are silently skipped (§4.3) — the pid's fd directory simply
// fails to open and that pid contributes nothing.
func (idx *Index) Rebuild() error {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return err
	}

	next := make(map[uint32]uint32)
	for _, e := range entries {
		pid, err := strconv.ParseUint(e.Name(), 10, 32)
		if err != nil {
			continue
		}
		for _, inode := range inodesForPID(uint32(pid)) {
			next[inode] = uint32(pid)
		}
	}
	idx.pids = next
	return nil
}

// Lookup returns the pid owning inode, rebuilding the index once and
// retrying on a miss (§4.3: "On lookup miss, the index is rebuilt once
// and retried").
func (idx *Index) Lookup(inode uint32) (uint32, bool) {
	if pid, ok := idx.pids[inode]; ok {
		return pid, true
	}
	if err := idx.Rebuild(); err != nil {
		return 0, false
	}
	pid, ok := idx.pids[inode]
	return pid, ok
}

func inodesForPID(pid uint32) []uint32 {
	dir := "/proc/" + strconv.FormatUint(uint64(pid), 10) + "/fd"
	f, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer f.Close()

	names, err := f.Readdirnames(0)
	if err != nil {
		return nil
	}

	var inodes []uint32
	for _, name := range names {
		target, err := os.Readlink(dir + "/" + name)
		if err != nil {
			continue
		}
		if !strings.HasPrefix(target, socketFDPrefix) {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(target, socketFDPrefix), "]"), 10, 32)
		if err != nil {
			continue
		}
		inodes = append(inodes, uint32(n))
	}
	return inodes
}

// Program builds a model.Program for pid by reading /proc/<pid>/stat (for
// the process name) and /proc/<pid>/cmdline (for the argv vector). If
// either is unreadable — the process has already exited — it returns
// ok=false rather than a partial/failing result (§4.3).
func Program(pid uint32) (model.Program, bool) {
	name, ok := processName(pid)
	if !ok {
		return model.Program{}, false
	}
	cmdline, ok := commandLine(pid)
	if !ok {
		return model.Program{}, false
	}
	return model.Program{
		PID:         pid,
		ProcessName: name,
		CommandLine: cmdline,
	}, true
}

// processName extracts the comm field from /proc/<pid>/stat: "<pid> (name)
// <state> ...". The name is parenthesized and may itself contain spaces or
// parentheses, so it's extracted between the first '(' and the last ')'.
func processName(pid uint32) (string, bool) {
	data, err := os.ReadFile("/proc/" + strconv.FormatUint(uint64(pid), 10) + "/stat")
	if err != nil {
		return "", false
	}
	open := bytes.IndexByte(data, '(')
	closeIdx := bytes.LastIndexByte(data, ')')
	if open < 0 || closeIdx < open {
		return "", false
	}
	return string(data[open+1 : closeIdx]), true
}

// commandLine reads /proc/<pid>/cmdline, a NUL-separated argv vector.
func commandLine(pid uint32) ([]string, bool) {
	data, err := os.ReadFile("/proc/" + strconv.FormatUint(uint64(pid), 10) + "/cmdline")
	if err != nil {
		return nil, false
	}
	data = bytes.TrimRight(data, "\x00")
	if len(data) == 0 {
		return []string{}, true
	}
	return strings.Split(string(data), "\x00"), true
}
