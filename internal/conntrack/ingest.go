// Package conntrack implements the kernel connection-tracking ingester:
// it dials a netlink socket on the netfilter family, joins the
// conntrack-new/destroy multicast groups, and decodes each datagram into a
// model.ConnectionEvent (§4.1).
package conntrack

import (
	"fmt"

	"github.com/mdlayher/netlink"
	"golang.org/x/sys/unix"

	"github.com/alisle/zerotrust-track/internal/model"
	"github.com/alisle/zerotrust-track/internal/queue"
)

// Netfilter multicast group numbers (nfnetlink_compat.h /
// net/netfilter/nf_conntrack_netlink.c): group n is joined by setting bit
// (n-1) of the socket's group bitmask.
const (
	nfnlgrpConntrackNew     = 1
	nfnlgrpConntrackDestroy = 3
)

func multicastGroups() uint32 {
	return 1<<(nfnlgrpConntrackNew-1) | 1<<(nfnlgrpConntrackDestroy-1)
}

// Ingester owns the netlink socket exclusively; no other component touches
// it (§5).
type Ingester struct {
	conn *netlink.Conn
}

// Open dials NETLINK_NETFILTER and joins the conntrack multicast groups.
// Failure here is a PermissionError/IngestError per §7 and is fatal to
// startup.
func Open() (*Ingester, error) {
	conn, err := netlink.Dial(unix.NETLINK_NETFILTER, &netlink.Config{
		Groups: multicastGroups(),
	})
	if err != nil {
		return nil, fmt.Errorf("conntrack: dial netlink: %w", err)
	}
	return &Ingester{conn: conn}, nil
}

// Close releases the netlink socket.
func (i *Ingester) Close() error {
	return i.conn.Close()
}

// Run blocks receiving conntrack datagrams and pushes each decoded event
// onto out. It returns only on a receive error, which the caller (the
// supervisor) treats as fatal to the ingester per §4.1/§7 — conntrack
// delivery is not expected to fail in normal operation, and there is no
// way to resynchronize a netlink multicast subscription short of
// redialing.
func (i *Ingester) Run(out *queue.Unbounded[model.ConnectionEvent]) error {
	for {
		msgs, err := i.conn.Receive()
		if err != nil {
			return fmt.Errorf("conntrack: receive: %w", err)
		}
		for _, msg := range msgs {
			out.Push(decodeEvent(msg))
		}
	}
}
