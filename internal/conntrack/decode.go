package conntrack

import (
	"encoding/binary"

	"github.com/mdlayher/netlink"

	"github.com/alisle/zerotrust-track/internal/model"
)

// nfnetlink_conntrack.h attribute numbering (ctattr_type / ctattr_tuple /
// ctattr_ip / ctattr_l4proto).
const (
	ctaTupleOrig = 1

	ctaTupleIP    = 1
	ctaTupleProto = 2

	ctaIPV4Src = 1
	ctaIPV4Dst = 2

	ctaProtoNum      = 1
	ctaProtoSrcPort  = 2
	ctaProtoDstPort  = 3
	ctaProtoICMPID   = 4
	ctaProtoICMPType = 5
	ctaProtoICMPCode = 6
)

// nfnetlink_conntrack.h ctnl_msg_types; the low byte of the netlink
// message type once the nfgenmsg subsystem id is masked off.
const (
	ipctnlMsgCtNew    = 0
	ipctnlMsgCtDelete = 2
)

const (
	protoICMP = 1
	protoTCP  = 6
	protoUDP  = 17
)

// nfgenmsgLen is the fixed netfilter generic message header (family,
// version, res_id) that precedes the attribute stream on every message.
const nfgenmsgLen = 4

// decodeState maps a netlink message header to the §4.1 New/Destroy/Unknown
// state. Type NEW with the Create flag set is a brand-new connection;
// Type NEW without it is a mid-life update conntrack also reports on this
// group, which this agent does not model and treats as Unknown. Type
// DELETE is always Destroy.
func decodeState(h netlink.Header) model.State {
	msgType := uint8(h.Type) // subsystem id is the high byte, dropped by the uint8 conversion
	switch {
	case msgType == ipctnlMsgCtNew && h.Flags&netlink.Create != 0:
		return model.StateNew
	case msgType == ipctnlMsgCtDelete:
		return model.StateDestroy
	default:
		return model.StateUnknown
	}
}

// decodeEvent turns one raw netlink message into a ConnectionEvent. It
// never returns an error: a message we can't make sense of decodes to an
// event with ProtoUnsupported / StateUnknown, which the parser already
// knows to drop.
func decodeEvent(msg netlink.Message) model.ConnectionEvent {
	ev := model.ConnectionEvent{State: decodeState(msg.Header)}

	body := msg.Data
	if len(body) < nfgenmsgLen {
		return ev
	}
	body = body[nfgenmsgLen:]

	for _, a := range parseAttrs(body) {
		if a.Type == ctaTupleOrig && a.Nested {
			decodeTupleOrig(a.Data, &ev)
		}
	}
	return ev
}

// decodeTupleOrig walks the CTA_TUPLE_ORIG container: a CTA_TUPLE_IP
// nested attribute with the src/dst addresses, and a CTA_TUPLE_PROTO
// nested attribute with the protocol number and, for TCP/UDP, ports or
// for ICMP the id/type/code.
func decodeTupleOrig(data []byte, ev *model.ConnectionEvent) {
	for _, a := range parseAttrs(data) {
		switch {
		case a.Type == ctaTupleIP && a.Nested:
			decodeTupleIP(a.Data, ev)
		case a.Type == ctaTupleProto && a.Nested:
			decodeTupleProto(a.Data, ev)
		}
	}
}

// decodeTupleIP reads CTA_IP_V4_SRC/DST. The kernel attribute payload is
// already the raw network-order address bytes — no byte-swap, per §4.1.
func decodeTupleIP(data []byte, ev *model.ConnectionEvent) {
	for _, a := range parseAttrs(data) {
		switch a.Type {
		case ctaIPV4Src:
			if len(a.Data) == 4 {
				ev.SrcIP = append([]byte(nil), a.Data...)
			}
		case ctaIPV4Dst:
			if len(a.Data) == 4 {
				ev.DstIP = append([]byte(nil), a.Data...)
			}
		}
	}
}

func decodeTupleProto(data []byte, ev *model.ConnectionEvent) {
	for _, a := range parseAttrs(data) {
		if a.Type == ctaProtoNum && len(a.Data) >= 1 {
			switch a.Data[0] {
			case protoTCP:
				ev.Proto = model.ProtoTCP
			case protoUDP:
				ev.Proto = model.ProtoUDP
			case protoICMP:
				ev.Proto = model.ProtoICMP
			default:
				ev.Proto = model.ProtoUnsupported
			}
		}
	}

	switch ev.Proto {
	case model.ProtoTCP, model.ProtoUDP:
		for _, a := range parseAttrs(data) {
			switch a.Type {
			case ctaProtoSrcPort:
				if len(a.Data) == 2 {
					ev.SrcPort = binary.BigEndian.Uint16(a.Data)
				}
			case ctaProtoDstPort:
				if len(a.Data) == 2 {
					ev.DstPort = binary.BigEndian.Uint16(a.Data)
				}
			}
		}
	case model.ProtoICMP:
		for _, a := range parseAttrs(data) {
			switch a.Type {
			case ctaProtoICMPID:
				if len(a.Data) == 2 {
					ev.ICMPID = binary.BigEndian.Uint16(a.Data)
				}
			case ctaProtoICMPType:
				if len(a.Data) == 1 {
					ev.ICMPType = a.Data[0]
				}
			case ctaProtoICMPCode:
				if len(a.Data) == 1 {
					ev.ICMPCode = a.Data[0]
				}
			}
		}
	}
}
