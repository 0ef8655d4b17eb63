package conntrack

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/mdlayher/netlink"

	"github.com/alisle/zerotrust-track/internal/model"
)

func buildAttr(typ uint16, nested bool, value []byte) []byte {
	t := typ
	if nested {
		t |= nlaFNested
	}
	length := uint16(attrHeaderLen + len(value))
	buf := make([]byte, align4(int(length)))
	nativeEndian.PutUint16(buf[0:2], length)
	nativeEndian.PutUint16(buf[2:4], t)
	copy(buf[attrHeaderLen:], value)
	return buf
}

func buildTCPTupleOrig(srcIP, dstIP net.IP, srcPort, dstPort uint16) []byte {
	var portBuf [2]byte

	binary.BigEndian.PutUint16(portBuf[:], srcPort)
	srcPortAttr := buildAttr(ctaProtoSrcPort, false, portBuf[:])
	binary.BigEndian.PutUint16(portBuf[:], dstPort)
	dstPortAttr := buildAttr(ctaProtoDstPort, false, portBuf[:])
	numAttr := buildAttr(ctaProtoNum, false, []byte{protoTCP})

	var proto []byte
	proto = append(proto, numAttr...)
	proto = append(proto, srcPortAttr...)
	proto = append(proto, dstPortAttr...)
	protoAttr := buildAttr(ctaTupleProto, true, proto)

	srcAttr := buildAttr(ctaIPV4Src, false, srcIP.To4())
	dstAttr := buildAttr(ctaIPV4Dst, false, dstIP.To4())
	var ip []byte
	ip = append(ip, srcAttr...)
	ip = append(ip, dstAttr...)
	ipAttr := buildAttr(ctaTupleIP, true, ip)

	var tuple []byte
	tuple = append(tuple, ipAttr...)
	tuple = append(tuple, protoAttr...)
	return buildAttr(ctaTupleOrig, true, tuple)
}

func TestDecodeEventNewTCP(t *testing.T) {
	src := net.ParseIP("192.168.1.10")
	dst := net.ParseIP("192.168.1.20")
	tuple := buildTCPTupleOrig(src, dst, 5555, 443)

	body := append([]byte{2, 0, 0, 0}, tuple...) // nfgenmsg prefix + attrs

	msg := netlink.Message{
		Header: netlink.Header{Type: ipctnlMsgCtNew, Flags: netlink.Create},
		Data:   body,
	}

	ev := decodeEvent(msg)

	if ev.State != model.StateNew {
		t.Fatalf("expected StateNew, got %v", ev.State)
	}
	if ev.Proto != model.ProtoTCP {
		t.Fatalf("expected ProtoTCP, got %v", ev.Proto)
	}
	if !net.IP(ev.SrcIP).Equal(src) || !net.IP(ev.DstIP).Equal(dst) {
		t.Fatalf("unexpected addresses: src=%s dst=%s", ev.SrcIP, ev.DstIP)
	}
	if ev.SrcPort != 5555 || ev.DstPort != 443 {
		t.Fatalf("unexpected ports: src=%d dst=%d", ev.SrcPort, ev.DstPort)
	}
}

func TestDecodeEventDestroy(t *testing.T) {
	msg := netlink.Message{
		Header: netlink.Header{Type: ipctnlMsgCtDelete},
		Data:   []byte{2, 0, 0, 0},
	}
	ev := decodeEvent(msg)
	if ev.State != model.StateDestroy {
		t.Fatalf("expected StateDestroy, got %v", ev.State)
	}
}
