package conntrack

import (
	"encoding/binary"
	"unsafe"
)

// Netfilter attributes are standard nlattr TLVs: a 4-byte header (uint16
// length including the header, uint16 type) in the host's native byte
// order, followed by length-4 bytes of value padded up to 4-byte
// alignment. The top two bits of the type field are flags: NLA_F_NESTED
// marks a container of further attributes, NLA_F_NET_BYTEORDER marks a
// value already in network byte order (conntrack sets this on ports).
//
// This mirrors the attribute layout vishvananda/netlink's conntrack_linux.go
// walks by hand; we keep the same header shape but decode off raw
// mdlayher/netlink message bytes instead of pulling in that package.
const (
	nlaFNested       = 0x8000
	nlaFNetByteOrder = 0x4000
	nlaTypeMask      = ^uint16(nlaFNested | nlaFNetByteOrder)

	attrHeaderLen = 4
)

var nativeEndian binary.ByteOrder = detectNativeEndian()

func detectNativeEndian() binary.ByteOrder {
	var x uint32 = 0x01020304
	if *(*byte)(unsafe.Pointer(&x)) == 0x01 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// attr is one decoded netfilter attribute.
type attr struct {
	Type   uint16
	Nested bool
	Data   []byte
}

// parseAttrs walks a flat or nested attribute blob and returns each
// top-level attribute in order. Malformed trailing bytes (too short for a
// header, or a length that runs past the buffer) stop the walk rather than
// erroring, since the decoder only cares about a handful of known
// attributes and tolerates padding/trailer noise.
func parseAttrs(data []byte) []attr {
	var out []attr
	for len(data) >= attrHeaderLen {
		length := nativeEndian.Uint16(data[0:2])
		rawType := nativeEndian.Uint16(data[2:4])
		if length < attrHeaderLen || int(length) > len(data) {
			break
		}

		valueLen := int(length) - attrHeaderLen
		value := data[attrHeaderLen:length]

		out = append(out, attr{
			Type:   rawType & nlaTypeMask,
			Nested: rawType&nlaFNested != 0,
			Data:   value,
		})

		// Attributes are padded to 4-byte alignment; the length field
		// itself is not padded, so advance past the padded size.
		advance := align4(attrHeaderLen + valueLen)
		if advance > len(data) {
			break
		}
		data = data[advance:]
	}
	return out
}

func align4(n int) int {
	if rem := n % 4; rem != 0 {
		return n + (4 - rem)
	}
	return n
}
