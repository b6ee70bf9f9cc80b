package protocol

import (
	"encoding/binary"
	"fmt"
)

// Header bits.
const (
	HeaderReadFlag byte = 0x80
	AddrMask       byte = 0x7f
)

// FrameLen is the size of a command frame.
const FrameLen = 4

// Header is the first byte of a frame.
type Header byte

// MakeHeader builds a header for a read or write of addr.
func MakeHeader(read bool, addr byte) Header {
	h := addr & AddrMask
	if read {
		h |= HeaderReadFlag
	}
	return Header(h)
}

// IsRead reports whether the header asks for a read burst.
func (h Header) IsRead() bool {
	return byte(h)&HeaderReadFlag != 0
}

// Addr returns the register address.
func (h Header) Addr() byte {
	return byte(h) & AddrMask
}

// Frame is a complete command frame, checksum included.
type Frame [FrameLen]byte

// NewFrame builds a frame from three bytes and appends the checksum.
func NewFrame(hdr Header, d0, d1 byte) Frame {
	f := Frame{byte(hdr), d0, d1}
	f[3] = CRC8(f[:3])
	return f
}

// NewWriteFrame builds a frame writing v to addr.
func NewWriteFrame(addr byte, v int16) Frame {
	var d [2]byte
	binary.LittleEndian.PutUint16(d[:], uint16(v))
	return NewFrame(MakeHeader(false, addr), d[0], d[1])
}

// NewReadFrame builds a frame requesting count registers from addr.
func NewReadFrame(addr, count, flags byte) Frame {
	return NewFrame(MakeHeader(true, addr), count, flags)
}

// Header returns the header byte.
func (f Frame) Header() Header {
	return Header(f[0])
}

// Value decodes the little-endian int16 payload.
func (f Frame) Value() int16 {
	return int16(binary.LittleEndian.Uint16(f[1:3]))
}

// Count returns the register count of a read frame.
func (f Frame) Count() byte {
	return f[1]
}

// Valid verifies the checksum.
func (f Frame) Valid() bool {
	return CRC8(f[:3]) == f[3]
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	h := f.Header()
	if h.IsRead() {
		return fmt.Sprintf("read[%d] x%d", h.Addr(), f.Count())
	}
	return fmt.Sprintf("write[%d]=%d", h.Addr(), f.Value())
}
