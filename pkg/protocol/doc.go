// Package protocol implements the vehicle command link.
//
// Commands travel in fixed 4-byte frames:
//
//	[HEADER][DATA0][DATA1][CRC8]
//
// HEADER bit 7 selects read (1) or write (0), bits 6..0 address one of
// 128 virtual registers. A write carries a little-endian int16 value. A
// read asks for DATA0 consecutive registers; each is answered with a
// write-formatted frame. CRC8 is CRC-8/ATM (poly 0x07, init 0, no
// reflection) over the first three bytes. Corrupted frames are dropped
// silently; there is no acknowledge or resend.
//
// Telemetry flows the other way in a 37-byte frame introduced by the
// sync pattern 0xAA 0x55, see Telemetry.
package protocol
