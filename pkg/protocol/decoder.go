package protocol

// Message is one decoded unit from the device byte stream. Exactly one of
// Telemetry and Frame is set.
type Message struct {
	Telemetry *Telemetry
	Frame     *Frame
}

// StreamDecoder splits the device output into telemetry frames and
// register frames. Bytes that begin neither are skipped one at a time.
type StreamDecoder struct {
	buf     []byte
	skipped int
}

// Write implements io.Writer and buffers p for decoding.
func (d *StreamDecoder) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	return len(p), nil
}

// Buffered returns the number of bytes waiting for decode.
func (d *StreamDecoder) Buffered() int {
	return len(d.buf)
}

// Skipped returns the number of bytes dropped while resynchronizing.
func (d *StreamDecoder) Skipped() int {
	return d.skipped
}

// Next decodes the next message. It returns false when more bytes are
// needed.
func (d *StreamDecoder) Next() (msg Message, ok bool) {
	for len(d.buf) > 0 {
		switch {
		case d.buf[0] == SyncByte0:
			if len(d.buf) < 2 {
				return
			}
			if d.buf[1] != SyncByte1 {
				d.skip()
				continue
			}
			if len(d.buf) < TelemetryFrameLen {
				return
			}
			if CRC8(d.buf[:TelemetryFrameLen-1]) != d.buf[TelemetryFrameLen-1] {
				d.skip()
				continue
			}
			t := &Telemetry{}
			if err := t.UnmarshalBinary(d.buf); err != nil {
				d.skip()
				continue
			}
			d.consume(TelemetryFrameLen)
			return Message{Telemetry: t}, true
		case !Header(d.buf[0]).IsRead():
			if len(d.buf) < FrameLen {
				return
			}
			var f Frame
			copy(f[:], d.buf)
			if !f.Valid() {
				d.skip()
				continue
			}
			d.consume(FrameLen)
			return Message{Frame: &f}, true
		default:
			d.skip()
		}
	}
	return
}

func (d *StreamDecoder) skip() {
	d.skipped++
	d.consume(1)
}

func (d *StreamDecoder) consume(n int) {
	rest := copy(d.buf, d.buf[n:])
	d.buf = d.buf[:rest]
}
