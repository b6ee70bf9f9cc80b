package transport

// Receiver accepts received bytes.
type Receiver interface {
	Receive(p []byte)
}

// RxDMA models a circular receive buffer written by a DMA engine. The
// engine reports its write position on every idle-line event and RxDMA
// forwards the bytes written since the previous event.
type RxDMA struct {
	Buf  []byte
	Sink Receiver

	pos int
}

// NewRxDMA creates a circular receive buffer of size bytes.
func NewRxDMA(size int, sink Receiver) *RxDMA {
	return &RxDMA{Buf: make([]byte, size), Sink: sink}
}

// Idle reports the DMA write position pos, in [0, len(Buf)].
func (d *RxDMA) Idle(pos int) {
	if pos == d.pos {
		return
	}
	if pos > d.pos {
		d.Sink.Receive(d.Buf[d.pos:pos])
	} else {
		if d.pos < len(d.Buf) {
			d.Sink.Receive(d.Buf[d.pos:])
		}
		d.Sink.Receive(d.Buf[:pos])
	}
	d.pos = pos
}

// Free returns the region the next incoming bytes are written to. It
// never spans the whole buffer so a full lap is not mistaken for no data.
func (d *RxDMA) Free() []byte {
	if d.pos >= len(d.Buf) {
		return d.Buf[:len(d.Buf)-1]
	}
	return d.Buf[d.pos:]
}

// Advance records n bytes written into the region returned by Free.
func (d *RxDMA) Advance(n int) {
	if n <= 0 {
		return
	}
	start := d.pos
	if start >= len(d.Buf) {
		start = 0
	}
	d.Idle(start + n)
}
