package protocol

import (
	"github.com/golang/glog"
)

// ReadChunk is the size of one read from the link in ReaderTick.
const ReadChunk = 64

// Link is the byte pipe the protocol runs over.
type Link interface {
	AvailableRX() int
	ReadRX(p []byte) int
	WriteAllNB(p []byte) error
}

// Protocol is the device side of the command link. It owns the shadow
// registers and the notification mailbox.
type Protocol struct {
	Link      Link
	Registers Registers
	Mailbox   Mailbox

	parser  Parser
	readBuf [ReadChunk]byte
	txDrops uint32
}

// New creates a Protocol over link.
func New(link Link) *Protocol {
	return &Protocol{Link: link}
}

// ParserState returns the state of the frame parser.
func (p *Protocol) ParserState() ParserState {
	return p.parser.State()
}

// ParserStats returns the frame counters.
func (p *Protocol) ParserStats() ParserStats {
	return p.parser.Stats()
}

// TxDrops is the number of outgoing frames rejected by the link.
func (p *Protocol) TxDrops() uint32 {
	return p.txDrops
}

// FeedByte advances the parser and handles a completed frame.
func (p *Protocol) FeedByte(b byte) {
	if f, ok := p.parser.Feed(b); ok {
		p.HandleFrame(f)
	}
}

// HandleFrame applies a validated frame. A read answers with one write
// frame per register, a write updates the shadow and posts a notification.
func (p *Protocol) HandleFrame(f Frame) {
	hdr := f.Header()
	if hdr.IsRead() {
		count := int(f.Count())
		for i := 0; i < count; i++ {
			addr := (hdr.Addr() + byte(i)) & AddrMask
			p.SendWrite16(addr, p.Registers.Read(addr))
		}
		return
	}
	n := p.Registers.Write(hdr.Addr(), f.Value())
	glog.V(4).Infof("frame %s: %s", f, n)
	p.Mailbox.Post(n)
}

// SendWrite16 sends a write frame. A full TX buffer drops the frame.
func (p *Protocol) SendWrite16(addr byte, v int16) error {
	return p.send(NewWriteFrame(addr, v))
}

// SendReadBurst sends a read request for count registers from addr.
func (p *Protocol) SendReadBurst(addr, count, flags byte) error {
	return p.send(NewReadFrame(addr, count, flags))
}

// SendTelemetry sends a telemetry frame. A full TX buffer drops the frame.
func (p *Protocol) SendTelemetry(t *Telemetry) error {
	var buf [TelemetryFrameLen]byte
	return p.write(t.AppendBinary(buf[:0]))
}

func (p *Protocol) send(f Frame) error {
	return p.write(f[:])
}

func (p *Protocol) write(b []byte) error {
	if err := p.Link.WriteAllNB(b); err != nil {
		p.txDrops++
		glog.V(3).Infof("tx drop %d bytes: %v", len(b), err)
		return err
	}
	return nil
}

// ReaderTick drains the bytes available on the link when it is called.
// Bytes arriving meanwhile are left for the next tick. It returns the
// number of bytes consumed.
func (p *Protocol) ReaderTick() (total int) {
	for avail := p.Link.AvailableRX(); total < avail; {
		buf := p.readBuf[:]
		if rest := avail - total; rest < len(buf) {
			buf = buf[:rest]
		}
		n := p.Link.ReadRX(buf)
		if n == 0 {
			return
		}
		for _, b := range p.readBuf[:n] {
			p.FeedByte(b)
		}
		total += n
	}
	return
}
