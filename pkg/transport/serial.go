package transport

import (
	"github.com/golang/glog"
)

// Default ring and chunk sizes.
const (
	RXRingSize  = 1024
	TXRingSize  = 1024
	RXChunkSize = 256
	TXChunkMax  = 255
)

// Transmitter starts an asynchronous transmit on the link. The slice
// aliases the transmit ring and stays valid until the Serial is told the
// transmit completed via TxComplete. StartTransmit must not block.
type Transmitter interface {
	StartTransmit(p []byte) error
}

// TransmitFunc is the func form of Transmitter.
type TransmitFunc func([]byte) error

// StartTransmit implements Transmitter.
func (f TransmitFunc) StartTransmit(p []byte) error {
	return f(p)
}

// Stats counts link level events.
type Stats struct {
	RXBytes    uint64
	RXOverruns uint64
	TXBytes    uint64
	TXRejected uint64
}

// Serial is the buffered link between the asynchronous byte path and
// the polling loop.
type Serial struct {
	Guard    Guard
	ChunkMax int

	link     Transmitter
	rx       *Ring
	tx       *Ring
	busy     bool
	inflight int
	stats    Stats
}

// NewSerial creates a Serial with default sizes transmitting over link.
func NewSerial(link Transmitter) *Serial {
	s, err := NewSerialSize(RXRingSize, TXRingSize, link)
	if err != nil {
		panic(err)
	}
	return s
}

// NewSerialSize creates a Serial with the specified ring sizes.
func NewSerialSize(rxSize, txSize int, link Transmitter) (*Serial, error) {
	rx, err := NewRing(rxSize)
	if err != nil {
		return nil, err
	}
	tx, err := NewRing(txSize)
	if err != nil {
		return nil, err
	}
	return &Serial{
		Guard:    &SpinGuard{},
		ChunkMax: TXChunkMax,
		link:     link,
		rx:       rx,
		tx:       tx,
	}, nil
}

// PushRX appends a received byte. Called from the receive path only.
func (s *Serial) PushRX(b byte) {
	s.Guard.Mask()
	if s.rx.Overwrite(b) {
		s.stats.RXOverruns++
	}
	s.stats.RXBytes++
	s.Guard.Unmask()
}

// Receive appends a batch of received bytes inside one critical section.
func (s *Serial) Receive(p []byte) {
	s.Guard.Mask()
	for _, b := range p {
		if s.rx.Overwrite(b) {
			s.stats.RXOverruns++
		}
	}
	s.stats.RXBytes += uint64(len(p))
	s.Guard.Unmask()
}

// AvailableRX returns the number of received bytes not yet read.
func (s *Serial) AvailableRX() int {
	s.Guard.Mask()
	defer s.Guard.Unmask()
	return s.rx.Len()
}

// ReadRX moves up to len(p) received bytes into p.
func (s *Serial) ReadRX(p []byte) int {
	if len(p) == 0 {
		return 0
	}
	s.Guard.Mask()
	defer s.Guard.Unmask()
	return s.rx.Get(p)
}

// ReadRXUntil reads a message terminated by delim, delimiter included.
// Nothing is consumed and 0 is returned if delim is not buffered yet or
// the message does not fit in p.
func (s *Serial) ReadRXUntil(p []byte, delim byte) int {
	if len(p) == 0 {
		return 0
	}
	s.Guard.Mask()
	defer s.Guard.Unmask()
	pos := s.rx.IndexByte(delim)
	if pos < 0 || pos+1 > len(p) {
		return 0
	}
	return s.rx.Get(p[:pos+1])
}

// WriteNB queues as much of p as fits. It returns ErrWouldBlock only when
// nothing at all could be queued.
func (s *Serial) WriteNB(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	s.Guard.Mask()
	n := s.tx.Put(p)
	if n < len(p) {
		s.stats.TXRejected += uint64(len(p) - n)
	}
	s.Guard.Unmask()
	s.kick()
	if n == 0 {
		return 0, ErrWouldBlock
	}
	return n, nil
}

// WriteAllNB queues p entirely or not at all.
func (s *Serial) WriteAllNB(p []byte) error {
	s.Guard.Mask()
	if s.tx.Space() < len(p) {
		s.stats.TXRejected += uint64(len(p))
		s.Guard.Unmask()
		// a refused start leaves the ring full with nothing in flight
		s.kick()
		return ErrWouldBlock
	}
	s.tx.Put(p)
	s.Guard.Unmask()
	s.kick()
	return nil
}

// Write implements io.Writer with all-or-nothing semantics.
func (s *Serial) Write(p []byte) (int, error) {
	if err := s.WriteAllNB(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// TxPending returns the number of queued bytes, the one in flight included.
func (s *Serial) TxPending() int {
	s.Guard.Mask()
	defer s.Guard.Unmask()
	return s.tx.Len()
}

// TxSpace returns the number of bytes WriteAllNB can accept right now.
func (s *Serial) TxSpace() int {
	s.Guard.Mask()
	defer s.Guard.Unmask()
	return s.tx.Space()
}

// Busy reports whether a transmit is in flight.
func (s *Serial) Busy() bool {
	s.Guard.Mask()
	defer s.Guard.Unmask()
	return s.busy
}

// Stats returns a snapshot of the counters.
func (s *Serial) Stats() Stats {
	s.Guard.Mask()
	defer s.Guard.Unmask()
	return s.stats
}

// TxComplete is called by the link when the in-flight transmit finished,
// sent being the number of bytes which left the ring.
func (s *Serial) TxComplete(sent int) {
	s.Guard.Mask()
	if sent > s.inflight {
		sent = s.inflight
	}
	if sent > 0 {
		s.tx.Discard(sent)
		s.stats.TXBytes += uint64(sent)
	}
	s.busy, s.inflight = false, 0
	s.Guard.Unmask()
	s.kick()
}

// kick starts a transmit of the longest contiguous run if the link is idle.
func (s *Serial) kick() {
	s.Guard.Mask()
	if s.busy || s.tx.Len() == 0 {
		s.Guard.Unmask()
		return
	}
	chunk := s.tx.Linear()
	if limit := s.ChunkMax; limit > 0 && len(chunk) > limit {
		chunk = chunk[:limit]
	}
	s.busy, s.inflight = true, len(chunk)
	s.Guard.Unmask()

	if err := s.link.StartTransmit(chunk); err != nil {
		glog.V(2).Infof("transmit not started: %v", err)
		s.Guard.Mask()
		s.busy, s.inflight = false, 0
		s.Guard.Unmask()
	}
}
