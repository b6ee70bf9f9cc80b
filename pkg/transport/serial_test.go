package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// holdingLink records transmits and completes them only on request.
type holdingLink struct {
	started [][]byte
	refuse  bool
}

func (l *holdingLink) StartTransmit(p []byte) error {
	if l.refuse {
		return ErrLinkBusy
	}
	l.started = append(l.started, append([]byte(nil), p...))
	return nil
}

func (l *holdingLink) last() []byte {
	if len(l.started) == 0 {
		return nil
	}
	return l.started[len(l.started)-1]
}

func newTestSerial(t *testing.T, link Transmitter) *Serial {
	s := NewSerial(link)
	s.Guard = NopGuard{}
	return s
}

func seqBytes(from, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(from + i)
	}
	return b
}

func TestNewRingSize(t *testing.T) {
	for _, size := range []int{0, 1, 3, 1000} {
		_, err := NewRing(size)
		require.Equal(t, ErrRingSize, err, "size %d", size)
	}
	r, err := NewRing(8)
	require.NoError(t, err)
	require.Equal(t, 7, r.Space())
}

func TestReadRXOrder(t *testing.T) {
	s := newTestSerial(t, &holdingLink{})
	in := seqBytes(0, 300)
	s.Receive(in[:200])
	buf := make([]byte, 64)
	require.Equal(t, 64, s.ReadRX(buf))
	require.Equal(t, in[:64], buf)
	for _, b := range in[200:] {
		s.PushRX(b)
	}
	require.Equal(t, 236, s.AvailableRX())
	out := make([]byte, 500)
	n := s.ReadRX(out)
	require.Equal(t, 236, n)
	require.Equal(t, in[64:], out[:n])
	require.Zero(t, s.ReadRX(out))
	require.Zero(t, s.ReadRX(nil))
}

func TestReadRXWrapBoundary(t *testing.T) {
	s := newTestSerial(t, &holdingLink{})
	s.Receive(make([]byte, RXRingSize-10))
	s.ReadRX(make([]byte, RXRingSize))
	in := seqBytes(7, 40)
	s.Receive(in)
	out := make([]byte, 40)
	require.Equal(t, 40, s.ReadRX(out))
	require.Equal(t, in, out)
}

func TestRXOverrunDropsOldest(t *testing.T) {
	const extra = 100
	s := newTestSerial(t, &holdingLink{})
	total := RXRingSize + extra
	for i := 0; i < total; i++ {
		s.PushRX(byte(i))
	}
	usable := RXRingSize - 1
	require.Equal(t, usable, s.AvailableRX())
	out := make([]byte, RXRingSize)
	n := s.ReadRX(out)
	require.Equal(t, usable, n)
	dropped := total - usable
	for i := 0; i < n; i++ {
		require.Equal(t, byte(dropped+i), out[i], "byte %d", i)
	}
	st := s.Stats()
	require.Equal(t, uint64(total), st.RXBytes)
	require.Equal(t, uint64(dropped), st.RXOverruns)
}

func TestReadRXUntil(t *testing.T) {
	testCases := []struct {
		name    string
		prefill int
		in      string
		max     int
		expect  string
		remain  int
	}{
		{name: "no delimiter", in: "abc", max: 16, remain: 3},
		{name: "message", in: "ab\ncd", max: 16, expect: "ab\n", remain: 2},
		{name: "delimiter first", in: "\nab", max: 16, expect: "\n", remain: 2},
		{name: "exact fit", in: "abc\n", max: 4, expect: "abc\n"},
		{name: "too long", in: "abcd\n", max: 4, remain: 5},
		{name: "zero max", in: "\n", max: 0, remain: 1},
		{name: "across wrap", prefill: RXRingSize - 2, in: "wxyz\n!", max: 16, expect: "wxyz\n", remain: 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSerial(t, &holdingLink{})
			if tc.prefill > 0 {
				s.Receive(make([]byte, tc.prefill))
				s.ReadRX(make([]byte, tc.prefill))
			}
			s.Receive([]byte(tc.in))
			buf := make([]byte, tc.max)
			n := s.ReadRXUntil(buf, '\n')
			require.Equal(t, tc.expect, string(buf[:n]))
			require.Equal(t, tc.remain, s.AvailableRX())
		})
	}
}

func TestWriteAllNBAllOrNothing(t *testing.T) {
	link := &holdingLink{}
	s := newTestSerial(t, link)

	require.NoError(t, s.WriteAllNB(seqBytes(0, 10)))
	require.True(t, s.Busy())
	space := s.TxSpace()
	require.Equal(t, TXRingSize-1-10, space)

	pending := s.TxPending()
	err := s.WriteAllNB(make([]byte, space+1))
	require.Equal(t, ErrWouldBlock, err)
	require.Equal(t, pending, s.TxPending())
	require.Equal(t, space, s.TxSpace())

	require.NoError(t, s.WriteAllNB(make([]byte, space)))
	require.Zero(t, s.TxSpace())
	require.Equal(t, TXRingSize-1, s.TxPending())

	n, err := s.Write([]byte{1})
	require.Equal(t, ErrWouldBlock, err)
	require.Zero(t, n)
}

func TestWriteNBPartial(t *testing.T) {
	link := &holdingLink{}
	s := newTestSerial(t, link)
	require.NoError(t, s.WriteAllNB(make([]byte, TXRingSize-1-5)))

	n, err := s.WriteNB(seqBytes(0, 8))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	n, err = s.WriteNB([]byte{1})
	require.Equal(t, ErrWouldBlock, err)
	require.Zero(t, n)
	require.Equal(t, uint64(4), s.Stats().TXRejected)

	n, err = s.WriteNB(nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestDrainChunks(t *testing.T) {
	link := &holdingLink{}
	s := newTestSerial(t, link)
	data := seqBytes(0, 600)
	require.NoError(t, s.WriteAllNB(data))

	var sent []byte
	for s.Busy() {
		chunk := link.last()
		require.True(t, len(chunk) <= TXChunkMax)
		sent = append(sent, chunk...)
		s.TxComplete(len(chunk))
	}
	require.Equal(t, data, sent)
	require.Len(t, link.started, 3)
	require.Zero(t, s.TxPending())
	require.Equal(t, uint64(600), s.Stats().TXBytes)
}

func TestDrainStopsAtRingEnd(t *testing.T) {
	link := &holdingLink{}
	s := newTestSerial(t, link)
	s.ChunkMax = 0

	require.NoError(t, s.WriteAllNB(make([]byte, TXRingSize-4)))
	s.TxComplete(len(link.last()))
	require.False(t, s.Busy())

	in := seqBytes(1, 10)
	require.NoError(t, s.WriteAllNB(in))
	require.Equal(t, in[:4], link.last())
	s.TxComplete(4)
	require.Equal(t, in[4:], link.last())
	s.TxComplete(6)
	require.False(t, s.Busy())
}

func TestDrainPartialCompletion(t *testing.T) {
	link := &holdingLink{}
	s := newTestSerial(t, link)
	require.NoError(t, s.WriteAllNB(seqBytes(0, 20)))
	s.TxComplete(5)
	require.Equal(t, seqBytes(5, 15), link.last())
	s.TxComplete(100)
	require.Zero(t, s.TxPending())
}

func TestDrainRetriesAfterRefusedStart(t *testing.T) {
	link := &holdingLink{refuse: true}
	s := newTestSerial(t, link)
	require.NoError(t, s.WriteAllNB([]byte{1, 2}))
	assert.False(t, s.Busy())
	assert.Equal(t, 2, s.TxPending())

	link.refuse = false
	require.NoError(t, s.WriteAllNB([]byte{3}))
	require.True(t, s.Busy())
	require.Equal(t, []byte{1, 2, 3}, link.last())
}

func TestDrainRetriesWhenRingFull(t *testing.T) {
	testCases := []struct {
		name  string
		write func(s *Serial) error
	}{
		{"all", func(s *Serial) error { return s.WriteAllNB([]byte{0xff}) }},
		{"partial", func(s *Serial) error {
			_, err := s.WriteNB([]byte{0xff})
			return err
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			link := &holdingLink{refuse: true}
			s := newTestSerial(t, link)
			data := seqBytes(0, TXRingSize-1)
			require.NoError(t, s.WriteAllNB(data))
			require.False(t, s.Busy())
			require.Zero(t, s.TxSpace())

			link.refuse = false
			require.Equal(t, ErrWouldBlock, tc.write(s))
			require.True(t, s.Busy())

			var sent []byte
			for s.Busy() {
				chunk := link.last()
				sent = append(sent, chunk...)
				s.TxComplete(len(chunk))
			}
			assert.Equal(t, data, sent)
			assert.Zero(t, s.TxPending())
		})
	}
}

func TestSynchronousTransmitter(t *testing.T) {
	var out []byte
	var s *Serial
	s = newTestSerial(t, TransmitFunc(func(p []byte) error {
		out = append(out, p...)
		s.TxComplete(len(p))
		return nil
	}))
	data := seqBytes(0, 700)
	require.NoError(t, s.WriteAllNB(data))
	require.Equal(t, data, out)
	require.False(t, s.Busy())
}
