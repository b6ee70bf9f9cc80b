package transport

// Ring is a power-of-two byte ring. One slot stays empty so a full ring
// can be told apart from an empty one. Ring itself is not synchronized.
type Ring struct {
	buf  []byte
	mask uint32
	head uint32
	tail uint32
}

// NewRing creates a ring of size bytes, size-1 of them usable.
func NewRing(size int) (*Ring, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, ErrRingSize
	}
	return &Ring{buf: make([]byte, size), mask: uint32(size - 1)}, nil
}

// Size returns the allocated size of the ring.
func (r *Ring) Size() int {
	return len(r.buf)
}

// Len returns the number of buffered bytes.
func (r *Ring) Len() int {
	return int((r.head - r.tail) & r.mask)
}

// Space returns the number of bytes which can still be written.
func (r *Ring) Space() int {
	return int(r.mask) - r.Len()
}

// Overwrite appends b, discarding the oldest byte when the ring is full.
// It reports whether a byte was discarded.
func (r *Ring) Overwrite(b byte) (dropped bool) {
	r.buf[r.head] = b
	r.head = (r.head + 1) & r.mask
	if r.head == r.tail {
		r.tail = (r.tail + 1) & r.mask
		dropped = true
	}
	return
}

// Put copies as much of p as fits and returns the count copied.
func (r *Ring) Put(p []byte) int {
	n := r.Space()
	if n > len(p) {
		n = len(p)
	}
	first := copy(r.buf[r.head:], p[:n])
	copy(r.buf, p[first:n])
	r.head = (r.head + uint32(n)) & r.mask
	return n
}

// Get moves up to len(p) bytes into p.
func (r *Ring) Get(p []byte) int {
	n := r.Peek(p)
	r.Discard(n)
	return n
}

// Peek copies up to len(p) bytes into p without consuming them.
func (r *Ring) Peek(p []byte) int {
	n := r.Len()
	if n > len(p) {
		n = len(p)
	}
	end := int(r.tail) + n
	if end <= len(r.buf) {
		copy(p, r.buf[r.tail:end])
	} else {
		first := copy(p, r.buf[r.tail:])
		copy(p[first:n], r.buf[:n-first])
	}
	return n
}

// Discard drops n buffered bytes from the tail.
func (r *Ring) Discard(n int) {
	if l := r.Len(); n > l {
		n = l
	}
	r.tail = (r.tail + uint32(n)) & r.mask
}

// IndexByte returns the offset from the tail of the first c, or -1.
func (r *Ring) IndexByte(c byte) int {
	for i, pos := 0, r.tail; pos != r.head; i, pos = i+1, (pos+1)&r.mask {
		if r.buf[pos] == c {
			return i
		}
	}
	return -1
}

// Linear returns the buffered bytes which are contiguous from the tail.
func (r *Ring) Linear() []byte {
	if r.head >= r.tail {
		return r.buf[r.tail:r.head]
	}
	return r.buf[r.tail:]
}
