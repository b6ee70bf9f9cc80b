package protocol

// ParserState is the per-byte state of the frame parser.
type ParserState int

const (
	AwaitHeader ParserState = iota
	AwaitData0
	AwaitData1
	AwaitCrc
)

var parserStateNames = [...]string{"AwaitHeader", "AwaitData0", "AwaitData1", "AwaitCrc"}

func (s ParserState) String() string {
	if s >= 0 && int(s) < len(parserStateNames) {
		return parserStateNames[s]
	}
	return "Unknown"
}

// ParserStats counts frame boundaries.
type ParserStats struct {
	Frames  uint32
	Dropped uint32
}

// Parser assembles command frames one byte at a time.
type Parser struct {
	state ParserState
	frame Frame
	stats ParserStats
}

// State returns the current parser state.
func (p *Parser) State() ParserState {
	return p.state
}

// Stats returns the frame counters.
func (p *Parser) Stats() ParserStats {
	return p.stats
}

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	p.state = AwaitHeader
}

// Feed consumes one byte. It returns a frame with ok set once four bytes
// with a matching checksum are assembled. On a mismatch the bytes are
// discarded and the parser restarts at the next byte.
func (p *Parser) Feed(b byte) (f Frame, ok bool) {
	p.frame[p.state] = b
	if p.state < AwaitCrc {
		p.state++
		return
	}
	p.state = AwaitHeader
	if !p.frame.Valid() {
		p.stats.Dropped++
		return
	}
	p.stats.Frames++
	return p.frame, true
}
