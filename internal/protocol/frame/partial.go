package frame

// partial collects exactly need bytes from pieces of arbitrary size.
type partial struct {
	buf  []byte
	need int
}

// expect arms p for n bytes. Storage is reused unless it was handed out by take.
func (p *partial) expect(n int) {
	if cap(p.buf) < n {
		p.buf = make([]byte, 0, n)
	}
	p.buf = p.buf[:0]
	p.need = n
}

// fill consumes as much of in as still fits and returns the unconsumed tail.
func (p *partial) fill(in []byte) []byte {
	n := p.remaining()
	if n > len(in) {
		n = len(in)
	}
	p.buf = append(p.buf, in[:n]...)
	return in[n:]
}

func (p *partial) complete() bool {
	return len(p.buf) == p.need
}

func (p *partial) buffered() int {
	return len(p.buf)
}

func (p *partial) remaining() int {
	return p.need - len(p.buf)
}

func (p *partial) bytes() []byte {
	return p.buf
}

// take hands the collected bytes to the caller and forgets them.
func (p *partial) take() []byte {
	b := p.buf
	if b == nil {
		b = []byte{}
	}
	p.buf = nil
	p.need = 0
	return b
}

func (p *partial) reset() {
	p.buf = p.buf[:0]
	p.need = 0
}
