package frame

// Phase is the position of a deframer inside the current frame.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingHeader
	PhaseAwaitingPayload
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingHeader:
		return "awaiting_header"
	case PhaseAwaitingPayload:
		return "awaiting_payload"
	default:
		return "unknown"
	}
}

// ContinuationState is a snapshot of a partially received frame.
type ContinuationState struct {
	Phase            Phase
	HeaderBuffered   int
	PayloadBuffered  int
	DeclaredLength   uint16
	DeclaredSequence uint32
}

// PayloadRemaining is the number of payload bytes still expected.
func (s ContinuationState) PayloadRemaining() int {
	if s.Phase != PhaseAwaitingPayload {
		return 0
	}
	return int(s.DeclaredLength) - s.PayloadBuffered
}

type headerDecoder func(hdr []byte) (length uint16, seq uint32)

func decodePacketFields(hdr []byte) (uint16, uint32) {
	h := readPacketHeader(hdr)
	return h.Length, h.Sequence
}

func decodeChunkFields(hdr []byte) (uint16, uint32) {
	return readChunkHeader(hdr), 0
}

// machine is the two-phase header/payload state machine shared by the
// deframers. Every completed frame is passed to emit.
type machine struct {
	headerLen int
	decode    headerDecoder
	emit      func(seq uint32, payload []byte)

	phase   Phase
	header  partial
	payload partial
	length  uint16
	seq     uint32
}

func newMachine(headerLen int, decode headerDecoder, emit func(uint32, []byte)) machine {
	return machine{headerLen: headerLen, decode: decode, emit: emit}
}

func (m *machine) feed(in []byte) {
	for len(in) > 0 {
		switch m.phase {
		case PhaseIdle, PhaseAwaitingHeader:
			in = m.stepHeader(in)
		case PhaseAwaitingPayload:
			in = m.stepPayload(in)
		}
	}
}

// stepHeader consumes header bytes. A zero-length frame completes here.
func (m *machine) stepHeader(in []byte) []byte {
	if m.phase == PhaseIdle {
		m.header.expect(m.headerLen)
		m.phase = PhaseAwaitingHeader
	}
	in = m.header.fill(in)
	if !m.header.complete() {
		return in
	}
	m.length, m.seq = m.decode(m.header.bytes())
	m.header.reset()
	m.payload.expect(int(m.length))
	if m.length == 0 {
		m.finish()
		return in
	}
	m.phase = PhaseAwaitingPayload
	return in
}

func (m *machine) stepPayload(in []byte) []byte {
	in = m.payload.fill(in)
	if m.payload.complete() {
		m.finish()
	}
	return in
}

func (m *machine) finish() {
	m.emit(m.seq, m.payload.take())
	m.phase = PhaseIdle
	m.length = 0
	m.seq = 0
}

func (m *machine) state() ContinuationState {
	s := ContinuationState{Phase: m.phase}
	switch m.phase {
	case PhaseAwaitingHeader:
		s.HeaderBuffered = m.header.buffered()
	case PhaseAwaitingPayload:
		s.PayloadBuffered = m.payload.buffered()
		s.DeclaredLength = m.length
		s.DeclaredSequence = m.seq
	}
	return s
}

func (m *machine) pendingBytes() int {
	return m.header.buffered() + m.payload.buffered()
}
