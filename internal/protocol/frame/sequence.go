package frame

// Sequencer hands out packet sequence numbers for one logical stream.
// Numbers wrap modulo 2^32.
type Sequencer struct {
	next uint32
}

func NewSequencer(start uint32) *Sequencer {
	return &Sequencer{next: start}
}

func (s *Sequencer) Next() uint32 {
	seq := s.next
	s.next++
	return seq
}

// Peek returns the number the next call to Next will return.
func (s *Sequencer) Peek() uint32 {
	return s.next
}

// SeqLess reports whether a precedes b in wrapping sequence space.
func SeqLess(a, b uint32) bool {
	return int32(a-b) < 0
}
