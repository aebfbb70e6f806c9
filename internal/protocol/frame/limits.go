package frame

// Limits caps what a deframer holds before its owner should stop reading.
// Zero fields are unlimited. Limits never cause bytes to be rejected.
type Limits struct {
	MaxReadyFrames   int
	MaxBufferedBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxReadyFrames:   1024,
		MaxBufferedBytes: 8 * 1024 * 1024,
	}
}

func (l Limits) Unlimited() bool {
	return l.MaxReadyFrames <= 0 && l.MaxBufferedBytes <= 0
}

func (l Limits) exceeded(frames, buffered int) bool {
	if l.MaxReadyFrames > 0 && frames >= l.MaxReadyFrames {
		return true
	}
	if l.MaxBufferedBytes > 0 && buffered >= l.MaxBufferedBytes {
		return true
	}
	return false
}
