package protocol

import "errors"

var (
	ErrTruncatedStream = errors.New("protocol: stream ended inside a frame")
	ErrSequenceGap     = errors.New("protocol: sequence gap at end of stream")
)
