package pump

import "sync/atomic"

// Stats is a point-in-time view of one link direction.
type Stats struct {
	Name        string `json:"name"`
	BytesIn     uint64 `json:"bytes_in"`
	FramesIn    uint64 `json:"frames_in"`
	BytesOut    uint64 `json:"bytes_out"`
	FramesOut   uint64 `json:"frames_out"`
	ReadyFrames int64  `json:"ready_frames"`
	Pauses      uint64 `json:"saturation_pauses"`
}

// counters are written by the pump goroutines and read by stats callers.
type counters struct {
	bytesIn   atomic.Uint64
	framesIn  atomic.Uint64
	bytesOut  atomic.Uint64
	framesOut atomic.Uint64
	ready     atomic.Int64
	pauses    atomic.Uint64
}

func (c *counters) snapshot(name string) Stats {
	return Stats{
		Name:        name,
		BytesIn:     c.bytesIn.Load(),
		FramesIn:    c.framesIn.Load(),
		BytesOut:    c.bytesOut.Load(),
		FramesOut:   c.framesOut.Load(),
		ReadyFrames: c.ready.Load(),
		Pauses:      c.pauses.Load(),
	}
}
