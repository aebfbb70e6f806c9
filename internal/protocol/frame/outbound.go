package frame

import (
	"bytes"
	"io"
)

// outbound holds serialized stream bytes waiting to be sent.
type outbound struct {
	buf bytes.Buffer
}

func (o *outbound) read(size int) []byte {
	n := o.buf.Len()
	if size == 0 || n == 0 {
		return []byte{}
	}
	if size > 0 && size < n {
		n = size
	}
	out := make([]byte, n)
	_, _ = o.buf.Read(out)
	return out
}

func (o *outbound) writeTo(w io.Writer) (int64, error) {
	return o.buf.WriteTo(w)
}
