package observability

import (
	"testing"
	"time"

	"github.com/danmuck/tunframe/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("admin-a", "GET", "/health", 200, 12*time.Millisecond)
	RecordSaturation("link-a")
	SetReadyFrames("link-a", 3)
}

func TestLinkCountersAccumulate(t *testing.T) {
	testlog.Start(t)
	link := "metrics-test-link"
	RecordInbound(link, 100, 2)
	RecordInbound(link, 20, 1)
	RecordOutbound(link, 64, 4)
	if got := testutil.ToFloat64(bytesIn.WithLabelValues(link)); got != 120 {
		t.Fatalf("bytes in: got=%v", got)
	}
	if got := testutil.ToFloat64(framesIn.WithLabelValues(link)); got != 3 {
		t.Fatalf("frames in: got=%v", got)
	}
	if got := testutil.ToFloat64(framesOut.WithLabelValues(link)); got != 4 {
		t.Fatalf("frames out: got=%v", got)
	}
}
