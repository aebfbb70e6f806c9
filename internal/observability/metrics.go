package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tunframe",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tunframe",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	framesIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tunframe",
			Subsystem: "link",
			Name:      "frames_in_total",
			Help:      "Frames completed by deframers.",
		},
		[]string{"link"},
	)
	bytesIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tunframe",
			Subsystem: "link",
			Name:      "bytes_in_total",
			Help:      "Raw stream bytes appended to deframers.",
		},
		[]string{"link"},
	)
	framesOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tunframe",
			Subsystem: "link",
			Name:      "frames_out_total",
			Help:      "Frames serialized by framers.",
		},
		[]string{"link"},
	)
	bytesOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tunframe",
			Subsystem: "link",
			Name:      "bytes_out_total",
			Help:      "Serialized stream bytes written to the transport.",
		},
		[]string{"link"},
	)
	saturationPauses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tunframe",
			Subsystem: "link",
			Name:      "saturation_pauses_total",
			Help:      "Times a receiver stopped reading because its deframer hit a limit.",
		},
		[]string{"link"},
	)
	readyFrames = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "tunframe",
			Subsystem: "link",
			Name:      "ready_frames",
			Help:      "Frames waiting in a deframer ready queue.",
		},
		[]string{"link"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests, httpDuration,
			framesIn, bytesIn, framesOut, bytesOut,
			saturationPauses, readyFrames,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordInbound(link string, raw, frames int) {
	RegisterMetrics()
	bytesIn.WithLabelValues(link).Add(float64(raw))
	framesIn.WithLabelValues(link).Add(float64(frames))
}

func RecordOutbound(link string, written, frames int) {
	RegisterMetrics()
	bytesOut.WithLabelValues(link).Add(float64(written))
	framesOut.WithLabelValues(link).Add(float64(frames))
}

func RecordSaturation(link string) {
	RegisterMetrics()
	saturationPauses.WithLabelValues(link).Inc()
}

func SetReadyFrames(link string, n int) {
	RegisterMetrics()
	readyFrames.WithLabelValues(link).Set(float64(n))
}
