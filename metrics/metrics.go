// Package metrics exposes Prometheus counters for the VP8 bridge.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the bridge.
//
// A nil *Metrics is valid; every recording method is then a no-op, so
// components can be built without a registry in tests.
type Metrics struct {
	// Packetization metrics
	FramesPacketized prometheus.Counter
	FramesDropped    prometheus.Counter
	UnitsEmitted     prometheus.Counter
	UnitBytes        prometheus.Histogram

	// Feedback metrics
	FIRSent          prometheus.Counter
	FIRFailed        prometheus.Counter
	FIRSkipped       prometheus.Counter
	FeedbackReceived *prometheus.CounterVec

	// Session metrics
	ActiveSessions prometheus.Gauge
	SequenceGaps   prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FramesPacketized: factory.NewCounter(prometheus.CounterOpts{
			Name: "vp8bridge_frames_packetized_total",
			Help: "Total number of encoded frames split into payload units",
		}),
		FramesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "vp8bridge_frames_dropped_total",
			Help: "Total number of empty, discarded or oversized frames",
		}),
		UnitsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "vp8bridge_payload_units_total",
			Help: "Total number of VP8 payload units sent",
		}),
		UnitBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vp8bridge_payload_unit_bytes",
			Help:    "Wire size of VP8 payload units including the descriptor",
			Buckets: []float64{64, 256, 512, 1024, 1351},
		}),

		FIRSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "vp8bridge_fir_sent_total",
			Help: "Total number of FIR messages handed to the transport successfully",
		}),
		FIRFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vp8bridge_fir_failed_total",
			Help: "Total number of FIR messages the transport failed to send",
		}),
		FIRSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "vp8bridge_fir_skipped_total",
			Help: "Total number of FIR requests dropped because the local SSRC was unknown",
		}),
		FeedbackReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vp8bridge_feedback_received_total",
			Help: "Total number of keyframe requests received from peers",
		}, []string{"type"}),

		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vp8bridge_active_sessions",
			Help: "Current number of managed media streams",
		}),
		SequenceGaps: factory.NewCounter(prometheus.CounterOpts{
			Name: "vp8bridge_sequence_gaps_total",
			Help: "Total number of RTP sequence gaps detected on incoming streams",
		}),
	}
}

// FramePacketized records one frame and the wire sizes of its units.
func (m *Metrics) FramePacketized(unitSizes []int) {
	if m == nil {
		return
	}
	m.FramesPacketized.Inc()
	m.UnitsEmitted.Add(float64(len(unitSizes)))
	for _, size := range unitSizes {
		m.UnitBytes.Observe(float64(size))
	}
}

// FrameDropped records a frame that produced no units.
func (m *Metrics) FrameDropped() {
	if m == nil {
		return
	}
	m.FramesDropped.Inc()
}

// FIRResult records the outcome of one FIR write.
func (m *Metrics) FIRResult(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.FIRSent.Inc()
	} else {
		m.FIRFailed.Inc()
	}
}

// FIRSkippedNoSSRC records a FIR request dropped for lack of a local SSRC.
func (m *Metrics) FIRSkippedNoSSRC() {
	if m == nil {
		return
	}
	m.FIRSkipped.Inc()
}

// KeyframeRequestReceived records an incoming FIR or PLI.
func (m *Metrics) KeyframeRequestReceived(kind string) {
	if m == nil {
		return
	}
	m.FeedbackReceived.WithLabelValues(kind).Inc()
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
}

// SequenceGap records a gap detected on an incoming stream.
func (m *Metrics) SequenceGap() {
	if m == nil {
		return
	}
	m.SequenceGaps.Inc()
}
