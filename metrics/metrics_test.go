package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.KeyframeRequestReceived("fir")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_Recording(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.FramePacketized([]int{1351, 1351, 2})
	m.FrameDropped()
	m.FIRResult(true)
	m.FIRResult(true)
	m.FIRResult(false)
	m.FIRSkippedNoSSRC()
	m.KeyframeRequestReceived("pli")
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.SequenceGap()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesPacketized))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.UnitsEmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FIRSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FIRFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FIRSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FeedbackReceived.WithLabelValues("pli")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SequenceGaps))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.FramePacketized([]int{10})
		m.FrameDropped()
		m.FIRResult(true)
		m.FIRSkippedNoSSRC()
		m.KeyframeRequestReceived("fir")
		m.SessionOpened()
		m.SessionClosed()
		m.SequenceGap()
	})
}
