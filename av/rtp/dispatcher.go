package rtp

import (
	"github.com/opd-ai/vp8bridge/metrics"
	"github.com/sirupsen/logrus"
)

// FeedbackTransport is what the dispatcher needs from the media transport.
type FeedbackTransport interface {
	// LocalSSRC returns the SSRC this endpoint sends feedback as. The second
	// result is false while no local SSRC is known.
	LocalSSRC() (uint32, bool)

	// Streams returns the currently managed destination streams.
	Streams() []*Session

	// WriteFeedback sends req to dst and reports whether it was handed off.
	WriteFeedback(req *FeedbackRequest, dst *Session) bool
}

// FeedbackDispatcher builds Full Intra Requests and routes them to
// destination streams. Each call makes at most one write per destination and
// never retries; timeouts and retries belong to the transport.
type FeedbackDispatcher struct {
	transport FeedbackTransport
	sequencer *FeedbackSequencer
	metrics   *metrics.Metrics
}

// NewFeedbackDispatcher creates a dispatcher with its own sequencer.
// m may be nil.
func NewFeedbackDispatcher(transport FeedbackTransport, m *metrics.Metrics) *FeedbackDispatcher {
	return NewFeedbackDispatcherWithSequencer(transport, NewFeedbackSequencer(), m)
}

// NewFeedbackDispatcherWithSequencer creates a dispatcher sharing seq, so
// several dispatchers writing as the same local SSRC keep one counter per key.
func NewFeedbackDispatcherWithSequencer(transport FeedbackTransport, seq *FeedbackSequencer, m *metrics.Metrics) *FeedbackDispatcher {
	return &FeedbackDispatcher{
		transport: transport,
		sequencer: seq,
		metrics:   m,
	}
}

// Sequencer returns the sequencer backing this dispatcher.
func (fd *FeedbackDispatcher) Sequencer() *FeedbackSequencer {
	return fd.sequencer
}

// SendFIR asks mediaSSRC for a keyframe through dst. It returns false without
// sending anything when the local SSRC is unknown; otherwise it returns the
// transport's result.
func (fd *FeedbackDispatcher) SendFIR(dst *Session, mediaSSRC uint32) bool {
	localSSRC, ok := fd.transport.LocalSSRC()
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function":   "FeedbackDispatcher.SendFIR",
			"media_ssrc": mediaSSRC,
		}).Debug("Local SSRC unknown, not sending FIR")
		fd.metrics.FIRSkippedNoSSRC()
		return false
	}

	req := &FeedbackRequest{
		SenderSSRC: localSSRC,
		MediaSSRC:  mediaSSRC,
		Sequence:   fd.sequencer.Next(localSSRC, mediaSSRC),
	}

	sent := fd.transport.WriteFeedback(req, dst)

	logrus.WithFields(logrus.Fields{
		"function":    "FeedbackDispatcher.SendFIR",
		"sender_ssrc": localSSRC,
		"media_ssrc":  mediaSSRC,
		"sequence":    req.Sequence,
		"sent":        sent,
	}).Debug("FIR dispatched")

	return sent
}

// SendFIRToMany sends one FIR per media SSRC through dst, in order. Every SSRC
// is attempted; the result is true if at least one send succeeded.
func (fd *FeedbackDispatcher) SendFIRToMany(dst *Session, mediaSSRCs []uint32) bool {
	sent := false
	for _, mediaSSRC := range mediaSSRCs {
		if fd.SendFIR(dst, mediaSSRC) {
			sent = true
		}
	}
	return sent
}

// BroadcastFIR sends a FIR for mediaSSRC through every managed stream and
// returns true if at least one send succeeded.
//
// Incoming streams do not report which remote sources they carry, so there is
// no way to pick the one stream that leads to mediaSSRC. Broadcasting reaches
// it at the cost of redundant FIRs to every other peer.
func (fd *FeedbackDispatcher) BroadcastFIR(mediaSSRC uint32) bool {
	streams := fd.transport.Streams()

	sent := false
	for _, stream := range streams {
		if fd.SendFIR(stream, mediaSSRC) {
			sent = true
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":   "FeedbackDispatcher.BroadcastFIR",
		"media_ssrc": mediaSSRC,
		"streams":    len(streams),
		"sent":       sent,
	}).Info("Broadcast FIR to all streams")

	return sent
}
