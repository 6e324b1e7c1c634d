// Package rtp provides RTP transport integration for the VP8 bridge.
//
// This file handles the registry of media streams over the bridge transport:
// it routes incoming RTP/RTCP to sessions and carries FIR feedback out.
package rtp

import (
	"fmt"
	"net"
	"sort"
	"sync"

	"github.com/opd-ai/vp8bridge/av/video"
	"github.com/opd-ai/vp8bridge/metrics"
	"github.com/opd-ai/vp8bridge/transport"
	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"
)

// KeyframeRequestHandler is called when a peer asks for a keyframe of
// mediaSSRC through the stream streamID.
type KeyframeRequestHandler func(streamID uint32, mediaSSRC uint32)

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithLocalSSRC sets the SSRC the bridge sends feedback as.
func WithLocalSSRC(ssrc uint32) BridgeOption {
	return func(b *Bridge) {
		b.localSSRC = ssrc
		b.hasLocalSSRC = true
	}
}

// WithMetrics records bridge activity in m.
func WithMetrics(m *metrics.Metrics) BridgeOption {
	return func(b *Bridge) {
		b.metrics = m
	}
}

// WithSessionConfig sets the RTP parameters used for new sessions.
func WithSessionConfig(cfg SessionConfig) BridgeOption {
	return func(b *Bridge) {
		b.sessionConfig = cfg
	}
}

// WithKeyframeRequestHandler registers a callback for incoming FIR and PLI.
func WithKeyframeRequestHandler(handler KeyframeRequestHandler) BridgeOption {
	return func(b *Bridge) {
		b.onKeyframeRequest = handler
	}
}

// Bridge manages the media streams of one bridge endpoint over a transport.
//
// It implements FeedbackTransport: the registry of sessions is the set of
// destinations a FIR can be broadcast to.
type Bridge struct {
	mu           sync.RWMutex
	transport    transport.Transport
	sessions     map[uint32]*Session // streamID -> Session
	addrToStream map[string]uint32   // address string -> streamID

	localSSRC    uint32
	hasLocalSSRC bool

	sessionConfig     SessionConfig
	metrics           *metrics.Metrics
	onKeyframeRequest KeyframeRequestHandler
	dispatcher        *FeedbackDispatcher
}

var _ FeedbackTransport = (*Bridge)(nil)

// NewBridge creates a bridge on top of tr and registers its packet handlers.
//
// Parameters:
//   - tr: The transport to integrate with
//   - opts: Optional configuration
//
// Returns:
//   - *Bridge: New bridge instance
//   - error: Any error that occurred during setup
func NewBridge(tr transport.Transport, opts ...BridgeOption) (*Bridge, error) {
	if tr == nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewBridge",
			"error":    ErrNilTransport.Error(),
		}).Error("Invalid transport")
		return nil, ErrNilTransport
	}

	b := &Bridge{
		transport:    tr,
		sessions:     make(map[uint32]*Session),
		addrToStream: make(map[string]uint32),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.dispatcher = NewFeedbackDispatcher(b, b.metrics)

	b.setupPacketHandlers()

	logrus.WithFields(logrus.Fields{
		"function":       "NewBridge",
		"has_local_ssrc": b.hasLocalSSRC,
	}).Info("Bridge created")

	return b, nil
}

// setupPacketHandlers registers RTP and RTCP handlers with the transport.
func (b *Bridge) setupPacketHandlers() {
	b.transport.RegisterHandler(transport.PacketRTP, func(packet *transport.Packet, addr net.Addr) error {
		return b.handleIncomingRTP(packet, addr)
	})
	b.transport.RegisterHandler(transport.PacketRTCP, func(packet *transport.Packet, addr net.Addr) error {
		return b.handleIncomingRTCP(packet, addr)
	})
}

// Dispatcher returns the FIR dispatcher writing through this bridge.
func (b *Bridge) Dispatcher() *FeedbackDispatcher {
	return b.dispatcher
}

// SetLocalSSRC sets the SSRC used as FIR sender.
func (b *Bridge) SetLocalSSRC(ssrc uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.localSSRC = ssrc
	b.hasLocalSSRC = true
}

// ClearLocalSSRC forgets the local SSRC; FIRs fail until a new one is set.
func (b *Bridge) ClearLocalSSRC() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.localSSRC = 0
	b.hasLocalSSRC = false
}

// LocalSSRC returns the SSRC feedback is sent as, and false if none is set.
func (b *Bridge) LocalSSRC() (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.localSSRC, b.hasLocalSSRC
}

// Streams returns the registered sessions ordered by stream ID.
func (b *Bridge) Streams() []*Session {
	b.mu.RLock()
	defer b.mu.RUnlock()

	streams := make([]*Session, 0, len(b.sessions))
	for _, session := range b.sessions {
		streams = append(streams, session)
	}
	sort.Slice(streams, func(i, j int) bool {
		return streams[i].streamID < streams[j].streamID
	})
	return streams
}

// WriteFeedback marshals req and sends it through dst.
func (b *Bridge) WriteFeedback(req *FeedbackRequest, dst *Session) bool {
	if dst == nil {
		b.metrics.FIRResult(false)
		return false
	}

	data, err := req.Marshal()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "Bridge.WriteFeedback",
			"stream_id":  dst.StreamID(),
			"media_ssrc": req.MediaSSRC,
			"error":      err.Error(),
		}).Error("Failed to marshal FIR")
		b.metrics.FIRResult(false)
		return false
	}

	if err := dst.SendRTCP(data); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "Bridge.WriteFeedback",
			"stream_id":  dst.StreamID(),
			"media_ssrc": req.MediaSSRC,
			"error":      err.Error(),
		}).Warn("Failed to send FIR")
		b.metrics.FIRResult(false)
		return false
	}

	b.metrics.FIRResult(true)
	return true
}

// RequestKeyframe asks mediaSSRC for a keyframe through every stream.
func (b *Bridge) RequestKeyframe(mediaSSRC uint32) bool {
	return b.dispatcher.BroadcastFIR(mediaSSRC)
}

// CreateSession creates a new RTP session for a stream.
//
// Parameters:
//   - streamID: The stream identifier
//   - remoteAddr: The remote address for this stream
//
// Returns:
//   - *Session: The created RTP session
//   - error: Any error that occurred during session creation
func (b *Bridge) CreateSession(streamID uint32, remoteAddr net.Addr) (*Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.sessions[streamID]; exists {
		return nil, fmt.Errorf("%w for stream %d", ErrSessionExists, streamID)
	}

	session, err := newSession(streamID, b.transport, remoteAddr, b.sessionConfig, b.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create RTP session: %w", err)
	}

	b.sessions[streamID] = session

	addrKey := remoteAddr.String()
	b.addrToStream[addrKey] = streamID
	b.metrics.SessionOpened()

	logrus.WithFields(logrus.Fields{
		"function":    "CreateSession",
		"stream_id":   streamID,
		"remote_addr": addrKey,
	}).Debug("Registered address-to-stream mapping")

	return session, nil
}

// GetSession retrieves an existing RTP session for a stream.
func (b *Bridge) GetSession(streamID uint32) (*Session, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	session, exists := b.sessions[streamID]
	return session, exists
}

// CloseSession closes and removes an RTP session.
func (b *Bridge) CloseSession(streamID uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	session, exists := b.sessions[streamID]
	if !exists {
		return fmt.Errorf("%w for stream %d", ErrSessionNotFound, streamID)
	}

	if err := session.Close(); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	addrKey := session.RemoteAddr().String()
	if b.addrToStream[addrKey] == streamID {
		delete(b.addrToStream, addrKey)
	}
	delete(b.sessions, streamID)
	b.metrics.SessionClosed()

	logrus.WithFields(logrus.Fields{
		"function":    "CloseSession",
		"stream_id":   streamID,
		"remote_addr": addrKey,
	}).Debug("Removed address-to-stream mapping")

	return nil
}

// sessionForAddr looks up the session registered for addr.
func (b *Bridge) sessionForAddr(addr net.Addr) (*Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	addrKey := addr.String()
	streamID, exists := b.addrToStream[addrKey]
	if !exists {
		return nil, fmt.Errorf("no session found for address %s", addrKey)
	}
	session, exists := b.sessions[streamID]
	if !exists {
		return nil, fmt.Errorf("%w for stream %d", ErrSessionNotFound, streamID)
	}
	return session, nil
}

// handleIncomingRTP tracks an incoming VP8 RTP packet. A sequence gap means
// the decoder downstream has lost reference state, so a keyframe is requested
// from the sender.
func (b *Bridge) handleIncomingRTP(packet *transport.Packet, addr net.Addr) error {
	session, err := b.sessionForAddr(addr)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "handleIncomingRTP",
			"remote_addr": addr.String(),
		}).Debug("No session found for address")
		return err
	}

	pkt := &rtp.Packet{}
	if err := pkt.Unmarshal(packet.Data); err != nil {
		return fmt.Errorf("failed to unmarshal RTP packet: %w", err)
	}

	unit, err := video.UnmarshalPayloadUnit(pkt.Payload)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "handleIncomingRTP",
			"stream_id": session.StreamID(),
			"error":     err.Error(),
		}).Debug("Dropping RTP packet with invalid VP8 payload")
		return err
	}

	if session.RecordReceived(pkt.SSRC, pkt.SequenceNumber) {
		b.metrics.SequenceGap()
		b.RequestKeyframe(pkt.SSRC)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "handleIncomingRTP",
		"stream_id": session.StreamID(),
		"ssrc":      pkt.SSRC,
		"sequence":  pkt.SequenceNumber,
		"start":     unit.Start,
		"data_size": len(unit.Data),
	}).Debug("Processed incoming VP8 packet")

	return nil
}

// handleIncomingRTCP surfaces keyframe requests (FIR, PLI) from peers.
func (b *Bridge) handleIncomingRTCP(packet *transport.Packet, addr net.Addr) error {
	session, err := b.sessionForAddr(addr)
	if err != nil {
		return err
	}

	packets, err := rtcp.Unmarshal(packet.Data)
	if err != nil {
		return fmt.Errorf("failed to unmarshal RTCP packet: %w", err)
	}

	for _, p := range packets {
		switch fb := p.(type) {
		case *rtcp.FullIntraRequest:
			for _, entry := range fb.FIR {
				b.metrics.KeyframeRequestReceived("fir")
				b.notifyKeyframeRequest(session.StreamID(), entry.SSRC)
			}
		case *rtcp.PictureLossIndication:
			b.metrics.KeyframeRequestReceived("pli")
			b.notifyKeyframeRequest(session.StreamID(), fb.MediaSSRC)
		}
	}

	return nil
}

func (b *Bridge) notifyKeyframeRequest(streamID, mediaSSRC uint32) {
	logrus.WithFields(logrus.Fields{
		"function":   "notifyKeyframeRequest",
		"stream_id":  streamID,
		"media_ssrc": mediaSSRC,
	}).Debug("Keyframe requested by peer")

	if b.onKeyframeRequest != nil {
		b.onKeyframeRequest(streamID, mediaSSRC)
	}
}

// Close shuts down the bridge and all sessions. The transport stays open;
// it belongs to the caller.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for streamID, session := range b.sessions {
		if err := session.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":  "Close",
				"stream_id": streamID,
				"error":     err.Error(),
			}).Error("Error closing session")
		}
		b.metrics.SessionClosed()
	}

	b.sessions = make(map[uint32]*Session)
	b.addrToStream = make(map[string]uint32)

	return nil
}
