// Package rtp provides RTP transport functionality for the VP8 bridge.
//
// This package handles RTP session management, VP8 frame transmission,
// receive-side loss detection and RTCP Full Intra Request feedback over
// the bridge transport.
package rtp

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/vp8bridge/av/video"
	"github.com/opd-ai/vp8bridge/limits"
	"github.com/opd-ai/vp8bridge/metrics"
	"github.com/opd-ai/vp8bridge/transport"
	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultPayloadType is the dynamic RTP payload type used for VP8.
	DefaultPayloadType uint8 = 96

	// DefaultClockRate is the RTP clock rate for video.
	DefaultClockRate uint32 = 90000

	// rtpHeaderSize is the fixed RTP header without CSRCs or extensions.
	rtpHeaderSize = 12
)

// SessionConfig holds per-stream RTP parameters. Zero values select the
// defaults; a zero SSRC is replaced by a random one.
type SessionConfig struct {
	SSRC        uint32
	PayloadType uint8
	ClockRate   uint32
}

// Session is one outbound VP8 stream to a remote peer.
//
// The session owns its payloader exclusively; the session mutex is what
// serializes access to it.
type Session struct {
	mu         sync.RWMutex
	streamID   uint32
	ssrc       uint32
	created    time.Time
	transport  transport.Transport
	remoteAddr net.Addr
	metrics    *metrics.Metrics

	packetizer rtp.Packetizer
	closed     bool

	// Receive side tracking for the peer's stream
	remoteSSRC    uint32
	hasRemoteSSRC bool
	lastSeq       uint16

	// Statistics tracking
	stats Statistics
}

// Statistics holds per-session counters.
type Statistics struct {
	FramesSent      uint64
	FramesDropped   uint64
	PacketsSent     uint64
	BytesSent       uint64
	PacketsReceived uint64
	PacketsLost     uint64
	FeedbackSent    uint64
}

// NewSession creates a new RTP session for a stream.
//
// Parameters:
//   - streamID: Identifier of the stream within the bridge
//   - tr: Bridge transport for packet transmission
//   - remoteAddr: Remote peer address for packet transmission
//   - cfg: RTP parameters; zero values select defaults
//
// Returns:
//   - *Session: The new RTP session
//   - error: Any error that occurred during setup
func NewSession(streamID uint32, tr transport.Transport, remoteAddr net.Addr, cfg SessionConfig) (*Session, error) {
	return newSession(streamID, tr, remoteAddr, cfg, nil)
}

func newSession(streamID uint32, tr transport.Transport, remoteAddr net.Addr, cfg SessionConfig, m *metrics.Metrics) (*Session, error) {
	if tr == nil {
		return nil, ErrNilTransport
	}
	if remoteAddr == nil {
		return nil, ErrNilRemoteAddr
	}

	if cfg.PayloadType == 0 {
		cfg.PayloadType = DefaultPayloadType
	}
	if cfg.ClockRate == 0 {
		cfg.ClockRate = DefaultClockRate
	}
	if cfg.SSRC == 0 {
		ssrc, err := generateSSRC()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "NewSession",
				"error":    err.Error(),
			}).Error("Failed to generate SSRC")
			return nil, fmt.Errorf("failed to generate SSRC: %w", err)
		}
		cfg.SSRC = ssrc
	}

	mtu := uint16(rtpHeaderSize + limits.MaxUnitSize)
	packetizer := rtp.NewPacketizer(mtu, cfg.PayloadType, cfg.SSRC, video.NewVP8Payloader(), rtp.NewRandomSequencer(), cfg.ClockRate)

	logrus.WithFields(logrus.Fields{
		"function":     "NewSession",
		"stream_id":    streamID,
		"ssrc":         cfg.SSRC,
		"payload_type": cfg.PayloadType,
		"remote_addr":  remoteAddr.String(),
	}).Info("RTP session created")

	return &Session{
		streamID:   streamID,
		ssrc:       cfg.SSRC,
		created:    time.Now(),
		transport:  tr,
		remoteAddr: remoteAddr,
		metrics:    m,
		packetizer: packetizer,
	}, nil
}

// generateSSRC returns a random synchronization source identifier.
func generateSSRC() (uint32, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// SendVideoFrame packetizes one encoded VP8 frame and sends every resulting
// RTP packet to the remote peer. The marker bit is set on the last packet.
//
// Empty frames are dropped silently. Frames above limits.MaxFrameSize are
// rejected with limits.ErrFrameTooLarge.
//
// Parameters:
//   - frame: Encoded VP8 frame
//   - samples: RTP clock ticks to advance the timestamp by after this frame
//
// Returns:
//   - error: Any error that occurred during sending
func (s *Session) SendVideoFrame(frame []byte, samples uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	if len(frame) == 0 {
		s.stats.FramesDropped++
		s.metrics.FrameDropped()
		return nil
	}
	if err := limits.ValidateFrameSize(frame); err != nil {
		s.stats.FramesDropped++
		s.metrics.FrameDropped()
		return err
	}

	packets := s.packetizer.Packetize(frame, samples)
	sizes := make([]int, 0, len(packets))

	for _, packet := range packets {
		data, err := packet.Marshal()
		if err != nil {
			return fmt.Errorf("failed to marshal RTP packet: %w", err)
		}

		err = s.transport.Send(&transport.Packet{
			PacketType: transport.PacketRTP,
			Data:       data,
		}, s.remoteAddr)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":  "Session.SendVideoFrame",
				"stream_id": s.streamID,
				"sequence":  packet.SequenceNumber,
				"error":     err.Error(),
			}).Error("Failed to send video RTP packet")
			return fmt.Errorf("%w: %v", ErrRTPFailed, err)
		}

		s.stats.PacketsSent++
		s.stats.BytesSent += uint64(len(data))
		sizes = append(sizes, len(packet.Payload))
	}

	s.stats.FramesSent++
	s.metrics.FramePacketized(sizes)

	logrus.WithFields(logrus.Fields{
		"function":   "Session.SendVideoFrame",
		"stream_id":  s.streamID,
		"frame_size": len(frame),
		"packets":    len(packets),
	}).Debug("Video frame sent")

	return nil
}

// SendRTCP sends marshaled RTCP packets to the remote peer.
func (s *Session) SendRTCP(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}

	err := s.transport.Send(&transport.Packet{
		PacketType: transport.PacketRTCP,
		Data:       data,
	}, s.remoteAddr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRTCPFailed, err)
	}

	s.stats.FeedbackSent++
	return nil
}

// RecordReceived tracks an incoming RTP packet from the peer and reports
// whether packets were lost since the previous one. A new remote SSRC
// restarts tracking without reporting a gap.
func (s *Session) RecordReceived(ssrc uint32, seq uint16) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.PacketsReceived++

	if !s.hasRemoteSSRC || ssrc != s.remoteSSRC {
		if s.hasRemoteSSRC {
			logrus.WithFields(logrus.Fields{
				"function":  "Session.RecordReceived",
				"stream_id": s.streamID,
				"old_ssrc":  s.remoteSSRC,
				"new_ssrc":  ssrc,
			}).Info("Remote SSRC changed")
		}
		s.remoteSSRC = ssrc
		s.hasRemoteSSRC = true
		s.lastSeq = seq
		return false
	}

	// Difference in 16-bit sequence space; zero or negative means a
	// duplicate or reordered packet, not loss.
	diff := int16(seq - s.lastSeq)
	if diff <= 0 {
		return false
	}
	s.lastSeq = seq

	if diff == 1 {
		return false
	}

	s.stats.PacketsLost += uint64(diff - 1)

	logrus.WithFields(logrus.Fields{
		"function":          "Session.RecordReceived",
		"stream_id":         s.streamID,
		"ssrc":              ssrc,
		"received_sequence": seq,
		"lost":              diff - 1,
	}).Warn("Sequence gap detected in RTP stream")

	return true
}

// RemoteSSRC returns the SSRC of the peer's stream, if any packet was seen.
func (s *Session) RemoteSSRC() (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.remoteSSRC, s.hasRemoteSSRC
}

// StreamID returns the stream identifier.
func (s *Session) StreamID() uint32 {
	return s.streamID
}

// SSRC returns the SSRC of the outbound stream.
func (s *Session) SSRC() uint32 {
	return s.ssrc
}

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() net.Addr {
	return s.remoteAddr
}

// Created returns when the session was created.
func (s *Session) Created() time.Time {
	return s.created
}

// GetStatistics returns current session statistics.
func (s *Session) GetStatistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stats
}

// Close gracefully closes the RTP session. Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.packetizer = nil

	return nil
}
