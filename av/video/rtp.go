// Package video provides RTP payload framing for VP8 video.
//
// This file adapts the FramePacketizer to pion/rtp so RTP headers
// (sequence numbers, timestamps, marker bit) come from rtp.Packetizer.
package video

import (
	"fmt"

	"github.com/opd-ai/vp8bridge/limits"
	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// VP8Payloader implements rtp.Payloader on top of a FramePacketizer.
//
// Like the packetizer it wraps, a VP8Payloader belongs to one stream and must
// not be used from several goroutines at once.
type VP8Payloader struct {
	packetizer *FramePacketizer
}

var _ rtp.Payloader = (*VP8Payloader)(nil)

// NewVP8Payloader creates a payloader using limits.MaxPayloadSize.
func NewVP8Payloader() *VP8Payloader {
	return &VP8Payloader{packetizer: NewFramePacketizer()}
}

// Payload fragments one encoded frame. mtu is the space available for the RTP
// payload; when it cannot hold a full unit the data budget shrinks to fit.
func (vp *VP8Payloader) Payload(mtu uint16, payload []byte) [][]byte {
	maxSize := int(mtu) - limits.DescriptorLength
	if maxSize <= 0 {
		return nil
	}
	if maxSize > limits.MaxPayloadSize {
		maxSize = limits.MaxPayloadSize
	}

	if vp.packetizer.MaxSize() != maxSize {
		packetizer, err := NewFramePacketizerWithMaxSize(maxSize)
		if err != nil {
			return nil
		}
		vp.packetizer = packetizer
	}

	units := vp.packetizer.Packetize(Frame{Data: payload})
	if len(units) == 0 {
		return nil
	}

	out := make([][]byte, len(units))
	for i, unit := range units {
		out[i] = unit.Bytes()
	}
	return out
}

// ReceivedUnit is a payload unit parsed from an incoming RTP packet.
type ReceivedUnit struct {
	Start bool
	Data  []byte
}

// UnmarshalPayloadUnit parses the VP8 payload descriptor of an incoming RTP
// payload with pion's codecs.VP8Packet.
func UnmarshalPayloadUnit(payload []byte) (ReceivedUnit, error) {
	var vp8 codecs.VP8Packet
	data, err := vp8.Unmarshal(payload)
	if err != nil {
		return ReceivedUnit{}, fmt.Errorf("failed to parse VP8 payload: %w", err)
	}
	return ReceivedUnit{Start: vp8.S == 1, Data: data}, nil
}
