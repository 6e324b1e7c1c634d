package rtp

import (
	"fmt"

	"github.com/pion/rtcp"
)

const (
	// FeedbackFormatFIR is the FMT value of a Full Intra Request (RFC 5104).
	FeedbackFormatFIR = rtcp.FormatFIR

	// FeedbackCategoryPSFB is the RTCP packet type for payload-specific feedback.
	FeedbackCategoryPSFB = rtcp.TypePayloadSpecificFeedback
)

// FeedbackRequest is a Full Intra Request asking MediaSSRC for a keyframe.
type FeedbackRequest struct {
	SenderSSRC uint32
	MediaSSRC  uint32

	// Sequence is the unbounded counter from FeedbackSequencer.
	Sequence uint64
}

// Format returns the feedback message type.
func (r *FeedbackRequest) Format() uint8 {
	return FeedbackFormatFIR
}

// Category returns the RTCP packet type carrying the request.
func (r *FeedbackRequest) Category() rtcp.PacketType {
	return FeedbackCategoryPSFB
}

// WireSequence returns the 8-bit command sequence number sent on the wire.
// The counter wraps modulo 256 by protocol definition.
func (r *FeedbackRequest) WireSequence() uint8 {
	return uint8(r.Sequence % 256)
}

// Packet converts the request to a pion FIR packet. The media source field of
// the common header is the media sender, and the single FCI entry repeats it
// with the command sequence number.
func (r *FeedbackRequest) Packet() *rtcp.FullIntraRequest {
	return &rtcp.FullIntraRequest{
		SenderSSRC: r.SenderSSRC,
		MediaSSRC:  r.MediaSSRC,
		FIR: []rtcp.FIREntry{
			{
				SSRC:           r.MediaSSRC,
				SequenceNumber: r.WireSequence(),
			},
		},
	}
}

// Marshal encodes the request as an RTCP packet.
func (r *FeedbackRequest) Marshal() ([]byte, error) {
	data, err := r.Packet().Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal FIR: %w", err)
	}
	return data, nil
}
