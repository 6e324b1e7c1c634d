// Package video provides VP8 payload framing for the bridge.
//
// This file implements the frame fragmenter: one encoded VP8 frame in,
// an ordered run of size bounded payload units out.
package video

import (
	"fmt"

	"github.com/opd-ai/vp8bridge/limits"
	"github.com/sirupsen/logrus"
)

// Frame is one already-encoded VP8 frame handed to a FramePacketizer.
type Frame struct {
	Data []byte

	// Discard marks a frame the encoder flagged as unusable. Discarded frames
	// produce no payload units.
	Discard bool
}

// PayloadUnit is a descriptor-prefixed slice of a frame, ready to become the
// payload of one RTP packet.
type PayloadUnit struct {
	buf    []byte // head room + descriptor + data
	offset int    // index of the descriptor in buf
}

// newPayloadUnit copies data behind DescriptorMaxLength bytes of head room and
// writes the descriptor immediately before it.
func newPayloadUnit(data []byte, isFirst bool) *PayloadUnit {
	buf := make([]byte, limits.DescriptorMaxLength+len(data))
	copy(buf[limits.DescriptorMaxLength:], data)

	offset := limits.DescriptorMaxLength - limits.DescriptorLength
	buf[offset] = EncodeDescriptor(isFirst)

	return &PayloadUnit{buf: buf, offset: offset}
}

// Bytes returns the descriptor followed by the data, as sent on the wire.
func (u *PayloadUnit) Bytes() []byte {
	return u.buf[u.offset:]
}

// Descriptor returns the payload descriptor octet.
func (u *PayloadUnit) Descriptor() byte {
	return u.buf[u.offset]
}

// Data returns the frame bytes carried by the unit, descriptor stripped.
func (u *PayloadUnit) Data() []byte {
	return u.buf[u.offset+limits.DescriptorLength:]
}

// StartOfPartition reports whether this is the first unit of its frame.
func (u *PayloadUnit) StartOfPartition() bool {
	return IsStartOfPartition(u.Descriptor())
}

// Len returns the wire length of the unit.
func (u *PayloadUnit) Len() int {
	return len(u.buf) - u.offset
}

// FramePacketizer fragments encoded VP8 frames into payload units of at most
// maxSize data bytes.
//
// It is a two state machine: awaiting a frame, or emitting the remainder of
// the current one. A FramePacketizer has no internal locking; each outbound
// stream owns its own instance and drives it from a single goroutine.
type FramePacketizer struct {
	maxSize int

	frame            []byte
	pendingOffset    int
	pendingRemaining int
	nextIsFirst      bool
}

// NewFramePacketizer creates a packetizer using limits.MaxPayloadSize.
func NewFramePacketizer() *FramePacketizer {
	return &FramePacketizer{
		maxSize:     limits.MaxPayloadSize,
		nextIsFirst: true,
	}
}

// NewFramePacketizerWithMaxSize creates a packetizer with a smaller data
// budget per unit, for transports whose MTU cannot fit the default.
func NewFramePacketizerWithMaxSize(maxSize int) (*FramePacketizer, error) {
	if maxSize <= 0 || maxSize > limits.MaxPayloadSize {
		return nil, fmt.Errorf("invalid max payload size: %d (must be 1-%d)", maxSize, limits.MaxPayloadSize)
	}
	return &FramePacketizer{
		maxSize:     maxSize,
		nextIsFirst: true,
	}, nil
}

// MaxSize returns the data budget per unit.
func (fp *FramePacketizer) MaxSize() int {
	return fp.maxSize
}

// Submit hands a new frame to the packetizer. Empty or discarded frames are
// dropped without producing any unit.
//
// The start-of-frame flag carries over from the previous frame; it is only
// true when the previous frame was fully drained.
func (fp *FramePacketizer) Submit(frame Frame) {
	if frame.Discard || len(frame.Data) == 0 {
		return
	}

	if fp.frame != nil {
		logrus.WithFields(logrus.Fields{
			"function":          "FramePacketizer.Submit",
			"pending_remaining": fp.pendingRemaining,
			"frame_size":        len(frame.Data),
		}).Warn("Submitting frame while previous frame is still pending")
	}

	fp.frame = frame.Data
	fp.pendingOffset = 0
	fp.pendingRemaining = len(frame.Data)
}

// NextUnit returns the next payload unit of the current frame. The second
// result is false once the frame is drained; further calls keep returning
// false until another frame is submitted.
func (fp *FramePacketizer) NextUnit() (*PayloadUnit, bool) {
	if fp.frame == nil {
		return nil, false
	}
	if fp.pendingRemaining < 0 || fp.pendingOffset+fp.pendingRemaining > len(fp.frame) {
		panic(fmt.Sprintf("video: corrupt packetizer state: offset %d remaining %d frame %d",
			fp.pendingOffset, fp.pendingRemaining, len(fp.frame)))
	}

	if fp.pendingRemaining <= fp.maxSize {
		unit := newPayloadUnit(fp.frame[fp.pendingOffset:fp.pendingOffset+fp.pendingRemaining], fp.nextIsFirst)

		fp.nextIsFirst = true
		fp.frame = nil
		fp.pendingOffset = 0
		fp.pendingRemaining = 0
		return unit, true
	}

	unit := newPayloadUnit(fp.frame[fp.pendingOffset:fp.pendingOffset+fp.maxSize], fp.nextIsFirst)

	fp.nextIsFirst = false
	fp.pendingOffset += fp.maxSize
	fp.pendingRemaining -= fp.maxSize
	return unit, true
}

// Pending reports whether units of the current frame remain to be emitted.
func (fp *FramePacketizer) Pending() bool {
	return fp.frame != nil
}

// Packetize submits frame and drains every unit it produces.
func (fp *FramePacketizer) Packetize(frame Frame) []*PayloadUnit {
	fp.Submit(frame)
	if !fp.Pending() {
		return nil
	}

	units := make([]*PayloadUnit, 0, (fp.pendingRemaining+fp.maxSize-1)/fp.maxSize)
	for {
		unit, ok := fp.NextUnit()
		if !ok {
			break
		}
		units = append(units, unit)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "FramePacketizer.Packetize",
		"frame_size": len(frame.Data),
		"units":      len(units),
	}).Debug("Frame packetized")

	return units
}
