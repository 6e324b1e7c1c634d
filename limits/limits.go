// Package limits provides centralized media size limits for the VP8 bridge.
// This ensures consistent validation across packetization and session code.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxPayloadSize is the maximum number of VP8 data bytes carried by one
	// payload unit. It excludes the payload descriptor and any RTP/UDP/IP headers.
	MaxPayloadSize = 1350

	// DescriptorLength is the number of payload descriptor bytes actually
	// written in front of each unit (X, N and PartID always zero).
	DescriptorLength = 1

	// DescriptorMaxLength is the largest VP8 payload descriptor RFC 7741 allows:
	// required octet, X octet, two PictureID octets, TL0PICIDX and TID/KEYIDX.
	// Unit buffers reserve this much head room so extended descriptors can be
	// written later without moving the data.
	DescriptorMaxLength = 6

	// MaxUnitSize is the largest payload unit on the wire (descriptor + data).
	MaxUnitSize = DescriptorLength + MaxPayloadSize

	// MaxFrameSize caps a single encoded frame accepted by a session (2MB).
	MaxFrameSize = 2000000
)

var (
	// ErrFrameEmpty indicates an empty frame was provided
	ErrFrameEmpty = errors.New("empty frame")

	// ErrFrameTooLarge indicates a frame exceeds MaxFrameSize
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrUnitTooLarge indicates a payload unit exceeds MaxUnitSize
	ErrUnitTooLarge = errors.New("payload unit too large")
)

// ValidateFrameSize validates an encoded frame against MaxFrameSize.
// Returns an error with context if the frame is empty or exceeds the limit.
func ValidateFrameSize(frame []byte) error {
	if len(frame) == 0 {
		return ErrFrameEmpty
	}
	if len(frame) > MaxFrameSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrFrameTooLarge, len(frame), MaxFrameSize)
	}
	return nil
}

// ValidateUnitSize checks a serialized payload unit (descriptor included)
// against MaxUnitSize.
func ValidateUnitSize(unit []byte) error {
	if len(unit) > MaxUnitSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrUnitTooLarge, len(unit), MaxUnitSize)
	}
	return nil
}
