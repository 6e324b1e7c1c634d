// Package limits provides centralized size constants and validation functions
// for VP8 payload units and encoded frames.
//
// # Size Hierarchy
//
//   - MaxPayloadSize (1350 bytes): VP8 data bytes per payload unit, excluding
//     the payload descriptor and outer RTP/UDP headers.
//
//   - DescriptorLength (1 byte): the descriptor written in front of every unit
//     in the minimal profile (only the S bit varies).
//
//   - DescriptorMaxLength (6 bytes): head room reserved in every unit buffer so
//     an extended descriptor fits without relocating the data.
//
//   - MaxFrameSize (2MB): the largest encoded frame a session will packetize.
//
// # Validation Functions
//
//	err := limits.ValidateFrameSize(frame)
//	if errors.Is(err, limits.ErrFrameTooLarge) {
//	    // drop the frame
//	}
package limits
