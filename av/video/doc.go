// Package video provides VP8 RTP payload framing for the bridge.
//
// Encoded VP8 frames are split into payload units carrying at most
// limits.MaxPayloadSize (1350) data bytes, each prefixed by a one byte VP8
// payload descriptor as described in RFC 7741.
//
// # Payload Descriptor
//
// Only the minimal descriptor is produced. The S bit marks the first unit of
// a frame; the extension bit, the non-reference bit and the partition index
// are always zero:
//
//	video.EncodeDescriptor(true)  // 0x10
//	video.EncodeDescriptor(false) // 0x00
//
// Dropping the extended fields gives up partition aware recovery in exchange
// for a fixed one byte overhead.
//
// # Frame Packetization
//
// A FramePacketizer consumes one frame at a time:
//
//	packetizer := video.NewFramePacketizer()
//	packetizer.Submit(video.Frame{Data: encoded})
//	for {
//	    unit, ok := packetizer.NextUnit()
//	    if !ok {
//	        break
//	    }
//	    send(unit.Bytes())
//	}
//
// Packetize does the same in one call. Empty frames and frames flagged with
// Discard produce no units.
//
// Every unit buffer reserves limits.DescriptorMaxLength bytes in front of the
// data, so writing a longer descriptor later does not move the payload.
//
// # pion/rtp Integration
//
// VP8Payloader implements rtp.Payloader so a FramePacketizer can sit behind
// rtp.NewPacketizer:
//
//	p := rtp.NewPacketizer(mtu, 96, ssrc, video.NewVP8Payloader(),
//	    rtp.NewRandomSequencer(), 90000)
//	packets := p.Packetize(encoded, 3000)
//
// # Thread Safety
//
// FramePacketizer and VP8Payloader are NOT safe for concurrent use. Each
// outbound stream owns one instance and drives it from a single goroutine.
package video
