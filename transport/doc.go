// Package transport provides the packet transport used by the VP8 bridge to
// exchange RTP media and RTCP feedback with its peers.
//
// # Architecture
//
// The core abstraction is the Transport interface:
//
//	type Transport interface {
//	    Send(packet *Packet, addr net.Addr) error
//	    Close() error
//	    LocalAddr() net.Addr
//	    RegisterHandler(packetType PacketType, handler PacketHandler)
//	}
//
// Every datagram is framed as a one byte PacketType followed by the raw RTP or
// RTCP bytes, so a single socket can carry both media and feedback.
//
// # UDP Transport
//
//	tr, err := transport.NewUDPTransport(":5004")
//	tr.RegisterHandler(transport.PacketRTCP, func(p *transport.Packet, addr net.Addr) error {
//	    return handleFeedback(p.Data, addr)
//	})
//
// Handlers are invoked on the read loop goroutine, one packet at a time.
package transport
