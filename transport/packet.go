// Package transport implements the network transport layer used by the VP8 bridge.
//
// This package handles packet framing and UDP communication between the
// bridge and its peers.
//
// Example:
//
//	tr, err := transport.NewUDPTransport(":5004")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	packet := &transport.Packet{
//	    PacketType: transport.PacketRTCP,
//	    Data:       firBytes,
//	}
//
//	err = tr.Send(packet, remoteAddr)
package transport

import (
	"errors"
)

// PacketType identifies the type of a bridge packet.
type PacketType byte

const (
	// PacketRTP carries one marshaled RTP packet (VP8 payload unit inside).
	PacketRTP PacketType = iota + 1

	// PacketRTCP carries one or more marshaled RTCP packets.
	PacketRTCP
)

// String returns a short name for logging.
func (pt PacketType) String() string {
	switch pt {
	case PacketRTP:
		return "rtp"
	case PacketRTCP:
		return "rtcp"
	default:
		return "unknown"
	}
}

// Packet represents a bridge packet.
type Packet struct {
	PacketType PacketType
	Data       []byte
}

// Serialize converts a packet to a byte slice for transmission.
func (p *Packet) Serialize() ([]byte, error) {
	if p.Data == nil {
		return nil, errors.New("packet data is nil")
	}

	// Format: [packet type (1 byte)][data (variable length)]
	result := make([]byte, 1+len(p.Data))
	result[0] = byte(p.PacketType)
	copy(result[1:], p.Data)

	return result, nil
}

// ParsePacket converts a byte slice to a Packet structure.
func ParsePacket(data []byte) (*Packet, error) {
	if len(data) < 1 {
		return nil, errors.New("packet too short")
	}

	packet := &Packet{
		PacketType: PacketType(data[0]),
		Data:       make([]byte, len(data)-1),
	}

	copy(packet.Data, data[1:])

	return packet, nil
}
