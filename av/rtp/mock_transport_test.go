package rtp

import (
	"errors"
	"net"
	"sync"

	"github.com/opd-ai/vp8bridge/transport"
)

// SentPacket records one packet handed to MockTransport.
type SentPacket struct {
	Packet *transport.Packet
	Addr   net.Addr
}

// MockTransport records sent packets and lets tests inject incoming ones.
type MockTransport struct {
	mu          sync.Mutex
	sentPackets []SentPacket
	localAddr   net.Addr
	handlers    map[transport.PacketType]transport.PacketHandler
	failAddrs   map[string]bool
}

func NewMockTransport() *MockTransport {
	addr, _ := net.ResolveUDPAddr("udp", "127.0.0.1:12345")
	return &MockTransport{
		sentPackets: make([]SentPacket, 0),
		localAddr:   addr,
		handlers:    make(map[transport.PacketType]transport.PacketHandler),
		failAddrs:   make(map[string]bool),
	}
}

func (mt *MockTransport) Send(packet *transport.Packet, addr net.Addr) error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	if mt.failAddrs[addr.String()] {
		return errors.New("mock send failure")
	}
	mt.sentPackets = append(mt.sentPackets, SentPacket{
		Packet: packet,
		Addr:   addr,
	})
	return nil
}

func (mt *MockTransport) Close() error {
	return nil
}

func (mt *MockTransport) LocalAddr() net.Addr {
	return mt.localAddr
}

func (mt *MockTransport) RegisterHandler(packetType transport.PacketType, handler transport.PacketHandler) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.handlers[packetType] = handler
}

// FailSendsTo makes every send to addr fail.
func (mt *MockTransport) FailSendsTo(addr net.Addr) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.failAddrs[addr.String()] = true
}

// Deliver invokes the registered handler as if packet arrived from addr.
func (mt *MockTransport) Deliver(packet *transport.Packet, addr net.Addr) error {
	mt.mu.Lock()
	handler, ok := mt.handlers[packet.PacketType]
	mt.mu.Unlock()

	if !ok {
		return errors.New("no handler registered")
	}
	return handler(packet, addr)
}

func (mt *MockTransport) GetSentPackets() []SentPacket {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	out := make([]SentPacket, len(mt.sentPackets))
	copy(out, mt.sentPackets)
	return out
}

// SentOfType filters sent packets by type.
func (mt *MockTransport) SentOfType(packetType transport.PacketType) []SentPacket {
	var out []SentPacket
	for _, sp := range mt.GetSentPackets() {
		if sp.Packet.PacketType == packetType {
			out = append(out, sp)
		}
	}
	return out
}

func mustAddr(s string) net.Addr {
	addr, err := net.ResolveUDPAddr("udp", s)
	if err != nil {
		panic(err)
	}
	return addr
}
