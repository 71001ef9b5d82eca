package model

import "fmt"

// IPProtocol identifies the transport-layer protocol carried in an IP
// header. Mirrors spec.md §4.3.
type IPProtocol string

const (
	ProtocolTCP  IPProtocol = "tcp"
	ProtocolUDP  IPProtocol = "udp"
	ProtocolICMP IPProtocol = "icmp"
)

// Precedence is the IP header's QoS priority field (spec.md §4.3). It is
// the one surviving piece of the teacher's QoS-profile model: instead of a
// SONiC scheduler/queue/WRED profile, it is an 8-level tag carried on every
// Frame and available to link-capacity accounting and reward components
// that care about precedence-weighted drops.
type Precedence int

const (
	PrecedenceRoutine Precedence = iota
	PrecedencePriority
	PrecedenceImmediate
	PrecedenceFlash
	PrecedenceFlashOverride
	PrecedenceCritical
	PrecedenceInternet
	PrecedenceNetwork
)

// EthernetHeader carries source/destination MAC addresses.
type EthernetHeader struct {
	SrcMAC string
	DstMAC string
}

// BroadcastMAC is used for ARP requests and broadcast deliveries.
const BroadcastMAC = "ff:ff:ff:ff:ff:ff"

// IPHeader carries the layer-3 addressing and TTL discipline.
type IPHeader struct {
	SrcIP      string
	DstIP      string
	Protocol   IPProtocol
	TTL        int
	Precedence Precedence
}

// DefaultTTL is the initial TTL stamped on every originated frame (spec.md §4.3).
const DefaultTTL = 64

// TCPHeader carries TCP ports and flags.
type TCPHeader struct {
	SrcPort int
	DstPort int
	Flags   string
}

// UDPHeader carries UDP ports.
type UDPHeader struct {
	SrcPort int
	DstPort int
}

// ICMPType enumerates the echo request/reply pair this engine implements.
type ICMPType int

const (
	ICMPEchoRequest ICMPType = 8
	ICMPEchoReply   ICMPType = 0
)

// ICMPHeader carries an echo request/reply.
type ICMPHeader struct {
	Type       ICMPType
	Identifier int
	Sequence   int
}

// Frame is a simulated packet with nested headers and an opaque payload.
// There is no per-byte serialisation: Size in bits is declared up front by
// the sender and checked against link capacity (spec.md §4.3).
type Frame struct {
	Ethernet EthernetHeader
	IP       *IPHeader
	TCP      *TCPHeader
	UDP      *UDPHeader
	ICMP     *ICMPHeader
	ARP      *ARPPacket
	Payload  any
	SizeBits int64
}

// SizeMbits returns the frame's declared size in megabits for link
// accounting (spec.md §4.3).
func (f *Frame) SizeMbits() float64 {
	return float64(f.SizeBits) / 1_000_000
}

// DecrementTTL decrements the IP TTL on receive (spec.md §4.3) and reports
// whether the frame survives (TTL >= 1 after decrement means it may still
// be delivered at this hop; a frame is dropped once TTL falls below 1).
func (f *Frame) DecrementTTL() (alive bool) {
	if f.IP == nil {
		return true
	}
	f.IP.TTL--
	return f.IP.TTL >= 1
}

func (f *Frame) String() string {
	if f.IP == nil {
		return fmt.Sprintf("frame[eth %s->%s]", f.Ethernet.SrcMAC, f.Ethernet.DstMAC)
	}
	return fmt.Sprintf("frame[%s %s->%s ttl=%d]", f.IP.Protocol, f.IP.SrcIP, f.IP.DstIP, f.IP.TTL)
}

// ARPOpcode distinguishes an ARP request from a reply.
type ARPOpcode int

const (
	ARPRequest ARPOpcode = 1
	ARPReply   ARPOpcode = 2
)

// ARPPacket is the payload of an ARP frame (spec.md §4.4).
type ARPPacket struct {
	Opcode  ARPOpcode
	SrcIP   string
	SrcMAC  string
	DstIP   string
	DstMAC  string // empty on request
}
