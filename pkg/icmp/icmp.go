// Package icmp builds the echo request/reply frames used by ping and
// tracks in-flight ping attempts (spec.md §4.4).
package icmp

import "github.com/cyberrange/rangesim/pkg/model"

// icmpFrameSizeBits is the wire size of a minimal echo request/reply.
const icmpFrameSizeBits = 98 * 8

// NewEchoRequest builds an echo-request frame from srcIP to dstIP.
func NewEchoRequest(srcIP, dstIP string, identifier, sequence int) *model.Frame {
	return &model.Frame{
		IP: &model.IPHeader{SrcIP: srcIP, DstIP: dstIP, Protocol: model.ProtocolICMP, TTL: model.DefaultTTL},
		ICMP: &model.ICMPHeader{
			Type:       model.ICMPEchoRequest,
			Identifier: identifier,
			Sequence:   sequence,
		},
		SizeBits: icmpFrameSizeBits,
	}
}

// NewEchoReply answers req from srcIP.
func NewEchoReply(req *model.Frame, srcIP string) *model.Frame {
	return &model.Frame{
		IP: &model.IPHeader{SrcIP: srcIP, DstIP: req.IP.SrcIP, Protocol: model.ProtocolICMP, TTL: model.DefaultTTL},
		ICMP: &model.ICMPHeader{
			Type:       model.ICMPEchoReply,
			Identifier: req.ICMP.Identifier,
			Sequence:   req.ICMP.Sequence,
		},
		SizeBits: icmpFrameSizeBits,
	}
}

// PingAttempt tracks one outstanding ping(ip, count) call across ticks: it
// succeeds as soon as any reply arrives before the scheduled attempts
// elapse (spec.md §4.4).
type PingAttempt struct {
	TargetIP       string
	RemainingTries int
	Succeeded      bool
	Done           bool
}

// NewPingAttempt starts tracking count echo attempts against targetIP.
func NewPingAttempt(targetIP string, count int) *PingAttempt {
	return &PingAttempt{TargetIP: targetIP, RemainingTries: count}
}

// RecordReply marks the attempt as succeeded and done.
func (p *PingAttempt) RecordReply() {
	p.Succeeded = true
	p.Done = true
}

// ConsumeTry decrements the remaining attempt budget, marking the attempt
// done (unsuccessfully) once exhausted.
func (p *PingAttempt) ConsumeTry() {
	if p.Done {
		return
	}
	p.RemainingTries--
	if p.RemainingTries <= 0 {
		p.Done = true
	}
}
