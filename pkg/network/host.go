package network

import (
	"net"

	"github.com/cyberrange/rangesim/pkg/icmp"
	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/session"
)

// deliverToSessionManager is the local-consumption endpoint reached once a
// frame is known to target this node's own address (spec.md §4.4, §4.5): an
// ICMP echo request gets an immediate reply, an ICMP echo reply completes
// any outstanding ping attempt, and everything else opens or refreshes a
// session and, if a service is listening on the destination port, records
// the connection against it.
func (n *Node) deliverToSessionManager(f *model.Frame, inbound NIC) {
	if f.ICMP != nil {
		n.deliverICMP(f, inbound)
		return
	}

	var srcPort, dstPort int
	switch {
	case f.TCP != nil:
		srcPort, dstPort = f.TCP.SrcPort, f.TCP.DstPort
	case f.UDP != nil:
		srcPort, dstPort = f.UDP.SrcPort, f.UDP.DstPort
	default:
		return
	}

	if n.Sessions != nil {
		n.Sessions.Open(f.IP.SrcIP, f.IP.DstIP, srcPort, dstPort, f.IP.Protocol, session.Inbound, n.SessionTimeoutTicks)
	}

	if svc, ok := n.SoftwareManager.ServiceListeningOn(dstPort); ok {
		svc.AddConnection(f.IP.SrcIP)
	}
}

// deliverICMP answers an inbound echo request in place, or completes a
// pending outbound ping on receiving its echo reply.
func (n *Node) deliverICMP(f *model.Frame, inbound NIC) {
	switch f.ICMP.Type {
	case model.ICMPEchoRequest:
		if inbound == nil {
			return
		}
		reply := icmp.NewEchoReply(f, f.IP.DstIP)
		Send(inbound, reply, n.airspace())
	case model.ICMPEchoReply:
		if attempt, ok := n.pings[f.IP.SrcIP]; ok {
			attempt.RecordReply()
		}
	}
}

// Ping starts (or restarts) tracking count echo attempts against targetIP,
// sending the first echo request immediately over the resolved egress
// interface (spec.md §4.4).
func (n *Node) Ping(targetIP string, count int) bool {
	ifaceName, _, ok := n.localInterfaceFor(net.ParseIP(targetIP))
	if !ok {
		ifaceName, ok = n.firstEnabledL3Interface()
		if !ok {
			return false
		}
	}
	mac, ok := n.resolveARP(ifaceName, targetIP)
	if !ok {
		return false
	}
	nic, ok := n.nics[ifaceName]
	if !ok {
		return false
	}
	srcIP := n.interfaceIP(nic)
	attempt := icmp.NewPingAttempt(targetIP, count)
	n.pings[targetIP] = attempt
	req := icmp.NewEchoRequest(srcIP, targetIP, 1, 1)
	req.Ethernet.SrcMAC = nic.MAC()
	req.Ethernet.DstMAC = mac
	Send(nic, req, n.airspace())
	attempt.ConsumeTry()
	return true
}

// PingResult reports the outcome of a previously started ping, if any.
func (n *Node) PingResult(targetIP string) (succeeded, done bool) {
	attempt, ok := n.pings[targetIP]
	if !ok {
		return false, false
	}
	return attempt.Succeeded, attempt.Done
}

func (n *Node) firstEnabledL3Interface() (string, bool) {
	for _, name := range n.nicOrder {
		switch n.nics[name].(type) {
		case *HostNIC, *RouterInterface:
			return name, true
		}
	}
	return "", false
}
