package network

import (
	"net"

	"github.com/cyberrange/rangesim/pkg/model"
)

// routerReceive implements the router/firewall receive pipeline (spec.md
// §4.5): enforce the ACL, learn the sender into ARP, deliver locally if the
// frame targets one of this router's own addresses, otherwise forward it
// toward its destination via a directly-connected subnet or the route
// table.
func (n *Node) routerReceive(f *model.Frame, inbound *RouterInterface) {
	if n.ACL != nil && f.IP != nil {
		if action := n.ACL.Evaluate(f); action == model.ACLDeny {
			n.Log().WithFields(map[string]interface{}{
				"iface": inbound.Name(),
				"frame": f.String(),
			}).Debug("acl denied frame")
			return
		}
	}

	if f.IP != nil && f.Ethernet.SrcMAC != "" && n.ARPCache != nil {
		n.ARPCache.Learn(f.IP.SrcIP, f.Ethernet.SrcMAC, inbound.Name())
	}

	if f.IP == nil {
		return
	}

	if n.isLocalDestination(f) {
		n.deliverToSessionManager(f, inbound)
		return
	}

	n.forwardFrame(f)
}

// isLocalDestination reports whether f targets one of this router's own
// interface addresses and is either ICMP or destined for a port this router
// has a service listening on (spec.md §4.5 local-consumption check).
func (n *Node) isLocalDestination(f *model.Frame) bool {
	isOwnAddress := false
	for _, name := range n.nicOrder {
		if n.interfaceIP(n.nics[name]) == f.IP.DstIP {
			isOwnAddress = true
			break
		}
	}
	if !isOwnAddress {
		return false
	}
	if f.ICMP != nil {
		return true
	}
	dstPort := 0
	switch {
	case f.TCP != nil:
		dstPort = f.TCP.DstPort
	case f.UDP != nil:
		dstPort = f.UDP.DstPort
	}
	return dstPort != 0 && n.SoftwareManager.IsPortOpen(dstPort)
}

// forwardFrame resolves an egress interface and next-hop MAC for f's
// destination and transmits it, rewriting the Ethernet header for the new
// hop. A directly-connected subnet takes priority over the route table; if
// neither yields a reachable next hop, the frame is dropped.
func (n *Node) forwardFrame(f *model.Frame) {
	dstIP := net.ParseIP(f.IP.DstIP)
	if dstIP == nil {
		return
	}

	if ifaceName, _, ok := n.localInterfaceFor(dstIP); ok {
		n.transmitVia(f, ifaceName, f.IP.DstIP)
		return
	}

	if n.RouteTable == nil {
		return
	}
	route := n.RouteTable.FindBestRoute(dstIP)
	if route == nil {
		return
	}
	nextHopIP := net.ParseIP(route.NextHopIP)
	if nextHopIP == nil {
		return
	}
	ifaceName, _, ok := n.localInterfaceFor(nextHopIP)
	if !ok {
		return
	}
	n.transmitVia(f, ifaceName, route.NextHopIP)
}

// transmitVia resolves nextHopIP's MAC on ifaceName, rewrites the frame's
// Ethernet header for that hop, and sends it.
func (n *Node) transmitVia(f *model.Frame, ifaceName, nextHopIP string) {
	nic, ok := n.nics[ifaceName]
	if !ok || !nic.IsEnabled() {
		return
	}
	mac, ok := n.resolveARP(ifaceName, nextHopIP)
	if !ok {
		n.Log().WithField("target", nextHopIP).Debug("arp resolution failed, dropping frame")
		return
	}
	f.Ethernet.SrcMAC = nic.MAC()
	f.Ethernet.DstMAC = mac
	Send(nic, f, n.airspace())
}
