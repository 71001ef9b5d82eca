package network

import "github.com/cyberrange/rangesim/pkg/model"

// switchLearnAndForward implements L2 learning and flooding (spec.md
// §4.6): the sender's MAC is learned against the inbound port (replacing
// any stale entry on a different port), then the frame is forwarded out
// the learned port for its destination MAC, or flooded to every other
// enabled port if the destination is unknown or broadcast.
func (n *Node) switchLearnAndForward(f *model.Frame, inbound *SwitchPort) {
	srcMAC := f.Ethernet.SrcMAC
	if srcMAC != "" {
		for mac, port := range n.macTable {
			if mac == srcMAC && port != inbound.Name() {
				delete(n.macTable, mac)
			}
		}
		n.macTable[srcMAC] = inbound.Name()
	}

	dstMAC := f.Ethernet.DstMAC
	if dstMAC != "" && dstMAC != model.BroadcastMAC {
		if port, ok := n.macTable[dstMAC]; ok {
			if nic, ok := n.nics[port]; ok && nic.IsEnabled() {
				Send(nic, f, nil)
			}
			return
		}
	}

	for _, name := range n.nicOrder {
		if name == inbound.Name() {
			continue
		}
		nic := n.nics[name]
		if nic.IsEnabled() {
			Send(nic, f, nil)
		}
	}
}
