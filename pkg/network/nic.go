package network

import (
	"net"

	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/util"
)

// NIC is the capability every interface variant shares: it can be
// enabled/disabled, identified by MAC, and can transmit onto its link. The
// receive-side behaviour differs per variant (host/switch-port/
// router-interface, spec.md §4.2) and is reached through the narrower
// FrameReceiver interface below rather than a virtual dispatch table.
type NIC interface {
	Name() string
	MAC() string
	Enable()
	Disable()
	IsEnabled() bool
	Link() *Link
	attachLink(l *Link)
}

// FrameReceiver is implemented by anything that can accept an inbound
// frame from a link: every NIC variant, and (indirectly, via its ports) a
// switch.
type FrameReceiver interface {
	ReceiveFrame(f *model.Frame)
}

type nicBase struct {
	name    string
	mac     string
	enabled bool
	link    *Link
	pcap    []*model.Frame
}

func (n *nicBase) Name() string     { return n.name }
func (n *nicBase) MAC() string      { return n.mac }
func (n *nicBase) Enable()          { n.enabled = true }
func (n *nicBase) Disable()         { n.enabled = false }
func (n *nicBase) IsEnabled() bool  { return n.enabled }
func (n *nicBase) Link() *Link      { return n.link }
func (n *nicBase) attachLink(l *Link) { n.link = l }

// capture appends to the interface's pcap trace, used only by output.Sink
// collaborators; it is bounded implicitly by episode length.
func (n *nicBase) capture(f *model.Frame) {
	n.pcap = append(n.pcap, f)
}

// PCAP returns the interface's captured frames for this episode.
func (n *nicBase) PCAP() []*model.Frame { return n.pcap }

// Send transmits f on this NIC's link, reserving bandwidth and invoking the
// remote end's receive logic synchronously (spec.md §4.3, §5: "a frame
// transmission completes ... before send_frame returns").
func Send(n NIC, f *model.Frame, airspace *Airspace) bool {
	if !n.IsEnabled() {
		return false
	}
	link := n.Link()
	if link == nil {
		return false
	}
	if !link.TryReserve(f, airspace) {
		return false
	}
	other := link.OtherEnd(n)
	if receiver, ok := other.(FrameReceiver); ok {
		receiver.ReceiveFrame(f)
	}
	return true
}

// HostNIC is an L3-aware interface owned by a host or server node.
type HostNIC struct {
	nicBase
	IPAddress  string
	SubnetMask string
	owner      *Node
}

// NewHostNIC builds a disabled host interface for owner.
func NewHostNIC(owner *Node, name, mac, ip, mask string) *HostNIC {
	return &HostNIC{nicBase: nicBase{name: name, mac: mac}, IPAddress: ip, SubnetMask: mask, owner: owner}
}

// Network returns the IPv4 network this interface belongs to.
func (h *HostNIC) Network() *net.IPNet {
	ip := net.ParseIP(h.IPAddress)
	mask := net.IPMask(net.ParseIP(h.SubnetMask).To4())
	return &net.IPNet{IP: ip.Mask(mask), Mask: mask}
}

// ReceiveFrame accepts a frame destined for this MAC (or broadcast, where
// the IP must additionally match our address or our network's broadcast
// address), decrementing TTL and dropping expired frames (spec.md §4.2).
func (h *HostNIC) ReceiveFrame(f *model.Frame) {
	h.capture(f)
	if !h.IsEnabled() {
		return
	}
	if f.Ethernet.DstMAC != h.mac && f.Ethernet.DstMAC != model.BroadcastMAC {
		return
	}
	if f.ARP != nil {
		if h.owner != nil {
			h.owner.handleARP(f, h)
		}
		return
	}
	if f.Ethernet.DstMAC == model.BroadcastMAC && f.IP != nil {
		if f.IP.DstIP != h.IPAddress && f.IP.DstIP != util.BroadcastAddress(h.IPAddress, h.SubnetMask) {
			return
		}
	}
	if alive := f.DecrementTTL(); !alive {
		util.Debugf("network: dropping frame at %s, ttl expired", h.name)
		return
	}
	if h.owner != nil {
		h.owner.deliverToSessionManager(f, h)
	}
}

// SwitchPort is an L2-only interface owned by a switch node.
type SwitchPort struct {
	nicBase
	Index int
	owner *Node
}

// NewSwitchPort builds a disabled switch port for owner.
func NewSwitchPort(owner *Node, index int, mac string) *SwitchPort {
	return &SwitchPort{nicBase: nicBase{name: util.PortName(index), mac: mac}, Index: index, owner: owner}
}

// ReceiveFrame forwards the frame into the owning switch's L2 learning
// function (spec.md §4.6); switch ports never look past Ethernet.
func (p *SwitchPort) ReceiveFrame(f *model.Frame) {
	p.capture(f)
	if !p.IsEnabled() || p.owner == nil {
		return
	}
	p.owner.switchLearnAndForward(f, p)
}

// RouterInterface is an L3-aware interface owned by a router/firewall node.
type RouterInterface struct {
	nicBase
	IPAddress  string
	SubnetMask string
	owner      *Node
}

// NewRouterInterface builds a disabled router interface for owner.
func NewRouterInterface(owner *Node, name, mac, ip, mask string) *RouterInterface {
	return &RouterInterface{nicBase: nicBase{name: name, mac: mac}, IPAddress: ip, SubnetMask: mask, owner: owner}
}

// Network returns the IPv4 network this interface belongs to.
func (r *RouterInterface) Network() *net.IPNet {
	ip := net.ParseIP(r.IPAddress)
	mask := net.IPMask(net.ParseIP(r.SubnetMask).To4())
	return &net.IPNet{IP: ip.Mask(mask), Mask: mask}
}

// ReceiveFrame hands the frame to the owning router's receive pipeline
// (ACL -> ARP learn -> local-consumption check -> forward), spec.md §4.5.
func (r *RouterInterface) ReceiveFrame(f *model.Frame) {
	r.capture(f)
	if !r.IsEnabled() {
		return
	}
	if f.ARP != nil {
		if r.owner != nil {
			r.owner.handleARP(f, r)
		}
		return
	}
	if alive := f.DecrementTTL(); !alive {
		util.Debugf("network: dropping frame at %s, ttl expired", r.name)
		return
	}
	if r.owner != nil {
		r.owner.routerReceive(f, r)
	}
}
