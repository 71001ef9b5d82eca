package network

import (
	"net"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/cyberrange/rangesim/pkg/arp"
	"github.com/cyberrange/rangesim/pkg/auth"
	"github.com/cyberrange/rangesim/pkg/fs"
	"github.com/cyberrange/rangesim/pkg/icmp"
	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/session"
	"github.com/cyberrange/rangesim/pkg/software"
	"github.com/cyberrange/rangesim/pkg/util"
)

// NodeKind tags which variant a Node is. Variants share the common Node
// fields and differ only in which of the kind-specific fields are
// populated (spec.md §3's entity catalogue), following the tagged-sum-type
// guidance in spec.md §9 rather than a class hierarchy.
type NodeKind int

const (
	KindHost NodeKind = iota
	KindServer
	KindSwitch
	KindRouter
	KindWirelessRouter
	KindFirewall
)

func (k NodeKind) String() string {
	switch k {
	case KindHost:
		return "host"
	case KindServer:
		return "server"
	case KindSwitch:
		return "switch"
	case KindRouter:
		return "router"
	case KindWirelessRouter:
		return "wireless_router"
	case KindFirewall:
		return "firewall"
	default:
		return "unknown"
	}
}

// IsL3 reports whether this kind routes/terminates IP traffic rather than
// only switching Ethernet frames.
func (k NodeKind) IsL3() bool {
	return k != KindSwitch
}

// defaultSessionTimeoutTicks is the remote-session timeout applied unless a
// scenario overrides it per node (spec.md §4.4: "configurable remote-session
// timeout").
const defaultSessionTimeoutTicks = 30

// Node is a single device in the simulated topology. The NICs map always
// holds the interface variant appropriate to Kind (HostNIC for host/
// server, SwitchPort for switch, RouterInterface for router/wireless-
// router/firewall); router/firewall additionally carry an ACL and route
// table, and switches carry a MAC learning table.
type Node struct {
	ID       model.ID
	Hostname string
	Kind     NodeKind

	OperatingState model.NodeOperatingState
	StartUpTicks   int
	ShutDownTicks  int
	isResetting    bool
	bootCountdown  int
	shutCountdown  int

	nicOrder []string
	nics     map[string]NIC

	FileSystem      *fs.FileSystem
	SoftwareManager *software.Manager
	ARPCache        *arp.Cache
	Sessions        *session.Manager
	Accounts        *auth.Manager

	ACL        *model.ACLTable
	RouteTable *model.RouteTable
	macTable   map[string]string // mac -> port name, switches only

	SessionTimeoutTicks int

	// Apps holds domain-service handles from pkg/appsvc keyed by the
	// software name they were installed under (e.g. "FTPServer"), for
	// request-manager wiring that needs more than the generic
	// *software.Service exposes (cross-node lookups, typed query verbs).
	// Most lookups type-assert the value to the concrete appsvc type they
	// expect; absence means no such app service is installed.
	Apps map[string]any

	pings map[string]*icmp.PingAttempt

	net *Network // back-reference, set by Network.AddNode; needed to resolve ARP across links
}

// NewNode constructs a powered-off node of the given kind.
func NewNode(hostname string, kind NodeKind) *Node {
	n := &Node{
		ID:              model.NewID(),
		Hostname:        hostname,
		Kind:            kind,
		OperatingState:  model.NodeOff,
		nics:            make(map[string]NIC),
		FileSystem:      fs.NewFileSystem(),
		SoftwareManager: software.NewManager(),
		Accounts:        auth.NewManager(),
		Apps:            make(map[string]any),
		pings:           make(map[string]*icmp.PingAttempt),
	}
	if kind.IsL3() {
		n.ARPCache = arp.NewCache()
		n.Sessions = session.NewManager()
		n.SessionTimeoutTicks = defaultSessionTimeoutTicks
	}
	if kind == KindRouter || kind == KindFirewall || kind == KindWirelessRouter {
		n.RouteTable = model.NewRouteTable()
	}
	if kind == KindRouter || kind == KindFirewall {
		n.ACL = model.NewACLTable(16)
	}
	if kind == KindSwitch {
		n.macTable = make(map[string]string)
	}
	return n
}

// AddNIC registers an interface under name, preserving registration order
// for deterministic port iteration (spec.md §5).
func (n *Node) AddNIC(name string, nic NIC) {
	n.nics[name] = nic
	n.nicOrder = append(n.nicOrder, name)
}

// NIC looks up an interface by name.
func (n *Node) NIC(name string) (NIC, bool) {
	nic, ok := n.nics[name]
	return nic, ok
}

// NICs returns every interface in registration order.
func (n *Node) NICs() []NIC {
	out := make([]NIC, 0, len(n.nicOrder))
	for _, name := range n.nicOrder {
		out = append(out, n.nics[name])
	}
	return out
}

// CanPowerOn reports whether PowerOn would currently succeed.
func (n *Node) CanPowerOn() bool { return n.OperatingState == model.NodeOff }

// PowerOn starts the boot sequence (spec.md §4.2).
func (n *Node) PowerOn() bool {
	if !n.CanPowerOn() {
		return false
	}
	n.OperatingState = model.NodeBooting
	n.bootCountdown = n.StartUpTicks
	if n.bootCountdown <= 0 {
		n.completeBoot()
	}
	return true
}

func (n *Node) completeBoot() {
	n.OperatingState = model.NodeOn
	for _, nic := range n.NICs() {
		if nic.Link() != nil {
			nic.Enable()
		}
	}
	n.SoftwareManager.StartAll()
}

// CanPowerOff reports whether PowerOff would currently succeed.
func (n *Node) CanPowerOff() bool { return n.OperatingState == model.NodeOn }

// PowerOff starts the shutdown sequence.
func (n *Node) PowerOff() bool {
	if !n.CanPowerOff() {
		return false
	}
	for _, nic := range n.NICs() {
		nic.Disable()
	}
	n.OperatingState = model.NodeShuttingDown
	n.shutCountdown = n.ShutDownTicks
	if n.shutCountdown <= 0 {
		n.completeShutdown()
	}
	return true
}

func (n *Node) completeShutdown() {
	n.OperatingState = model.NodeOff
	n.SoftwareManager.StopAll()
	n.Accounts.LogoutAll()
	if n.isResetting {
		n.isResetting = false
		n.PowerOn()
	}
}

// Reset marks the node to reboot once shutdown completes, then powers off.
func (n *Node) Reset() bool {
	n.isResetting = true
	return n.PowerOff()
}

// ApplyTimestep advances every owned subsystem's countdowns and then this
// node's boot/shutdown countdowns, in the order file_system ->
// services/applications -> sessions -> accounts -> node-level countdowns.
// NICs carry no countdowns and are not advanced here.
func (n *Node) ApplyTimestep() {
	n.FileSystem.ApplyTimestep()
	n.SoftwareManager.ApplyTimestep()
	if n.Sessions != nil {
		n.Sessions.ApplyTimestep()
	}
	if n.Accounts != nil {
		n.Accounts.ApplyTimestep()
	}

	switch n.OperatingState {
	case model.NodeBooting:
		if n.bootCountdown > 0 {
			n.bootCountdown--
			if n.bootCountdown == 0 {
				n.completeBoot()
			}
		}
	case model.NodeShuttingDown:
		if n.shutCountdown > 0 {
			n.shutCountdown--
			if n.shutCountdown == 0 {
				n.completeShutdown()
			}
		}
	}
}

// Log returns a structured logger tagged with this node's hostname.
func (n *Node) Log() *logrus.Entry {
	return util.WithNode(n.Hostname)
}

// localInterfaceFor returns the name and subnet of whichever L3 interface
// ip falls within, if any.
func (n *Node) localInterfaceFor(ip net.IP) (ifaceName string, subnet *net.IPNet, ok bool) {
	for _, name := range n.nicOrder {
		switch v := n.nics[name].(type) {
		case *HostNIC:
			nw := v.Network()
			if nw.Contains(ip) {
				return name, nw, true
			}
		case *RouterInterface:
			nw := v.Network()
			if nw.Contains(ip) {
				return name, nw, true
			}
		}
	}
	return "", nil, false
}

// SortedNICNames returns interface names in a stable, sorted order; used
// by observation encoding and CLI display, never by simulation logic
// (which always uses registration order).
func (n *Node) SortedNICNames() []string {
	names := make([]string, len(n.nicOrder))
	copy(names, n.nicOrder)
	sort.Strings(names)
	return names
}

// interfaceIP returns the IP address bound to nic, or "" if nic carries no
// L3 address (a SwitchPort).
func (n *Node) interfaceIP(nic NIC) string {
	switch v := nic.(type) {
	case *HostNIC:
		return v.IPAddress
	case *RouterInterface:
		return v.IPAddress
	default:
		return ""
	}
}

// airspace returns the shared wireless budget of the network this node
// belongs to, or nil if the node has not been added to one.
func (n *Node) airspace() *Airspace {
	if n.net == nil {
		return nil
	}
	return n.net.Airspace
}

// handleARP processes an inbound ARP request/reply arriving on nic: a
// request always teaches us the sender's mapping and, if it targets our
// own address on that interface, is answered with a reply; a reply simply
// teaches us the mapping (spec.md §4.4).
func (n *Node) handleARP(f *model.Frame, nic NIC) {
	if f.ARP == nil || n.ARPCache == nil {
		return
	}
	n.ARPCache.Learn(f.ARP.SrcIP, f.ARP.SrcMAC, nic.Name())
	if f.ARP.Opcode != model.ARPRequest {
		return
	}
	if ownIP := n.interfaceIP(nic); ownIP != "" && ownIP == f.ARP.DstIP {
		reply := arp.NewReply(f.ARP, ownIP, nic.MAC())
		Send(nic, reply, n.airspace())
	}
}

// resolveARP returns the MAC address for targetIP reachable via ifaceName,
// broadcasting an ARP request (and retrying once) if the cache has no entry
// yet (spec.md §4.4: "one retry before the caller is told resolution
// failed").
func (n *Node) resolveARP(ifaceName, targetIP string) (string, bool) {
	if n.ARPCache == nil {
		return "", false
	}
	if e, ok := n.ARPCache.Lookup(targetIP); ok {
		return e.MAC, true
	}
	nic, ok := n.nics[ifaceName]
	if !ok {
		return "", false
	}
	ownIP := n.interfaceIP(nic)
	for attempt := 0; attempt < 2; attempt++ {
		req := arp.NewRequest(ownIP, nic.MAC(), targetIP)
		Send(nic, req, n.airspace())
		if e, ok := n.ARPCache.Lookup(targetIP); ok {
			return e.MAC, true
		}
	}
	return "", false
}
