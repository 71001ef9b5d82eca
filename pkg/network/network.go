// Package network is the simulated link layer and above: nodes, their
// interface variants, links, L2 switching, L3 routing/ACL enforcement, and
// the Network container that owns the whole topology for one episode
// (spec.md §3, §4).
package network

import "sort"

// Network owns every node and link in the topology plus the shared
// wireless airspace, for the lifetime of one episode (spec.md §3's entity
// catalogue). Unlike the teacher's Network, it carries no mutex: spec.md §5
// establishes the single-tick invariant (exactly one actor mutates state
// between observations) as the substitute for locking.
type Network struct {
	nodeOrder []string
	nodes     map[string]*Node

	Links   []*Link
	Airspace *Airspace
}

// NewNetwork returns an empty network with its airspace ready for
// frequency registration.
func NewNetwork() *Network {
	return &Network{
		nodes:    make(map[string]*Node),
		Airspace: NewAirspace(),
	}
}

// AddNode registers a node under its hostname, wiring its back-reference so
// it can resolve ARP and reach the shared airspace across links.
func (net *Network) AddNode(n *Node) {
	n.net = net
	net.nodes[n.Hostname] = n
	net.nodeOrder = append(net.nodeOrder, n.Hostname)
}

// Node looks up a node by hostname.
func (net *Network) Node(hostname string) (*Node, bool) {
	n, ok := net.nodes[hostname]
	return n, ok
}

// Nodes returns every node in registration order.
func (net *Network) Nodes() []*Node {
	out := make([]*Node, 0, len(net.nodeOrder))
	for _, name := range net.nodeOrder {
		out = append(out, net.nodes[name])
	}
	return out
}

// SortedNodeHostnames returns every node's hostname in lexical order, used
// by observation encoding and CLI display (never by simulation logic,
// which always iterates registration order).
func (net *Network) SortedNodeHostnames() []string {
	names := make([]string, len(net.nodeOrder))
	copy(names, net.nodeOrder)
	sort.Strings(names)
	return names
}

// Connect links two named nodes' interfaces with the given bandwidth,
// registering the link with the network.
func (net *Network) Connect(nodeA, ifaceA, nodeB, ifaceB string, bandwidthMbps float64) (*Link, bool) {
	a, ok := net.nodes[nodeA]
	if !ok {
		return nil, false
	}
	b, ok := net.nodes[nodeB]
	if !ok {
		return nil, false
	}
	nicA, ok := a.NIC(ifaceA)
	if !ok {
		return nil, false
	}
	nicB, ok := b.NIC(ifaceB)
	if !ok {
		return nil, false
	}
	l := NewLink(nicA, nicB, bandwidthMbps)
	net.Links = append(net.Links, l)
	return l, true
}

// ConnectWireless is Connect plus registering both ends on a shared
// frequency with the given capacity (spec.md §4.3's airspace model).
func (net *Network) ConnectWireless(nodeA, ifaceA, nodeB, ifaceB, freqID string, bandwidthMbps, freqCapMbps float64) (*Link, bool) {
	l, ok := net.Connect(nodeA, ifaceA, nodeB, ifaceB, bandwidthMbps)
	if !ok {
		return nil, false
	}
	l.Wireless = true
	l.WirelessFreqID = freqID
	net.Airspace.RegisterFrequency(freqID, freqCapMbps)
	return l, true
}

// ResetTick clears every link's per-tick load counter, the shared
// airspace's accumulated load, and every node's per-file access counters,
// the first step of spec.md §4.1's fixed phase order ("pre-timestep
// reset") — these must read zero before any action in the tick is
// dispatched (spec.md invariant 6), not after apply_timestep runs.
func (net *Network) ResetTick() {
	for _, l := range net.Links {
		l.ResetTick()
	}
	net.Airspace.ResetTick()
	for _, n := range net.Nodes() {
		n.FileSystem.ResetTick()
	}
}

// ApplyTimestep advances every node's owned subsystems and lifecycle
// countdowns, in node registration order, completing spec.md §4.1's
// "apply_timestep" phase.
func (net *Network) ApplyTimestep() {
	for _, name := range net.nodeOrder {
		net.nodes[name].ApplyTimestep()
	}
}
