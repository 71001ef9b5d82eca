// Package sim hosts the tick-order simulation driver plus the scenario
// builder that turns a parsed spec.Scenario into a runnable
// network.Network, the piece spec.Load() alone never produced: the
// teacher's loader only resolves+validates a document, leaving actual
// device construction to the caller (pkg/newtlab's VM provisioner, in the
// teacher's case). Here there is no VM to provision, so Build constructs
// the in-process topology directly.
package sim

import (
	"fmt"
	"hash/fnv"
	"net"

	"github.com/cyberrange/rangesim/pkg/appsvc"
	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/network"
	"github.com/cyberrange/rangesim/pkg/request"
	"github.com/cyberrange/rangesim/pkg/software"
	"github.com/cyberrange/rangesim/pkg/spec"
	"github.com/cyberrange/rangesim/pkg/util"
)

// kindByName maps a NodeSpec.Kind string onto its network.NodeKind.
var kindByName = map[string]network.NodeKind{
	"host":            network.KindHost,
	"server":          network.KindServer,
	"switch":          network.KindSwitch,
	"router":          network.KindRouter,
	"wireless_router": network.KindWirelessRouter,
	"firewall":        network.KindFirewall,
}

// Build constructs a network.Network from a resolved Scenario: nodes and
// their interfaces, ACLs, routes, software, and seeded files, followed by
// the inter-node links. Nodes that declare powered_on: true are booted
// instantly (StartUpTicks collapses to 0 for the initial boot, matching
// spec.md §6's "scenario may start mid-episode" allowance).
func Build(s *spec.Scenario) (*network.Network, error) {
	netw := network.NewNetwork()

	for i := range s.Nodes {
		n, err := buildNode(&s.Nodes[i])
		if err != nil {
			return nil, fmt.Errorf("building node %q: %w", s.Nodes[i].Hostname, err)
		}
		netw.AddNode(n)
	}

	for i, l := range s.Links {
		var ok bool
		if l.Wireless {
			_, ok = netw.ConnectWireless(l.NodeA, l.InterfaceA, l.NodeB, l.InterfaceB, l.FrequencyID, l.BandwidthMbps, l.FrequencyCapMbps)
		} else {
			_, ok = netw.Connect(l.NodeA, l.InterfaceA, l.NodeB, l.InterfaceB, l.BandwidthMbps)
		}
		if !ok {
			return nil, fmt.Errorf("link %d: could not connect %s.%s <-> %s.%s", i, l.NodeA, l.InterfaceA, l.NodeB, l.InterfaceB)
		}
	}

	for i := range s.Nodes {
		ns := &s.Nodes[i]
		if !ns.PoweredOn {
			continue
		}
		n, _ := netw.Node(ns.Hostname)
		savedBoot := n.StartUpTicks
		n.StartUpTicks = 0
		n.PowerOn()
		n.StartUpTicks = savedBoot
	}

	return netw, nil
}

// buildNamedService recognizes a fixed set of well-known service names and
// constructs the matching pkg/appsvc domain type instead of a bare generic
// Service, wiring its application-specific verbs in immediately where that
// is possible without the full Network (DNS/HTTP/Database/Terminal).
// FTPServer's resolver needs the assembled Network, so its handle is only
// stashed on n.Apps here; Network.BuildRequestManager finishes wiring it.
// Returns (nil, nil) for any name with no known appsvc counterpart, so the
// caller falls back to a bare generic Service.
func buildNamedService(n *network.Node, name string) (*software.Service, *request.Manager) {
	switch name {
	case "DNSServer":
		d := appsvc.NewDNSServer()
		n.Apps[name] = d
		return d.Service, d.BuildRequestManager()
	case "HTTPServer":
		h := appsvc.NewHTTPServer()
		n.Apps[name] = h
		return h.Service, h.BuildRequestManager()
	case "DatabaseService":
		db := appsvc.NewDatabaseServer()
		n.Apps[name] = db
		return db.Service, db.BuildRequestManager()
	case "FTPServer":
		f := appsvc.NewFTPServer(n.FileSystem)
		n.Apps[name] = f
		return f.Service, nil
	case "Terminal":
		t := appsvc.NewTerminal(n.Accounts, n.SessionTimeoutTicks)
		n.Apps[name] = t
		return t.Service, t.BuildRequestManager()
	default:
		return nil, nil
	}
}

func buildNode(ns *spec.NodeSpec) (*network.Node, error) {
	kind, ok := kindByName[ns.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown node kind %q", ns.Kind)
	}
	n := network.NewNode(ns.Hostname, kind)
	if ns.StartUpTicks != nil {
		n.StartUpTicks = *ns.StartUpTicks
	}
	if ns.ShutDownTicks != nil {
		n.ShutDownTicks = *ns.ShutDownTicks
	}
	if ns.SessionTimeoutTicks != nil && n.Sessions != nil {
		n.SessionTimeoutTicks = *ns.SessionTimeoutTicks
	}

	ifaces := ns.Interfaces
	if ns.InterfaceRange != "" {
		names, err := util.ExpandInterfaceRange(ns.InterfaceRange)
		if err != nil {
			return nil, fmt.Errorf("interface_range: %w", err)
		}
		for _, name := range names {
			ifaces = append(ifaces, spec.InterfaceSpec{Name: name})
		}
	}
	for _, ifs := range ifaces {
		if err := addInterface(n, kind, &ifs); err != nil {
			return nil, err
		}
	}

	for _, fspec := range ns.Folders {
		folder := n.FileSystem.CreateFolder(fspec.Name)
		for _, fileName := range fspec.Files {
			folder.AddFile(fileName)
		}
	}

	for _, svc := range ns.Services {
		ports := append([]int{}, svc.ListenOnPorts...)
		if svc.Ports != "" {
			expanded, err := util.ExpandRange(svc.Ports)
			if err != nil {
				return nil, fmt.Errorf("service %s: ports: %w", svc.Name, err)
			}
			ports = append(ports, expanded...)
		}
		inst, extra := buildNamedService(n, svc.Name)
		if inst == nil {
			inst = software.NewService(svc.Name, svc.RestartDuration, svc.MaxSessions, ports)
		} else if len(ports) > 0 {
			inst.ListenOnPorts = ports
		}
		inst.Criticality = model.SoftwareCriticality(svc.Criticality)
		inst.PatchingDuration = svc.PatchingDuration
		inst.FixingDuration = svc.FixingDuration
		n.SoftwareManager.InstallService(inst)
		if extra != nil {
			n.SoftwareManager.SetExtraRequestManager(svc.Name, extra)
		}
	}
	for _, app := range ns.Applications {
		inst := software.NewApplication(app.Name)
		inst.Criticality = model.SoftwareCriticality(app.Criticality)
		inst.PatchingDuration = app.PatchingDuration
		n.SoftwareManager.InstallApplication(inst)
	}
	for _, proc := range ns.Processes {
		inst := software.NewProcess(proc.Name)
		inst.Criticality = model.SoftwareCriticality(proc.Criticality)
		n.SoftwareManager.InstallProcess(inst)
	}

	if n.ACL != nil {
		for i, rule := range ns.ACL {
			r, err := buildACLRule(&rule)
			if err != nil {
				return nil, fmt.Errorf("acl rule %d: %w", i, err)
			}
			n.ACL.AddRule(i+1, r)
		}
	}

	if n.RouteTable != nil {
		for i, rt := range ns.Routes {
			if err := addRoute(n.RouteTable, &rt); err != nil {
				return nil, fmt.Errorf("route %d: %w", i, err)
			}
		}
		if ns.DefaultRoute != "" {
			n.RouteTable.SetDefaultRoute(ns.DefaultRoute)
		}
	}

	return n, nil
}

// addInterface builds the NIC variant appropriate to kind and attaches it,
// auto-deriving a deterministic locally-administered MAC when the scenario
// document leaves one unset (spec.md §6 lets a scenario omit low-level
// wiring detail it does not care to assert on).
func addInterface(n *network.Node, kind network.NodeKind, ifs *spec.InterfaceSpec) error {
	mac := ifs.MAC
	if mac == "" {
		mac = deriveMAC(n.Hostname, ifs.Name)
	}

	switch kind {
	case network.KindSwitch:
		n.AddNIC(ifs.Name, network.NewSwitchPort(n, ifs.Index, mac))
	case network.KindHost, network.KindServer:
		if ifs.IP == "" || ifs.Mask == "" {
			return util.NewPreconditionError("add_interface", ifs.Name, "ip and mask must both be set", "host/server interface")
		}
		n.AddNIC(ifs.Name, network.NewHostNIC(n, ifs.Name, mac, ifs.IP, ifs.Mask))
	case network.KindRouter, network.KindFirewall, network.KindWirelessRouter:
		if ifs.IP == "" || ifs.Mask == "" {
			return util.NewPreconditionError("add_interface", ifs.Name, "ip and mask must both be set", "router/firewall interface")
		}
		n.AddNIC(ifs.Name, network.NewRouterInterface(n, ifs.Name, mac, ifs.IP, ifs.Mask))
	default:
		return fmt.Errorf("interface %s: unsupported node kind", ifs.Name)
	}
	return nil
}

// deriveMAC hashes hostname+ifaceName into a stable locally-administered
// unicast MAC, so two builds of the same scenario always agree.
func deriveMAC(hostname, ifaceName string) string {
	h := fnv.New64a()
	h.Write([]byte(hostname + "/" + ifaceName))
	sum := h.Sum64()
	return fmt.Sprintf("02:%02x:%02x:%02x:%02x:%02x",
		byte(sum>>32), byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum))
}

func buildACLRule(rs *spec.ACLRuleSpec) (*model.ACLRule, error) {
	action := model.ACLDeny
	if rs.Action == "permit" {
		action = model.ACLPermit
	}
	rule := &model.ACLRule{
		Action:   action,
		Protocol: model.IPProtocol(rs.Protocol),
		SrcPort:  rs.SrcPort,
		DstPort:  rs.DstPort,
	}
	if rs.SrcIP != "" {
		rule.SrcIP = parseIP(rs.SrcIP)
	}
	if rs.SrcWildcardMask != "" {
		rule.SrcWildcardMask = parseIP(rs.SrcWildcardMask)
	}
	if rs.DstIP != "" {
		rule.DstIP = parseIP(rs.DstIP)
	}
	if rs.DstWildcardMask != "" {
		rule.DstWildcardMask = parseIP(rs.DstWildcardMask)
	}
	return rule, nil
}

func addRoute(rt *model.RouteTable, rs *spec.RouteSpec) error {
	_, ipNet, err := net.ParseCIDR(rs.Network)
	if err != nil {
		return fmt.Errorf("invalid network %q: %w", rs.Network, err)
	}
	rt.AddRoute(ipNet, rs.NextHopIP, rs.Metric)
	return nil
}

// parseIP parses a dotted-quad string into a net.IP, returning nil (which
// model.ACLRule treats as "match any") on malformed input rather than
// erroring, since scenario validation already rejected malformed ACL
// actions and a blank/garbled IP field is meant to mean "don't care".
func parseIP(s string) net.IP {
	return net.ParseIP(s)
}
