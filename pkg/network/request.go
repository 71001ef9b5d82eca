package network

import (
	"net"
	"strconv"

	"github.com/cyberrange/rangesim/pkg/appsvc"
	"github.com/cyberrange/rangesim/pkg/fs"
	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/request"
)

// buildNICRequestManager wires `nic.<name>.<verb>` against one interface
// (spec.md §4.2's enable/disable actions).
func buildNICRequestManager(nic NIC) *request.Manager {
	m := request.NewManager()
	m.AddHandler("enable", func(args []string) request.Response {
		nic.Enable()
		return request.Succeed(nil)
	})
	m.AddProbe("enable", func(args []string) (bool, string) { return true, "" })
	m.AddHandler("disable", func(args []string) request.Response {
		nic.Disable()
		return request.Succeed(nil)
	})
	m.AddProbe("disable", func(args []string) (bool, string) { return true, "" })
	return m
}

// buildOSRequestManager wires the node-level `os.<verb>` actions: power
// control and the ping diagnostic (spec.md §4.2, §4.4).
func buildOSRequestManager(n *Node) *request.Manager {
	m := request.NewManager()
	m.AddHandler("power_on", func(args []string) request.Response {
		if !n.PowerOn() {
			return request.Fail("node is not off")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("power_on", func(args []string) (bool, string) {
		if !n.CanPowerOn() {
			return false, "node is not off"
		}
		return true, ""
	})
	m.AddHandler("power_off", func(args []string) request.Response {
		if !n.PowerOff() {
			return request.Fail("node is not on")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("power_off", func(args []string) (bool, string) {
		if !n.CanPowerOff() {
			return false, "node is not on"
		}
		return true, ""
	})
	m.AddHandler("reset", func(args []string) request.Response {
		if !n.Reset() {
			return request.Fail("node is not on")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("reset", func(args []string) (bool, string) {
		// Reset only ever delegates to PowerOff, so its precondition mirrors
		// CanPowerOff exactly.
		if !n.CanPowerOff() {
			return false, "node is not on"
		}
		return true, ""
	})
	m.AddHandler("ping", func(args []string) request.Response {
		if len(args) == 0 {
			return request.Fail("ping requires a target IP")
		}
		count := 4
		if len(args) > 1 {
			if c, err := strconv.Atoi(args[1]); err == nil {
				count = c
			}
		}
		if !n.Ping(args[0], count) {
			return request.Fail("ping could not be sent from this node")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("ping", func(args []string) (bool, string) {
		// Approximate: the node must be on to originate a ping at all. Actual
		// success also depends on ARP resolution and routing, which Ping only
		// determines by attempting the resolution itself, so this probe
		// cannot be fully precise without the same side effects it is meant
		// to avoid.
		if n.OperatingState != model.NodeOn {
			return false, "node is not on"
		}
		if len(args) == 0 {
			return false, "ping requires a target IP"
		}
		return true, ""
	})
	return m
}

// buildACLRequestManager wires `acl.<verb>` for routers/firewalls (spec.md
// §4.5's add_rule/remove_rule examples). The rule fields accepted are the
// minimal set needed to exercise the table: position, action, and an
// optional source/destination IP pair.
func buildACLRequestManager(acl *model.ACLTable) *request.Manager {
	m := request.NewManager()
	m.AddHandler("add_rule", func(args []string) request.Response {
		if len(args) < 2 {
			return request.Fail("add_rule requires position and action")
		}
		position, err := strconv.Atoi(args[0])
		if err != nil {
			return request.Fail("position must be an integer")
		}
		action := model.ACLAction(args[1])
		if action != model.ACLPermit && action != model.ACLDeny {
			return request.Fail("action must be permit or deny")
		}
		rule := &model.ACLRule{Action: action}
		if len(args) > 2 {
			rule.SrcIP = net.ParseIP(args[2])
		}
		if len(args) > 3 {
			rule.DstIP = net.ParseIP(args[3])
		}
		if !acl.AddRule(position, rule) {
			return request.Fail("acl table has no free rule slot")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("add_rule", func(args []string) (bool, string) {
		if len(args) < 2 {
			return false, "add_rule requires position and action"
		}
		if _, err := strconv.Atoi(args[0]); err != nil {
			return false, "position must be an integer"
		}
		action := model.ACLAction(args[1])
		if action != model.ACLPermit && action != model.ACLDeny {
			return false, "action must be permit or deny"
		}
		if !acl.CanAddRule() {
			return false, "acl table has no free rule slot"
		}
		return true, ""
	})
	m.AddHandler("remove_rule", func(args []string) request.Response {
		if len(args) == 0 {
			return request.Fail("remove_rule requires a position")
		}
		position, err := strconv.Atoi(args[0])
		if err != nil {
			return request.Fail("position must be an integer")
		}
		if !acl.RemoveRule(position) {
			return request.Fail("no rule at that position")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("remove_rule", func(args []string) (bool, string) {
		if len(args) == 0 {
			return false, "remove_rule requires a position"
		}
		position, err := strconv.Atoi(args[0])
		if err != nil {
			return false, "position must be an integer"
		}
		if !acl.CanRemoveRule(position) {
			return false, "no rule at that position"
		}
		return true, ""
	})
	return m
}

// BuildRequestManager wires every action surface a node exposes: its NICs,
// power/ping controls, ACL (if it carries one), file system, and installed
// software, matching the path shapes spec.md §4.1 illustrates
// (`network.node.<hostname>.service.<name>.start`, etc). The software
// subtree is split into three dynamic children (service/application/
// process) so a name collision across kinds can never resolve the wrong
// instance.
func (n *Node) BuildRequestManager() *request.Manager {
	m := request.NewManager()

	nicChild := request.NewManager()
	nicChild.SetDynamicChild(func(name string) (*request.Manager, bool) {
		nic, ok := n.NIC(name)
		if !ok {
			return nil, false
		}
		return buildNICRequestManager(nic), true
	})
	m.AddChild("nic", nicChild)

	m.AddChild("os", buildOSRequestManager(n))
	m.AddChild("file_system", n.FileSystem.BuildRequestManager())
	m.AddChild("service", n.SoftwareManager.ServiceRequestManager())
	m.AddChild("application", n.SoftwareManager.ApplicationRequestManager())
	m.AddChild("process", n.SoftwareManager.ProcessRequestManager())

	if n.ACL != nil {
		m.AddChild("acl", buildACLRequestManager(n.ACL))
	}

	return m
}

// BuildRequestManager wires the topology root: `network.node.<hostname>...`
// dynamically resolving to each node's own manager (spec.md §4.1). It also
// performs the one piece of wiring a single node cannot do for itself: an
// installed FTPServer's `get`/`put` verbs need to resolve a peer node's
// file system by hostname, which only the Network (not the Node) knows
// how to do.
func (net *Network) BuildRequestManager() *request.Manager {
	net.wireFTPServers()

	root := request.NewManager()

	nodeChild := request.NewManager()
	nodeChild.SetDynamicChild(func(hostname string) (*request.Manager, bool) {
		n, ok := net.Node(hostname)
		if !ok {
			return nil, false
		}
		return n.BuildRequestManager(), true
	})

	networkChild := request.NewManager()
	networkChild.AddChild("node", nodeChild)
	root.AddChild("network", networkChild)

	return root
}

// wireFTPServers binds every installed *appsvc.FTPServer's remote-host
// resolver to this network and registers its verbs as
// `service.FTPServer.app.<verb>`.
func (net *Network) wireFTPServers() {
	for _, n := range net.Nodes() {
		handle, ok := n.Apps["FTPServer"]
		if !ok {
			continue
		}
		ftpSvc, ok := handle.(*appsvc.FTPServer)
		if !ok {
			continue
		}
		rm := ftpSvc.BuildRequestManager(func(hostname string) (*fs.FileSystem, bool) {
			peer, ok := net.Node(hostname)
			if !ok {
				return nil, false
			}
			return peer.FileSystem, true
		})
		n.SoftwareManager.SetExtraRequestManager("FTPServer", rm)
	}
}
