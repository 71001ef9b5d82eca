package network

import "testing"

func twoHostNetwork() *Network {
	net := NewNetwork()
	a := NewNode("host1", KindHost)
	a.AddNIC("eth0", NewHostNIC(a, "eth0", "02:00:00:00:00:01", "10.0.0.1", "255.255.255.0"))
	b := NewNode("host2", KindHost)
	b.AddNIC("eth0", NewHostNIC(b, "eth0", "02:00:00:00:00:02", "10.0.0.2", "255.255.255.0"))
	net.AddNode(a)
	net.AddNode(b)
	return net
}

func TestNetwork_ConnectRejectsUnknownEndpoints(t *testing.T) {
	net := twoHostNetwork()
	if _, ok := net.Connect("host1", "eth0", "ghost", "eth0", 100); ok {
		t.Error("Connect should fail when the second node does not exist")
	}
	if _, ok := net.Connect("host1", "eth9", "host2", "eth0", 100); ok {
		t.Error("Connect should fail when the named interface does not exist")
	}
	if _, ok := net.Connect("host1", "eth0", "host2", "eth0", 100); !ok {
		t.Error("Connect should succeed for two real, matching interfaces")
	}
}

func TestNetwork_ResetTickZeroesFileAccessAcrossEveryNode(t *testing.T) {
	net := twoHostNetwork()
	h1, _ := net.Node("host1")
	folder := h1.FileSystem.CreateFolder("reports")
	f := folder.AddFile("q1.csv")
	f.Scan()
	if f.NumAccess == 0 {
		t.Fatal("Scan() should have incremented NumAccess")
	}

	net.ApplyTimestep()
	if f.NumAccess == 0 {
		t.Fatal("ApplyTimestep must not clear a tick's own file accesses (spec.md invariant 6)")
	}

	net.ResetTick()
	if f.NumAccess != 0 {
		t.Errorf("ResetTick should zero NumAccess on every node's files, got %d", f.NumAccess)
	}
}

func TestNetwork_SortedNodeHostnamesIsLexicalRegardlessOfAddOrder(t *testing.T) {
	net := NewNetwork()
	net.AddNode(NewNode("zeta", KindHost))
	net.AddNode(NewNode("alpha", KindHost))

	got := net.SortedNodeHostnames()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "zeta" {
		t.Errorf("SortedNodeHostnames() = %v, want [alpha zeta]", got)
	}

	// Registration order (used by simulation logic, never display) is
	// preserved separately.
	order := net.Nodes()
	if order[0].Hostname != "zeta" || order[1].Hostname != "alpha" {
		t.Errorf("Nodes() should preserve registration order, got %v", []string{order[0].Hostname, order[1].Hostname})
	}
}
