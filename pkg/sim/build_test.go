package sim

import (
	"testing"

	"github.com/cyberrange/rangesim/pkg/spec"
)

func twoHostScenario() *spec.Scenario {
	return &spec.Scenario{
		Name:          "two-host",
		EpisodeLength: 10,
		Nodes: []spec.NodeSpec{
			{
				Hostname:  "alice",
				Kind:      "host",
				PoweredOn: true,
				Interfaces: []spec.InterfaceSpec{
					{Name: "eth0", IP: "10.0.0.1", Mask: "255.255.255.0"},
				},
				Services: []spec.ServiceSpec{
					{Name: "FTPServer"},
				},
				Folders: []spec.FolderSpec{
					{Name: "outbox", Files: []string{"report.txt"}},
				},
			},
			{
				Hostname:  "bob",
				Kind:      "host",
				PoweredOn: true,
				Interfaces: []spec.InterfaceSpec{
					{Name: "eth0", IP: "10.0.0.2", Mask: "255.255.255.0"},
				},
			},
		},
		Links: []spec.LinkSpec{
			{NodeA: "alice", InterfaceA: "eth0", NodeB: "bob", InterfaceB: "eth0", BandwidthMbps: 100},
		},
		Agents: []spec.AgentSpec{
			{Name: "defender", Kind: "green", RewardWeights: map[string]float64{"availability": 1}},
		},
	}
}

func TestBuild_ConstructsTopology(t *testing.T) {
	net, err := Build(twoHostScenario())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(net.Nodes()) != 2 {
		t.Fatalf("got %d nodes, want 2", len(net.Nodes()))
	}
	alice, ok := net.Node("alice")
	if !ok {
		t.Fatal("expected node alice to exist")
	}
	if _, ok := alice.SoftwareManager.Get("FTPServer"); !ok {
		t.Fatal("expected FTPServer to be installed on alice")
	}
	if _, ok := alice.Apps["FTPServer"]; !ok {
		t.Fatal("expected alice.Apps to carry the FTPServer handle")
	}
}

func TestDriver_StepDispatchesFTPTransferAcrossNodes(t *testing.T) {
	d := NewDriver(nil, nil)
	if _, err := d.Reset(twoHostScenario()); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	actions := map[string]Action{
		"defender": {Path: "network.node.alice.service.FTPServer.app.put.bob.outbox.report.txt.inbox"},
	}
	_, _, done, truncated, info := d.Step(actions)
	if done || truncated {
		t.Fatalf("did not expect episode end on first tick: done=%v truncated=%v", done, truncated)
	}
	resp, ok := info.Responses["defender"]
	if !ok {
		t.Fatal("expected a response recorded for the defender agent")
	}
	if resp.Outcome != "success" {
		t.Fatalf("got outcome %q, reason %q, want success", resp.Outcome, resp.Reason)
	}

	bob, _ := d.net.Node("bob")
	folder, ok := bob.FileSystem.GetFolder("inbox")
	if !ok {
		t.Fatal("expected inbox folder to exist on bob after the transfer")
	}
	if _, ok := folder.GetFile("report.txt", false); !ok {
		t.Fatal("expected report.txt to have arrived on bob")
	}
}

func TestDriver_TruncatesAtEpisodeLength(t *testing.T) {
	d := NewDriver(nil, nil)
	cfg := twoHostScenario()
	cfg.EpisodeLength = 2
	if _, err := d.Reset(cfg); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}

	for i := 0; i < 2; i++ {
		_, _, _, truncated, _ := d.Step(nil)
		if i == 0 && truncated {
			t.Fatal("did not expect truncation before episode_length ticks elapsed")
		}
		if i == 1 && !truncated {
			t.Fatal("expected truncation once episode_length ticks have elapsed")
		}
	}
}
