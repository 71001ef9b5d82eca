package network

import (
	"testing"

	"github.com/cyberrange/rangesim/pkg/model"
)

func TestNode_PowerLifecycle(t *testing.T) {
	n := NewNode("host1", KindHost)
	n.StartUpTicks = 2
	n.ShutDownTicks = 1

	if n.OperatingState != model.NodeOff {
		t.Fatalf("a new node should start OFF, got %v", n.OperatingState)
	}
	if !n.CanPowerOn() {
		t.Fatal("an OFF node should accept PowerOn")
	}
	if !n.PowerOn() {
		t.Fatal("PowerOn() should succeed from OFF")
	}
	if n.OperatingState != model.NodeBooting {
		t.Fatalf("OperatingState = %v, want BOOTING", n.OperatingState)
	}
	if n.PowerOn() {
		t.Error("PowerOn() should not succeed again while BOOTING")
	}

	n.ApplyTimestep() // countdown 2 -> 1
	if n.OperatingState != model.NodeBooting {
		t.Fatalf("should still be BOOTING after one of two ticks, got %v", n.OperatingState)
	}
	n.ApplyTimestep() // countdown 1 -> 0, completes
	if n.OperatingState != model.NodeOn {
		t.Fatalf("OperatingState = %v, want ON once boot completes", n.OperatingState)
	}

	if !n.CanPowerOff() {
		t.Fatal("an ON node should accept PowerOff")
	}
	if !n.PowerOff() {
		t.Fatal("PowerOff() should succeed from ON")
	}
	if n.OperatingState != model.NodeShuttingDown {
		t.Fatalf("OperatingState = %v, want SHUTTING_DOWN", n.OperatingState)
	}
	n.ApplyTimestep()
	if n.OperatingState != model.NodeOff {
		t.Fatalf("OperatingState = %v, want OFF once shutdown completes", n.OperatingState)
	}
}

func TestNode_PowerOnRejectedWhileAlreadyOn(t *testing.T) {
	n := NewNode("host1", KindHost)
	n.PowerOn() // StartUpTicks defaults to 0, boots immediately
	if n.OperatingState != model.NodeOn {
		t.Fatalf("expected immediate boot with StartUpTicks=0, got %v", n.OperatingState)
	}
	if n.CanPowerOn() || n.PowerOn() {
		t.Error("PowerOn() should be rejected while already ON")
	}
	if n.CanPowerOff() == false {
		t.Error("an ON node should still accept PowerOff")
	}
}

func TestNode_ResetPowersOffThenReboots(t *testing.T) {
	n := NewNode("host1", KindHost)
	n.ShutDownTicks = 1
	n.StartUpTicks = 1
	n.PowerOn()
	n.ApplyTimestep() // StartUpTicks=1: boot completes, node is ON

	if !n.Reset() {
		t.Fatal("Reset() should succeed on an ON node")
	}
	if n.OperatingState != model.NodeShuttingDown {
		t.Fatalf("Reset should begin shutdown first, got %v", n.OperatingState)
	}

	n.ApplyTimestep() // completes shutdown, isResetting triggers PowerOn again
	if n.OperatingState != model.NodeBooting {
		t.Fatalf("OperatingState = %v, want BOOTING after a reset completes its shutdown", n.OperatingState)
	}
	n.ApplyTimestep()
	if n.OperatingState != model.NodeOn {
		t.Fatalf("OperatingState = %v, want ON once the reset's reboot completes", n.OperatingState)
	}
}

func TestNode_ACLTableReservesImplicitSlot(t *testing.T) {
	n := NewNode("router1", KindRouter)
	if n.ACL == nil {
		t.Fatal("a router should carry an ACL table")
	}
	if n.ACL.MaxRules != 16 {
		t.Fatalf("MaxRules = %d, want 16", n.ACL.MaxRules)
	}
	for i := 0; i < 15; i++ {
		if !n.ACL.AddRule(1, &model.ACLRule{Action: model.ACLDeny}) {
			t.Fatalf("rule %d should fit within MaxRules-1 explicit slots", i)
		}
	}
	if n.ACL.AddRule(1, &model.ACLRule{Action: model.ACLDeny}) {
		t.Error("the 16th explicit rule should be rejected, leaving room for the implicit rule")
	}
}
