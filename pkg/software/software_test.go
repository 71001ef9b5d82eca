package software

import (
	"testing"

	"github.com/cyberrange/rangesim/pkg/model"
)

func TestService_StartStopPauseResumeLifecycle(t *testing.T) {
	s := NewService("web", 3, 10, []int{80})

	if s.OperatingState != model.ServiceStopped {
		t.Fatalf("a new service should start STOPPED, got %v", s.OperatingState)
	}
	if !s.Start() {
		t.Fatal("Start() should succeed from STOPPED")
	}
	if s.OperatingState != model.ServiceRunning || s.HealthStateActual != model.SoftwareGood {
		t.Fatalf("after Start(): state=%v health=%v, want RUNNING/GOOD", s.OperatingState, s.HealthStateActual)
	}
	if s.Start() {
		t.Error("Start() should not succeed again while RUNNING")
	}

	if !s.Pause() {
		t.Fatal("Pause() should succeed from RUNNING")
	}
	if s.HealthStateActual != model.SoftwareOverwhelmed {
		t.Errorf("a paused service should report OVERWHELMED, got %v", s.HealthStateActual)
	}
	if !s.Resume() {
		t.Fatal("Resume() should succeed from PAUSED")
	}
	if s.OperatingState != model.ServiceRunning || s.HealthStateActual != model.SoftwareGood {
		t.Errorf("after Resume(): state=%v health=%v, want RUNNING/GOOD", s.OperatingState, s.HealthStateActual)
	}

	s.Connections["10.0.0.5:1234"] = true
	if !s.Stop() {
		t.Fatal("Stop() should succeed from RUNNING")
	}
	if s.OperatingState != model.ServiceStopped {
		t.Errorf("OperatingState = %v, want STOPPED", s.OperatingState)
	}
	if len(s.Connections) != 0 {
		t.Error("Stop() should clear every connection")
	}
}

func TestService_RestartScenario(t *testing.T) {
	// spec.md §8's worked scenario: restart_duration=3, RUNNING ->
	// t+0 RESTARTING/OVERWHELMED -> t+3 RUNNING/GOOD.
	s := NewService("web", 3, 10, nil)
	s.Start()

	if !s.CanRestart() {
		t.Fatal("a running service should accept Restart")
	}
	if !s.Restart() {
		t.Fatal("Restart() should succeed from RUNNING")
	}
	if s.OperatingState != model.ServiceRestarting {
		t.Fatalf("OperatingState = %v, want RESTARTING immediately after Restart()", s.OperatingState)
	}
	if s.HealthStateActual != model.SoftwareOverwhelmed {
		t.Fatalf("HealthStateActual = %v, want OVERWHELMED immediately after Restart()", s.HealthStateActual)
	}

	for i := 0; i < 2; i++ {
		s.ApplyTimestep()
		if s.OperatingState != model.ServiceRestarting {
			t.Fatalf("tick %d: OperatingState = %v, want still RESTARTING", i, s.OperatingState)
		}
	}
	s.ApplyTimestep() // third tick completes the countdown
	if s.OperatingState != model.ServiceRunning || s.HealthStateActual != model.SoftwareGood {
		t.Errorf("after the restart countdown: state=%v health=%v, want RUNNING/GOOD", s.OperatingState, s.HealthStateActual)
	}
}

func TestService_RestartWithZeroDurationCompletesImmediately(t *testing.T) {
	s := NewService("web", 0, 10, nil)
	s.Start()
	if !s.Restart() {
		t.Fatal("Restart() should succeed from RUNNING")
	}
	if s.OperatingState != model.ServiceRunning || s.HealthStateActual != model.SoftwareGood {
		t.Errorf("a zero-duration restart should complete within the same call: state=%v health=%v", s.OperatingState, s.HealthStateActual)
	}
}

func TestService_AddConnectionRespectsMaxSessions(t *testing.T) {
	s := NewService("web", 3, 2, nil)
	s.Start()

	if !s.AddConnection("10.0.0.1:1") {
		t.Fatal("first connection should be accepted under MaxSessions")
	}
	if s.HealthStateActual != model.SoftwareGood {
		t.Errorf("below capacity, health should remain GOOD, got %v", s.HealthStateActual)
	}
	if !s.AddConnection("10.0.0.2:1") {
		t.Fatal("second connection should be accepted, reaching MaxSessions")
	}
	if s.HealthStateActual != model.SoftwareOverwhelmed {
		t.Errorf("at MaxSessions, health should flip to OVERWHELMED, got %v", s.HealthStateActual)
	}
	if s.AddConnection("10.0.0.3:1") {
		t.Error("a third connection should be rejected once at MaxSessions")
	}
	if len(s.Connections) != 2 {
		t.Errorf("len(Connections) = %d, want 2 (must never exceed MaxSessions)", len(s.Connections))
	}

	// Re-adding an existing remote is not a new connection and must not be
	// rejected by the capacity check.
	if !s.AddConnection("10.0.0.1:1") {
		t.Error("re-adding an already-tracked remote should not be rejected")
	}
}

func TestService_MaxSessionsZeroRejectsEveryConnection(t *testing.T) {
	s := NewService("web", 3, 0, nil)
	s.Start()

	if s.AddConnection("10.0.0.1:1") {
		t.Error("max_sessions=0 must reject every connection attempt")
	}
	if len(s.Connections) != 0 {
		t.Errorf("len(Connections) = %d, want 0", len(s.Connections))
	}
	if s.HealthStateActual != model.SoftwareOverwhelmed {
		t.Errorf("a zero-capacity service should still report OVERWHELMED, got %v", s.HealthStateActual)
	}
}

func TestService_DisableEnableFromAnyState(t *testing.T) {
	s := NewService("web", 3, 10, nil)
	s.Start()
	s.Disable()
	if s.OperatingState != model.ServiceDisabled {
		t.Fatalf("OperatingState = %v, want DISABLED", s.OperatingState)
	}
	if s.Start() || s.Stop() || s.Pause() {
		t.Error("a disabled service should reject every other verb")
	}
	if !s.CanEnable() || !s.Enable() {
		t.Fatal("Enable() should succeed from DISABLED")
	}
	if s.OperatingState != model.ServiceStopped {
		t.Errorf("OperatingState = %v, want STOPPED after Enable()", s.OperatingState)
	}
}

func TestApplication_RunCloseLifecycle(t *testing.T) {
	a := NewApplication("browser")
	if a.OperatingState != model.ApplicationClosed {
		t.Fatalf("a new application should start CLOSED, got %v", a.OperatingState)
	}
	if !a.Run() {
		t.Fatal("Run() should succeed from CLOSED")
	}
	if a.NumExecutions != 1 {
		t.Errorf("NumExecutions = %d, want 1", a.NumExecutions)
	}
	if a.Run() {
		t.Error("Run() should not succeed again while RUNNING")
	}
	if !a.Close() {
		t.Fatal("Close() should succeed from RUNNING")
	}
	if a.OperatingState != model.ApplicationClosed {
		t.Errorf("OperatingState = %v, want CLOSED", a.OperatingState)
	}
	if a.Close() {
		t.Error("Close() should not succeed again while CLOSED")
	}
}

func TestProcess_ExecuteKillLifecycle(t *testing.T) {
	p := NewProcess("cron")
	if !p.CanExecute() || !p.Execute() {
		t.Fatal("Execute() should succeed from NOT_RUNNING")
	}
	if p.Execute() {
		t.Error("Execute() should not succeed again while RUNNING")
	}
	if !p.CanKill() || !p.Kill() {
		t.Fatal("Kill() should succeed from RUNNING")
	}
	if p.Kill() {
		t.Error("Kill() should not succeed again once NOT_RUNNING")
	}
}

func TestBase_ScanCopiesActualToVisible(t *testing.T) {
	b := &Base{HealthStateActual: model.SoftwareCompromised}
	if b.HealthStateVisible == model.SoftwareCompromised {
		t.Fatal("visible health should not start equal to actual for this test to mean anything")
	}
	b.Scan()
	if b.HealthStateVisible != model.SoftwareCompromised {
		t.Errorf("Scan() should copy actual to visible, got %v", b.HealthStateVisible)
	}
}
