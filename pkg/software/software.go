// Package software implements the Service/Application/Process life-cycle
// state machines every node's software manager owns (spec.md §4.8), and
// the Process variant supplemented from the original simulator's
// SoftwareType.PROCESS (a background job with no ports or sessions).
package software

import "github.com/cyberrange/rangesim/pkg/model"

// Base carries the fields every software instance has regardless of kind.
type Base struct {
	Name                string
	HealthStateActual   model.SoftwareHealthState
	HealthStateVisible  model.SoftwareHealthState
	Criticality         model.SoftwareCriticality
	PatchingDuration    int
	FixingDuration      int
	RevealedToRed       bool

	patchCountdown   int
	fixCountdown     int
	PatchingCount    int
	FixingCount      int
}

// Scan copies actual health to visible health (spec.md invariant 5).
func (b *Base) Scan() {
	b.HealthStateVisible = b.HealthStateActual
}

// RevealToRed marks this software as visible to a red agent.
func (b *Base) RevealToRed() {
	b.RevealedToRed = true
}

// Service is a background, listening piece of software with a restart
// life-cycle and a bounded connection table (spec.md §4.8).
type Service struct {
	Base

	OperatingState  model.ServiceOperatingState
	RestartDuration int
	MaxSessions     int
	ListenOnPorts   []int
	Connections     map[string]bool

	restartCountdown int
}

// NewService returns a stopped service.
func NewService(name string, restartDuration, maxSessions int, ports []int) *Service {
	return &Service{
		Base:            Base{Name: name, HealthStateActual: model.SoftwareUnused},
		OperatingState:  model.ServiceStopped,
		RestartDuration: restartDuration,
		MaxSessions:     maxSessions,
		ListenOnPorts:   ports,
		Connections:     make(map[string]bool),
	}
}

// CanStart reports whether Start would currently succeed.
func (s *Service) CanStart() bool { return s.OperatingState == model.ServiceStopped }

// Start transitions STOPPED -> RUNNING.
func (s *Service) Start() bool {
	if !s.CanStart() {
		return false
	}
	s.OperatingState = model.ServiceRunning
	s.HealthStateActual = model.SoftwareGood
	return true
}

// CanStop reports whether Stop would currently succeed.
func (s *Service) CanStop() bool {
	return s.OperatingState == model.ServiceRunning || s.OperatingState == model.ServicePaused
}

// Stop transitions RUNNING/PAUSED -> STOPPED, clearing connections
// (spec.md invariant 6).
func (s *Service) Stop() bool {
	if !s.CanStop() {
		return false
	}
	s.OperatingState = model.ServiceStopped
	s.HealthStateActual = model.SoftwareUnused
	s.Connections = make(map[string]bool)
	return true
}

// CanPause reports whether Pause would currently succeed.
func (s *Service) CanPause() bool { return s.OperatingState == model.ServiceRunning }

// Pause transitions RUNNING -> PAUSED.
func (s *Service) Pause() bool {
	if !s.CanPause() {
		return false
	}
	s.OperatingState = model.ServicePaused
	s.HealthStateActual = model.SoftwareOverwhelmed
	return true
}

// CanResume reports whether Resume would currently succeed.
func (s *Service) CanResume() bool { return s.OperatingState == model.ServicePaused }

// Resume transitions PAUSED -> RUNNING.
func (s *Service) Resume() bool {
	if !s.CanResume() {
		return false
	}
	s.OperatingState = model.ServiceRunning
	s.HealthStateActual = model.SoftwareGood
	return true
}

// Disable moves the service to DISABLED from any state.
func (s *Service) Disable() {
	s.OperatingState = model.ServiceDisabled
}

// CanEnable reports whether Enable would currently succeed.
func (s *Service) CanEnable() bool { return s.OperatingState == model.ServiceDisabled }

// Enable moves a DISABLED service back to STOPPED.
func (s *Service) Enable() bool {
	if !s.CanEnable() {
		return false
	}
	s.OperatingState = model.ServiceStopped
	return true
}

// CanRestart reports whether Restart would currently succeed.
func (s *Service) CanRestart() bool {
	return s.OperatingState == model.ServiceRunning || s.OperatingState == model.ServicePaused
}

// Restart begins a RESTARTING countdown from RUNNING/PAUSED.
func (s *Service) Restart() bool {
	if !s.CanRestart() {
		return false
	}
	s.OperatingState = model.ServiceRestarting
	s.HealthStateActual = model.SoftwareOverwhelmed
	s.restartCountdown = s.RestartDuration
	if s.restartCountdown <= 0 {
		s.OperatingState = model.ServiceRunning
		s.HealthStateActual = model.SoftwareGood
	}
	return true
}

// CanPatch reports whether Patch would currently succeed.
func (s *Service) CanPatch() bool {
	return s.HealthStateActual == model.SoftwareGood || s.HealthStateActual == model.SoftwareCompromised
}

// Patch begins a PATCHING countdown from GOOD/COMPROMISED.
func (s *Service) Patch() bool {
	if !s.CanPatch() {
		return false
	}
	s.patchCountdown = s.PatchingDuration
	if s.patchCountdown <= 0 {
		s.HealthStateActual = model.SoftwareGood
		s.PatchingCount++
	}
	return true
}

// Fix begins a fixing countdown, the same idea as Patch but using
// FixingDuration (which may differ per software).
func (s *Service) Fix() bool {
	s.fixCountdown = s.FixingDuration
	if s.fixCountdown <= 0 {
		s.HealthStateActual = model.SoftwareGood
		s.FixingCount++
	}
	return true
}

// AddConnection records an inbound connection keyed by remote address,
// rejecting it if the table is already at MaxSessions (spec.md invariant
// 8: len(connections) <= max_sessions always holds, never momentarily
// exceeded) — a MaxSessions of 0 therefore rejects every connection
// attempt (spec.md's zero-capacity boundary case) while still marking
// the service OVERWHELMED at the point it sits at capacity.
func (s *Service) AddConnection(remote string) bool {
	_, exists := s.Connections[remote]
	if !exists && len(s.Connections) >= s.MaxSessions {
		s.HealthStateActual = model.SoftwareOverwhelmed
		return false
	}
	s.Connections[remote] = true
	if len(s.Connections) >= s.MaxSessions {
		s.HealthStateActual = model.SoftwareOverwhelmed
	}
	return true
}

// RemoveConnection drops a connection.
func (s *Service) RemoveConnection(remote string) {
	delete(s.Connections, remote)
}

// ApplyTimestep advances the restart/patch/fix countdowns.
func (s *Service) ApplyTimestep() {
	if s.OperatingState == model.ServiceRestarting && s.restartCountdown > 0 {
		s.restartCountdown--
		if s.restartCountdown == 0 {
			s.OperatingState = model.ServiceRunning
			s.HealthStateActual = model.SoftwareGood
		}
	}
	if s.patchCountdown > 0 {
		s.patchCountdown--
		if s.patchCountdown == 0 {
			s.HealthStateActual = model.SoftwareGood
			s.PatchingCount++
		}
	}
	if s.fixCountdown > 0 {
		s.fixCountdown--
		if s.fixCountdown == 0 {
			s.HealthStateActual = model.SoftwareGood
			s.FixingCount++
		}
	}
}

// Application is user-facing software toggled between CLOSED and RUNNING,
// with an install countdown (spec.md §4.8).
type Application struct {
	Base

	OperatingState   model.ApplicationOperatingState
	ExecutionControl model.ExecutionControl
	NumExecutions    int

	installCountdown int
}

// NewApplication returns a closed application.
func NewApplication(name string) *Application {
	return &Application{
		Base:           Base{Name: name, HealthStateActual: model.SoftwareUnused},
		OperatingState: model.ApplicationClosed,
	}
}

// CanRun reports whether Run would currently succeed.
func (a *Application) CanRun() bool { return a.OperatingState == model.ApplicationClosed }

// Run transitions CLOSED -> RUNNING.
func (a *Application) Run() bool {
	if !a.CanRun() {
		return false
	}
	a.OperatingState = model.ApplicationRunning
	a.HealthStateActual = model.SoftwareGood
	a.NumExecutions++
	return true
}

// CanClose reports whether Close would currently succeed.
func (a *Application) CanClose() bool { return a.OperatingState == model.ApplicationRunning }

// Close transitions RUNNING -> CLOSED.
func (a *Application) Close() bool {
	if !a.CanClose() {
		return false
	}
	a.OperatingState = model.ApplicationClosed
	a.HealthStateActual = model.SoftwareUnused
	return true
}

// Install begins installing from CLOSED, completing after duration
// countdown ticks (immediately if duration <= 0).
func (a *Application) Install(duration int) bool {
	if a.OperatingState != model.ApplicationClosed {
		return false
	}
	a.OperatingState = model.ApplicationInstalling
	a.installCountdown = duration
	if a.installCountdown <= 0 {
		a.OperatingState = model.ApplicationClosed
	}
	return true
}

// ApplyTimestep advances the install countdown.
func (a *Application) ApplyTimestep() {
	if a.OperatingState == model.ApplicationInstalling && a.installCountdown > 0 {
		a.installCountdown--
		if a.installCountdown == 0 {
			a.OperatingState = model.ApplicationClosed
		}
	}
}

// Process is the supplemented third software variant: a background job
// with no ports, connections, or installing phase (original_source
// system/software.py SoftwareType.PROCESS).
type Process struct {
	Base

	OperatingState model.ProcessOperatingState
}

// NewProcess returns a not-running process.
func NewProcess(name string) *Process {
	return &Process{Base: Base{Name: name, HealthStateActual: model.SoftwareUnused}}
}

// CanExecute reports whether Execute would currently succeed.
func (p *Process) CanExecute() bool { return p.OperatingState == model.ProcessNotRunning }

// Execute transitions NOT_RUNNING -> RUNNING.
func (p *Process) Execute() bool {
	if !p.CanExecute() {
		return false
	}
	p.OperatingState = model.ProcessRunning
	p.HealthStateActual = model.SoftwareGood
	return true
}

// CanKill reports whether Kill would currently succeed.
func (p *Process) CanKill() bool { return p.OperatingState == model.ProcessRunning }

// Kill transitions RUNNING -> NOT_RUNNING.
func (p *Process) Kill() bool {
	if !p.CanKill() {
		return false
	}
	p.OperatingState = model.ProcessNotRunning
	p.HealthStateActual = model.SoftwareUnused
	return true
}
