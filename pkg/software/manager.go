package software

import "github.com/cyberrange/rangesim/pkg/request"

// Kind tags which variant a named software instance is, so the manager can
// expose a single lookup surface without reflection.
type Kind int

const (
	KindService Kind = iota
	KindApplication
	KindProcess
)

// Instance is the tagged union a Manager stores per name: exactly one of
// the three pointers is non-nil, selected by Kind.
type Instance struct {
	Kind        Kind
	Service     *Service
	Application *Application
	Process     *Process
}

// Manager owns every software instance installed on a node, keyed by name,
// and the set of ports any installed service currently listens on
// (spec.md §3).
type Manager struct {
	software  map[string]*Instance
	openPorts map[int]bool
	extra     map[string]*request.Manager
}

// NewManager returns an empty software manager.
func NewManager() *Manager {
	return &Manager{
		software:  make(map[string]*Instance),
		openPorts: make(map[int]bool),
		extra:     make(map[string]*request.Manager),
	}
}

// SetExtraRequestManager attaches an application-specific dispatch subtree
// under `service.<name>.app.<verb>`, alongside the generic lifecycle verbs
// every service gets. Used by pkg/appsvc to expose domain operations (DNS
// resolution, FTP transfer, SQL queries, ...) through the same dispatch
// tree every other mutation goes through, rather than a side channel.
func (m *Manager) SetExtraRequestManager(name string, rm *request.Manager) {
	m.extra[name] = rm
}

// InstallService adds a service instance and opens its listen ports.
func (m *Manager) InstallService(s *Service) {
	m.software[s.Name] = &Instance{Kind: KindService, Service: s}
	for _, p := range s.ListenOnPorts {
		m.openPorts[p] = true
	}
}

// InstallApplication adds an application instance.
func (m *Manager) InstallApplication(a *Application) {
	m.software[a.Name] = &Instance{Kind: KindApplication, Application: a}
}

// InstallProcess adds a process instance.
func (m *Manager) InstallProcess(p *Process) {
	m.software[p.Name] = &Instance{Kind: KindProcess, Process: p}
}

// Get looks up an installed instance by name.
func (m *Manager) Get(name string) (*Instance, bool) {
	i, ok := m.software[name]
	return i, ok
}

// All returns every installed instance.
func (m *Manager) All() map[string]*Instance {
	return m.software
}

// IsPortOpen reports whether any installed service currently listens on
// port.
func (m *Manager) IsPortOpen(port int) bool {
	return m.openPorts[port]
}

// ServiceListeningOn returns the service bound to port, if any.
func (m *Manager) ServiceListeningOn(port int) (*Service, bool) {
	for _, inst := range m.software {
		if inst.Kind != KindService {
			continue
		}
		for _, p := range inst.Service.ListenOnPorts {
			if p == port {
				return inst.Service, true
			}
		}
	}
	return nil, false
}

// StartAll starts every stopped service and runs every closed application,
// used by the node's power-on start-up actions (spec.md §4.2).
func (m *Manager) StartAll() {
	for _, inst := range m.software {
		switch inst.Kind {
		case KindService:
			inst.Service.Start()
		case KindApplication:
			inst.Application.Run()
		case KindProcess:
			inst.Process.Execute()
		}
	}
}

// StopAll stops every running service and closes every running
// application, used by the node's power-off shut-down actions.
func (m *Manager) StopAll() {
	for _, inst := range m.software {
		switch inst.Kind {
		case KindService:
			inst.Service.Stop()
		case KindApplication:
			inst.Application.Close()
		case KindProcess:
			inst.Process.Kill()
		}
	}
}

// ApplyTimestep advances every installed instance's countdowns.
func (m *Manager) ApplyTimestep() {
	for _, inst := range m.software {
		switch inst.Kind {
		case KindService:
			inst.Service.ApplyTimestep()
		case KindApplication:
			inst.Application.ApplyTimestep()
		}
	}
}
