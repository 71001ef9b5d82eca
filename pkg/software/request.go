package software

import (
	"github.com/cyberrange/rangesim/pkg/request"
)

// buildServiceRequestManager wires the verbs the request dispatch tree
// resolves at `service.<name>.<verb>` (spec.md §4.8), generalizing the
// teacher's per-command executor registration into one manager per live
// Service instance.
func buildServiceRequestManager(s *Service) *request.Manager {
	m := request.NewManager()
	m.AddHandler("start", func(args []string) request.Response {
		if !s.Start() {
			return request.Fail("service is not stopped")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("start", func(args []string) (bool, string) {
		if !s.CanStart() {
			return false, "service is not stopped"
		}
		return true, ""
	})
	m.AddHandler("stop", func(args []string) request.Response {
		if !s.Stop() {
			return request.Fail("service is not running or paused")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("stop", func(args []string) (bool, string) {
		if !s.CanStop() {
			return false, "service is not running or paused"
		}
		return true, ""
	})
	m.AddHandler("pause", func(args []string) request.Response {
		if !s.Pause() {
			return request.Fail("service is not running")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("pause", func(args []string) (bool, string) {
		if !s.CanPause() {
			return false, "service is not running"
		}
		return true, ""
	})
	m.AddHandler("resume", func(args []string) request.Response {
		if !s.Resume() {
			return request.Fail("service is not paused")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("resume", func(args []string) (bool, string) {
		if !s.CanResume() {
			return false, "service is not paused"
		}
		return true, ""
	})
	m.AddHandler("restart", func(args []string) request.Response {
		if !s.Restart() {
			return request.Fail("service is not running or paused")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("restart", func(args []string) (bool, string) {
		if !s.CanRestart() {
			return false, "service is not running or paused"
		}
		return true, ""
	})
	m.AddHandler("disable", func(args []string) request.Response {
		s.Disable()
		return request.Succeed(nil)
	})
	m.AddProbe("disable", func(args []string) (bool, string) { return true, "" })
	m.AddHandler("enable", func(args []string) request.Response {
		if !s.Enable() {
			return request.Fail("service is not disabled")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("enable", func(args []string) (bool, string) {
		if !s.CanEnable() {
			return false, "service is not disabled"
		}
		return true, ""
	})
	m.AddHandler("patch", func(args []string) request.Response {
		if !s.Patch() {
			return request.Fail("service health is not good or compromised")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("patch", func(args []string) (bool, string) {
		if !s.CanPatch() {
			return false, "service health is not good or compromised"
		}
		return true, ""
	})
	m.AddHandler("fix", func(args []string) request.Response {
		s.Fix()
		return request.Succeed(nil)
	})
	m.AddProbe("fix", func(args []string) (bool, string) { return true, "" })
	m.AddHandler("scan", func(args []string) request.Response {
		s.Scan()
		return request.Succeed(nil)
	})
	m.AddProbe("scan", func(args []string) (bool, string) { return true, "" })
	m.AddHandler("reveal_to_red", func(args []string) request.Response {
		s.RevealToRed()
		return request.Succeed(nil)
	})
	m.AddProbe("reveal_to_red", func(args []string) (bool, string) { return true, "" })
	return m
}

// buildApplicationRequestManager wires `application.<name>.<verb>`.
func buildApplicationRequestManager(a *Application) *request.Manager {
	m := request.NewManager()
	m.AddHandler("run", func(args []string) request.Response {
		if !a.Run() {
			return request.Fail("application is not closed")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("run", func(args []string) (bool, string) {
		if !a.CanRun() {
			return false, "application is not closed"
		}
		return true, ""
	})
	m.AddHandler("close", func(args []string) request.Response {
		if !a.Close() {
			return request.Fail("application is not running")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("close", func(args []string) (bool, string) {
		if !a.CanClose() {
			return false, "application is not running"
		}
		return true, ""
	})
	m.AddHandler("scan", func(args []string) request.Response {
		a.Scan()
		return request.Succeed(nil)
	})
	m.AddProbe("scan", func(args []string) (bool, string) { return true, "" })
	m.AddHandler("reveal_to_red", func(args []string) request.Response {
		a.RevealToRed()
		return request.Succeed(nil)
	})
	m.AddProbe("reveal_to_red", func(args []string) (bool, string) { return true, "" })
	return m
}

// buildProcessRequestManager wires `process.<name>.<verb>`.
func buildProcessRequestManager(p *Process) *request.Manager {
	m := request.NewManager()
	m.AddHandler("execute", func(args []string) request.Response {
		if !p.Execute() {
			return request.Fail("process is already running")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("execute", func(args []string) (bool, string) {
		if !p.CanExecute() {
			return false, "process is already running"
		}
		return true, ""
	})
	m.AddHandler("kill", func(args []string) request.Response {
		if !p.Kill() {
			return request.Fail("process is not running")
		}
		return request.Succeed(nil)
	})
	m.AddProbe("kill", func(args []string) (bool, string) {
		if !p.CanKill() {
			return false, "process is not running"
		}
		return true, ""
	})
	m.AddHandler("scan", func(args []string) request.Response {
		p.Scan()
		return request.Succeed(nil)
	})
	m.AddProbe("scan", func(args []string) (bool, string) { return true, "" })
	m.AddHandler("reveal_to_red", func(args []string) request.Response {
		p.RevealToRed()
		return request.Succeed(nil)
	})
	m.AddProbe("reveal_to_red", func(args []string) (bool, string) { return true, "" })
	return m
}

// kindRequestManager builds a dynamic-child manager scoped to instances of
// one Kind, resolving a name to its per-instance manager only if the
// installed instance matches kind (so `service.<name>` never resolves an
// application installed under the same name, and vice versa).
func (m *Manager) kindRequestManager(kind Kind) *request.Manager {
	rm := request.NewManager()
	rm.SetDynamicChild(func(name string) (*request.Manager, bool) {
		inst, ok := m.Get(name)
		if !ok || inst.Kind != kind {
			return nil, false
		}
		switch kind {
		case KindService:
			svcManager := buildServiceRequestManager(inst.Service)
			if ext, ok := m.extra[name]; ok {
				svcManager.AddChild("app", ext)
			}
			return svcManager, true
		case KindApplication:
			return buildApplicationRequestManager(inst.Application), true
		case KindProcess:
			return buildProcessRequestManager(inst.Process), true
		default:
			return nil, false
		}
	})
	return rm
}

// ServiceRequestManager returns the dynamic `service.<name>` resolver.
func (m *Manager) ServiceRequestManager() *request.Manager {
	return m.kindRequestManager(KindService)
}

// ApplicationRequestManager returns the dynamic `application.<name>` resolver.
func (m *Manager) ApplicationRequestManager() *request.Manager {
	return m.kindRequestManager(KindApplication)
}

// ProcessRequestManager returns the dynamic `process.<name>` resolver.
func (m *Manager) ProcessRequestManager() *request.Manager {
	return m.kindRequestManager(KindProcess)
}
