// Package appsvc implements named, domain-specific services layered on top
// of pkg/software.Service's generic lifecycle state machine (spec.md §4.8's
// "software" catalogue is deliberately generic; real scenarios need
// concrete, well-known services an agent can recognize by name). Each
// service here is grounded on a same-named module in the original
// simulator (original_source/.../system/services/{dns,ftp,database}, plus
// original_source's terminal/SSH service), reduced to the state an
// in-memory model needs rather than a byte-accurate protocol
// implementation: no bytes cross a real socket, every "transfer" or
// "query" is a direct mutation of the target node's simulated state.
//
// Every constructor here returns a *software.Service ready for
// Manager.InstallService, plus a domain handle whose BuildRequestManager
// method should be registered via Manager.SetExtraRequestManager so its
// verbs resolve at `service.<name>.app.<verb>`.
package appsvc

import "github.com/cyberrange/rangesim/pkg/software"

// defaultService returns a stopped generic Service with the restart/port
// defaults appsvc types share unless a caller overrides them.
func defaultService(name string, ports []int) *software.Service {
	return software.NewService(name, 2, 10, ports)
}
