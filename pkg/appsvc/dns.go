package appsvc

import (
	"strings"

	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/request"
	"github.com/cyberrange/rangesim/pkg/software"
)

// DNSServer is a static hostname->IP resolver, grounded on the original
// simulator's DNSServer/DNSClient services, reduced to a single
// authoritative record table (no recursive/forwarding resolution: the
// scenario document declares every record up front).
type DNSServer struct {
	Service *software.Service
	records map[string]string
}

// NewDNSServer returns a stopped DNS service with no records configured.
func NewDNSServer() *DNSServer {
	return &DNSServer{
		Service: defaultService("DNSServer", []int{53}),
		records: make(map[string]string),
	}
}

// AddRecord registers a domain->IP mapping, case-insensitively.
func (d *DNSServer) AddRecord(domain, ip string) {
	d.records[strings.ToLower(domain)] = ip
}

// Resolve looks up domain, succeeding only while the service is running
// (spec.md invariant: a stopped service answers no requests).
func (d *DNSServer) Resolve(domain string) (string, bool) {
	if d.Service.OperatingState != model.ServiceRunning {
		return "", false
	}
	ip, ok := d.records[strings.ToLower(domain)]
	return ip, ok
}

// BuildRequestManager wires `service.DNSServer.app.resolve.<domain>` and
// `.add_record.<domain>.<ip>`.
func (d *DNSServer) BuildRequestManager() *request.Manager {
	m := request.NewManager()
	m.AddHandler("resolve", func(args []string) request.Response {
		if len(args) < 1 {
			return request.Fail("resolve requires a domain argument")
		}
		ip, ok := d.Resolve(args[0])
		if !ok {
			return request.Fail("no record or service not running")
		}
		return request.Succeed(map[string]any{"ip": ip})
	})
	m.AddHandler("add_record", func(args []string) request.Response {
		if len(args) < 2 {
			return request.Fail("add_record requires a domain and ip argument")
		}
		d.AddRecord(args[0], args[1])
		return request.Succeed(nil)
	})
	return m
}
