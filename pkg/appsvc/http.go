package appsvc

import (
	"strconv"

	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/request"
	"github.com/cyberrange/rangesim/pkg/software"
)

// HTTPServer answers GET requests against a fixed table of paths->status
// codes, grounded on the original simulator's HttpRequestMethod/
// HttpStatusCode enums (original_source/.../protocols/http.py), reduced
// from a byte-level request/response model to "does this path exist and
// what code does it return" since nothing downstream inspects a response
// body.
type HTTPServer struct {
	Service *software.Service
	routes  map[string]int
}

// NewHTTPServer returns a stopped HTTP service with no routes registered;
// an unregistered path answers 404.
func NewHTTPServer() *HTTPServer {
	return &HTTPServer{
		Service: defaultService("HTTPServer", []int{80, 443}),
		routes:  make(map[string]int),
	}
}

// AddRoute registers path to answer with statusCode.
func (h *HTTPServer) AddRoute(path string, statusCode int) {
	h.routes[path] = statusCode
}

// Get returns the status code for path, 404 if unregistered, 503 if the
// service is not running.
func (h *HTTPServer) Get(path string) int {
	if h.Service.OperatingState != model.ServiceRunning {
		return 503
	}
	if code, ok := h.routes[path]; ok {
		return code
	}
	return 404
}

// BuildRequestManager wires `service.HTTPServer.app.get.<path>` and
// `.add_route.<path>.<code>`.
func (h *HTTPServer) BuildRequestManager() *request.Manager {
	m := request.NewManager()
	m.AddHandler("get", func(args []string) request.Response {
		if len(args) < 1 {
			return request.Fail("get requires a path argument")
		}
		return request.Succeed(map[string]any{"status": h.Get(args[0])})
	})
	m.AddHandler("add_route", func(args []string) request.Response {
		if len(args) < 2 {
			return request.Fail("add_route requires a path and status code argument")
		}
		code, err := strconv.Atoi(args[1])
		if err != nil {
			return request.Fail("status code must be an integer")
		}
		h.AddRoute(args[0], code)
		return request.Succeed(nil)
	})
	return m
}
