package appsvc

import (
	"fmt"
	"net"

	"golang.org/x/crypto/ssh"

	"github.com/cyberrange/rangesim/pkg/auth"
	"github.com/cyberrange/rangesim/pkg/model"
	"github.com/cyberrange/rangesim/pkg/request"
	"github.com/cyberrange/rangesim/pkg/software"
)

// Terminal is the remote-login service gating a node's auth.Manager,
// grounded on the original simulator's Terminal/RemoteTerminalConnection
// pair (original_source/.../services/terminal/terminal.go's SSH session
// life-cycle). Credential verification goes through a real
// golang.org/x/crypto/ssh.ServerConfig password callback rather than a
// bespoke string comparison, the same library the teacher's own operator
// tooling uses for its SSH transport — only the callback runs here, since
// rangesim has no real socket for ssh.NewServerConn to accept a connection
// on.
type Terminal struct {
	Service  *software.Service
	Accounts *auth.Manager

	// SessionTimeoutTicks is the login countdown granted on success
	// (spec.md §4.4's "configurable remote-session timeout").
	SessionTimeoutTicks int

	sshConfig *ssh.ServerConfig
}

// NewTerminal returns a stopped SSH/terminal service bound to accounts.
func NewTerminal(accounts *auth.Manager, sessionTimeoutTicks int) *Terminal {
	t := &Terminal{
		Service:             defaultService("Terminal", []int{22}),
		Accounts:            accounts,
		SessionTimeoutTicks: sessionTimeoutTicks,
	}
	t.sshConfig = &ssh.ServerConfig{
		PasswordCallback: func(conn ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if _, ok := accounts.Login(conn.User(), string(password), sessionTimeoutTicks); ok {
				return &ssh.Permissions{}, nil
			}
			return nil, fmt.Errorf("authentication failed for %q", conn.User())
		},
	}
	return t
}

// Login verifies username/password through the same ssh.ServerConfig
// password callback a real SSH server would invoke per connection attempt,
// succeeding only while the service is running.
func (t *Terminal) Login(username, password string) bool {
	if t.Service.OperatingState != model.ServiceRunning {
		return false
	}
	_, err := t.sshConfig.PasswordCallback(sshConnMetadata{user: username}, []byte(password))
	return err == nil
}

// Logout ends username's active session.
func (t *Terminal) Logout(username string) bool {
	return t.Accounts.Logout(username)
}

// BuildRequestManager wires `service.Terminal.app.{login,logout}`.
func (t *Terminal) BuildRequestManager() *request.Manager {
	m := request.NewManager()
	m.AddHandler("login", func(args []string) request.Response {
		if len(args) < 2 {
			return request.Fail("login requires a username and password argument")
		}
		if !t.Login(args[0], args[1]) {
			return request.Fail("authentication failed or service not running")
		}
		return request.Succeed(nil)
	})
	m.AddHandler("logout", func(args []string) request.Response {
		if len(args) < 1 {
			return request.Fail("logout requires a username argument")
		}
		if !t.Logout(args[0]) {
			return request.Fail("no active session for that username")
		}
		return request.Succeed(nil)
	})
	return m
}

// sshConnMetadata is a minimal ssh.ConnMetadata implementation carrying
// only the username, the only field Terminal's password callback reads;
// there is no real transport to report the rest of the interface from.
type sshConnMetadata struct {
	user string
}

func (m sshConnMetadata) User() string          { return m.user }
func (m sshConnMetadata) SessionID() []byte     { return nil }
func (m sshConnMetadata) ClientVersion() []byte { return nil }
func (m sshConnMetadata) ServerVersion() []byte { return nil }
func (m sshConnMetadata) RemoteAddr() net.Addr  { return nil }
func (m sshConnMetadata) LocalAddr() net.Addr   { return nil }
