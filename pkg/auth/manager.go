package auth

// Manager owns one node's local accounts and its currently active login
// sessions (spec.md §3: Node base carries "user/session managers"; §4.9's
// observation "login counts" bucket reads Manager.ActiveSessions()).
// Grounded on the teacher's permission-context pattern (pkg/auth/
// permission.go's Context builder), replaced here by a stateful per-node
// account store since rangesim has real login/logout operations to track
// rather than a single stateless per-command check.
type Manager struct {
	accounts map[string]*Account
	sessions map[string]*LoginSession // keyed by username; one active session per account
}

// NewManager returns an account manager with no accounts configured.
func NewManager() *Manager {
	return &Manager{accounts: make(map[string]*Account), sessions: make(map[string]*LoginSession)}
}

// AddAccount registers a local account.
func (m *Manager) AddAccount(username, password string, role Role) {
	m.accounts[username] = &Account{Username: username, Password: password, Role: role}
}

// Account looks up a configured account by username.
func (m *Manager) Account(username string) (*Account, bool) {
	a, ok := m.accounts[username]
	return a, ok
}

// Login authenticates username/password and, on success, opens a login
// session with the given timeout (spec.md §4.8's "software actions are
// refused when the owning node is not ON" applies equally here: the caller
// is expected to have already checked the node is powered on before
// reaching the Terminal service that calls this).
func (m *Manager) Login(username, password string, timeoutTicks int) (*LoginSession, bool) {
	acct, ok := m.accounts[username]
	if !ok || acct.Locked || acct.Password != password {
		return nil, false
	}
	sess := &LoginSession{Username: username, RemainingTicks: timeoutTicks}
	m.sessions[username] = sess
	return sess, true
}

// Logout closes username's active session, if any.
func (m *Manager) Logout(username string) bool {
	if _, ok := m.sessions[username]; !ok {
		return false
	}
	delete(m.sessions, username)
	return true
}

// Authorize reports whether username currently holds an active session
// with perm granted by its account's role.
func (m *Manager) Authorize(username string, perm Permission) bool {
	sess, ok := m.sessions[username]
	if !ok || sess.RemainingTicks <= 0 {
		return false
	}
	acct, ok := m.accounts[username]
	if !ok {
		return false
	}
	return Grants(acct.Role, perm)
}

// ActiveSessions returns the number of currently logged-in sessions.
func (m *Manager) ActiveSessions() int {
	return len(m.sessions)
}

// ActiveUsernames returns the usernames with a currently active session.
func (m *Manager) ActiveUsernames() []string {
	out := make([]string, 0, len(m.sessions))
	for user := range m.sessions {
		out = append(out, user)
	}
	return out
}

// LogoutAll closes every active session, used when the owning node powers
// off (spec.md invariant 4's sibling rule: a powered-off node retains no
// live sessions).
func (m *Manager) LogoutAll() {
	for user := range m.sessions {
		delete(m.sessions, user)
	}
}

// ApplyTimestep decrements every active session's remaining-ticks budget,
// expiring sessions that reach zero (spec.md §5's per-session countdown).
func (m *Manager) ApplyTimestep() {
	for user, sess := range m.sessions {
		if sess.RemainingTicks <= 0 {
			delete(m.sessions, user)
			continue
		}
		sess.RemainingTicks--
		if sess.RemainingTicks <= 0 {
			delete(m.sessions, user)
		}
	}
}
