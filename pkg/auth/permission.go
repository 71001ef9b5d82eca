// Package auth implements the local user-account and login-session model
// that sits behind the Terminal/SSH service and the observation layer's
// "login count" bucket (spec.md §3 Node base "user/session managers",
// §4.9). It is retargeted from the teacher's CLI-operator permission check
// (pkg/auth/permission.go): instead of gating a network-operator's config
// commands, a Permission here gates what an authenticated remote session
// may do to the node it logged into, and every login consumes a
// remaining-ticks countdown the same way every other timed operation in
// this engine does (spec.md §5).
package auth

// Permission defines one action a logged-in session may be allowed to take
// against the node it is attached to.
type Permission string

const (
	PermLogin           Permission = "login"
	PermFileRead        Permission = "file.read"
	PermFileWrite       Permission = "file.write"
	PermServiceControl  Permission = "service.control"
	PermSoftwareInstall Permission = "software.install"
	PermAdmin           Permission = "admin" // superuser: implies every other permission
)

// Role is a named bundle of permissions assigned to an Account, mirroring
// the teacher's PermissionCategory grouping but keyed to a single named
// role per account rather than a free permission set.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleReadOnly Role = "readonly"
)

// rolePermissions is the fixed permission set each role grants.
var rolePermissions = map[Role][]Permission{
	RoleAdmin:    {PermAdmin},
	RoleOperator: {PermLogin, PermFileRead, PermFileWrite, PermServiceControl},
	RoleReadOnly: {PermLogin, PermFileRead},
}

// Grants reports whether role carries perm, admin acting as a wildcard.
func Grants(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == PermAdmin || p == perm {
			return true
		}
	}
	return false
}

// Account is one local user configured on a node (spec.md §3's Node base
// "user/session managers"). Passwords are modelled as opaque strings: the
// engine does not simulate real credential hashing, only match/no-match for
// the Terminal/SSH service's login check (pkg/appsvc/terminal.go).
type Account struct {
	Username string
	Password string
	Role     Role
	Locked   bool
}

// LoginSession is one active authenticated session against a node,
// expiring after RemainingTicks (spec.md §5: "remote user/terminal
// sessions have their own per-session countdown").
type LoginSession struct {
	Username       string
	RemainingTicks int
}
