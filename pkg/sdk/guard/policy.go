package guard

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/clinicdesk/clinic/pkg/sdk"
)

//go:embed model.conf
var policyModel string

// Portal roots and landing pages per role.
var (
	portals = map[sdk.Role]string{
		sdk.RoleAdmin:  "/admin",
		sdk.RoleDoctor: "/doctor",
		sdk.RoleNurse:  "/nurse",
	}
	homes = map[sdk.Role]string{
		sdk.RoleAdmin:  "/admin/overview",
		sdk.RoleDoctor: "/doctor",
		sdk.RoleNurse:  "/nurse",
	}
)

// Policy maps portal paths to the roles allowed to enter them. Each role
// owns its portal subtree; the dashboard is shared.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// NewPolicy builds the route policy from the embedded model.
func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("parse policy model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create policy enforcer: %w", err)
	}

	for _, role := range sdk.Roles() {
		root := portals[role]
		for _, obj := range []string{root, root + "/*", DashboardPath} {
			if _, err := enforcer.AddPolicy(string(role), obj); err != nil {
				return nil, fmt.Errorf("add policy %s %s: %w", role, obj, err)
			}
		}
	}
	return &Policy{enforcer: enforcer}, nil
}

// Allowed reports whether role may enter path.
func (p *Policy) Allowed(role sdk.Role, path string) bool {
	if !role.Valid() {
		return false
	}
	ok, err := p.enforcer.Enforce(string(role), normalizePath(path))
	return err == nil && ok
}

// RolesFor returns the roles allowed to enter any of paths, in the order
// of sdk.Roles.
func (p *Policy) RolesFor(paths ...string) []sdk.Role {
	var roles []sdk.Role
	for _, role := range sdk.Roles() {
		for _, path := range paths {
			if p.Allowed(role, path) {
				roles = append(roles, role)
				break
			}
		}
	}
	return roles
}

// Guard returns a guard admitting the roles allowed on any of paths. A
// path no role may enter yields a guard that denies everyone.
func (p *Policy) Guard(paths ...string) Guard {
	roles := p.RolesFor(paths...)
	if len(roles) == 0 {
		return Guard{Roles: []sdk.Role{""}, LoginPath: DefaultLoginPath, DeniedPath: DefaultDeniedPath}
	}
	return New(roles...)
}

// Home returns the landing page for role, or the dashboard for an
// unrecognized role.
func (p *Policy) Home(role sdk.Role) string {
	if home, ok := homes[role]; ok {
		return home
	}
	return DashboardPath
}

func normalizePath(path string) string {
	path = "/" + strings.Trim(path, "/")
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return path
}
