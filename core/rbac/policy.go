package rbac

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

type Permission string

const (
	PermIncidentsCreate  Permission = "incidents.create"
	PermIncidentsViewOwn Permission = "incidents.view_own"
	PermIncidentsViewAll Permission = "incidents.view_all"
	PermIncidentsManage  Permission = "incidents.manage"
	PermStatsView        Permission = "stats.view"
)

const (
	RoleReporter = "reporter"
	RoleAdmin    = "admin"
)

const rbacModel = `
[request_definition]
r = sub, perm

[policy_definition]
p = sub, perm

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.perm == p.perm
`

// Policy answers role-to-permission questions. Roles are fixed: every
// admin also carries the reporter grants.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("rbac enforcer: %w", err)
	}
	grants := [][2]string{
		{RoleReporter, string(PermIncidentsCreate)},
		{RoleReporter, string(PermIncidentsViewOwn)},
		{RoleReporter, string(PermStatsView)},
		{RoleAdmin, string(PermIncidentsViewAll)},
		{RoleAdmin, string(PermIncidentsManage)},
	}
	for _, g := range grants {
		if _, err := e.AddPolicy(g[0], g[1]); err != nil {
			return nil, fmt.Errorf("rbac grant %s->%s: %w", g[0], g[1], err)
		}
	}
	if _, err := e.AddGroupingPolicy(RoleAdmin, RoleReporter); err != nil {
		return nil, fmt.Errorf("rbac role inheritance: %w", err)
	}
	return &Policy{enforcer: e}, nil
}

func (p *Policy) Allowed(role string, perm Permission) bool {
	if p == nil || p.enforcer == nil {
		return false
	}
	ok, err := p.enforcer.Enforce(role, string(perm))
	if err != nil {
		return false
	}
	return ok
}

// ValidRole reports whether the given role name is one the system knows.
func ValidRole(role string) bool {
	return role == RoleReporter || role == RoleAdmin
}
