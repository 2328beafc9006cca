package auth

import (
	userDatamodel "github.com/frahmantamala/recognition-portal/internal/core/datamodel/user"
	"github.com/samber/lo"
)

// RoleChecker answers role questions for route guards.
type RoleChecker interface {
	HasAnyRole(u *User, roles ...string) bool
	IsAdmin(u *User) bool
	IsApprover(u *User) bool
}

type DefaultRoleChecker struct{}

func NewRoleChecker() RoleChecker {
	return &DefaultRoleChecker{}
}

func (c *DefaultRoleChecker) HasAnyRole(u *User, roles ...string) bool {
	if u == nil {
		return false
	}
	return lo.Contains(roles, u.Role)
}

func (c *DefaultRoleChecker) IsAdmin(u *User) bool {
	return c.HasAnyRole(u, userDatamodel.RoleAdmin)
}

func (c *DefaultRoleChecker) IsApprover(u *User) bool {
	return c.HasAnyRole(u, userDatamodel.RoleAdmin, userDatamodel.RoleManager)
}
