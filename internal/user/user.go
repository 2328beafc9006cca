package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/recognition-portal/internal/core/datamodel/user"
)

type Role string

const (
	RoleEmployee Role = userDatamodel.RoleEmployee
	RoleManager  Role = userDatamodel.RoleManager
	RoleAdmin    Role = userDatamodel.RoleAdmin
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Assignable reports whether r may be granted through the API. Admins are
// only created out of band.
func (r Role) Assignable() bool {
	return r == RoleEmployee || r == RoleManager
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Title        *string   `json:"title,omitempty"`
	Department   *string   `json:"department,omitempty"`
	ManagerID    *int64    `json:"managerId,omitempty"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

// ReportsTo reports whether managerID is this user's direct manager.
func (u *User) ReportsTo(managerID int64) bool {
	return u.ManagerID != nil && *u.ManagerID == managerID
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Title:        u.Title,
		Department:   u.Department,
		ManagerID:    u.ManagerID,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Title:        u.Title,
		Department:   u.Department,
		ManagerID:    u.ManagerID,
		Role:         Role(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModelSlice(users []*userDatamodel.User) []*User {
	result := make([]*User, len(users))
	for i, u := range users {
		result[i] = FromDataModel(u)
	}
	return result
}
