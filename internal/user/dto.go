package user

import (
	"strings"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/core/common/validation"
)

// RegisterDTO creates an employee account.
type RegisterDTO struct {
	Username   string  `json:"username" validate:"required,max=64,notblank"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Name       string  `json:"name" validate:"required,max=255,notblank"`
	Password   string  `json:"password" validate:"required,min=8,max=72"`
	Title      *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Department *string `json:"department,omitempty" validate:"omitempty,max=255"`
	ManagerID  *int64  `json:"managerId,omitempty" validate:"omitempty,gt=0"`
}

func (d *RegisterDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Email = NormalizeEmail(d.Email)
	d.Name = strings.TrimSpace(d.Name)
}

func (d RegisterDTO) Validate() *apperrors.AppError {
	return validation.Struct(d)
}

type UpdateRoleDTO struct {
	Role Role `json:"role" validate:"required"`
}

// UpdateProfileDTO edits attributes; nil leaves a field alone and an empty
// title or department clears it.
type UpdateProfileDTO struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=255,notblank"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Title      *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Department *string `json:"department,omitempty" validate:"omitempty,max=255"`
}

func (d UpdateProfileDTO) Validate() *apperrors.AppError {
	return validation.Struct(d)
}

func (d UpdateProfileDTO) Empty() bool {
	return d.Name == nil && d.Email == nil && d.Title == nil && d.Department == nil
}

type ResetPasswordDTO struct {
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

func (d ResetPasswordDTO) Validate() *apperrors.AppError {
	return validation.Struct(d)
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,nefield=CurrentPassword"`
}

func (d ChangePasswordDTO) Validate() *apperrors.AppError {
	return validation.Struct(d)
}

// ProfileChanges is the normalized column set applied by the repository.
type ProfileChanges struct {
	Name       *string
	Email      *string
	Title      *string
	Department *string
	ClearTitle bool
	ClearDept  bool
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
