package hierarchy

import (
	"strings"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/core/common/validation"
)

type ReassignManagerDTO struct {
	ManagerID *int64 `json:"managerId" validate:"omitempty,gt=0"`
}

func (d ReassignManagerDTO) Validate() *apperrors.AppError {
	return validation.Struct(d)
}

// BulkUpdateRequest applies the same edits to every listed user. Admins in
// UserIDs are excluded rather than failing the batch.
type BulkUpdateRequest struct {
	UserIDs    []int64       `json:"userIds" validate:"required,min=1,max=1000,dive,gt=0"`
	Title      *string       `json:"title,omitempty" validate:"omitempty,max=255"`
	Department *string       `json:"department,omitempty" validate:"omitempty,max=255"`
	Manager    ManagerUpdate `json:"manager"`
}

func (r BulkUpdateRequest) Validate() *apperrors.AppError {
	return validation.Merge(validation.Struct(r), r.Manager.Validate())
}

func (r BulkUpdateRequest) Attributes() Attributes {
	return Attributes{Title: trimmed(r.Title), Department: trimmed(r.Department)}
}

// ImportRow is one user record of a bulk import. Role defaults to employee.
type ImportRow struct {
	Username   string  `json:"username" validate:"required,max=64,notblank"`
	Email      string  `json:"email" validate:"required,email,max=255"`
	Name       string  `json:"name" validate:"required,max=255,notblank"`
	Title      *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Department *string `json:"department,omitempty" validate:"omitempty,max=255"`
	ManagerID  *int64  `json:"managerId,omitempty" validate:"omitempty,gt=0"`
	Role       string  `json:"role,omitempty" validate:"omitempty,oneof=employee manager"`

	// ParseError is set by ParseCSV when a cell could not be decoded; such a
	// row is reported as skipped with this reason.
	ParseError string `json:"-"`
}

func (r *ImportRow) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.Role = strings.ToLower(strings.TrimSpace(r.Role))
	r.Title = blankToNil(r.Title)
	r.Department = blankToNil(r.Department)
}

type ImportRequest struct {
	DefaultPassword string      `json:"defaultPassword" validate:"required,min=8,max=72"`
	Rows            []ImportRow `json:"rows" validate:"required,min=1"`
}

// Validate checks the request envelope only; rows are validated one by one
// so that a bad row is skipped instead of failing the import.
func (r ImportRequest) Validate() *apperrors.AppError {
	return validation.Struct(r)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func (r ImportRow) Validate() *apperrors.AppError {
	return validation.Struct(r)
}
