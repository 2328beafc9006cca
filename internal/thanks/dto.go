package thanks

import (
	"strings"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/core/common/validation"
)

const MaxMessageLength = 1000

// CreateThanksDTO represents the request payload for sending thanks
type CreateThanksDTO struct {
	ToID    int64  `json:"toId" validate:"required,gt=0"`
	Message string `json:"message" validate:"required,notblank,max=1000"`
}

func (dto CreateThanksDTO) Validate() *apperrors.AppError {
	return validation.Struct(dto)
}

// TransitionDTO carries the optional reason for approve/reject.
type TransitionDTO struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=1000"`
}

func (dto TransitionDTO) Validate() *apperrors.AppError {
	return validation.Struct(dto)
}

// AdminUpdateDTO edits a record outside the approval workflow. Nil fields
// are left unchanged.
type AdminUpdateDTO struct {
	Message      *string `json:"message,omitempty" validate:"omitempty,notblank,max=1000"`
	FromID       *int64  `json:"fromId,omitempty" validate:"omitempty,gt=0"`
	ToID         *int64  `json:"toId,omitempty" validate:"omitempty,gt=0"`
	Status       *Status `json:"status,omitempty" validate:"omitempty,oneof=pending approved rejected"`
	RejectReason *string `json:"rejectReason,omitempty" validate:"omitempty,max=1000"`
}

func (dto AdminUpdateDTO) Validate() *apperrors.AppError {
	return validation.Struct(dto)
}

func (dto AdminUpdateDTO) Empty() bool {
	return dto.Message == nil && dto.FromID == nil && dto.ToID == nil && dto.Status == nil && dto.RejectReason == nil
}

// ListFilter drives the admin listing.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

// UserStats is the per-user summary: approved thanks received and all thanks sent.
type UserStats struct {
	UserID         int64     `json:"userId"`
	Received       []*Thanks `json:"received"`
	Sent           []*Thanks `json:"sent"`
	ReceivedPoints int       `json:"receivedPoints"`
}

func trimmedReason(reason *string) *string {
	if reason == nil {
		return nil
	}
	r := strings.TrimSpace(*reason)
	if r == "" {
		return nil
	}
	return &r
}
