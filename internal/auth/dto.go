package auth

import (
	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

func (d LoginDTO) Validate() *apperrors.AppError {
	return validation.Struct(d)
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (d RefreshTokenDTO) Validate() *apperrors.AppError {
	return validation.Struct(d)
}
