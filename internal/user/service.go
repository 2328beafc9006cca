package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/auth"
	"github.com/frahmantamala/recognition-portal/internal/core/clock"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// Taken reports which of username/email already belong to a user other
	// than excludeID. Empty inputs are not checked.
	Taken(ctx context.Context, username, email string, excludeID int64) (usernameTaken, emailTaken bool, err error)
	ListAll(ctx context.Context) ([]*User, error)
	ListByManager(ctx context.Context, managerID int64) ([]*User, error)
	ListIDsByManager(ctx context.Context, managerID int64) ([]int64, error)
	UpdateRole(ctx context.Context, id int64, role Role) error
	UpdateProfile(ctx context.Context, id int64, changes ProfileChanges) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type Service struct {
	repo       Repository
	bcryptCost int
	clock      clock.Clock
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		clock:      clk,
		logger:     logger,
	}
}

// Register creates an employee. Managers are promoted later and admins are
// created through the CLI only.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	usernameTaken, emailTaken, err := s.repo.Taken(ctx, dto.Username, dto.Email, 0)
	if err != nil {
		return nil, fmt.Errorf("check uniqueness: %w", err)
	}
	if usernameTaken || emailTaken {
		return nil, duplicateError(usernameTaken, emailTaken)
	}

	if dto.ManagerID != nil {
		if _, err := s.repo.GetByID(ctx, *dto.ManagerID); err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				return nil, apperrors.ErrUserNotFound.WithDetails(map[string]interface{}{"managerId": *dto.ManagerID})
			}
			return nil, err
		}
	}

	hash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	now := s.clock.Now()
	u := &User{
		Username:     dto.Username,
		Email:        dto.Email,
		Name:         dto.Name,
		Title:        blankToNil(dto.Title),
		Department:   blankToNil(dto.Department),
		ManagerID:    dto.ManagerID,
		Role:         RoleEmployee,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.Error("failed to create user", "error", err, "username", dto.Username)
		return nil, err
	}

	s.logger.Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, strings.TrimSpace(username))
}

func (s *Service) ListAll(ctx context.Context) ([]*User, error) {
	return s.repo.ListAll(ctx)
}

// ListDirectReports returns the users whose manager is managerID. Managers
// may only read their own reports.
func (s *Service) ListDirectReports(ctx context.Context, actor *auth.User, managerID int64) ([]*User, error) {
	if err := auth.CanViewReports(actor, managerID); err != nil {
		s.logger.Warn("direct reports read denied", "actor_id", actorID(actor), "manager_id", managerID)
		return nil, err
	}
	if _, err := s.repo.GetByID(ctx, managerID); err != nil {
		return nil, err
	}
	return s.repo.ListByManager(ctx, managerID)
}

// DirectReportIDs re-reads the report set on every call.
func (s *Service) DirectReportIDs(ctx context.Context, managerID int64) ([]int64, error) {
	return s.repo.ListIDsByManager(ctx, managerID)
}

func (s *Service) UpdateRole(ctx context.Context, targetID int64, role Role) (*User, error) {
	if !role.Assignable() {
		return nil, apperrors.ErrInvalidRole
	}

	target, err := s.mutableTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if target.Role == role {
		return target, nil
	}

	if err := s.repo.UpdateRole(ctx, targetID, role); err != nil {
		return nil, err
	}

	s.logger.Info("user role changed", "user_id", targetID, "from", target.Role, "to", role)
	target.Role = role
	target.UpdatedAt = s.clock.Now()
	return target, nil
}

func (s *Service) UpdateProfile(ctx context.Context, targetID int64, dto UpdateProfileDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.Empty() {
		return nil, apperrors.NewValidationError("no fields to update", apperrors.ErrCodeValidationFailed)
	}

	if _, err := s.mutableTarget(ctx, targetID); err != nil {
		return nil, err
	}

	changes := ProfileChanges{}
	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		changes.Name = &name
	}
	if dto.Email != nil {
		email := NormalizeEmail(*dto.Email)
		_, emailTaken, err := s.repo.Taken(ctx, "", email, targetID)
		if err != nil {
			return nil, fmt.Errorf("check email uniqueness: %w", err)
		}
		if emailTaken {
			return nil, duplicateError(false, true)
		}
		changes.Email = &email
	}
	if dto.Title != nil {
		changes.Title = blankToNil(dto.Title)
		changes.ClearTitle = changes.Title == nil
	}
	if dto.Department != nil {
		changes.Department = blankToNil(dto.Department)
		changes.ClearDept = changes.Department == nil
	}

	if err := s.repo.UpdateProfile(ctx, targetID, changes); err != nil {
		return nil, err
	}

	s.logger.Info("user profile updated", "user_id", targetID)
	return s.repo.GetByID(ctx, targetID)
}

// ResetPassword is the admin path; it does not need the current password.
func (s *Service) ResetPassword(ctx context.Context, targetID int64, dto ResetPasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}
	if _, err := s.mutableTarget(ctx, targetID); err != nil {
		return err
	}
	return s.setPassword(ctx, targetID, dto.NewPassword)
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, dto ChangePasswordDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := auth.VerifyPassword(u.PasswordHash, dto.CurrentPassword); err != nil {
		s.logger.Info("password change rejected: wrong current password", "user_id", userID)
		return apperrors.ErrInvalidCredentials
	}

	return s.setPassword(ctx, userID, dto.NewPassword)
}

func (s *Service) setPassword(ctx context.Context, userID int64, password string) error {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.logger.Info("password updated", "user_id", userID)
	return nil
}

// mutableTarget loads a user that role/profile/password endpoints may touch.
func (s *Service) mutableTarget(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.IsAdmin() {
		s.logger.Warn("mutation of admin user rejected", "user_id", id)
		return nil, apperrors.ErrAdminImmutable
	}
	return u, nil
}

func duplicateError(usernameTaken, emailTaken bool) error {
	var fields []apperrors.ValidationError
	if usernameTaken {
		fields = append(fields, apperrors.ValidationError{Field: "username", Message: "username exists", Code: string(apperrors.ErrCodeDuplicateKey)})
	}
	if emailTaken {
		fields = append(fields, apperrors.ValidationError{Field: "email", Message: "email exists", Code: string(apperrors.ErrCodeDuplicateKey)})
	}
	return apperrors.ErrDuplicateKey.WithDetails(apperrors.ValidationErrors{Errors: fields})
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

func actorID(a *auth.User) int64 {
	if a == nil {
		return 0
	}
	return a.ID
}
