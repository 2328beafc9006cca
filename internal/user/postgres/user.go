package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	userDatamodel "github.com/frahmantamala/recognition-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/recognition-portal/internal/user"
	"gorm.io/gorm"
)

// UserRepository implements user.Repository using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	row := user.ToDataModel(u)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	u.ID = row.ID
	u.CreatedAt = row.CreatedAt
	u.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var row userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var row userDatamodel.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return user.FromDataModel(&row), nil
}

func (r *UserRepository) Taken(ctx context.Context, username, email string, excludeID int64) (bool, bool, error) {
	var usernameTaken, emailTaken bool

	if username != "" {
		var n int64
		if err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
			Where("username = ? AND id <> ?", username, excludeID).
			Count(&n).Error; err != nil {
			return false, false, fmt.Errorf("count usernames: %w", err)
		}
		usernameTaken = n > 0
	}

	if email != "" {
		var n int64
		if err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
			Where("LOWER(email) = LOWER(?) AND id <> ?", email, excludeID).
			Count(&n).Error; err != nil {
			return false, false, fmt.Errorf("count emails: %w", err)
		}
		emailTaken = n > 0
	}

	return usernameTaken, emailTaken, nil
}

func (r *UserRepository) ListAll(ctx context.Context) ([]*user.User, error) {
	var rows []*userDatamodel.User
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return user.FromDataModelSlice(rows), nil
}

func (r *UserRepository) ListByManager(ctx context.Context, managerID int64) ([]*user.User, error) {
	var rows []*userDatamodel.User
	if err := r.db.WithContext(ctx).
		Where("manager_id = ?", managerID).
		Order("name ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list reports of %d: %w", managerID, err)
	}
	return user.FromDataModelSlice(rows), nil
}

func (r *UserRepository) ListIDsByManager(ctx context.Context, managerID int64) ([]int64, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("manager_id = ?", managerID).
		Order("id ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list report ids of %d: %w", managerID, err)
	}
	return ids, nil
}

func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role user.Role) error {
	return r.update(ctx, id, map[string]interface{}{"role": string(role)})
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, c user.ProfileChanges) error {
	updates := map[string]interface{}{}
	if c.Name != nil {
		updates["name"] = *c.Name
	}
	if c.Email != nil {
		updates["email"] = *c.Email
	}
	if c.Title != nil {
		updates["title"] = *c.Title
	} else if c.ClearTitle {
		updates["title"] = nil
	}
	if c.Department != nil {
		updates["department"] = *c.Department
	} else if c.ClearDept {
		updates["department"] = nil
	}
	if len(updates) == 0 {
		return nil
	}
	return r.update(ctx, id, updates)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return r.update(ctx, id, map[string]interface{}{"password_hash": passwordHash})
}

func (r *UserRepository) update(ctx context.Context, id int64, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateKey
		}
		return fmt.Errorf("update user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
