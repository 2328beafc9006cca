package postgres

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	thanksDatamodel "github.com/frahmantamala/recognition-portal/internal/core/datamodel/thanks"
	userDatamodel "github.com/frahmantamala/recognition-portal/internal/core/datamodel/user"
	"github.com/frahmantamala/recognition-portal/internal/hierarchy"
	"github.com/frahmantamala/recognition-portal/internal/user"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx hierarchy.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func (s *Store) GetUser(ctx context.Context, id int64) (*user.User, error) {
	var row userDatamodel.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound.WithDetails(map[string]interface{}{"userId": id})
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return user.FromDataModel(&row), nil
}

func (s *Store) GetUsers(ctx context.Context, ids []int64) ([]*user.User, error) {
	if len(ids) == 0 {
		return []*user.User{}, nil
	}
	var rows []*userDatamodel.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	return user.FromDataModelSlice(rows), nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&userDatamodel.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *Store) SetManager(ctx context.Context, ids []int64, managerID *int64) error {
	var value interface{} = gorm.Expr("NULL")
	if managerID != nil {
		value = *managerID
	}
	err := s.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id IN ?", ids).
		Update("manager_id", value).Error
	if err != nil {
		return fmt.Errorf("set manager: %w", err)
	}
	return nil
}

func (s *Store) SetAttributes(ctx context.Context, ids []int64, attrs hierarchy.Attributes) error {
	updates := map[string]interface{}{}
	if attrs.Title != nil {
		updates["title"] = nullable(*attrs.Title)
	}
	if attrs.Department != nil {
		updates["department"] = nullable(*attrs.Department)
	}
	if len(updates) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("id IN ?", ids).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("set attributes: %w", err)
	}
	return nil
}

func (s *Store) UnassignReports(ctx context.Context, managerID int64) (int64, error) {
	res := s.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("manager_id = ?", managerID).
		Update("manager_id", gorm.Expr("NULL"))
	if res.Error != nil {
		return 0, fmt.Errorf("unassign reports of %d: %w", managerID, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) DeleteThanksInvolving(ctx context.Context, userID int64) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("from_id = ? OR to_id = ? OR approved_by_id = ?", userID, userID, userID).
		Delete(&thanksDatamodel.Thanks{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete thanks of %d: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&userDatamodel.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (s *Store) ExistingIdentities(ctx context.Context, usernames, emails []string) (map[string]bool, map[string]bool, error) {
	takenUsernames := map[string]bool{}
	takenEmails := map[string]bool{}
	if len(usernames) == 0 && len(emails) == 0 {
		return takenUsernames, takenEmails, nil
	}

	var rows []userDatamodel.User
	err := s.db.WithContext(ctx).
		Select("username", "email").
		Where("username IN ? OR email IN ?", usernames, emails).
		Find(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("lookup existing identities: %w", err)
	}
	for _, r := range rows {
		takenUsernames[r.Username] = true
		takenEmails[r.Email] = true
	}
	return takenUsernames, takenEmails, nil
}

func (s *Store) InsertUsers(ctx context.Context, users []*user.User, batchSize int) error {
	rows := make([]*userDatamodel.User, len(users))
	for i, u := range users {
		rows[i] = user.ToDataModel(u)
	}
	if err := s.db.WithContext(ctx).CreateInBatches(rows, batchSize).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDuplicateKey
		}
		return fmt.Errorf("insert users: %w", err)
	}
	for i, r := range rows {
		users[i].ID = r.ID
	}
	return nil
}

func nullable(v string) interface{} {
	if v == "" {
		return gorm.Expr("NULL")
	}
	return v
}
