package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	thanksDatamodel "github.com/frahmantamala/recognition-portal/internal/core/datamodel/thanks"
	"github.com/frahmantamala/recognition-portal/internal/thanks"
	"gorm.io/gorm"
)

// ThanksRepository implements thanks.Repository using GORM
type ThanksRepository struct {
	db *gorm.DB
}

func NewThanksRepository(db *gorm.DB) *ThanksRepository {
	return &ThanksRepository{db: db}
}

func (r *ThanksRepository) Create(ctx context.Context, t *thanks.Thanks) error {
	row := thanks.ToDataModel(t)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create thanks: %w", err)
	}
	t.ID = row.ID
	return nil
}

func (r *ThanksRepository) GetByID(ctx context.Context, id int64) (*thanks.Thanks, error) {
	var row thanksDatamodel.Thanks
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrThanksNotFound
		}
		return nil, fmt.Errorf("get thanks %d: %w", id, err)
	}
	return thanks.FromDataModel(&row), nil
}

// Finalize is a conditional update: it only matches while status is pending,
// so of two concurrent approvers exactly one sees a row affected.
func (r *ThanksRepository) Finalize(ctx context.Context, id int64, status thanks.Status, approverID int64, at time.Time, reason *string) (bool, error) {
	updates := map[string]interface{}{
		"status":         string(status),
		"approved_by_id": approverID,
		"approved_at":    at.UTC(),
		"reject_reason":  nil,
	}
	if reason != nil {
		updates["reject_reason"] = *reason
	}

	res := r.db.WithContext(ctx).Model(&thanksDatamodel.Thanks{}).
		Where("id = ? AND status = ?", id, string(thanks.StatusPending)).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("finalize thanks %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *ThanksRepository) ListAllPending(ctx context.Context) ([]*thanks.Thanks, error) {
	var rows []*thanksDatamodel.Thanks
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(thanks.StatusPending)).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list pending thanks: %w", err)
	}
	return thanks.FromDataModelSlice(rows), nil
}

func (r *ThanksRepository) ListPendingForRecipients(ctx context.Context, recipientIDs []int64) ([]*thanks.Thanks, error) {
	var rows []*thanksDatamodel.Thanks
	if err := r.db.WithContext(ctx).
		Where("status = ? AND to_id IN ?", string(thanks.StatusPending), recipientIDs).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list pending thanks for recipients: %w", err)
	}
	return thanks.FromDataModelSlice(rows), nil
}

func (r *ThanksRepository) List(ctx context.Context, filter thanks.ListFilter) ([]*thanks.Thanks, int64, error) {
	q := r.db.WithContext(ctx).Model(&thanksDatamodel.Thanks{})
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count thanks: %w", err)
	}

	var rows []*thanksDatamodel.Thanks
	if err := q.Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("list thanks: %w", err)
	}
	return thanks.FromDataModelSlice(rows), total, nil
}

func (r *ThanksRepository) ListRecent(ctx context.Context, limit int) ([]*thanks.Thanks, error) {
	var rows []*thanksDatamodel.Thanks
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list recent thanks: %w", err)
	}
	return thanks.FromDataModelSlice(rows), nil
}

func (r *ThanksRepository) ListReceived(ctx context.Context, userID int64, status *thanks.Status) ([]*thanks.Thanks, error) {
	q := r.db.WithContext(ctx).Where("to_id = ?", userID)
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}

	var rows []*thanksDatamodel.Thanks
	if err := q.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list received thanks: %w", err)
	}
	return thanks.FromDataModelSlice(rows), nil
}

func (r *ThanksRepository) ListSent(ctx context.Context, userID int64) ([]*thanks.Thanks, error) {
	var rows []*thanksDatamodel.Thanks
	if err := r.db.WithContext(ctx).
		Where("from_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list sent thanks: %w", err)
	}
	return thanks.FromDataModelSlice(rows), nil
}

// Save overwrites every mutable column of an existing record.
func (r *ThanksRepository) Save(ctx context.Context, t *thanks.Thanks) error {
	updates := map[string]interface{}{
		"from_id":        t.FromID,
		"to_id":          t.ToID,
		"message":        t.Message,
		"status":         string(t.Status),
		"approved_by_id": nil,
		"approved_at":    nil,
		"reject_reason":  nil,
	}
	if t.ApprovedByID != nil {
		updates["approved_by_id"] = *t.ApprovedByID
	}
	if t.ApprovedAt != nil {
		updates["approved_at"] = t.ApprovedAt.UTC()
	}
	if t.RejectReason != nil {
		updates["reject_reason"] = *t.RejectReason
	}

	res := r.db.WithContext(ctx).Model(&thanksDatamodel.Thanks{}).Where("id = ?", t.ID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("save thanks %d: %w", t.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrThanksNotFound
	}
	return nil
}

func (r *ThanksRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&thanksDatamodel.Thanks{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete thanks %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrThanksNotFound
	}
	return nil
}
