package thanks

import "time"

type Thanks struct {
	ID           int64      `gorm:"primaryKey"`
	FromID       int64      `gorm:"column:from_id;not null;index"`
	ToID         int64      `gorm:"column:to_id;not null;index"`
	Message      string     `gorm:"column:message;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	Status       string     `gorm:"column:status;not null;default:'pending';index"`
	ApprovedByID *int64     `gorm:"column:approved_by_id;index"`
	ApprovedAt   *time.Time `gorm:"column:approved_at"`
	RejectReason *string    `gorm:"column:reject_reason"`
	Points       int        `gorm:"column:points;not null;default:1"`
}

func (Thanks) TableName() string {
	return "thanks"
}
