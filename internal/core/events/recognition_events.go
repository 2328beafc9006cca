package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeThanksCreated    = "thanks.created"
	EventTypeThanksApproved   = "thanks.approved"
	EventTypeThanksRejected   = "thanks.rejected"
	EventTypeThanksOverridden = "thanks.overridden"
	EventTypeThanksDeleted    = "thanks.deleted"

	EventTypeUserDeleted   = "user.deleted"
	EventTypeUsersImported = "users.imported"
	EventTypeUsersUpdated  = "users.updated"
)

func newBaseEvent(eventType string, occurredAt time.Time, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: occurredAt,
		Data:      data,
	}
}

type ThanksCreatedEvent struct {
	BaseEvent
	ThanksID int64 `json:"thanks_id"`
	FromID   int64 `json:"from_id"`
	ToID     int64 `json:"to_id"`
}

func NewThanksCreatedEvent(thanksID, fromID, toID int64, at time.Time) *ThanksCreatedEvent {
	return &ThanksCreatedEvent{
		BaseEvent: newBaseEvent(EventTypeThanksCreated, at, map[string]interface{}{
			"thanks_id": thanksID,
			"from_id":   fromID,
			"to_id":     toID,
		}),
		ThanksID: thanksID,
		FromID:   fromID,
		ToID:     toID,
	}
}

// ThanksFinalizedEvent is published for both approvals and rejections; the
// event type distinguishes them.
type ThanksFinalizedEvent struct {
	BaseEvent
	ThanksID   int64 `json:"thanks_id"`
	ApproverID int64 `json:"approver_id"`
	ToID       int64 `json:"to_id"`
	Points     int   `json:"points"`
}

func NewThanksFinalizedEvent(approved bool, thanksID, approverID, toID int64, points int, at time.Time) *ThanksFinalizedEvent {
	eventType := EventTypeThanksRejected
	if approved {
		eventType = EventTypeThanksApproved
	}
	return &ThanksFinalizedEvent{
		BaseEvent: newBaseEvent(eventType, at, map[string]interface{}{
			"thanks_id":   thanksID,
			"approver_id": approverID,
			"to_id":       toID,
			"points":      points,
		}),
		ThanksID:   thanksID,
		ApproverID: approverID,
		ToID:       toID,
		Points:     points,
	}
}

type ThanksOverriddenEvent struct {
	BaseEvent
	ThanksID int64  `json:"thanks_id"`
	AdminID  int64  `json:"admin_id"`
	Status   string `json:"status"`
	Deleted  bool   `json:"deleted"`
}

func NewThanksOverriddenEvent(thanksID, adminID int64, status string, at time.Time) *ThanksOverriddenEvent {
	return &ThanksOverriddenEvent{
		BaseEvent: newBaseEvent(EventTypeThanksOverridden, at, map[string]interface{}{
			"thanks_id": thanksID,
			"admin_id":  adminID,
			"status":    status,
		}),
		ThanksID: thanksID,
		AdminID:  adminID,
		Status:   status,
	}
}

func NewThanksDeletedEvent(thanksID, adminID int64, at time.Time) *ThanksOverriddenEvent {
	return &ThanksOverriddenEvent{
		BaseEvent: newBaseEvent(EventTypeThanksDeleted, at, map[string]interface{}{
			"thanks_id": thanksID,
			"admin_id":  adminID,
		}),
		ThanksID: thanksID,
		AdminID:  adminID,
		Deleted:  true,
	}
}

type UserDeletedEvent struct {
	BaseEvent
	UserID            int64 `json:"user_id"`
	ReportsUnassigned int64 `json:"reports_unassigned"`
	ThanksDeleted     int64 `json:"thanks_deleted"`
}

func NewUserDeletedEvent(userID, reportsUnassigned, thanksDeleted int64, at time.Time) *UserDeletedEvent {
	return &UserDeletedEvent{
		BaseEvent: newBaseEvent(EventTypeUserDeleted, at, map[string]interface{}{
			"user_id":            userID,
			"reports_unassigned": reportsUnassigned,
			"thanks_deleted":     thanksDeleted,
		}),
		UserID:            userID,
		ReportsUnassigned: reportsUnassigned,
		ThanksDeleted:     thanksDeleted,
	}
}

type UsersImportedEvent struct {
	BaseEvent
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

func NewUsersImportedEvent(inserted, skipped int, at time.Time) *UsersImportedEvent {
	return &UsersImportedEvent{
		BaseEvent: newBaseEvent(EventTypeUsersImported, at, map[string]interface{}{
			"inserted": inserted,
			"skipped":  skipped,
		}),
		Inserted: inserted,
		Skipped:  skipped,
	}
}

type UsersUpdatedEvent struct {
	BaseEvent
	UserIDs []int64 `json:"user_ids"`
}

func NewUsersUpdatedEvent(userIDs []int64, at time.Time) *UsersUpdatedEvent {
	return &UsersUpdatedEvent{
		BaseEvent: newBaseEvent(EventTypeUsersUpdated, at, map[string]interface{}{
			"user_ids": userIDs,
			"count":    len(userIDs),
		}),
		UserIDs: userIDs,
	}
}
