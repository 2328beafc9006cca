package thanks

import (
	"strings"
	"time"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	thanksDatamodel "github.com/frahmantamala/recognition-portal/internal/core/datamodel/thanks"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionApprove:
		return ActionApprove, nil
	case ActionReject:
		return ActionReject, nil
	}
	return "", apperrors.ErrInvalidAction
}

// Status is the terminal status the action leads to.
func (a Action) Status() Status {
	if a == ActionApprove {
		return StatusApproved
	}
	return StatusRejected
}

// DefaultPoints is stamped on every record at creation.
const DefaultPoints = 1

type Thanks struct {
	ID           int64      `json:"id"`
	FromID       int64      `json:"fromId"`
	ToID         int64      `json:"toId"`
	Message      string     `json:"message"`
	CreatedAt    time.Time  `json:"createdAt"`
	Status       Status     `json:"status"`
	ApprovedByID *int64     `json:"approvedById"`
	ApprovedAt   *time.Time `json:"approvedAt"`
	RejectReason *string    `json:"rejectReason"`
	Points       int        `json:"points"`
}

func New(fromID, toID int64, message string, now time.Time) *Thanks {
	return &Thanks{
		FromID:    fromID,
		ToID:      toID,
		Message:   message,
		CreatedAt: now,
		Status:    StatusPending,
		Points:    DefaultPoints,
	}
}

func (t *Thanks) IsPending() bool {
	return t.Status == StatusPending
}

// Finalize stamps the outcome of an approve/reject on the in-memory record.
func (t *Thanks) Finalize(action Action, approverID int64, reason *string, at time.Time) {
	t.Status = action.Status()
	t.ApprovedByID = &approverID
	t.ApprovedAt = &at
	if action == ActionReject {
		t.RejectReason = reason
	} else {
		t.RejectReason = nil
	}
}

// Reopen clears approval fields, used when an admin moves a record back to pending.
func (t *Thanks) Reopen() {
	t.Status = StatusPending
	t.ApprovedByID = nil
	t.ApprovedAt = nil
	t.RejectReason = nil
}

// CheckConsistency verifies the record-level invariants that every write
// path, including the admin override, must keep.
func (t *Thanks) CheckConsistency() error {
	if t.FromID == t.ToID {
		return apperrors.ErrInvalidRecipient
	}
	if !t.Status.Valid() {
		return apperrors.NewValidationFieldError("status", "status must be one of pending, approved, rejected", apperrors.ErrCodeValidationFailed)
	}
	stamped := t.ApprovedByID != nil && t.ApprovedAt != nil
	cleared := t.ApprovedByID == nil && t.ApprovedAt == nil
	if t.Status == StatusPending && !cleared {
		return apperrors.NewValidationError("pending thanks cannot carry approval fields", apperrors.ErrCodeValidationFailed)
	}
	if t.Status.Terminal() && !stamped {
		return apperrors.NewValidationError("finalized thanks must carry approver and time", apperrors.ErrCodeValidationFailed)
	}
	if t.Status == StatusRejected && (t.RejectReason == nil || strings.TrimSpace(*t.RejectReason) == "") {
		return apperrors.ErrMissingReason
	}
	return nil
}

func ToDataModel(t *Thanks) *thanksDatamodel.Thanks {
	return &thanksDatamodel.Thanks{
		ID:           t.ID,
		FromID:       t.FromID,
		ToID:         t.ToID,
		Message:      t.Message,
		CreatedAt:    t.CreatedAt,
		Status:       string(t.Status),
		ApprovedByID: t.ApprovedByID,
		ApprovedAt:   t.ApprovedAt,
		RejectReason: t.RejectReason,
		Points:       t.Points,
	}
}

func FromDataModel(t *thanksDatamodel.Thanks) *Thanks {
	return &Thanks{
		ID:           t.ID,
		FromID:       t.FromID,
		ToID:         t.ToID,
		Message:      t.Message,
		CreatedAt:    t.CreatedAt,
		Status:       Status(t.Status),
		ApprovedByID: t.ApprovedByID,
		ApprovedAt:   t.ApprovedAt,
		RejectReason: t.RejectReason,
		Points:       t.Points,
	}
}

func FromDataModelSlice(rows []*thanksDatamodel.Thanks) []*Thanks {
	result := make([]*Thanks, len(rows))
	for i, t := range rows {
		result[i] = FromDataModel(t)
	}
	return result
}
