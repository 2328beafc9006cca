package hierarchy

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
)

type ManagerMode string

const (
	ManagerUnchanged ManagerMode = "unchanged"
	ManagerClear     ManagerMode = "clear"
	ManagerSet       ManagerMode = "set"
)

// ManagerUpdate says what a bulk update does to the manager edge. The zero
// value leaves it unchanged.
type ManagerUpdate struct {
	Mode      ManagerMode `json:"mode"`
	ManagerID *int64      `json:"managerId,omitempty"`
}

func KeepManager() ManagerUpdate { return ManagerUpdate{Mode: ManagerUnchanged} }

func ClearManager() ManagerUpdate { return ManagerUpdate{Mode: ManagerClear} }

func SetManager(id int64) ManagerUpdate { return ManagerUpdate{Mode: ManagerSet, ManagerID: &id} }

// Changes reports whether the update touches the manager edge.
func (m ManagerUpdate) Changes() bool {
	return m.Mode == ManagerClear || m.Mode == ManagerSet
}

func (m *ManagerUpdate) UnmarshalJSON(b []byte) error {
	type raw ManagerUpdate
	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	r.Mode = ManagerMode(strings.ToLower(strings.TrimSpace(string(r.Mode))))
	if r.Mode == "" {
		r.Mode = ManagerUnchanged
	}
	*m = ManagerUpdate(r)
	return nil
}

func (m ManagerUpdate) Validate() *apperrors.AppError {
	switch m.Mode {
	case "", ManagerUnchanged, ManagerClear:
		if m.ManagerID != nil {
			return apperrors.NewValidationFieldError("manager.managerId", fmt.Sprintf("managerId must be omitted when mode is %q", m.Mode), apperrors.ErrCodeValidationFailed)
		}
	case ManagerSet:
		if m.ManagerID == nil || *m.ManagerID <= 0 {
			return apperrors.NewValidationFieldError("manager.managerId", "managerId is required when mode is \"set\"", apperrors.ErrCodeValidationFailed)
		}
	default:
		return apperrors.NewValidationFieldError("manager.mode", "mode must be one of unchanged, clear, set", apperrors.ErrCodeValidationFailed)
	}
	return nil
}

// Attributes are the optional column edits shared by bulk updates. An empty
// string clears the column.
type Attributes struct {
	Title      *string
	Department *string
}

func (a Attributes) Empty() bool {
	return a.Title == nil && a.Department == nil
}

// DeleteSummary reports what a user deletion cascaded to.
type DeleteSummary struct {
	UserID            int64 `json:"userId"`
	ReportsUnassigned int64 `json:"reportsUnassigned"`
	ThanksDeleted     int64 `json:"thanksDeleted"`
}

// BulkUpdateResult lists who was updated and which admins were skipped.
type BulkUpdateResult struct {
	UpdatedIDs  []int64 `json:"updatedIds"`
	ExcludedIDs []int64 `json:"excludedIds"`
}

type SkippedRow struct {
	Row      int    `json:"row"`
	Username string `json:"username"`
	Reason   string `json:"reason"`
}

type ImportSummary struct {
	InsertedCount int          `json:"insertedCount"`
	Skipped       []SkippedRow `json:"skipped"`
}
