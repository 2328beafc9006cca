package approval

import (
	"context"
	"errors"
	"log/slog"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/auth"
	"github.com/frahmantamala/recognition-portal/internal/thanks"
	"github.com/frahmantamala/recognition-portal/internal/user"
)

type UserDirectory interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	DirectReportIDs(ctx context.Context, managerID int64) ([]int64, error)
}

type PendingLister interface {
	ListPending(ctx context.Context, recipientIDs []int64) ([]*thanks.Thanks, error)
}

// Router decides who may finalize a thanks record and what lands in each
// approver's queue. Admins see and act on everything, managers only on
// records addressed to their direct reports.
type Router struct {
	users   UserDirectory
	pending PendingLister
	logger  *slog.Logger
}

func NewRouter(users UserDirectory, pending PendingLister, logger *slog.Logger) *Router {
	return &Router{users: users, pending: pending, logger: logger}
}

// CanApprove implements thanks.Authorizer.
func (r *Router) CanApprove(ctx context.Context, approverID int64, t *thanks.Thanks) (bool, error) {
	approver, err := r.users.GetByID(ctx, approverID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}

	switch approver.Role {
	case user.RoleAdmin:
		return true, nil
	case user.RoleManager:
		recipient, err := r.users.GetByID(ctx, t.ToID)
		if err != nil {
			if errors.Is(err, apperrors.ErrUserNotFound) {
				return false, nil
			}
			return false, err
		}
		return recipient.ReportsTo(approverID), nil
	default:
		return false, nil
	}
}

// PendingQueueFor returns the pending records the actor may act on.
func (r *Router) PendingQueueFor(ctx context.Context, actor *auth.User) ([]*thanks.Thanks, error) {
	switch {
	case actor.IsAdmin():
		return r.pending.ListPending(ctx, nil)
	case actor.IsManager():
		ids, err := r.users.DirectReportIDs(ctx, actor.ID)
		if err != nil {
			r.logger.Error("failed to load direct reports", "error", err, "manager_id", actor.ID)
			return nil, err
		}
		if ids == nil {
			ids = []int64{}
		}
		return r.pending.ListPending(ctx, ids)
	default:
		r.logger.Info("approval queue denied", "user_id", actor.ID, "role", actor.Role)
		return nil, apperrors.ErrForbidden
	}
}
