package auth

import (
	"context"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok && u != nil
}

// CanViewReports allows admins to read anyone's direct reports and managers
// to read only their own.
func CanViewReports(u *User, managerID int64) error {
	switch {
	case u == nil:
		return apperrors.ErrForbidden
	case u.IsAdmin():
		return nil
	case u.IsManager() && u.ID == managerID:
		return nil
	default:
		return apperrors.ErrForbidden
	}
}
