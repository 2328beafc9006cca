package auth

import (
	"log/slog"
	"net/http"

	apperrors "github.com/frahmantamala/recognition-portal/internal"
	"github.com/frahmantamala/recognition-portal/internal/transport"
)

type RBACAuthorization struct {
	checker RoleChecker
	base    *transport.BaseHandler
	logger  *slog.Logger
}

func NewRBACAuthorization(checker RoleChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		checker: checker,
		base:    transport.NewBaseHandler(logger),
		logger:  logger,
	}
}

func (ra *RBACAuthorization) guard(name string, allow func(u *User) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				ra.logger.Warn("authorization check failed: user not found in context")
				ra.base.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !allow(user) {
				ra.logger.WarnContext(r.Context(), "access denied",
					"user_id", user.ID,
					"role", user.Role,
					"required", name)
				ra.base.HandleServiceError(w, apperrors.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.guard("admin", ra.checker.IsAdmin)
}

// RequireApprover admits managers and admins. Per-record scope is still
// checked by the approval router.
func (ra *RBACAuthorization) RequireApprover() func(http.Handler) http.Handler {
	return ra.guard("approver", ra.checker.IsApprover)
}
