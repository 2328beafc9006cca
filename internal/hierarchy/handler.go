package hierarchy

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/recognition-portal/internal/auth"
	"github.com/frahmantamala/recognition-portal/internal/transport"
	"github.com/frahmantamala/recognition-portal/internal/user"
	"github.com/frahmantamala/recognition-portal/pkg/logger"
)

type ServiceAPI interface {
	ReassignManager(ctx context.Context, userID int64, managerID *int64) (*user.User, error)
	BulkUpdate(ctx context.Context, req BulkUpdateRequest) (*BulkUpdateResult, error)
	DeleteUser(ctx context.Context, actor *auth.User, userID int64) (*DeleteSummary, error)
	BulkImport(ctx context.Context, rows []ImportRow, defaultPassword string) (*ImportSummary, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ReassignManager handles PATCH /users/{id}/manager
func (h *Handler) ReassignManager(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto ReassignManagerDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if verr := dto.Validate(); verr != nil {
		h.HandleServiceError(w, verr)
		return
	}

	u, err := h.Service.ReassignManager(r.Context(), id, dto.ManagerID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// BulkUpdate handles POST /users/bulk-update
func (h *Handler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	result, err := h.Service.BulkUpdate(r.Context(), req)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

// DeleteUser handles DELETE /users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	summary, err := h.Service.DeleteUser(r.Context(), actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}

// Import handles POST /users/import
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	summary, err := h.Service.BulkImport(r.Context(), req.Rows, req.DefaultPassword)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, summary)
}
