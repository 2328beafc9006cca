package thanks

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/recognition-portal/internal/auth"
	"github.com/frahmantamala/recognition-portal/internal/transport"
	"github.com/frahmantamala/recognition-portal/pkg/logger"
)

type ServiceAPI interface {
	Create(ctx context.Context, fromID int64, dto CreateThanksDTO) (*Thanks, error)
	Transition(ctx context.Context, thanksID, approverID int64, action Action, reason *string) (*Thanks, error)
	GetByID(ctx context.Context, id int64) (*Thanks, error)
	ListAll(ctx context.Context, filter ListFilter) ([]*Thanks, int64, error)
	ListRecent(ctx context.Context, limit int) ([]*Thanks, error)
	ListForUser(ctx context.Context, userID int64) ([]*Thanks, error)
	Stats(ctx context.Context, userID int64) (*UserStats, error)
	AdminUpdate(ctx context.Context, actor *auth.User, id int64, dto AdminUpdateDTO) (*Thanks, error)
	AdminDelete(ctx context.Context, actor *auth.User, id int64) error
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

// CreateThanks handles POST /thanks
func (h *Handler) CreateThanks(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateThanksDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	t, err := h.Service.Create(r.Context(), actor.ID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, t)
}

// GetThanks handles GET /thanks/{id}
func (h *Handler) GetThanks(w http.ResponseWriter, r *http.Request) {
	id, err := h.IDParam(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	t, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

// ListRecent handles GET /thanks/recent?limit=n
func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := h.QueryInt(r, "limit", DefaultRecentLimit, 1, MaxListLimit)

	ts, err := h.Service.ListRecent(r.Context(), limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"thanks": ts})
}

// ListMine handles GET /thanks/me
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ts, err := h.Service.ListForUser(r.Context(), actor.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"thanks": ts})
}

// Approve handles POST /thanks/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, ActionApprove)
}

// Reject handles POST /thanks/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, ActionReject)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, action Action) {
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

	var dto TransitionDTO
	if r.ContentLength != 0 {
		if err := h.DecodeJSON(r, &dto); err != nil {
			h.HandleServiceError(w, err)
			return
		}
		if verr := dto.Validate(); verr != nil {
			h.HandleServiceError(w, verr)
			return
		}
	}

	t, err := h.Service.Transition(r.Context(), id, actor.ID, action, dto.Reason)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

// GetStats handles GET /stats/{userId}
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID, err := h.IDParam(r, "userId")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	stats, err := h.Service.Stats(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

// AdminList handles GET /admin/thanks?status=&limit=&offset=
func (h *Handler) AdminList(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Limit:  h.QueryInt(r, "limit", MaxListLimit, 1, MaxListLimit),
		Offset: h.QueryInt(r, "offset", 0, 0, 1<<30),
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := Status(raw)
		filter.Status = &st
	}

	ts, total, err := h.Service.ListAll(r.Context(), filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"thanks": ts,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// AdminUpdate handles PATCH /admin/thanks/{id}
func (h *Handler) AdminUpdate(w http.ResponseWriter, r *http.Request) {
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

	var dto AdminUpdateDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	t, err := h.Service.AdminUpdate(r.Context(), actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

// AdminDelete handles DELETE /admin/thanks/{id}
func (h *Handler) AdminDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Service.AdminDelete(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
