package approval

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/recognition-portal/internal/auth"
	"github.com/frahmantamala/recognition-portal/internal/transport"
	"github.com/frahmantamala/recognition-portal/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Router *Router
}

func NewHandler(router *Router) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Router:      router,
	}
}

// PendingQueue handles GET /approvals
func (h *Handler) PendingQueue(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	queue, err := h.Router.PendingQueueFor(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"thanks": queue,
		"total":  len(queue),
	})
}
