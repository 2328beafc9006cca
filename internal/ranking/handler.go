package ranking

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/recognition-portal/internal/transport"
	"github.com/frahmantamala/recognition-portal/pkg/logger"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Rankings(ctx context.Context, p Period) (*Leaderboard, error)
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

// GetRankings handles GET /rankings/{period}
func (h *Handler) GetRankings(w http.ResponseWriter, r *http.Request) {
	p, err := ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	board, err := h.Service.Rankings(r.Context(), p)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, board)
}
