package activity

import (
	"net/http"
	"strconv"

	"github.com/lop-gin/janus/internal"
	"github.com/lop-gin/janus/internal/auth"
	"github.com/lop-gin/janus/internal/transport"
)

type Handler struct {
	transport.BaseHandler
	service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, internal.ErrUnauthenticated)
		return
	}

	filter := ListFilter{
		ActivityType: r.URL.Query().Get("activity_type"),
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			h.WriteError(w, internal.NewValidationError("invalid user_id", internal.ErrCodeValidationFailed))
			return
		}
		filter.UserID = &id
	}
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.PageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))

	resp, err := h.service.List(r.Context(), user.CompanyID, filter)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}
