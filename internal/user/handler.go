package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/lop-gin/janus/internal"
	"github.com/lop-gin/janus/internal/auth"
	"github.com/lop-gin/janus/internal/invitation"
	"github.com/lop-gin/janus/internal/transport"
)

type Handler struct {
	transport.BaseHandler
	service     ServiceAPI
	invitations invitation.ServiceAPI
}

func NewHandler(service ServiceAPI, invitations invitation.ServiceAPI) *Handler {
	return &Handler{service: service, invitations: invitations}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, internal.ErrUnauthenticated)
		return
	}
	users, err := h.service.List(r.Context(), user.CompanyID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, users)
}

// ListSalesReps serves the representative picker: every user in the
// caller's company holding a sales-related role.
func (h *Handler) ListSalesReps(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, internal.ErrUnauthenticated)
		return
	}
	reps, err := h.service.ListSalesReps(r.Context(), user.CompanyID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, reps)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, internal.ErrUnauthenticated)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		h.WriteError(w, err)
		return
	}
	resp, err := h.service.Get(r.Context(), user.CompanyID, userID)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, internal.ErrUnauthenticated)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		h.WriteError(w, err)
		return
	}
	var dto UpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	resp, err := h.service.Update(r.Context(), user.CompanyID, user.UserID, userID, dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// Invite issues an invitation on behalf of the current user.
func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, internal.ErrUnauthenticated)
		return
	}
	var dto invitation.CreateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	resp, err := h.invitations.Create(r.Context(), user.CompanyID, user.UserID, dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, resp)
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.NewValidationError("invalid "+name, internal.ErrCodeValidationFailed)
	}
	return id, nil
}
