package auth

import (
	"encoding/json"
	"net/http"

	"github.com/lop-gin/janus/internal"
	"github.com/lop-gin/janus/internal/transport"
	"github.com/lop-gin/janus/pkg/logger"
)

type Handler struct {
	transport.BaseHandler
	service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{service: service}
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var dto SignUpInitiateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	resp, err := h.service.SignUpInitiate(r.Context(), dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) VerifySignupOTP(w http.ResponseWriter, r *http.Request) {
	var dto OTPVerifyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	resp, err := h.service.VerifySignupOTP(r.Context(), dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) SetPassword(w http.ResponseWriter, r *http.Request) {
	var dto SetPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	resp, err := h.service.SetPassword(r.Context(), dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var dto SignInDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	resp, err := h.service.SignIn(r.Context(), dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var dto ForgotPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	resp, err := h.service.ForgotPasswordInitiate(r.Context(), dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) ForgotPasswordVerify(w http.ResponseWriter, r *http.Request) {
	var dto OTPVerifyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	resp, err := h.service.ForgotPasswordVerify(r.Context(), dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) ForgotPasswordSetNew(w http.ResponseWriter, r *http.Request) {
	var dto SetNewPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, internal.NewValidationError("invalid request body", internal.ErrCodeValidationFailed))
		return
	}
	resp, err := h.service.ForgotPasswordSetNew(r.Context(), dto)
	if err != nil {
		h.WriteError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, internal.ErrUnauthenticated)
		return
	}
	h.WriteJSON(w, http.StatusOK, MeResponse{
		UserID:     user.UserID,
		CompanyID:  user.CompanyID,
		AuthUserID: user.AuthUserID,
		Email:      user.Email,
		Name:       user.Name,
	})
}

// Middleware resolves the bearer token to a tenant user and injects it
// into the request context. Requests without a valid, tenant-mapped
// identity never reach the wrapped handler.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := transport.ExtractTokenFromHeader(r)
		user, err := h.service.CurrentUser(r.Context(), token)
		if err != nil {
			transport.WriteAppError(w, err)
			return
		}

		ctx := ContextWithUser(r.Context(), user)
		ctx = logger.With(ctx,
			"user_id", user.UserID,
			"company_id", user.CompanyID,
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
