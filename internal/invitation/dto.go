package invitation

import (
	"net/mail"
	"strings"
	"time"

	"github.com/lop-gin/janus/internal"
)

type CreateDTO struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	RoleID   *int64 `json:"role_id,omitempty"`
}

func (d CreateDTO) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return internal.NewValidationError("email is required", internal.ErrCodeValidationFailed)
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return internal.NewValidationError("email is not valid", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.FullName) == "" {
		return internal.NewValidationError("full name is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type VerifyDTO struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (d VerifyDTO) Validate() error {
	if strings.TrimSpace(d.Email) == "" {
		return internal.NewValidationError("email is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.Code) == "" {
		return internal.NewValidationError("code is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type AcceptDTO struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (d AcceptDTO) Validate() error {
	if err := (VerifyDTO{Email: d.Email, Code: d.Code}).Validate(); err != nil {
		return err
	}
	if len(d.Password) < 8 {
		return internal.NewValidationError("password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

type InvitationResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Code      string    `json:"code"`
	RoleID    *int64    `json:"role_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifiedResponse struct {
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CompanyID int64     `json:"company_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AcceptResponse struct {
	UserID       int64  `json:"user_id"`
	CompanyID    int64  `json:"company_id"`
	Email        string `json:"email"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}
