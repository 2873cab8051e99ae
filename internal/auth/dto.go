package auth

import (
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/lop-gin/janus/internal"
)

type CompanyDTO struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"tax_id,omitempty"`
}

type SignUpUserDTO struct {
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type SignUpInitiateDTO struct {
	Company CompanyDTO    `json:"company"`
	User    SignUpUserDTO `json:"user"`
}

func (d SignUpInitiateDTO) Validate() error {
	if strings.TrimSpace(d.Company.Name) == "" {
		return internal.NewValidationError("company name is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(d.User.FullName) == "" {
		return internal.NewValidationError("user full name is required", internal.ErrCodeValidationFailed)
	}
	if err := validateEmail(d.User.Email); err != nil {
		return err
	}
	return nil
}

type OTPVerifyDTO struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (d OTPVerifyDTO) Validate() error {
	if err := validateEmail(d.Email); err != nil {
		return err
	}
	if strings.TrimSpace(d.OTP) == "" {
		return internal.NewValidationError("otp is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type SetPasswordDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d SetPasswordDTO) Validate() error {
	if err := validateEmail(d.Email); err != nil {
		return err
	}
	return validatePassword(d.Password)
}

type SignInDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d SignInDTO) Validate() error {
	if err := validateEmail(d.Email); err != nil {
		return err
	}
	if d.Password == "" {
		return internal.NewValidationError("password is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type ForgotPasswordDTO struct {
	Email string `json:"email"`
}

func (d ForgotPasswordDTO) Validate() error {
	return validateEmail(d.Email)
}

type SetNewPasswordDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (d SetNewPasswordDTO) Validate() error {
	if err := validateEmail(d.Email); err != nil {
		return err
	}
	return validatePassword(d.Password)
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AuthResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email"`
}

type OTPVerifiedResponse struct {
	Message   string `json:"message"`
	UserID    int64  `json:"user_id"`
	CompanyID int64  `json:"company_id"`
	Email     string `json:"email"`
}

type ResetOTPVerifiedResponse struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

type MeResponse struct {
	UserID     int64     `json:"user_id"`
	CompanyID  int64     `json:"company_id"`
	AuthUserID uuid.UUID `json:"auth_user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
}

func validateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return internal.NewValidationError("email is required", internal.ErrCodeValidationFailed)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return internal.NewValidationError("email is not valid", internal.ErrCodeValidationFailed)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return internal.NewValidationError("password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}
