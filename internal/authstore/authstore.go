package authstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ExternalIdentity is a credential-holder in the hosted auth store,
// independent of any tenant-scoped profile data.
type ExternalIdentity struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	ConfirmedAt *time.Time     `json:"email_confirmed_at"`
	Metadata    map[string]any `json:"user_metadata"`
}

// Confirmed reports whether the identity's email has been verified.
func (e *ExternalIdentity) Confirmed() bool {
	return e != nil && e.ConfirmedAt != nil
}

type Session struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresIn    int              `json:"expires_in"`
	User         ExternalIdentity `json:"user"`
}

// API is the boundary to the external auth store. One client is
// constructed at process start and injected everywhere; there is no
// package-level singleton.
type API interface {
	// GetUser resolves a bearer access token to its identity.
	GetUser(ctx context.Context, accessToken string) (*ExternalIdentity, error)

	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*ExternalIdentity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	VerifyOTP(ctx context.Context, email, token, otpType string) (*Session, error)
	ResetPasswordForEmail(ctx context.Context, email string) error

	AdminCreateUser(ctx context.Context, email, password string, confirmEmail bool, metadata map[string]any) (*ExternalIdentity, error)
	AdminGetUserByEmail(ctx context.Context, email string) (*ExternalIdentity, error)
	AdminUpdatePassword(ctx context.Context, id uuid.UUID, password string) error
	AdminDeleteUser(ctx context.Context, id uuid.UUID) error
}

var (
	ErrUnauthorized       = errors.New("authstore: token rejected")
	ErrInvalidCredentials = errors.New("authstore: invalid login credentials")
	ErrEmailExists        = errors.New("authstore: email already registered")
	ErrUserNotFound       = errors.New("authstore: user not found")
	ErrOTPInvalid         = errors.New("authstore: invalid or expired otp")
)
