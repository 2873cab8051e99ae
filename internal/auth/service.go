package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lop-gin/janus/internal"
	"github.com/lop-gin/janus/internal/authstore"
)

const (
	otpTypeSignup   = "signup"
	otpTypeRecovery = "recovery"
)

type Service struct {
	store     authstore.API
	repo      RepositoryAPI
	recorder  ActivityRecorder
	jwtSecret []byte
	logger    *slog.Logger
}

func NewService(store authstore.API, repo RepositoryAPI, recorder ActivityRecorder, jwtSecret string, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		repo:      repo,
		recorder:  recorder,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

// ResolveIdentity turns a bearer token into the external identity that
// issued it. With a shared JWT secret configured the token is verified
// locally; otherwise it is checked against the auth store.
func (s *Service) ResolveIdentity(ctx context.Context, token string) (*authstore.ExternalIdentity, error) {
	if token == "" {
		return nil, internal.ErrUnauthenticated
	}

	if len(s.jwtSecret) > 0 {
		return s.resolveLocal(token)
	}

	identity, err := s.store.GetUser(ctx, token)
	if err != nil {
		if errors.Is(err, authstore.ErrUnauthorized) {
			return nil, internal.ErrUnauthenticated
		}
		return nil, internal.NewExternalError("auth store lookup failed", err)
	}
	return identity, nil
}

func (s *Service) resolveLocal(token string) (*authstore.ExternalIdentity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, internal.ErrUnauthenticated
	}

	subject, err := claims.GetSubject()
	if err != nil {
		return nil, internal.ErrUnauthenticated
	}
	authUserID, err := uuid.Parse(subject)
	if err != nil {
		return nil, internal.ErrUnauthenticated
	}

	identity := &authstore.ExternalIdentity{
		ID:    authUserID,
		Email: claims.Email,
	}
	// The store only signs tokens for confirmed identities.
	if claims.IssuedAt != nil {
		issuedAt := claims.IssuedAt.Time
		identity.ConfirmedAt = &issuedAt
	}
	return identity, nil
}

// CurrentUser maps a bearer token to the tenant-scoped user behind it.
// A valid identity without a tenant profile is a 403, not a 401: the
// caller authenticated fine but has no standing in any tenant.
func (s *Service) CurrentUser(ctx context.Context, token string) (*CurrentUser, error) {
	identity, err := s.ResolveIdentity(ctx, token)
	if err != nil {
		return nil, err
	}

	tenantUser, err := s.repo.GetTenantUserByAuthID(ctx, identity.ID.String())
	if err != nil {
		return nil, internal.NewInternalError("failed to load user profile", err)
	}
	if tenantUser == nil {
		return nil, internal.ErrProfileNotFound
	}

	return &CurrentUser{
		UserID:     tenantUser.ID,
		CompanyID:  tenantUser.CompanyID,
		AuthUserID: identity.ID,
		Email:      tenantUser.Email,
		Name:       tenantUser.Name,
	}, nil
}

// SignUpInitiate registers the identity in the auth store with a
// throwaway password and the company details stashed as metadata; the
// store sends the confirmation OTP. Nothing is written locally until
// the OTP is verified.
func (s *Service) SignUpInitiate(ctx context.Context, dto SignUpInitiateDTO) (MessageResponse, error) {
	if err := dto.Validate(); err != nil {
		return MessageResponse{}, err
	}

	tempPassword, err := randomToken(16)
	if err != nil {
		return MessageResponse{}, internal.NewInternalError("failed to generate temporary password", err)
	}

	metadata := map[string]any{
		"company_name":      dto.Company.Name,
		"company_type":      dto.Company.Type,
		"company_email":     dto.Company.Email,
		"company_address":   dto.Company.Address,
		"company_tax_id":    dto.Company.TaxID,
		"user_full_name":    dto.User.FullName,
		"user_phone_number": dto.User.PhoneNumber,
	}

	if _, err := s.store.SignUp(ctx, dto.User.Email, tempPassword, metadata); err != nil {
		if errors.Is(err, authstore.ErrEmailExists) {
			return MessageResponse{}, internal.ErrDuplicateUser
		}
		return MessageResponse{}, internal.NewExternalError("sign-up failed", err)
	}

	return MessageResponse{Message: "verification code sent to " + dto.User.Email}, nil
}

// VerifySignupOTP confirms the email with the auth store and, on first
// confirmation, provisions the tenant: company, owner user, and the
// Super Admin role with the owner assigned to it. Re-verifying is
// idempotent with respect to provisioning.
func (s *Service) VerifySignupOTP(ctx context.Context, dto OTPVerifyDTO) (OTPVerifiedResponse, error) {
	if err := dto.Validate(); err != nil {
		return OTPVerifiedResponse{}, err
	}

	session, err := s.store.VerifyOTP(ctx, dto.Email, dto.OTP, otpTypeSignup)
	if err != nil {
		if errors.Is(err, authstore.ErrOTPInvalid) {
			return OTPVerifiedResponse{}, internal.ErrInvalidOTP
		}
		return OTPVerifiedResponse{}, internal.NewExternalError("otp verification failed", err)
	}

	authUserID := session.User.ID.String()
	existing, err := s.repo.GetTenantUserByAuthID(ctx, authUserID)
	if err != nil {
		return OTPVerifiedResponse{}, internal.NewInternalError("failed to check existing profile", err)
	}
	if existing != nil {
		return OTPVerifiedResponse{
			Message:   "email already verified",
			UserID:    existing.ID,
			CompanyID: existing.CompanyID,
			Email:     existing.Email,
		}, nil
	}

	params := ProvisionParams{
		AuthUserID:     authUserID,
		Email:          session.User.Email,
		FullName:       metadataString(session.User.Metadata, "user_full_name"),
		PhoneNumber:    metadataString(session.User.Metadata, "user_phone_number"),
		CompanyName:    metadataString(session.User.Metadata, "company_name"),
		CompanyType:    metadataString(session.User.Metadata, "company_type"),
		CompanyEmail:   metadataString(session.User.Metadata, "company_email"),
		CompanyAddress: metadataString(session.User.Metadata, "company_address"),
		CompanyTaxID:   metadataString(session.User.Metadata, "company_tax_id"),
	}
	userID, companyID, err := s.repo.ProvisionTenant(ctx, params)
	if err != nil {
		return OTPVerifiedResponse{}, internal.NewInternalError("failed to provision tenant", err)
	}

	s.recorder.Record(ctx, companyID, userID, "company_registered",
		fmt.Sprintf("company %q registered", params.CompanyName), "company", companyID)

	return OTPVerifiedResponse{
		Message:   "email verified",
		UserID:    userID,
		CompanyID: companyID,
		Email:     session.User.Email,
	}, nil
}

// SetPassword replaces the throwaway sign-up password once the email is
// confirmed, then signs the user in so the client gets a session back.
func (s *Service) SetPassword(ctx context.Context, dto SetPasswordDTO) (AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return AuthResponse{}, err
	}

	identity, err := s.store.AdminGetUserByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, authstore.ErrUserNotFound) {
			return AuthResponse{}, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
		}
		return AuthResponse{}, internal.NewExternalError("user lookup failed", err)
	}
	if !identity.Confirmed() {
		return AuthResponse{}, internal.ErrEmailNotConfirmed
	}

	if err := s.store.AdminUpdatePassword(ctx, identity.ID, dto.Password); err != nil {
		return AuthResponse{}, internal.NewExternalError("failed to set password", err)
	}

	session, err := s.store.SignInWithPassword(ctx, dto.Email, dto.Password)
	if err != nil {
		return AuthResponse{}, internal.NewExternalError("sign-in after password set failed", err)
	}
	return sessionResponse(session), nil
}

func (s *Service) SignIn(ctx context.Context, dto SignInDTO) (AuthResponse, error) {
	if err := dto.Validate(); err != nil {
		return AuthResponse{}, err
	}

	session, err := s.store.SignInWithPassword(ctx, dto.Email, dto.Password)
	if err != nil {
		if errors.Is(err, authstore.ErrInvalidCredentials) {
			return AuthResponse{}, internal.NewUnauthorizedError("invalid email or password", internal.ErrCodeUnauthenticated)
		}
		return AuthResponse{}, internal.NewExternalError("sign-in failed", err)
	}
	if !session.User.Confirmed() {
		return AuthResponse{}, internal.ErrEmailNotConfirmed
	}

	if tenantUser, err := s.repo.GetTenantUserByAuthID(ctx, session.User.ID.String()); err == nil && tenantUser != nil {
		s.recorder.Record(ctx, tenantUser.CompanyID, tenantUser.ID, "user_logged_in",
			fmt.Sprintf("%s signed in", tenantUser.Email), "user", tenantUser.ID)
	}

	return sessionResponse(session), nil
}

// ForgotPasswordInitiate asks the store to send a recovery OTP. The
// response does not reveal whether the address is registered.
func (s *Service) ForgotPasswordInitiate(ctx context.Context, dto ForgotPasswordDTO) (MessageResponse, error) {
	if err := dto.Validate(); err != nil {
		return MessageResponse{}, err
	}
	if err := s.store.ResetPasswordForEmail(ctx, dto.Email); err != nil {
		return MessageResponse{}, internal.NewExternalError("failed to initiate password reset", err)
	}
	return MessageResponse{Message: "if the address is registered, a reset code has been sent"}, nil
}

func (s *Service) ForgotPasswordVerify(ctx context.Context, dto OTPVerifyDTO) (ResetOTPVerifiedResponse, error) {
	if err := dto.Validate(); err != nil {
		return ResetOTPVerifiedResponse{}, err
	}
	if _, err := s.store.VerifyOTP(ctx, dto.Email, dto.OTP, otpTypeRecovery); err != nil {
		if errors.Is(err, authstore.ErrOTPInvalid) {
			return ResetOTPVerifiedResponse{}, internal.ErrInvalidOTP
		}
		return ResetOTPVerifiedResponse{}, internal.NewExternalError("otp verification failed", err)
	}
	return ResetOTPVerifiedResponse{Message: "code verified", Email: dto.Email}, nil
}

func (s *Service) ForgotPasswordSetNew(ctx context.Context, dto SetNewPasswordDTO) (MessageResponse, error) {
	if err := dto.Validate(); err != nil {
		return MessageResponse{}, err
	}

	identity, err := s.store.AdminGetUserByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, authstore.ErrUserNotFound) {
			return MessageResponse{}, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
		}
		return MessageResponse{}, internal.NewExternalError("user lookup failed", err)
	}
	if !identity.Confirmed() {
		return MessageResponse{}, internal.ErrEmailNotConfirmed
	}

	if err := s.store.AdminUpdatePassword(ctx, identity.ID, dto.Password); err != nil {
		return MessageResponse{}, internal.NewExternalError("failed to update password", err)
	}

	if tenantUser, err := s.repo.GetTenantUserByAuthID(ctx, identity.ID.String()); err == nil && tenantUser != nil {
		s.recorder.Record(ctx, tenantUser.CompanyID, tenantUser.ID, "user_password_reset",
			fmt.Sprintf("%s reset their password", tenantUser.Email), "user", tenantUser.ID)
	}

	return MessageResponse{Message: "password updated"}, nil
}

func sessionResponse(session *authstore.Session) AuthResponse {
	return AuthResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		UserID:       session.User.ID,
		Email:        session.User.Email,
	}
}

func metadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	value, _ := metadata[key].(string)
	return value
}

func randomToken(bytes int) (string, error) {
	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
