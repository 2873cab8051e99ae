package auth_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lop-gin/janus/internal"
	"github.com/lop-gin/janus/internal/auth"
	"github.com/lop-gin/janus/internal/authstore"
	tenantuserDatamodel "github.com/lop-gin/janus/internal/core/datamodel/tenantuser"
)

const testSecret = "test-jwt-secret"

// Mock auth store covering the full client surface; tests flip the
// error fields to exercise each failure path.
type mockAuthStore struct {
	identities    map[string]*authstore.ExternalIdentity
	signUpError   error
	signInError   error
	verifyError   error
	resetError    error
	updateError   error
	verifiedUser  *authstore.ExternalIdentity
	signUpCalls   int
	lastMetadata  map[string]any
	passwordSetTo string
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{identities: make(map[string]*authstore.ExternalIdentity)}
}

func (m *mockAuthStore) GetUser(_ context.Context, token string) (*authstore.ExternalIdentity, error) {
	identity, ok := m.identities[token]
	if !ok {
		return nil, authstore.ErrUnauthorized
	}
	return identity, nil
}

func (m *mockAuthStore) SignUp(_ context.Context, email, _ string, metadata map[string]any) (*authstore.ExternalIdentity, error) {
	m.signUpCalls++
	m.lastMetadata = metadata
	if m.signUpError != nil {
		return nil, m.signUpError
	}
	return &authstore.ExternalIdentity{ID: uuid.New(), Email: email}, nil
}

func (m *mockAuthStore) SignInWithPassword(_ context.Context, email, _ string) (*authstore.Session, error) {
	if m.signInError != nil {
		return nil, m.signInError
	}
	user := m.verifiedUser
	if user == nil {
		user = &authstore.ExternalIdentity{ID: uuid.New(), Email: email}
	}
	return &authstore.Session{AccessToken: "access", RefreshToken: "refresh", User: *user}, nil
}

func (m *mockAuthStore) VerifyOTP(_ context.Context, _, _, _ string) (*authstore.Session, error) {
	if m.verifyError != nil {
		return nil, m.verifyError
	}
	return &authstore.Session{AccessToken: "access", User: *m.verifiedUser}, nil
}

func (m *mockAuthStore) ResetPasswordForEmail(_ context.Context, _ string) error {
	return m.resetError
}

func (m *mockAuthStore) AdminCreateUser(_ context.Context, email, _ string, _ bool, _ map[string]any) (*authstore.ExternalIdentity, error) {
	return &authstore.ExternalIdentity{ID: uuid.New(), Email: email}, nil
}

func (m *mockAuthStore) AdminGetUserByEmail(_ context.Context, email string) (*authstore.ExternalIdentity, error) {
	for _, identity := range m.identities {
		if identity.Email == email {
			return identity, nil
		}
	}
	return nil, authstore.ErrUserNotFound
}

func (m *mockAuthStore) AdminUpdatePassword(_ context.Context, _ uuid.UUID, password string) error {
	if m.updateError != nil {
		return m.updateError
	}
	m.passwordSetTo = password
	return nil
}

func (m *mockAuthStore) AdminDeleteUser(_ context.Context, _ uuid.UUID) error {
	return nil
}

type mockAuthRepository struct {
	usersByAuthID  map[string]*tenantuserDatamodel.TenantUser
	provisionCalls int
	provisioned    auth.ProvisionParams
	provisionError error
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{usersByAuthID: make(map[string]*tenantuserDatamodel.TenantUser)}
}

func (m *mockAuthRepository) GetTenantUserByAuthID(_ context.Context, authUserID string) (*tenantuserDatamodel.TenantUser, error) {
	user, ok := m.usersByAuthID[authUserID]
	if !ok {
		return nil, nil
	}
	return user, nil
}

func (m *mockAuthRepository) ProvisionTenant(_ context.Context, params auth.ProvisionParams) (int64, int64, error) {
	if m.provisionError != nil {
		return 0, 0, m.provisionError
	}
	m.provisionCalls++
	m.provisioned = params
	user := &tenantuserDatamodel.TenantUser{
		ID:         10,
		CompanyID:  20,
		AuthUserID: params.AuthUserID,
		Email:      params.Email,
		Name:       params.FullName,
	}
	m.usersByAuthID[params.AuthUserID] = user
	return 10, 20, nil
}

type mockRecorder struct {
	entries []string
}

func (m *mockRecorder) Record(_ context.Context, _, _ int64, kind, _, _ string, _ int64) {
	m.entries = append(m.entries, kind)
}

func signToken(secret string, subject string, expiresIn time.Duration) string {
	claims := auth.Claims{
		Email: "owner@co.test",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	Expect(err).ToNot(HaveOccurred())
	return token
}

var _ = Describe("AuthService", func() {
	var (
		service  *auth.Service
		store    *mockAuthStore
		repo     *mockAuthRepository
		recorder *mockRecorder
		ctx      context.Context
	)

	newService := func(secret string) *auth.Service {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		return auth.NewService(store, repo, recorder, secret, logger)
	}

	BeforeEach(func() {
		store = newMockAuthStore()
		repo = newMockAuthRepository()
		recorder = &mockRecorder{}
		service = newService(testSecret)
		ctx = context.Background()
	})

	Describe("ResolveIdentity", func() {
		It("should reject an empty token", func() {
			_, err := service.ResolveIdentity(ctx, "")
			Expect(err).To(MatchError(internal.ErrUnauthenticated))
		})

		It("should accept a locally-verifiable token", func() {
			subject := uuid.New()
			token := signToken(testSecret, subject.String(), time.Hour)

			identity, err := service.ResolveIdentity(ctx, token)

			Expect(err).ToNot(HaveOccurred())
			Expect(identity.ID).To(Equal(subject))
			Expect(identity.Email).To(Equal("owner@co.test"))
			Expect(identity.Confirmed()).To(BeTrue())
		})

		It("should reject a token signed with the wrong secret", func() {
			token := signToken("some-other-secret", uuid.NewString(), time.Hour)

			_, err := service.ResolveIdentity(ctx, token)

			Expect(err).To(MatchError(internal.ErrUnauthenticated))
		})

		It("should reject an expired token", func() {
			token := signToken(testSecret, uuid.NewString(), -time.Minute)

			_, err := service.ResolveIdentity(ctx, token)

			Expect(err).To(MatchError(internal.ErrUnauthenticated))
		})

		It("should reject a token whose subject is not a UUID", func() {
			token := signToken(testSecret, "not-a-uuid", time.Hour)

			_, err := service.ResolveIdentity(ctx, token)

			Expect(err).To(MatchError(internal.ErrUnauthenticated))
		})

		Context("without a shared secret configured", func() {
			BeforeEach(func() {
				service = newService("")
			})

			It("should fall back to the store lookup", func() {
				identity := &authstore.ExternalIdentity{ID: uuid.New(), Email: "owner@co.test"}
				store.identities["opaque-token"] = identity

				resolved, err := service.ResolveIdentity(ctx, "opaque-token")

				Expect(err).ToNot(HaveOccurred())
				Expect(resolved.ID).To(Equal(identity.ID))
			})

			It("should map a store rejection to unauthenticated", func() {
				_, err := service.ResolveIdentity(ctx, "unknown-token")

				Expect(err).To(MatchError(internal.ErrUnauthenticated))
			})
		})
	})

	Describe("CurrentUser", func() {
		It("should map a resolved identity to its tenant user", func() {
			subject := uuid.New()
			repo.usersByAuthID[subject.String()] = &tenantuserDatamodel.TenantUser{
				ID: 10, CompanyID: 20, AuthUserID: subject.String(), Email: "owner@co.test", Name: "Owner",
			}
			token := signToken(testSecret, subject.String(), time.Hour)

			current, err := service.CurrentUser(ctx, token)

			Expect(err).ToNot(HaveOccurred())
			Expect(current.UserID).To(Equal(int64(10)))
			Expect(current.CompanyID).To(Equal(int64(20)))
			Expect(current.AuthUserID).To(Equal(subject))
		})

		It("should return profile-not-found for an identity without a tenant user", func() {
			token := signToken(testSecret, uuid.NewString(), time.Hour)

			_, err := service.CurrentUser(ctx, token)

			Expect(err).To(MatchError(internal.ErrProfileNotFound))
		})
	})

	Describe("SignUpInitiate", func() {
		dto := auth.SignUpInitiateDTO{
			Company: auth.CompanyDTO{Name: "Acme", Type: "retail"},
			User:    auth.SignUpUserDTO{Email: "owner@co.test", FullName: "Owner"},
		}

		It("should register the identity with the company stashed as metadata", func() {
			_, err := service.SignUpInitiate(ctx, dto)

			Expect(err).ToNot(HaveOccurred())
			Expect(store.signUpCalls).To(Equal(1))
			Expect(store.lastMetadata["company_name"]).To(Equal("Acme"))
			Expect(store.lastMetadata["user_full_name"]).To(Equal("Owner"))
		})

		It("should map a duplicate email to a conflict", func() {
			store.signUpError = authstore.ErrEmailExists

			_, err := service.SignUpInitiate(ctx, dto)

			Expect(err).To(MatchError(internal.ErrDuplicateUser))
		})
	})

	Describe("VerifySignupOTP", func() {
		confirmed := time.Now()

		BeforeEach(func() {
			store.verifiedUser = &authstore.ExternalIdentity{
				ID:          uuid.New(),
				Email:       "owner@co.test",
				ConfirmedAt: &confirmed,
				Metadata: map[string]any{
					"company_name":   "Acme",
					"user_full_name": "Owner",
				},
			}
		})

		It("should provision the tenant on first verification", func() {
			resp, err := service.VerifySignupOTP(ctx, auth.OTPVerifyDTO{Email: "owner@co.test", OTP: "123456"})

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.provisionCalls).To(Equal(1))
			Expect(repo.provisioned.CompanyName).To(Equal("Acme"))
			Expect(resp.UserID).To(Equal(int64(10)))
			Expect(resp.CompanyID).To(Equal(int64(20)))
			Expect(recorder.entries).To(ContainElement("company_registered"))
		})

		It("should not provision twice for the same identity", func() {
			_, err := service.VerifySignupOTP(ctx, auth.OTPVerifyDTO{Email: "owner@co.test", OTP: "123456"})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.VerifySignupOTP(ctx, auth.OTPVerifyDTO{Email: "owner@co.test", OTP: "654321"})
			Expect(err).ToNot(HaveOccurred())
			Expect(repo.provisionCalls).To(Equal(1))
		})

		It("should map a bad OTP to the OTP error", func() {
			store.verifyError = authstore.ErrOTPInvalid

			_, err := service.VerifySignupOTP(ctx, auth.OTPVerifyDTO{Email: "owner@co.test", OTP: "000000"})

			Expect(err).To(MatchError(internal.ErrInvalidOTP))
		})
	})

	Describe("SignIn", func() {
		It("should reject bad credentials with a 401", func() {
			store.signInError = authstore.ErrInvalidCredentials

			_, err := service.SignIn(ctx, auth.SignInDTO{Email: "owner@co.test", Password: "nope"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(401))
		})

		It("should reject an unconfirmed email", func() {
			store.verifiedUser = &authstore.ExternalIdentity{ID: uuid.New(), Email: "owner@co.test"}

			_, err := service.SignIn(ctx, auth.SignInDTO{Email: "owner@co.test", Password: "password1"})

			Expect(err).To(MatchError(internal.ErrEmailNotConfirmed))
		})

		It("should return the session and record the sign-in", func() {
			confirmed := time.Now()
			identity := &authstore.ExternalIdentity{ID: uuid.New(), Email: "owner@co.test", ConfirmedAt: &confirmed}
			store.verifiedUser = identity
			repo.usersByAuthID[identity.ID.String()] = &tenantuserDatamodel.TenantUser{
				ID: 10, CompanyID: 20, Email: "owner@co.test",
			}

			resp, err := service.SignIn(ctx, auth.SignInDTO{Email: "owner@co.test", Password: "password1"})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.AccessToken).To(Equal("access"))
			Expect(recorder.entries).To(ContainElement("user_logged_in"))
		})
	})

	Describe("SetPassword", func() {
		It("should refuse before the email is confirmed", func() {
			store.identities["t"] = &authstore.ExternalIdentity{ID: uuid.New(), Email: "owner@co.test"}

			_, err := service.SetPassword(ctx, auth.SetPasswordDTO{Email: "owner@co.test", Password: "password1"})

			Expect(err).To(MatchError(internal.ErrEmailNotConfirmed))
		})

		It("should set the password and sign in", func() {
			confirmed := time.Now()
			identity := &authstore.ExternalIdentity{ID: uuid.New(), Email: "owner@co.test", ConfirmedAt: &confirmed}
			store.identities["t"] = identity
			store.verifiedUser = identity

			resp, err := service.SetPassword(ctx, auth.SetPasswordDTO{Email: "owner@co.test", Password: "password1"})

			Expect(err).ToNot(HaveOccurred())
			Expect(store.passwordSetTo).To(Equal("password1"))
			Expect(resp.AccessToken).To(Equal("access"))
		})
	})

	Describe("ForgotPassword", func() {
		It("should answer with a non-revealing message", func() {
			resp, err := service.ForgotPasswordInitiate(ctx, auth.ForgotPasswordDTO{Email: "owner@co.test"})

			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Message).ToNot(ContainSubstring("owner@co.test"))
		})

		It("should surface a store failure as an external error", func() {
			store.resetError = errors.New("store down")

			_, err := service.ForgotPasswordInitiate(ctx, auth.ForgotPasswordDTO{Email: "owner@co.test"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeExternalStore))
		})
	})
})
