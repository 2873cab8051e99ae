package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lop-gin/janus/internal/authstore"
	tenantuserDatamodel "github.com/lop-gin/janus/internal/core/datamodel/tenantuser"
)

// CurrentUser is the tenant-scoped identity every authorized request
// runs as: the internal users row plus the external identity it maps to.
type CurrentUser struct {
	UserID     int64
	CompanyID  int64
	AuthUserID uuid.UUID
	Email      string
	Name       string
}

type ctxKey string

const ContextUserKey ctxKey = "currentUser"

func UserFromContext(ctx context.Context) (*CurrentUser, bool) {
	if ctx == nil {
		return nil, false
	}
	user, ok := ctx.Value(ContextUserKey).(*CurrentUser)
	return user, ok && user != nil
}

func ContextWithUser(ctx context.Context, user *CurrentUser) context.Context {
	return context.WithValue(ctx, ContextUserKey, user)
}

// Claims are what the auth store signs into its HS256 access tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type ServiceAPI interface {
	ResolveIdentity(ctx context.Context, token string) (*authstore.ExternalIdentity, error)
	CurrentUser(ctx context.Context, token string) (*CurrentUser, error)

	SignUpInitiate(ctx context.Context, dto SignUpInitiateDTO) (MessageResponse, error)
	VerifySignupOTP(ctx context.Context, dto OTPVerifyDTO) (OTPVerifiedResponse, error)
	SetPassword(ctx context.Context, dto SetPasswordDTO) (AuthResponse, error)
	SignIn(ctx context.Context, dto SignInDTO) (AuthResponse, error)
	ForgotPasswordInitiate(ctx context.Context, dto ForgotPasswordDTO) (MessageResponse, error)
	ForgotPasswordVerify(ctx context.Context, dto OTPVerifyDTO) (ResetOTPVerifiedResponse, error)
	ForgotPasswordSetNew(ctx context.Context, dto SetNewPasswordDTO) (MessageResponse, error)
}

type RepositoryAPI interface {
	// GetTenantUserByAuthID returns (nil, nil) when the external
	// identity has no tenant profile.
	GetTenantUserByAuthID(ctx context.Context, authUserID string) (*tenantuserDatamodel.TenantUser, error)
	ProvisionTenant(ctx context.Context, params ProvisionParams) (userID, companyID int64, err error)
}

// ProvisionParams carries the sign-up metadata used to create the
// company, its first user, and the Super Admin role in one transaction.
type ProvisionParams struct {
	AuthUserID     string
	Email          string
	FullName       string
	PhoneNumber    string
	CompanyName    string
	CompanyType    string
	CompanyEmail   string
	CompanyAddress string
	CompanyTaxID   string
}

// ActivityRecorder is the best-effort audit sink; implementations never
// return errors to the caller.
type ActivityRecorder interface {
	Record(ctx context.Context, companyID, userID int64, kind, description, entityType string, entityID int64)
}
