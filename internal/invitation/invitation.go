package invitation

import (
	"context"
	"time"

	invitationDatamodel "github.com/lop-gin/janus/internal/core/datamodel/invitation"
	roleDatamodel "github.com/lop-gin/janus/internal/core/datamodel/role"
	tenantuserDatamodel "github.com/lop-gin/janus/internal/core/datamodel/tenantuser"
)

const (
	codeLength = 8
	codeTTL    = 7 * 24 * time.Hour

	// How many collisions we tolerate before giving up on code
	// generation. With 36^8 codes this fires only if something is
	// badly wrong.
	maxCodeAttempts = 5
)

type ServiceAPI interface {
	Create(ctx context.Context, companyID, createdBy int64, dto CreateDTO) (*InvitationResponse, error)
	Verify(ctx context.Context, dto VerifyDTO) (*VerifiedResponse, error)
	Accept(ctx context.Context, dto AcceptDTO) (*AcceptResponse, error)
}

type RepositoryAPI interface {
	Create(ctx context.Context, inv *invitationDatamodel.Invitation) error
	CodeExists(ctx context.Context, code string) (bool, error)
	// GetByEmailAndCode returns (nil, nil) when no row matches.
	GetByEmailAndCode(ctx context.Context, email, code string) (*invitationDatamodel.Invitation, error)
	// MarkAccepted flips is_accepted from false to true and reports
	// whether this call won the flip.
	MarkAccepted(ctx context.Context, invitationID int64) (bool, error)
}

type UserRepositoryAPI interface {
	// GetByEmailInCompany returns (nil, nil) when absent.
	GetByEmailInCompany(ctx context.Context, companyID int64, email string) (*tenantuserDatamodel.TenantUser, error)
	Create(ctx context.Context, user *tenantuserDatamodel.TenantUser) error
	Delete(ctx context.Context, userID int64) error
	AssignRole(ctx context.Context, userID, roleID int64, createdBy *int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
}

type RoleRepositoryAPI interface {
	// GetByID returns (nil, nil) when the role does not exist in the
	// company.
	GetByID(ctx context.Context, companyID, roleID int64) (*roleDatamodel.Role, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, companyID, userID int64, kind, description, entityType string, entityID int64)
}
