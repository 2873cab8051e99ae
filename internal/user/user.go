package user

import (
	"context"

	roleDatamodel "github.com/lop-gin/janus/internal/core/datamodel/role"
	tenantuserDatamodel "github.com/lop-gin/janus/internal/core/datamodel/tenantuser"
)

type ServiceAPI interface {
	List(ctx context.Context, companyID int64) ([]UserResponse, error)
	Get(ctx context.Context, companyID, userID int64) (*UserResponse, error)
	Update(ctx context.Context, companyID, updatedBy, userID int64, dto UpdateDTO) (*UserResponse, error)
	ListSalesReps(ctx context.Context, companyID int64) ([]SalesRepResponse, error)
}

type RepositoryAPI interface {
	ListByCompany(ctx context.Context, companyID int64) ([]tenantuserDatamodel.TenantUser, error)
	// GetByID returns (nil, nil) for missing and cross-tenant users
	// alike.
	GetByID(ctx context.Context, companyID, userID int64) (*tenantuserDatamodel.TenantUser, error)
	Update(ctx context.Context, user *tenantuserDatamodel.TenantUser) error
	// RolesForUsers returns each user's roles keyed by user ID.
	RolesForUsers(ctx context.Context, userIDs []int64) (map[int64][]roleDatamodel.Role, error)
	// ReplaceRoles swaps the user's assignments for exactly roleIDs.
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64, createdBy *int64) error
	RolesExistInCompany(ctx context.Context, companyID int64, roleIDs []int64) (bool, error)
	// ListByRoleNames returns the company's users holding any of the
	// named roles, each user once.
	ListByRoleNames(ctx context.Context, companyID int64, roleNames []string) ([]tenantuserDatamodel.TenantUser, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, companyID, userID int64, kind, description, entityType string, entityID int64)
}
