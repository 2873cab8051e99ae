package role

import (
	"context"

	roleDatamodel "github.com/lop-gin/janus/internal/core/datamodel/role"
)

type ServiceAPI interface {
	List(ctx context.Context, companyID int64) ([]RoleResponse, error)
	Get(ctx context.Context, companyID, roleID int64) (*RoleResponse, error)
	Create(ctx context.Context, companyID, createdBy int64, dto CreateDTO) (*RoleResponse, error)
	Update(ctx context.Context, companyID, updatedBy, roleID int64, dto UpdateDTO) (*RoleResponse, error)
	Delete(ctx context.Context, companyID, deletedBy, roleID int64) error
}

type RepositoryAPI interface {
	ListByCompany(ctx context.Context, companyID int64) ([]roleDatamodel.Role, error)
	// GetByID returns (nil, nil) when the role is absent from the
	// company, including roles that exist in another tenant.
	GetByID(ctx context.Context, companyID, roleID int64) (*roleDatamodel.Role, error)
	NameExists(ctx context.Context, companyID int64, name string, excludeRoleID int64) (bool, error)
	Create(ctx context.Context, role *roleDatamodel.Role) error
	Update(ctx context.Context, role *roleDatamodel.Role) error
	// Delete removes the role and its user assignments together.
	Delete(ctx context.Context, companyID, roleID int64) error
	AssignedUserCount(ctx context.Context, roleID int64) (int64, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, companyID, userID int64, kind, description, entityType string, entityID int64)
}
