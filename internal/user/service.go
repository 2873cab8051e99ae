package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lop-gin/janus/internal"
	roleDatamodel "github.com/lop-gin/janus/internal/core/datamodel/role"
	tenantuserDatamodel "github.com/lop-gin/janus/internal/core/datamodel/tenantuser"
	"github.com/lop-gin/janus/internal/permission"
)

// salesRepRoleNames are the role names whose holders can be attached
// to a transaction as its representative.
var salesRepRoleNames = []string{
	permission.SuperAdminRoleName,
	"Admin",
	"Sales Supervisor",
	"Sales Rep",
}

type Service struct {
	repo     RepositoryAPI
	recorder ActivityRecorder
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, recorder ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

func (s *Service) List(ctx context.Context, companyID int64) ([]UserResponse, error) {
	users, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list users", err)
	}

	ids := make([]int64, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	rolesByUser, err := s.repo.RolesForUsers(ctx, ids)
	if err != nil {
		return nil, internal.NewInternalError("failed to load user roles", err)
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u, rolesByUser[u.ID]))
	}
	return out, nil
}

// ListSalesReps returns the company's users holding a sales-related
// role, in the slim shape the selection dropdowns use.
func (s *Service) ListSalesReps(ctx context.Context, companyID int64) ([]SalesRepResponse, error) {
	users, err := s.repo.ListByRoleNames(ctx, companyID, salesRepRoleNames)
	if err != nil {
		return nil, internal.NewInternalError("failed to list sales reps", err)
	}
	out := make([]SalesRepResponse, 0, len(users))
	for _, u := range users {
		out = append(out, SalesRepResponse{
			ID:        u.ID,
			CompanyID: u.CompanyID,
			Name:      u.Name,
			Email:     u.Email,
		})
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, companyID, userID int64) (*UserResponse, error) {
	record, roles, err := s.load(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(*record, roles)
	return &resp, nil
}

// Update applies a partial update. Deactivating a Super Admin, or
// stripping the Super Admin role by replacement, is refused so a
// tenant cannot lock itself out.
func (s *Service) Update(ctx context.Context, companyID, updatedBy, userID int64, dto UpdateDTO) (*UserResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	record, roles, err := s.load(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	summaries := toSummaries(roles)
	isSuperAdmin := holdsSuperAdmin(summaries)

	if dto.IsActive != nil && !*dto.IsActive && isSuperAdmin {
		return nil, internal.NewForbiddenError(
			"a Super Admin account cannot be deactivated",
			internal.ErrCodeSystemRole)
	}
	if dto.RoleIDs != nil && isSuperAdmin {
		return nil, internal.NewForbiddenError(
			"a Super Admin's role assignments cannot be changed",
			internal.ErrCodeSystemRole)
	}

	if dto.RoleIDs != nil {
		valid, err := s.repo.RolesExistInCompany(ctx, companyID, *dto.RoleIDs)
		if err != nil {
			return nil, internal.NewInternalError("failed to verify roles", err)
		}
		if !valid {
			return nil, internal.NewValidationError("one or more roles do not exist in your company", internal.ErrCodeRoleInvalid)
		}
	}

	if dto.Name != nil {
		record.Name = *dto.Name
	}
	if dto.PhoneNumber != nil {
		record.PhoneNumber = dto.PhoneNumber
	}
	if dto.IsActive != nil {
		record.IsActive = *dto.IsActive
	}
	record.UpdatedBy = &updatedBy

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, internal.NewInternalError("failed to update user", err)
	}

	if dto.RoleIDs != nil {
		if err := s.repo.ReplaceRoles(ctx, record.ID, *dto.RoleIDs, &updatedBy); err != nil {
			return nil, internal.NewInternalError("failed to update role assignments", err)
		}
	}

	s.recorder.Record(ctx, companyID, updatedBy, "user_updated",
		fmt.Sprintf("user %s updated", record.Email), "user", record.ID)

	// Reload roles in case the assignment set changed.
	_, roles, err = s.load(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(*record, roles)
	return &resp, nil
}

func (s *Service) load(ctx context.Context, companyID, userID int64) (*tenantuserDatamodel.TenantUser, []roleDatamodel.Role, error) {
	record, err := s.repo.GetByID(ctx, companyID, userID)
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to load user", err)
	}
	if record == nil {
		return nil, nil, internal.ErrUserNotFound
	}
	rolesByUser, err := s.repo.RolesForUsers(ctx, []int64{userID})
	if err != nil {
		return nil, nil, internal.NewInternalError("failed to load user roles", err)
	}
	return record, rolesByUser[userID], nil
}

func toSummaries(roles []roleDatamodel.Role) []RoleSummary {
	out := make([]RoleSummary, 0, len(roles))
	for _, r := range roles {
		out = append(out, RoleSummary{ID: r.ID, RoleName: r.RoleName, IsSystemRole: r.IsSystemRole})
	}
	return out
}

func toResponse(u tenantuserDatamodel.TenantUser, roles []roleDatamodel.Role) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		IsActive:    u.IsActive,
		Roles:       toSummaries(roles),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
