package role

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lop-gin/janus/internal"
	roleDatamodel "github.com/lop-gin/janus/internal/core/datamodel/role"
)

type Service struct {
	repo     RepositoryAPI
	recorder ActivityRecorder
	logger   *slog.Logger
}

func NewService(repo RepositoryAPI, recorder ActivityRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, recorder: recorder, logger: logger}
}

func (s *Service) List(ctx context.Context, companyID int64) ([]RoleResponse, error) {
	roles, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, internal.NewInternalError("failed to list roles", err)
	}
	out := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, toResponse(r))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, companyID, roleID int64) (*RoleResponse, error) {
	record, err := s.load(ctx, companyID, roleID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(*record)
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, companyID, createdBy int64, dto CreateDTO) (*RoleResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.NameExists(ctx, companyID, dto.RoleName, 0)
	if err != nil {
		return nil, internal.NewInternalError("failed to check role name", err)
	}
	if taken {
		return nil, internal.ErrRoleNameTaken
	}

	record := &roleDatamodel.Role{
		CompanyID:   companyID,
		RoleName:    dto.RoleName,
		Description: dto.Description,
		Permissions: dto.Permissions,
		CreatedBy:   &createdBy,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, internal.NewInternalError("failed to create role", err)
	}

	s.recorder.Record(ctx, companyID, createdBy, "role_created",
		fmt.Sprintf("role %q created", record.RoleName), "role", record.ID)

	resp := toResponse(*record)
	return &resp, nil
}

// Update applies a partial update. System roles are immutable except
// for their description, and is_system_role can never change through
// this path.
func (s *Service) Update(ctx context.Context, companyID, updatedBy, roleID int64, dto UpdateDTO) (*RoleResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	record, err := s.load(ctx, companyID, roleID)
	if err != nil {
		return nil, err
	}

	if record.IsSystemRole && (dto.RoleName != nil || dto.Permissions != nil) {
		return nil, internal.NewForbiddenError(
			fmt.Sprintf("the %s role cannot be renamed or have its permissions changed", record.RoleName),
			internal.ErrCodeSystemRole)
	}

	if dto.RoleName != nil && *dto.RoleName != record.RoleName {
		taken, err := s.repo.NameExists(ctx, companyID, *dto.RoleName, record.ID)
		if err != nil {
			return nil, internal.NewInternalError("failed to check role name", err)
		}
		if taken {
			return nil, internal.ErrRoleNameTaken
		}
		record.RoleName = *dto.RoleName
	}
	if dto.Description != nil {
		record.Description = *dto.Description
	}
	if dto.Permissions != nil {
		record.Permissions = *dto.Permissions
	}
	record.UpdatedBy = &updatedBy

	if err := s.repo.Update(ctx, record); err != nil {
		return nil, internal.NewInternalError("failed to update role", err)
	}

	s.recorder.Record(ctx, companyID, updatedBy, "role_updated",
		fmt.Sprintf("role %q updated", record.RoleName), "role", record.ID)

	resp := toResponse(*record)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, companyID, deletedBy, roleID int64) error {
	record, err := s.load(ctx, companyID, roleID)
	if err != nil {
		return err
	}

	if record.IsSystemRole {
		return internal.NewForbiddenError(
			fmt.Sprintf("the %s role cannot be deleted", record.RoleName),
			internal.ErrCodeSystemRole)
	}

	assigned, err := s.repo.AssignedUserCount(ctx, record.ID)
	if err != nil {
		return internal.NewInternalError("failed to check role assignments", err)
	}
	if assigned > 0 {
		return internal.NewConflictError(
			fmt.Sprintf("role %q is assigned to %d user(s)", record.RoleName, assigned),
			internal.ErrCodeRoleInvalid)
	}

	if err := s.repo.Delete(ctx, companyID, record.ID); err != nil {
		return internal.NewInternalError("failed to delete role", err)
	}

	s.recorder.Record(ctx, companyID, deletedBy, "role_deleted",
		fmt.Sprintf("role %q deleted", record.RoleName), "role", record.ID)

	return nil
}

// load returns NotFound for both missing and cross-tenant roles, so a
// caller cannot probe other tenants' role IDs.
func (s *Service) load(ctx context.Context, companyID, roleID int64) (*roleDatamodel.Role, error) {
	record, err := s.repo.GetByID(ctx, companyID, roleID)
	if err != nil {
		return nil, internal.NewInternalError("failed to load role", err)
	}
	if record == nil {
		return nil, internal.ErrRoleNotFound
	}
	return record, nil
}
