package permission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lop-gin/janus/internal"
)

// RoleGrant is one role assignment loaded for a user. Missing marks a
// dangling user_roles row whose joined role no longer exists.
type RoleGrant struct {
	RoleID       int64
	RoleName     string
	IsSystemRole bool
	Grants       GrantSet
	Missing      bool
}

type RepositoryAPI interface {
	RolesForUser(ctx context.Context, userID int64) ([]RoleGrant, error)
}

// Service aggregates permissions across a user's roles and answers
// "is action X on module Y allowed?". It is read-only and evaluated per
// request; results are never cached across requests.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Authorize returns nil when userID may perform action on module, or a
// Forbidden AppError naming the missing permission. Load errors and an
// empty role set are both reported as a denial, not distinguished.
func (s *Service) Authorize(ctx context.Context, userID, companyID int64, module, action string) error {
	grants, err := s.repo.RolesForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load roles for user", "user_id", userID, "company_id", companyID, "error", err)
		return internal.ErrNoRolesAssigned
	}

	merged := GrantSet{}
	assigned := 0
	for _, g := range grants {
		if g.Missing {
			// integrity issue: user_roles row points at a missing role
			s.logger.Warn("skipping dangling role assignment", "user_id", userID, "role_id", g.RoleID)
			continue
		}
		assigned++

		if g.IsSystemRole && g.RoleName == SuperAdminRoleName {
			return nil
		}

		merged.Merge(g.Grants)
	}

	if assigned == 0 {
		return internal.ErrNoRolesAssigned
	}

	if merged.Allows(module, action) {
		return nil
	}

	return internal.NewForbiddenError(
		fmt.Sprintf("User does not have %q permission for %s", action, module),
		internal.ErrCodeMissingAction,
	)
}
