package role

import (
	"strings"
	"time"

	"github.com/lop-gin/janus/internal"
	roleDatamodel "github.com/lop-gin/janus/internal/core/datamodel/role"
	"github.com/lop-gin/janus/internal/permission"
)

type CreateDTO struct {
	RoleName    string              `json:"role_name"`
	Description string              `json:"description,omitempty"`
	Permissions permission.GrantSet `json:"permissions"`
}

func (d CreateDTO) Validate() error {
	if strings.TrimSpace(d.RoleName) == "" {
		return internal.NewValidationError("role name is required", internal.ErrCodeValidationFailed)
	}
	return d.Permissions.Validate()
}

// UpdateDTO fields are pointers so a partial update leaves omitted
// fields alone.
type UpdateDTO struct {
	RoleName    *string              `json:"role_name,omitempty"`
	Description *string              `json:"description,omitempty"`
	Permissions *permission.GrantSet `json:"permissions,omitempty"`
}

func (d UpdateDTO) Validate() error {
	if d.RoleName != nil && strings.TrimSpace(*d.RoleName) == "" {
		return internal.NewValidationError("role name cannot be empty", internal.ErrCodeValidationFailed)
	}
	if d.Permissions != nil {
		return d.Permissions.Validate()
	}
	return nil
}

type RoleResponse struct {
	ID           int64               `json:"id"`
	RoleName     string              `json:"role_name"`
	Description  string              `json:"description,omitempty"`
	Permissions  permission.GrantSet `json:"permissions"`
	IsSystemRole bool                `json:"is_system_role"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func toResponse(r roleDatamodel.Role) RoleResponse {
	return RoleResponse{
		ID:           r.ID,
		RoleName:     r.RoleName,
		Description:  r.Description,
		Permissions:  r.Permissions,
		IsSystemRole: r.IsSystemRole,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
