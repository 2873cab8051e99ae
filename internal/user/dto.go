package user

import (
	"time"

	"github.com/lop-gin/janus/internal"
	"github.com/lop-gin/janus/internal/permission"
)

// UpdateDTO fields are pointers so a partial update leaves omitted
// fields alone. RoleIDs, when present, replaces the user's assignments
// wholesale.
type UpdateDTO struct {
	Name        *string  `json:"name,omitempty"`
	PhoneNumber *string  `json:"phone_number,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
	RoleIDs     *[]int64 `json:"role_ids,omitempty"`
}

func (d UpdateDTO) Validate() error {
	if d.Name != nil && *d.Name == "" {
		return internal.NewValidationError("name cannot be empty", internal.ErrCodeValidationFailed)
	}
	if d.RoleIDs != nil {
		for _, id := range *d.RoleIDs {
			if id <= 0 {
				return internal.NewValidationError("role ids must be positive", internal.ErrCodeValidationFailed)
			}
		}
	}
	return nil
}

type RoleSummary struct {
	ID           int64  `json:"id"`
	RoleName     string `json:"role_name"`
	IsSystemRole bool   `json:"is_system_role"`
}

type UserResponse struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	PhoneNumber *string       `json:"phone_number,omitempty"`
	IsActive    bool          `json:"is_active"`
	Roles       []RoleSummary `json:"roles"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// SalesRepResponse is the slim shape the transaction screens consume
// when picking a representative.
type SalesRepResponse struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"company_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

func holdsSuperAdmin(roles []RoleSummary) bool {
	for _, r := range roles {
		if r.IsSystemRole && r.RoleName == permission.SuperAdminRoleName {
			return true
		}
	}
	return false
}
