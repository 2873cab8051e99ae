package role

import (
	"time"

	"github.com/lop-gin/janus/internal/permission"
)

type Role struct {
	ID           int64               `gorm:"primaryKey"`
	CompanyID    int64               `gorm:"column:company_id;not null;index"`
	RoleName     string              `gorm:"column:role_name;not null"`
	Description  string              `gorm:"column:description"`
	Permissions  permission.GrantSet `gorm:"column:permissions;type:jsonb"`
	IsSystemRole bool                `gorm:"column:is_system_role;default:false"`
	CreatedBy    *int64              `gorm:"column:created_by"`
	UpdatedBy    *int64              `gorm:"column:updated_by"`
	CreatedAt    time.Time           `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (Role) TableName() string { return "roles" }

// UserRole assignments are replaced wholesale on each role-update call,
// never diffed.
type UserRole struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	RoleID    int64     `gorm:"column:role_id;not null;index"`
	CreatedBy *int64    `gorm:"column:created_by"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

func (UserRole) TableName() string { return "user_roles" }
