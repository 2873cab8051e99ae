package postgres

import (
	"context"

	"github.com/lop-gin/janus/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

type roleGrantRow struct {
	AssignedRoleID int64               `gorm:"column:assigned_role_id"`
	RoleID         *int64              `gorm:"column:role_id"`
	RoleName       *string             `gorm:"column:role_name"`
	IsSystemRole   *bool               `gorm:"column:is_system_role"`
	Permissions    permission.GrantSet `gorm:"column:permissions"`
}

// RolesForUser loads every role assigned to the user joined to its grant
// set. A LEFT JOIN keeps dangling assignments visible so the aggregator
// can skip them with a warning instead of failing the whole load.
func (r *PermissionRepository) RolesForUser(ctx context.Context, userID int64) ([]permission.RoleGrant, error) {
	var rows []roleGrantRow
	err := r.db.WithContext(ctx).
		Table("user_roles").
		Select("user_roles.role_id AS assigned_role_id, roles.id AS role_id, roles.role_name, roles.is_system_role, roles.permissions").
		Joins("LEFT JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ?", userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	grants := make([]permission.RoleGrant, 0, len(rows))
	for _, row := range rows {
		if row.RoleID == nil {
			grants = append(grants, permission.RoleGrant{
				RoleID:  row.AssignedRoleID,
				Missing: true,
			})
			continue
		}
		g := permission.RoleGrant{
			RoleID:       *row.RoleID,
			RoleName:     *row.RoleName,
			IsSystemRole: *row.IsSystemRole,
			Grants:       row.Permissions,
		}
		if g.Grants == nil {
			g.Grants = permission.GrantSet{}
		}
		grants = append(grants, g)
	}
	return grants, nil
}
