package postgres

import (
	"context"
	"errors"

	roleDatamodel "github.com/lop-gin/janus/internal/core/datamodel/role"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) ListByCompany(ctx context.Context, companyID int64) ([]roleDatamodel.Role, error) {
	var roles []roleDatamodel.Role
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id ASC").
		Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) GetByID(ctx context.Context, companyID, roleID int64) (*roleDatamodel.Role, error) {
	var role roleDatamodel.Role
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", roleID, companyID).
		First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepository) NameExists(ctx context.Context, companyID int64, name string, excludeRoleID int64) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&roleDatamodel.Role{}).
		Where("company_id = ? AND role_name = ?", companyID, name)
	if excludeRoleID > 0 {
		query = query.Where("id <> ?", excludeRoleID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RoleRepository) Create(ctx context.Context, role *roleDatamodel.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *RoleRepository) Update(ctx context.Context, role *roleDatamodel.Role) error {
	return r.db.WithContext(ctx).Save(role).Error
}

func (r *RoleRepository) Delete(ctx context.Context, companyID, roleID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("role_id = ?", roleID).Delete(&roleDatamodel.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND company_id = ?", roleID, companyID).
			Delete(&roleDatamodel.Role{}).Error
	})
}

func (r *RoleRepository) AssignedUserCount(ctx context.Context, roleID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&roleDatamodel.UserRole{}).
		Where("role_id = ?", roleID).
		Count(&count).Error
	return count, err
}
