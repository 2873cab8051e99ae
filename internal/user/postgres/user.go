package postgres

import (
	"context"
	"errors"

	roleDatamodel "github.com/lop-gin/janus/internal/core/datamodel/role"
	tenantuserDatamodel "github.com/lop-gin/janus/internal/core/datamodel/tenantuser"
	"gorm.io/gorm"
)

// UserRepository backs both the user module and the invitation accept
// saga.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) ListByCompany(ctx context.Context, companyID int64) ([]tenantuserDatamodel.TenantUser, error) {
	var users []tenantuserDatamodel.TenantUser
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("id ASC").
		Find(&users).Error
	return users, err
}

func (r *UserRepository) GetByID(ctx context.Context, companyID, userID int64) (*tenantuserDatamodel.TenantUser, error) {
	var user tenantuserDatamodel.TenantUser
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", userID, companyID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmailInCompany(ctx context.Context, companyID int64, email string) (*tenantuserDatamodel.TenantUser, error) {
	var user tenantuserDatamodel.TenantUser
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND email = ?", companyID, email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *tenantuserDatamodel.TenantUser) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) Update(ctx context.Context, user *tenantuserDatamodel.TenantUser) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *UserRepository) Delete(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("id = ?", userID).
		Delete(&tenantuserDatamodel.TenantUser{}).Error
}

func (r *UserRepository) RolesForUsers(ctx context.Context, userIDs []int64) (map[int64][]roleDatamodel.Role, error) {
	out := make(map[int64][]roleDatamodel.Role, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		UserID int64 `gorm:"column:user_id"`
		roleDatamodel.Role
	}
	err := r.db.WithContext(ctx).
		Table("user_roles").
		Select("user_roles.user_id, roles.*").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id IN ?", userIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], row.Role)
	}
	return out, nil
}

func (r *UserRepository) AssignRole(ctx context.Context, userID, roleID int64, createdBy *int64) error {
	assignment := roleDatamodel.UserRole{
		UserID:    userID,
		RoleID:    roleID,
		CreatedBy: createdBy,
	}
	return r.db.WithContext(ctx).Create(&assignment).Error
}

func (r *UserRepository) RemoveRole(ctx context.Context, userID, roleID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&roleDatamodel.UserRole{}).Error
}

// ReplaceRoles deletes and re-creates the user's assignments in one
// transaction.
func (r *UserRepository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64, createdBy *int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&roleDatamodel.UserRole{}).Error; err != nil {
			return err
		}
		for _, roleID := range roleIDs {
			assignment := roleDatamodel.UserRole{
				UserID:    userID,
				RoleID:    roleID,
				CreatedBy: createdBy,
			}
			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *UserRepository) ListByRoleNames(ctx context.Context, companyID int64, roleNames []string) ([]tenantuserDatamodel.TenantUser, error) {
	var users []tenantuserDatamodel.TenantUser
	err := r.db.WithContext(ctx).
		Model(&tenantuserDatamodel.TenantUser{}).
		Distinct("users.*").
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("users.company_id = ? AND roles.company_id = ? AND roles.role_name IN ?",
			companyID, companyID, roleNames).
		Order("users.id ASC").
		Find(&users).Error
	return users, err
}

func (r *UserRepository) RolesExistInCompany(ctx context.Context, companyID int64, roleIDs []int64) (bool, error) {
	if len(roleIDs) == 0 {
		return true, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&roleDatamodel.Role{}).
		Where("company_id = ? AND id IN ?", companyID, roleIDs).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == int64(len(dedupe(roleIDs))), nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
