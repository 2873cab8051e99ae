package postgres

import (
	"context"
	"errors"

	"github.com/lop-gin/janus/internal/auth"
	companyDatamodel "github.com/lop-gin/janus/internal/core/datamodel/company"
	roleDatamodel "github.com/lop-gin/janus/internal/core/datamodel/role"
	tenantuserDatamodel "github.com/lop-gin/janus/internal/core/datamodel/tenantuser"
	"github.com/lop-gin/janus/internal/permission"
	"gorm.io/gorm"
)

type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) GetTenantUserByAuthID(ctx context.Context, authUserID string) (*tenantuserDatamodel.TenantUser, error) {
	var user tenantuserDatamodel.TenantUser
	err := r.db.WithContext(ctx).
		Where("auth_user_id = ?", authUserID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ProvisionTenant creates the company, its owner user, and the Super
// Admin role with the owner assigned, all in one transaction.
func (r *AuthRepository) ProvisionTenant(ctx context.Context, params auth.ProvisionParams) (int64, int64, error) {
	var userID, companyID int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		company := companyDatamodel.Company{
			Name:    params.CompanyName,
			Type:    params.CompanyType,
			Email:   params.CompanyEmail,
			Address: params.CompanyAddress,
			TaxID:   params.CompanyTaxID,
		}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}

		user := tenantuserDatamodel.TenantUser{
			CompanyID:  company.ID,
			AuthUserID: params.AuthUserID,
			Name:       params.FullName,
			Email:      params.Email,
			IsActive:   true,
		}
		if params.PhoneNumber != "" {
			phone := params.PhoneNumber
			user.PhoneNumber = &phone
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		superAdmin := roleDatamodel.Role{
			CompanyID:    company.ID,
			RoleName:     permission.SuperAdminRoleName,
			Description:  "Full access to every module",
			Permissions:  permission.GrantSet{},
			IsSystemRole: true,
		}
		if err := tx.Create(&superAdmin).Error; err != nil {
			return err
		}

		assignment := roleDatamodel.UserRole{
			UserID: user.ID,
			RoleID: superAdmin.ID,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}

		userID = user.ID
		companyID = company.ID
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return userID, companyID, nil
}
