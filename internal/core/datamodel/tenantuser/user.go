package tenantuser

import "time"

// TenantUser is the internal identity record behind the "users" table.
// AuthUserID is a weak reference into the external auth store; exactly
// one row exists per external identity per company.
type TenantUser struct {
	ID          int64     `gorm:"primaryKey"`
	CompanyID   int64     `gorm:"column:company_id;not null;index"`
	AuthUserID  string    `gorm:"column:auth_user_id;type:uuid;uniqueIndex;not null"`
	Name        string    `gorm:"column:name;not null"`
	Email       string    `gorm:"column:email;not null"`
	PhoneNumber *string   `gorm:"column:phone_number"`
	IsActive    bool      `gorm:"column:is_active;default:true"`
	CreatedBy   *int64    `gorm:"column:created_by"`
	UpdatedBy   *int64    `gorm:"column:updated_by"`
	CreatedAt   time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (TenantUser) TableName() string { return "users" }
