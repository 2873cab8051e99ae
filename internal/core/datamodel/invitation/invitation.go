package invitation

import "time"

// Invitation is consumable at most once: IsAccepted transitions
// false to true only, via a conditional update.
type Invitation struct {
	ID         int64     `gorm:"primaryKey"`
	CompanyID  int64     `gorm:"column:company_id;not null;index"`
	Email      string    `gorm:"column:email;not null;index"`
	FullName   string    `gorm:"column:full_name;not null"`
	Code       string    `gorm:"column:code;uniqueIndex;not null"`
	RoleID     *int64    `gorm:"column:role_id"`
	ExpiresAt  time.Time `gorm:"column:expires_at;not null"`
	IsAccepted bool      `gorm:"column:is_accepted;default:false"`
	CreatedBy  *int64    `gorm:"column:created_by"`
	CreatedAt  time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

func (Invitation) TableName() string { return "invitations" }
