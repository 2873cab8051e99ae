package company

import "time"

type Company struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Type      string    `gorm:"column:type"`
	Email     string    `gorm:"column:email"`
	Address   string    `gorm:"column:address"`
	TaxID     string    `gorm:"column:tax_id"`
	CreatedAt time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (Company) TableName() string { return "companies" }
