package activity

import "time"

// LogEntry rows are append-only; nothing in this codebase updates or
// deletes them.
type LogEntry struct {
	ID           int64     `gorm:"primaryKey"`
	CompanyID    int64     `gorm:"column:company_id;not null;index"`
	UserID       int64     `gorm:"column:user_id;not null;index"`
	ActivityType string    `gorm:"column:activity_type;not null"`
	EntityType   *string   `gorm:"column:entity_type"`
	EntityID     *int64    `gorm:"column:entity_id"`
	Description  string    `gorm:"column:description;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

func (LogEntry) TableName() string { return "activity_log" }
