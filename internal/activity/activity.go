package activity

import (
	"context"
	"time"

	activityDatamodel "github.com/lop-gin/janus/internal/core/datamodel/activity"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type ListFilter struct {
	UserID       *int64
	ActivityType string
	Page         int
	PageSize     int
}

type EntryResponse struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ActivityType string    `json:"activity_type"`
	EntityType   *string   `json:"entity_type,omitempty"`
	EntityID     *int64    `json:"entity_id,omitempty"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
}

type ListResponse struct {
	Entries  []EntryResponse `json:"entries"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type ServiceAPI interface {
	Record(ctx context.Context, companyID, userID int64, kind, description, entityType string, entityID int64)
	List(ctx context.Context, companyID int64, filter ListFilter) (*ListResponse, error)
}

type RepositoryAPI interface {
	Insert(ctx context.Context, entry *activityDatamodel.LogEntry) error
	List(ctx context.Context, companyID int64, filter ListFilter) ([]activityDatamodel.LogEntry, int64, error)
}
