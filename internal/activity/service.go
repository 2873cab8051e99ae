package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/lop-gin/janus/internal"
	activityDatamodel "github.com/lop-gin/janus/internal/core/datamodel/activity"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record writes an audit entry on a best-effort basis. It never
// returns an error: a failed audit write must not fail the operation
// it describes. Entries without a tenant or actor are dropped.
func (s *Service) Record(ctx context.Context, companyID, userID int64, kind, description, entityType string, entityID int64) {
	if companyID == 0 || userID == 0 {
		s.logger.Warn("dropping activity entry without tenant or actor",
			"activity_type", kind, "company_id", companyID, "user_id", userID)
		return
	}

	entry := &activityDatamodel.LogEntry{
		CompanyID:    companyID,
		UserID:       userID,
		ActivityType: kind,
		Description:  description,
	}
	if entityType != "" {
		entry.EntityType = &entityType
	}
	if entityID != 0 {
		entry.EntityID = &entityID
	}

	// Bounded so a slow audit write cannot stall the request it
	// describes.
	ctx, cancel := internal.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error("failed to record activity",
			"activity_type", kind, "company_id", companyID, "user_id", userID, "error", err)
	}
}

func (s *Service) List(ctx context.Context, companyID int64, filter ListFilter) (*ListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	entries, total, err := s.repo.List(ctx, companyID, filter)
	if err != nil {
		return nil, internal.NewInternalError("failed to list activity", err)
	}

	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryResponse{
			ID:           e.ID,
			UserID:       e.UserID,
			ActivityType: e.ActivityType,
			EntityType:   e.EntityType,
			EntityID:     e.EntityID,
			Description:  e.Description,
			CreatedAt:    e.CreatedAt,
		})
	}
	return &ListResponse{
		Entries:  out,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}
