package postgres

import (
	"context"
	"errors"

	invitationDatamodel "github.com/lop-gin/janus/internal/core/datamodel/invitation"
	"gorm.io/gorm"
)

type InvitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Create(ctx context.Context, inv *invitationDatamodel.Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvitationRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&invitationDatamodel.Invitation{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *InvitationRepository) GetByEmailAndCode(ctx context.Context, email, code string) (*invitationDatamodel.Invitation, error) {
	var inv invitationDatamodel.Invitation
	err := r.db.WithContext(ctx).
		Where("email = ? AND code = ?", email, code).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}

// MarkAccepted is the single consumption point: the WHERE clause on
// is_accepted makes concurrent accepts race on RowsAffected instead of
// double-consuming.
func (r *InvitationRepository) MarkAccepted(ctx context.Context, invitationID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&invitationDatamodel.Invitation{}).
		Where("id = ? AND is_accepted = ?", invitationID, false).
		Update("is_accepted", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
