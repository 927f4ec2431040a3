package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/erp-desk/internal/domain"
	"gorm.io/gorm"
)

// ErrDraftNotFound is returned when no draft matches the id and session
var ErrDraftNotFound = errors.New("draft not found")

type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) Create(ctx context.Context, draft *domain.Draft) error {
	return r.db.WithContext(ctx).Create(draft).Error
}

// GetByID returns a draft owned by the session
func (r *DraftRepository) GetByID(ctx context.Context, sessionID string, id uuid.UUID) (*domain.Draft, error) {
	var draft domain.Draft
	err := r.db.WithContext(ctx).
		Where("id = ? AND session_id = ?", id, sessionID).
		First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	return &draft, nil
}

// ListBySession returns the open drafts of a session, newest first
func (r *DraftRepository) ListBySession(ctx context.Context, sessionID string, entity domain.EntityType) ([]domain.Draft, error) {
	var drafts []domain.Draft
	query := r.db.WithContext(ctx).Where("session_id = ?", sessionID)
	if entity != "" {
		query = query.Where("entity = ?", entity)
	}
	err := query.Order("updated_at DESC").Find(&drafts).Error
	return drafts, err
}

// Update saves the draft's state and payload
func (r *DraftRepository) Update(ctx context.Context, draft *domain.Draft) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Draft{}).
		Where("id = ? AND session_id = ?", draft.ID, draft.SessionID).
		Updates(map[string]interface{}{
			"state":      draft.State,
			"mode":       draft.Mode,
			"record_id":  draft.RecordID,
			"payload":    draft.Payload,
			"original":   draft.Original,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDraftNotFound
	}
	return nil
}

// Delete removes a draft owned by the session
func (r *DraftRepository) Delete(ctx context.Context, sessionID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND session_id = ?", id, sessionID).
		Delete(&domain.Draft{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDraftNotFound
	}
	return nil
}

// DeleteStaleBefore removes drafts not touched since cutoff and returns how
// many were removed
func (r *DraftRepository) DeleteStaleBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&domain.Draft{})
	return result.RowsAffected, result.Error
}
