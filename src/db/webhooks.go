package db

import (
	"context"
	"eventpass/src/models"
	"time"

	"gorm.io/gorm/clause"
)

// RecordWebhookEvent stores a verified delivery. When the provider event id
// was seen before the stored row is returned instead.
func (s *Store) RecordWebhookEvent(ctx context.Context, e *models.WebhookEvent) (*models.WebhookEvent, error) {
	conn := s.conn(ctx)
	res := conn.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(e)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		return e, nil
	}
	var existing models.WebhookEvent
	err := conn.
		Where("provider = ? AND provider_event_id = ?", e.Provider, e.ProviderEventID).
		First(&existing).
		Error
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

// MarkWebhookProcessed records the outcome of handling a delivery. Rows
// left unprocessed are handled again when the provider redelivers.
func (s *Store) MarkWebhookProcessed(ctx context.Context, id uint, processed bool, processingErr error) error {
	updates := map[string]any{"processing_error": nil}
	if processingErr != nil {
		updates["processing_error"] = processingErr.Error()
	}
	if processed {
		updates["processed_at"] = time.Now().UTC()
	}
	return s.conn(ctx).
		Model(&models.WebhookEvent{}).
		Where("id = ?", id).
		Updates(updates).
		Error
}
