package db

import (
	"context"
	"eventpass/src/models"
	"eventpass/src/types"

	"gorm.io/gorm/clause"
)

func (s *Store) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	var ev models.Event
	if err := s.conn(ctx).First(&ev, id).Error; err != nil {
		return nil, notFound(err, types.ErrEventNotFound)
	}
	return &ev, nil
}

// LockEvent loads the event with SELECT ... FOR UPDATE. It must be called
// inside WithTx.
func (s *Store) LockEvent(ctx context.Context, id uint) (*models.Event, error) {
	var ev models.Event
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ev, id).
		Error
	if err != nil {
		return nil, notFound(err, types.ErrEventNotFound)
	}
	return &ev, nil
}

func (s *Store) SetEventRegistrationCount(ctx context.Context, id uint, count int) error {
	return s.conn(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Update("registration_count", count).
		Error
}
