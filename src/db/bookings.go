package db

import (
	"context"
	"eventpass/src/models"
	"eventpass/src/models/scopes"
	"eventpass/src/types"
	"time"

	"gorm.io/gorm/clause"
)

func (s *Store) LockResource(ctx context.Context, id uint) (*models.Resource, error) {
	var r models.Resource
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&r, id).
		Error
	if err != nil {
		return nil, notFound(err, types.ErrResourceNotFound)
	}
	return &r, nil
}

// ListActiveBookings returns pending and approved bookings of the resource
// that share at least one date with [start, end].
func (s *Store) ListActiveBookings(ctx context.Context, resourceID uint, start, end time.Time) ([]models.ResourceBooking, error) {
	var bookings []models.ResourceBooking
	err := s.conn(ctx).
		Scopes(scopes.WithActiveBooking, scopes.WithDateOverlap(start, end)).
		Where("resource_id = ?", resourceID).
		Order("start_date").
		Find(&bookings).
		Error
	return bookings, err
}

func (s *Store) CreateBooking(ctx context.Context, b *models.ResourceBooking) error {
	return s.conn(ctx).Create(b).Error
}
