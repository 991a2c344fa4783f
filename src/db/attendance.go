package db

import (
	"context"
	"eventpass/src/models"
	"eventpass/src/types"

	"gorm.io/gorm/clause"
)

func (s *Store) CreateAttendanceLog(ctx context.Context, l *models.AttendanceLog) error {
	return s.conn(ctx).Create(l).Error
}

func (s *Store) LockAttendanceLog(ctx context.Context, id uint) (*models.AttendanceLog, error) {
	var l models.AttendanceLog
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&l, id).
		Error
	if err != nil {
		return nil, notFound(err, types.ErrAttendanceLogNotFound)
	}
	return &l, nil
}

func (s *Store) UpdateAttendanceLog(ctx context.Context, l *models.AttendanceLog) error {
	return s.conn(ctx).
		Model(l).
		Select("is_revoked", "revoked_at", "revoked_by").
		Updates(l).
		Error
}
