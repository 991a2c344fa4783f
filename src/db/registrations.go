package db

import (
	"context"
	"eventpass/src/models"
	"eventpass/src/types"
	"time"

	"gorm.io/gorm/clause"
)

// FindOrCreateRegistration returns the registration for (event, email),
// inserting reg when none exists. The boolean reports whether a row was
// created.
func (s *Store) FindOrCreateRegistration(ctx context.Context, reg *models.Registration) (*models.Registration, bool, error) {
	conn := s.conn(ctx)
	res := conn.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}, {Name: "student_email"}},
			DoNothing: true,
		}).
		Create(reg)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return reg, true, nil
	}
	var existing models.Registration
	err := conn.
		Where("event_id = ? AND student_email = ?", reg.EventID, reg.StudentEmail).
		First(&existing).
		Error
	if err != nil {
		return nil, false, notFound(err, types.ErrRegistrationNotFound)
	}
	return &existing, false, nil
}

func (s *Store) GetRegistration(ctx context.Context, id uint) (*models.Registration, error) {
	var reg models.Registration
	if err := s.conn(ctx).First(&reg, id).Error; err != nil {
		return nil, notFound(err, types.ErrRegistrationNotFound)
	}
	return &reg, nil
}

func (s *Store) LockRegistration(ctx context.Context, id uint) (*models.Registration, error) {
	var reg models.Registration
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&reg, id).
		Error
	if err != nil {
		return nil, notFound(err, types.ErrRegistrationNotFound)
	}
	return &reg, nil
}

func (s *Store) SetPaymentStatus(ctx context.Context, id uint, status types.PaymentStatus) error {
	return s.conn(ctx).
		Model(&models.Registration{}).
		Where("id = ?", id).
		Update("payment_status", status).
		Error
}

func (s *Store) SetAttendanceStatus(ctx context.Context, id uint, status types.AttendanceStatus) error {
	return s.conn(ctx).
		Model(&models.Registration{}).
		Where("id = ?", id).
		Update("attendance_status", status).
		Error
}

// SetQRToken stores token only when the registration has none yet. It
// reports whether the value was written.
func (s *Store) SetQRToken(ctx context.Context, id uint, token string) (bool, error) {
	res := s.conn(ctx).
		Model(&models.Registration{}).
		Where("id = ? AND qr_token IS NULL", id).
		Update("qr_token", token)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkAbsent flips pending attendance to absent for every event that ended
// before now.
func (s *Store) MarkAbsent(ctx context.Context, now time.Time) (int64, error) {
	conn := s.conn(ctx)
	ended := conn.Model(&models.Event{}).Select("id").Where("end_at < ?", now)
	res := conn.
		Model(&models.Registration{}).
		Where("attendance_status = ?", types.ATTENDANCE_PENDING).
		Where("event_id IN (?)", ended).
		Update("attendance_status", types.ATTENDANCE_ABSENT)
	return res.RowsAffected, res.Error
}
