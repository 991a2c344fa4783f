package scopes

import (
	"eventpass/src/types"

	"gorm.io/gorm"
)

// WithActiveBooking keeps bookings that still hold their time slot.
func WithActiveBooking(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", []types.BookingStatus{types.BOOKING_PENDING, types.BOOKING_APPROVED})
}

// WithDateOverlap keeps bookings whose date range shares at least one day
// with [start, end].
func WithDateOverlap(start, end any) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("start_date <= ? AND end_date >= ?", end, start)
	}
}
