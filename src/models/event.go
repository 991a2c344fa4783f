package models

import (
	"eventpass/src/types"
	"time"
)

// Event is read by the registration pipeline. Only SeatCounter writes
// RegistrationCount.
type Event struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	Title             string    `json:"title,omitempty"`
	Location          string    `json:"location,omitempty"`
	Capacity          int       `gorm:"not null;check:chk_events_capacity,capacity >= 1" json:"capacity"`
	RegistrationCount int       `gorm:"not null;default:0;check:chk_events_registration_count,registration_count >= 0 AND registration_count <= capacity" json:"registration_count"`
	IsPaid            bool      `gorm:"not null;default:false" json:"is_paid"`
	AmountMinor       int64     `gorm:"not null;default:0" json:"amount"`
	Currency          string    `gorm:"size:3" json:"currency,omitempty"`
	StartAt           time.Time `json:"start_at"`
	EndAt             time.Time `gorm:"index" json:"end_at"`

	types.Timestamps
}

func (e *Event) HasEnded(now time.Time) bool {
	return !e.EndAt.IsZero() && e.EndAt.Before(now)
}

func (e *Event) IsFull() bool {
	return e.RegistrationCount >= e.Capacity
}

// IsFree reports whether a registration can complete without a gateway payment.
func (e *Event) IsFree() bool {
	return !e.IsPaid || e.AmountMinor == 0
}
