package models

import (
	"eventpass/src/types"
	"time"
)

type Registration struct {
	ID                uint                   `gorm:"primarykey" json:"id"`
	EventID           uint                   `gorm:"not null;uniqueIndex:idx_registrations_event_email" json:"event_id"`
	StudentName       string                 `gorm:"size:120;not null" json:"student_name"`
	StudentEmail      string                 `gorm:"size:254;not null;uniqueIndex:idx_registrations_event_email" json:"student_email"`
	StudentExternalID string                 `gorm:"size:64" json:"student_external_id,omitempty"`
	PaymentStatus     types.PaymentStatus    `gorm:"size:16;not null;default:'pending'" json:"payment_status"`
	AttendanceStatus  types.AttendanceStatus `gorm:"size:16;not null;default:'pending';index" json:"attendance_status"`
	QRToken           *string                `gorm:"type:text" json:"-"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`

	Event *Event `gorm:"foreignKey:event_id" json:"event,omitempty"`
}

func (r *Registration) IsPaid() bool {
	return r.PaymentStatus == types.PAYMENT_PAID
}

func (r *Registration) IsPresent() bool {
	return r.AttendanceStatus == types.ATTENDANCE_PRESENT
}
