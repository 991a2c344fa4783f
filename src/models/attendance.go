package models

import "time"

// AttendanceLog rows are never deleted. Only the revoke fields change.
type AttendanceLog struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	RegistrationID uint       `gorm:"not null;index" json:"registration_id"`
	EventID        uint       `gorm:"not null;index" json:"event_id"`
	ScannedAt      time.Time  `gorm:"not null" json:"scanned_at"`
	ConfirmedAt    time.Time  `gorm:"not null" json:"confirmed_at"`
	Scanner        string     `gorm:"size:120" json:"scanner"`
	IsRevoked      bool       `gorm:"not null;default:false" json:"is_revoked"`
	RevokedAt      *time.Time `json:"revoked_at,omitempty"`
	RevokedBy      *string    `gorm:"size:120" json:"revoked_by,omitempty"`

	Registration *Registration `gorm:"foreignKey:registration_id" json:"-"`
}
