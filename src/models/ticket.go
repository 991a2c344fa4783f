package models

import "time"

type Ticket struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	RegistrationID uint      `gorm:"not null;uniqueIndex:idx_tickets_registration_id" json:"registration_id"`
	TicketCode     string    `gorm:"size:64;not null;uniqueIndex:idx_tickets_ticket_code" json:"ticket_code"`
	QRAssetPath    string    `gorm:"not null" json:"qr_asset_path"`
	GeneratedAt    time.Time `gorm:"not null" json:"generated_at"`

	Registration *Registration `gorm:"foreignKey:registration_id" json:"-"`
}
