package models

import "time"

type WebhookEvent struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	Provider        string     `gorm:"size:32;not null;uniqueIndex:idx_webhook_events_provider_event" json:"provider"`
	ProviderEventID string     `gorm:"size:128;not null;uniqueIndex:idx_webhook_events_provider_event" json:"provider_event_id"`
	EventType       string     `gorm:"size:64" json:"event_type"`
	Payload         string     `gorm:"type:text" json:"-"`
	SignatureValid  bool       `json:"signature_valid"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	ProcessingError *string    `json:"processing_error,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}
