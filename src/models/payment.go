package models

import (
	"eventpass/src/types"
	"time"
)

// FailureReasonSize is the column width of Payment.FailureReason.
const FailureReasonSize = 64

// Payment is one gateway order attempt for a registration. Status moves
// pending -> success or pending -> failed and never back.
type Payment struct {
	ID               uint                    `gorm:"primarykey" json:"id"`
	RegistrationID   uint                    `gorm:"not null;index;uniqueIndex:idx_payments_one_success,where:status = 'success'" json:"registration_id"`
	Gateway          string                  `gorm:"size:32;not null" json:"gateway"`
	GatewayOrderID   string                  `gorm:"size:128;not null;uniqueIndex:idx_payments_gateway_order_id" json:"order_id"`
	GatewayPaymentID *string                 `gorm:"size:128" json:"payment_id,omitempty"`
	Signature        *string                 `gorm:"size:256" json:"-"`
	Status           types.TransactionStatus `gorm:"size:16;not null;default:'pending'" json:"status"`
	AmountMinor      int64                   `gorm:"not null" json:"amount"`
	Currency         string                  `gorm:"size:3;not null" json:"currency"`
	Metadata         types.JSONB             `gorm:"type:jsonb" json:"-"`
	FailureReason    *string                 `gorm:"size:64" json:"failure_reason,omitempty"`
	PaidAt           *time.Time              `json:"paid_at,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`

	Registration *Registration `gorm:"foreignKey:registration_id" json:"-"`
}

func (p *Payment) IsTerminal() bool {
	return p.Status != types.TRANSACTION_PENDING
}
