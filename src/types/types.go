package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}

func (a *JSONB) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		*a = nil
		return nil
	default:
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

// PaymentStatus is the payment state of a Registration.
type PaymentStatus string

const (
	PAYMENT_PENDING  PaymentStatus = "pending"
	PAYMENT_PAID     PaymentStatus = "paid"
	PAYMENT_REFUNDED PaymentStatus = "refunded"
)

type AttendanceStatus string

const (
	ATTENDANCE_PENDING AttendanceStatus = "pending"
	ATTENDANCE_PRESENT AttendanceStatus = "present"
	ATTENDANCE_ABSENT  AttendanceStatus = "absent"
)

// TransactionStatus is the state of a gateway Payment row. pending is the
// only non-terminal state.
type TransactionStatus string

const (
	TRANSACTION_PENDING TransactionStatus = "pending"
	TRANSACTION_SUCCESS TransactionStatus = "success"
	TRANSACTION_FAILED  TransactionStatus = "failed"
)

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_APPROVED  BookingStatus = "approved"
	BOOKING_REJECTED  BookingStatus = "rejected"
	BOOKING_CANCELLED BookingStatus = "cancelled"
)

type ScanStatus string

const (
	SCAN_CONFIRM        ScanStatus = "confirm"
	SCAN_ALREADY_MARKED ScanStatus = "already_marked"
	SCAN_SUCCESS        ScanStatus = "success"
	SCAN_ERROR          ScanStatus = "error"
)

const (
	DATE_FORMAT = "2006-01-02"
	TIME_FORMAT = "15:04"
)

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type TicketCodeParams struct {
	Code string `uri:"code" binding:"required"`
}

type CreateOrderRequestBody struct {
	Name       string `json:"name" binding:"required,max=120"`
	Email      string `json:"email" binding:"required,email"`
	ExternalID string `json:"external_id,omitempty" binding:"max=64"`
}

type ConfirmPaymentRequestBody struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

type ScanRequestBody struct {
	EventID uint   `json:"event_id" binding:"required"`
	QRValue string `json:"qr_value" binding:"required,qrtoken"`
}

type ConfirmAttendanceRequestBody struct {
	RegistrationID uint `json:"registration_id" binding:"required"`
}

type RevokeAttendanceRequestBody struct {
	LogID uint `json:"log_id" binding:"required"`
}

type CreateBookingRequestBody struct {
	EventID   *uint  `json:"event_id,omitempty"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Purpose   string `json:"purpose,omitempty" binding:"max=255"`
}
