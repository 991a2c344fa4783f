package common

import (
	"context"
	"eventpass/src/models"
	"eventpass/src/types"
	"time"
)

// TxRunner runs fn in one database transaction carried by ctx. Nested calls
// join the outer transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventStore interface {
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	LockEvent(ctx context.Context, id uint) (*models.Event, error)
	SetEventRegistrationCount(ctx context.Context, id uint, count int) error
}

type RegistrationStore interface {
	FindOrCreateRegistration(ctx context.Context, reg *models.Registration) (*models.Registration, bool, error)
	GetRegistration(ctx context.Context, id uint) (*models.Registration, error)
	LockRegistration(ctx context.Context, id uint) (*models.Registration, error)
	SetPaymentStatus(ctx context.Context, id uint, status types.PaymentStatus) error
	SetAttendanceStatus(ctx context.Context, id uint, status types.AttendanceStatus) error
	SetQRToken(ctx context.Context, id uint, token string) (bool, error)
	MarkAbsent(ctx context.Context, now time.Time) (int64, error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	LockPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, p *models.Payment) error
}

type TicketStore interface {
	GetTicketByRegistration(ctx context.Context, registrationID uint) (*models.Ticket, error)
	GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error)
	CreateTicket(ctx context.Context, t *models.Ticket) error
}

type AttendanceStore interface {
	CreateAttendanceLog(ctx context.Context, l *models.AttendanceLog) error
	LockAttendanceLog(ctx context.Context, id uint) (*models.AttendanceLog, error)
	UpdateAttendanceLog(ctx context.Context, l *models.AttendanceLog) error
}

type BookingStore interface {
	LockResource(ctx context.Context, id uint) (*models.Resource, error)
	ListActiveBookings(ctx context.Context, resourceID uint, start, end time.Time) ([]models.ResourceBooking, error)
	CreateBooking(ctx context.Context, b *models.ResourceBooking) error
}

type WebhookStore interface {
	RecordWebhookEvent(ctx context.Context, e *models.WebhookEvent) (*models.WebhookEvent, error)
	MarkWebhookProcessed(ctx context.Context, id uint, processed bool, processingErr error) error
}

// Store is everything the services need from persistence.
type Store interface {
	TxRunner
	EventStore
	RegistrationStore
	PaymentStore
	TicketStore
	AttendanceStore
	BookingStore
	WebhookStore
}
