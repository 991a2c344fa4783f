package common

import (
	"context"
	"eventpass/src/models"
	"eventpass/src/types"
	"fmt"
	"net/mail"
	"strings"
)

type Registrant struct {
	Name       string
	Email      string
	ExternalID string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Registrations enforces one registration per (event, student email).
type Registrations struct {
	store RegistrationStore
}

func NewRegistrations(store RegistrationStore) *Registrations {
	return &Registrations{store: store}
}

// FindOrCreate returns the registration of who for the event, creating a
// pending one on the first attempt.
func (r *Registrations) FindOrCreate(ctx context.Context, eventID uint, who Registrant) (*models.Registration, bool, error) {
	name := strings.TrimSpace(who.Name)
	email := NormalizeEmail(who.Email)
	if name == "" || email == "" {
		return nil, false, fmt.Errorf("%w: name and email are required", types.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, false, fmt.Errorf("%w: invalid email", types.ErrValidation)
	}
	return r.store.FindOrCreateRegistration(ctx, &models.Registration{
		EventID:           eventID,
		StudentName:       name,
		StudentEmail:      email,
		StudentExternalID: strings.TrimSpace(who.ExternalID),
		PaymentStatus:     types.PAYMENT_PENDING,
		AttendanceStatus:  types.ATTENDANCE_PENDING,
	})
}
