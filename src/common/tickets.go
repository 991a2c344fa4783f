package common

import (
	"context"
	"errors"
	"eventpass/src/lib"
	"eventpass/src/lib/qrtoken"
	"eventpass/src/models"
	"eventpass/src/types"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

const ticketCodeAttempts = 5

// QRRenderer turns a token into a stored QR image and returns its path.
type QRRenderer interface {
	Render(ctx context.Context, ticketCode, token string) (string, error)
}

type ticketStore interface {
	TxRunner
	TicketStore
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	GetRegistration(ctx context.Context, id uint) (*models.Registration, error)
	SetQRToken(ctx context.Context, id uint, token string) (bool, error)
}

type TicketIssuer struct {
	store    ticketStore
	signer   *qrtoken.Signer
	renderer QRRenderer
	now      func() time.Time
	suffix   func() string
}

func NewTicketIssuer(store ticketStore, signer *qrtoken.Signer, renderer QRRenderer) *TicketIssuer {
	return &TicketIssuer{
		store:    store,
		signer:   signer,
		renderer: renderer,
		now:      time.Now,
		suffix:   RandomTicketSuffix,
	}
}

func TicketCode(eventID, registrationID uint, suffix string) string {
	return fmt.Sprintf("EVT%d-R%d-%s", eventID, registrationID, suffix)
}

func RandomTicketSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Issue returns the ticket of reg, creating it on first call. The boolean
// reports whether this call created it.
func (t *TicketIssuer) Issue(ctx context.Context, reg *models.Registration) (*models.Ticket, bool, error) {
	var ticket *models.Ticket
	created := false
	err := t.store.WithTx(ctx, func(ctx context.Context) error {
		existing, err := t.store.GetTicketByRegistration(ctx, reg.ID)
		if err == nil {
			ticket = existing
			return nil
		}
		if !errors.Is(err, types.ErrTicketNotFound) {
			return err
		}

		current, err := t.store.GetRegistration(ctx, reg.ID)
		if err != nil {
			return err
		}
		if !current.IsPaid() {
			ev, err := t.store.GetEvent(ctx, current.EventID)
			if err != nil {
				return err
			}
			if !ev.IsFree() {
				log.Printf("[tickets] registration %d has payment status %s\n", current.ID, current.PaymentStatus)
				return types.ErrRegistrationNotPaid
			}
		}

		token, err := t.ensureToken(ctx, current)
		if err != nil {
			return err
		}

		for attempt := 1; attempt <= ticketCodeAttempts; attempt++ {
			code := TicketCode(current.EventID, current.ID, t.suffix())
			assetPath, err := t.renderer.Render(ctx, code, token)
			if err != nil {
				return fmt.Errorf("render qr for registration %d: %w", current.ID, err)
			}
			candidate := &models.Ticket{
				RegistrationID: current.ID,
				TicketCode:     code,
				QRAssetPath:    assetPath,
				GeneratedAt:    t.now().UTC(),
			}
			err = t.store.CreateTicket(ctx, candidate)
			switch {
			case err == nil:
				ticket = candidate
				created = true
				lib.TicketsIssued.Inc()
				return nil
			case errors.Is(err, types.ErrDuplicateTicketCode):
				log.Printf("[tickets] code collision on %s (attempt %d)\n", code, attempt)
				continue
			case errors.Is(err, types.ErrTicketExists):
				ticket, err = t.store.GetTicketByRegistration(ctx, current.ID)
				return err
			default:
				return err
			}
		}
		return fmt.Errorf("no free ticket code after %d attempts: %w", ticketCodeAttempts, types.ErrDuplicateTicketCode)
	})
	if err != nil {
		return nil, false, err
	}
	return ticket, created, nil
}

// ensureToken mints the registration's QR token once and returns the stored
// value.
func (t *TicketIssuer) ensureToken(ctx context.Context, reg *models.Registration) (string, error) {
	if reg.QRToken != nil && *reg.QRToken != "" {
		return *reg.QRToken, nil
	}
	token, err := t.signer.Sign(qrtoken.Payload{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		StudentEmail:   reg.StudentEmail,
		IssuedAt:       t.now().Unix(),
	})
	if err != nil {
		return "", err
	}
	written, err := t.store.SetQRToken(ctx, reg.ID, token)
	if err != nil {
		return "", err
	}
	if written {
		reg.QRToken = &token
		return token, nil
	}
	stored, err := t.store.GetRegistration(ctx, reg.ID)
	if err != nil {
		return "", err
	}
	if stored.QRToken == nil {
		return "", fmt.Errorf("qr token of registration %d was not stored", reg.ID)
	}
	reg.QRToken = stored.QRToken
	return *stored.QRToken, nil
}
