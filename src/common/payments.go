package common

import (
	"context"
	"errors"
	"eventpass/src/lib"
	"eventpass/src/lib/gateway"
	"eventpass/src/models"
	"eventpass/src/types"
	"fmt"
	"log"
	"maps"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	SourceCallback = "callback"
	SourceWebhook  = "webhook"
	SourceFree     = "free"

	FailureEventFull        = "event_full"
	FailureDuplicatePayment = "duplicate_payment"
)

// Notifier is told about tickets created by a committed transition.
type Notifier interface {
	TicketIssued(ctx context.Context, reg *models.Registration, ticket *models.Ticket)
}

type reconcilerStore interface {
	TxRunner
	EventStore
	RegistrationStore
	PaymentStore
	TicketStore
	WebhookStore
}

type Reconciler struct {
	store         reconcilerStore
	gateway       gateway.Gateway
	registrations *Registrations
	seats         *SeatCounter
	tickets       *TicketIssuer
	notifier      Notifier
	timeout       time.Duration
	now           func() time.Time
}

type ReconcilerOptions struct {
	GatewayTimeout time.Duration
	Notifier       Notifier
}

func NewReconciler(store reconcilerStore, gw gateway.Gateway, tickets *TicketIssuer, opts ReconcilerOptions) *Reconciler {
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = 10 * time.Second
	}
	return &Reconciler{
		store:         store,
		gateway:       gw,
		registrations: NewRegistrations(store),
		seats:         NewSeatCounter(store),
		tickets:       tickets,
		notifier:      opts.Notifier,
		timeout:       opts.GatewayTimeout,
		now:           time.Now,
	}
}

type OrderInput struct {
	EventID uint
	Registrant
}

type OrderResult struct {
	OrderID        string `json:"order_id,omitempty"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency,omitempty"`
	GatewayKey     string `json:"gateway_key,omitempty"`
	RegistrationID uint   `json:"registration_id"`
	ClientSecret   string `json:"client_secret,omitempty"`
	TicketCode     string `json:"ticket_code,omitempty"`
}

// CreateOrder registers the student and opens a gateway order for the
// event fee. Registrations that are already paid get their ticket back
// instead of a new charge, and free events complete immediately.
func (r *Reconciler) CreateOrder(ctx context.Context, in OrderInput) (*OrderResult, error) {
	ev, err := r.store.GetEvent(ctx, in.EventID)
	if err != nil {
		return nil, err
	}
	if ev.HasEnded(r.now()) {
		return nil, types.ErrEventClosed
	}
	reg, created, err := r.registrations.FindOrCreate(ctx, ev.ID, in.Registrant)
	if err != nil {
		return nil, err
	}
	if created {
		log.Printf("[orders] registration %d created for event %d\n", reg.ID, ev.ID)
	}
	result := &OrderResult{
		RegistrationID: reg.ID,
		Amount:         ev.AmountMinor,
		Currency:       ev.Currency,
		GatewayKey:     r.gateway.KeyID(),
	}

	if reg.IsPaid() {
		ticket, _, err := r.tickets.Issue(ctx, reg)
		if err != nil {
			return nil, err
		}
		result.TicketCode = ticket.TicketCode
		return result, nil
	}
	if ev.IsFree() {
		ticket, err := r.completeFree(ctx, reg.ID)
		if err != nil {
			return nil, err
		}
		result.Amount = 0
		result.TicketCode = ticket.TicketCode
		return result, nil
	}
	if ev.IsFull() {
		return nil, types.ErrEventFull
	}

	gctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	order, err := r.gateway.CreateOrder(gctx, gateway.OrderRequest{
		Receipt:     fmt.Sprintf("reg_%d_%d", reg.ID, r.now().UnixNano()),
		AmountMinor: ev.AmountMinor,
		Currency:    ev.Currency,
		Notes: map[string]string{
			"registration_id": strconv.FormatUint(uint64(reg.ID), 10),
			"event_id":        strconv.FormatUint(uint64(ev.ID), 10),
		},
	})
	if err != nil {
		log.Printf("[orders] gateway order for registration %d failed: %s\n", reg.ID, err.Error())
		return nil, fmt.Errorf("%w: %s", types.ErrGatewayUnavailable, err.Error())
	}

	payment := &models.Payment{
		RegistrationID: reg.ID,
		Gateway:        r.gateway.Name(),
		GatewayOrderID: order.ID,
		Status:         types.TRANSACTION_PENDING,
		AmountMinor:    ev.AmountMinor,
		Currency:       ev.Currency,
		Metadata:       types.JSONB{"order": order.Raw},
	}
	if err := r.store.CreatePayment(ctx, payment); err != nil {
		log.Printf("[orders] could not record order %s for registration %d: %s\n", order.ID, reg.ID, err.Error())
		return nil, err
	}
	result.OrderID = order.ID
	result.ClientSecret = order.ClientSecret
	return result, nil
}

// completeFree marks a free registration paid and issues its ticket under
// the registration row lock.
func (r *Reconciler) completeFree(ctx context.Context, registrationID uint) (*models.Ticket, error) {
	var ticket *models.Ticket
	var reg *models.Registration
	var created bool
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		reg, err = r.store.LockRegistration(ctx, registrationID)
		if err != nil {
			return err
		}
		if !reg.IsPaid() {
			old := reg.PaymentStatus
			if err := r.store.SetPaymentStatus(ctx, reg.ID, types.PAYMENT_PAID); err != nil {
				return err
			}
			reg.PaymentStatus = types.PAYMENT_PAID
			if err := r.seats.OnPaymentStatusChange(ctx, reg, old, types.PAYMENT_PAID); err != nil {
				return err
			}
		}
		ticket, created, err = r.tickets.Issue(ctx, reg)
		return err
	})
	if err != nil {
		lib.PaymentTransitions.WithLabelValues(SourceFree, outcomeOf(err)).Inc()
		return nil, err
	}
	if created {
		lib.PaymentTransitions.WithLabelValues(SourceFree, "success").Inc()
		r.notify(ctx, reg, ticket)
	}
	return ticket, nil
}

type ConfirmInput struct {
	OrderID   string
	PaymentID string
	Signature string
}

type Completion struct {
	Success          bool   `json:"success"`
	TicketCode       string `json:"ticket_code,omitempty"`
	AlreadyProcessed bool   `json:"already_processed,omitempty"`
}

// ConfirmPayment handles the client callback after checkout.
func (r *Reconciler) ConfirmPayment(ctx context.Context, in ConfirmInput) (*Completion, error) {
	if in.OrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return nil, fmt.Errorf("%w: order_id, payment_id and signature are required", types.ErrValidation)
	}
	gctx, cancel := context.WithTimeout(ctx, r.timeout)
	err := r.gateway.VerifyPayment(gctx, in.OrderID, in.PaymentID, in.Signature)
	cancel()
	if err != nil {
		lib.PaymentTransitions.WithLabelValues(SourceCallback, "signature_invalid").Inc()
		log.Printf("[payments] callback for order %s rejected: %s\n", in.OrderID, err.Error())
		if errors.Is(err, gateway.ErrUnavailable) {
			return nil, types.ErrGatewayUnavailable
		}
		return nil, types.ErrSignatureInvalid
	}
	return r.completeSuccess(ctx, SourceCallback, in.OrderID, in.PaymentID, in.Signature)
}

// completeSuccess is the single critical section both completion signals go
// through. The payment row lock makes exactly one caller see pending.
func (r *Reconciler) completeSuccess(ctx context.Context, source, orderID, paymentID, signature string) (*Completion, error) {
	out := &Completion{}
	var issued *models.Ticket
	var reg *models.Registration
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		p, err := r.store.LockPaymentByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		switch p.Status {
		case types.TRANSACTION_SUCCESS:
			t, err := r.existingTicket(ctx, p.RegistrationID)
			if err != nil {
				return err
			}
			out.Success, out.AlreadyProcessed, out.TicketCode = true, true, t.TicketCode
			return nil
		case types.TRANSACTION_FAILED:
			log.Printf("[payments] %s success for order %s after it failed (reason %v), needs manual reconciliation\n", source, orderID, deref(p.FailureReason))
			return types.ErrPaymentTerminal
		}

		reg, err = r.store.LockRegistration(ctx, p.RegistrationID)
		if err != nil {
			return err
		}
		now := r.now().UTC()
		if reg.IsPaid() {
			log.Printf("[payments] registration %d already paid, order %s captured twice and needs a refund\n", reg.ID, orderID)
			p.Status = types.TRANSACTION_FAILED
			p.FailureReason = strPtr(FailureDuplicatePayment)
			p.Metadata = mergeMetadata(p.Metadata, types.JSONB{"captured_payment_id": paymentID, "captured_at": now})
			if err := r.store.UpdatePayment(ctx, p); err != nil {
				return err
			}
			t, err := r.existingTicket(ctx, reg.ID)
			if err != nil {
				return err
			}
			out.Success, out.AlreadyProcessed, out.TicketCode = true, true, t.TicketCode
			reg = nil
			return nil
		}

		p.Status = types.TRANSACTION_SUCCESS
		p.PaidAt = &now
		if paymentID != "" {
			p.GatewayPaymentID = &paymentID
		}
		if signature != "" {
			p.Signature = &signature
		}
		p.Metadata = mergeMetadata(p.Metadata, types.JSONB{"confirmed_by": source})
		if err := r.store.UpdatePayment(ctx, p); err != nil {
			return err
		}

		old := reg.PaymentStatus
		if err := r.store.SetPaymentStatus(ctx, reg.ID, types.PAYMENT_PAID); err != nil {
			return err
		}
		reg.PaymentStatus = types.PAYMENT_PAID
		if err := r.seats.OnPaymentStatusChange(ctx, reg, old, types.PAYMENT_PAID); err != nil {
			return err
		}
		issued, _, err = r.tickets.Issue(ctx, reg)
		if err != nil {
			return err
		}
		out.Success, out.TicketCode = true, issued.TicketCode
		return nil
	})

	if errors.Is(err, types.ErrEventFull) {
		if failed, ferr := r.failPending(ctx, orderID, FailureEventFull); ferr != nil {
			log.Printf("[payments] could not fail order %s after capacity check: %s\n", orderID, ferr.Error())
		} else if failed {
			log.Printf("[payments] order %s captured for a full event, refund required\n", orderID)
		}
	}
	if err != nil {
		lib.PaymentTransitions.WithLabelValues(source, outcomeOf(err)).Inc()
		log.Printf("[payments] %s for order %s failed: %s\n", source, orderID, err.Error())
		return nil, err
	}
	if out.AlreadyProcessed {
		lib.PaymentTransitions.WithLabelValues(source, "already_processed").Inc()
		return out, nil
	}
	lib.PaymentTransitions.WithLabelValues(source, "success").Inc()
	log.Printf("[payments] order %s paid via %s, registration %d ticket %s\n", orderID, source, reg.ID, issued.TicketCode)
	r.notify(ctx, reg, issued)
	return out, nil
}

// failPending moves a pending payment to failed. It never overwrites a
// terminal state and reports whether it changed anything.
func (r *Reconciler) failPending(ctx context.Context, orderID, reason string) (bool, error) {
	changed := false
	err := r.store.WithTx(ctx, func(ctx context.Context) error {
		p, err := r.store.LockPaymentByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if p.IsTerminal() {
			return nil
		}
		p.Status = types.TRANSACTION_FAILED
		if reason != "" {
			short := truncateRunes(reason, models.FailureReasonSize)
			if short != reason {
				p.Metadata = mergeMetadata(p.Metadata, types.JSONB{"failure_message": reason})
			}
			p.FailureReason = &short
		}
		changed = true
		return r.store.UpdatePayment(ctx, p)
	})
	return changed, err
}

// refund releases the seat of a refunded registration. Replays are no-ops.
func (r *Reconciler) refund(ctx context.Context, orderID string) error {
	return r.store.WithTx(ctx, func(ctx context.Context) error {
		p, err := r.store.LockPaymentByOrderID(ctx, orderID)
		if err != nil {
			return err
		}
		if p.Status != types.TRANSACTION_SUCCESS {
			log.Printf("[payments] refund for order %s in status %s ignored\n", orderID, p.Status)
			return nil
		}
		reg, err := r.store.LockRegistration(ctx, p.RegistrationID)
		if err != nil {
			return err
		}
		if reg.PaymentStatus != types.PAYMENT_PAID {
			return nil
		}
		p.Metadata = mergeMetadata(p.Metadata, types.JSONB{"refunded_at": r.now().UTC()})
		if err := r.store.UpdatePayment(ctx, p); err != nil {
			return err
		}
		if err := r.store.SetPaymentStatus(ctx, reg.ID, types.PAYMENT_REFUNDED); err != nil {
			return err
		}
		old := reg.PaymentStatus
		reg.PaymentStatus = types.PAYMENT_REFUNDED
		log.Printf("[payments] order %s refunded, registration %d released\n", orderID, reg.ID)
		return r.seats.OnPaymentStatusChange(ctx, reg, old, types.PAYMENT_REFUNDED)
	})
}

type WebhookResult struct {
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
}

// HandleWebhook verifies and applies a gateway webhook. body must be the
// exact bytes received.
func (r *Reconciler) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	provider := r.gateway.Name()
	if err := r.gateway.VerifyWebhookSignature(body, signature); err != nil {
		lib.WebhookDeliveries.WithLabelValues(provider, "signature_invalid").Inc()
		log.Printf("[webhook] %s delivery rejected: %s\n", provider, err.Error())
		return nil, types.ErrWebhookSignatureInvalid
	}
	ev, err := r.gateway.ParseWebhookEvent(body)
	if err != nil {
		lib.WebhookDeliveries.WithLabelValues(provider, "unparsable").Inc()
		return nil, fmt.Errorf("%w: %s", types.ErrValidation, err.Error())
	}
	rec, err := r.store.RecordWebhookEvent(ctx, &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: ev.ID,
		EventType:       ev.Type,
		Payload:         string(body),
		SignatureValid:  true,
	})
	if err != nil {
		return nil, err
	}
	if rec.ProcessedAt != nil {
		lib.WebhookDeliveries.WithLabelValues(provider, "duplicate").Inc()
		return &WebhookResult{Status: "already_processed", Kind: string(ev.Kind)}, nil
	}

	var procErr error
	status := "processed"
	switch ev.Kind {
	case gateway.KindCaptured:
		var c *Completion
		c, procErr = r.completeSuccess(ctx, SourceWebhook, ev.OrderID, ev.PaymentID, "")
		if c != nil && c.AlreadyProcessed {
			status = "already_processed"
		}
	case gateway.KindFailed:
		var changed bool
		changed, procErr = r.failPending(ctx, ev.OrderID, ev.Reason)
		if procErr == nil && !changed {
			status = "already_processed"
		}
	case gateway.KindRefunded:
		procErr = r.refund(ctx, ev.OrderID)
	default:
		status = "ignored"
	}

	permanent := procErr == nil || isPermanent(procErr)
	if err := r.store.MarkWebhookProcessed(ctx, rec.ID, permanent, procErr); err != nil {
		log.Printf("[webhook] could not mark %s event %s: %s\n", provider, ev.ID, err.Error())
	}
	if procErr != nil {
		lib.WebhookDeliveries.WithLabelValues(provider, outcomeOf(procErr)).Inc()
		log.Printf("[webhook] %s %s for order %s: %s\n", provider, ev.Type, ev.OrderID, procErr.Error())
		if permanent {
			return &WebhookResult{Status: "rejected", Kind: string(ev.Kind)}, nil
		}
		return nil, procErr
	}
	lib.WebhookDeliveries.WithLabelValues(provider, status).Inc()
	return &WebhookResult{Status: status, Kind: string(ev.Kind)}, nil
}

func (r *Reconciler) existingTicket(ctx context.Context, registrationID uint) (*models.Ticket, error) {
	t, err := r.store.GetTicketByRegistration(ctx, registrationID)
	if errors.Is(err, types.ErrTicketNotFound) {
		return nil, fmt.Errorf("%w: paid registration %d has no ticket", types.ErrRegistrationNotPaid, registrationID)
	}
	return t, err
}

func (r *Reconciler) notify(ctx context.Context, reg *models.Registration, ticket *models.Ticket) {
	if r.notifier == nil || reg == nil || ticket == nil {
		return
	}
	go r.notifier.TicketIssued(context.WithoutCancel(ctx), reg, ticket)
}

// isPermanent reports errors a webhook redelivery cannot fix.
func isPermanent(err error) bool {
	switch types.CodeOf(err) {
	case types.CodeConflict, types.CodeNotFound, types.CodeValidation:
		return true
	}
	return false
}

func outcomeOf(err error) string {
	return strings.ToLower(string(types.CodeOf(err)))
}

func mergeMetadata(base types.JSONB, extra types.JSONB) types.JSONB {
	out := make(types.JSONB, len(base)+len(extra))
	maps.Copy(out, base)
	maps.Copy(out, extra)
	return out
}

func strPtr(s string) *string { return &s }

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
