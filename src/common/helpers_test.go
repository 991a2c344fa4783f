package common

import (
	"context"
	"encoding/json"
	"errors"
	"eventpass/src/db"
	"eventpass/src/db/memstore"
	"eventpass/src/lib/gateway"
	"eventpass/src/lib/qrtoken"
	"eventpass/src/models"
	"eventpass/src/types"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	_ Store = (*db.Store)(nil)
	_ Store = (*memstore.Store)(nil)
)

type fakeGateway struct {
	orders    atomic.Int64
	createErr error
}

func (g *fakeGateway) Name() string            { return "fake" }
func (g *fakeGateway) KeyID() string           { return "key_test" }
func (g *fakeGateway) SignatureHeader() string { return "X-Signature" }

func (g *fakeGateway) CreateOrder(_ context.Context, req gateway.OrderRequest) (*gateway.Order, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	n := g.orders.Add(1)
	return &gateway.Order{
		ID:          fmt.Sprintf("order_%d", n),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Raw:         map[string]any{"receipt": req.Receipt},
	}, nil
}

func (g *fakeGateway) VerifyPayment(_ context.Context, orderID, _, signature string) error {
	if signature != "sig_"+orderID {
		return gateway.ErrSignature
	}
	return nil
}

func (g *fakeGateway) VerifyWebhookSignature(_ []byte, signature string) error {
	if signature != "whsig" {
		return gateway.ErrSignature
	}
	return nil
}

func (g *fakeGateway) ParseWebhookEvent(body []byte) (*gateway.WebhookEvent, error) {
	var ev gateway.WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func webhookBody(t *testing.T, id string, kind gateway.Kind, orderID string) []byte {
	b, err := json.Marshal(gateway.WebhookEvent{
		ID:        id,
		Type:      "payment." + string(kind),
		Kind:      kind,
		OrderID:   orderID,
		PaymentID: "pay_" + orderID,
	})
	require.NoError(t, err)
	return b
}

func failedWebhookBody(t *testing.T, id, orderID, reason string) []byte {
	b, err := json.Marshal(gateway.WebhookEvent{
		ID:        id,
		Type:      "payment.failed",
		Kind:      gateway.KindFailed,
		OrderID:   orderID,
		PaymentID: "pay_" + orderID,
		Reason:    reason,
	})
	require.NoError(t, err)
	return b
}

type stubRenderer struct {
	mu    sync.Mutex
	err   error
	codes []string
}

func (r *stubRenderer) Render(_ context.Context, ticketCode, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.codes = append(r.codes, ticketCode)
	return "tmp/" + ticketCode + ".jpeg", nil
}

type fixture struct {
	store    *memstore.Store
	gw       *fakeGateway
	renderer *stubRenderer
	signer   *qrtoken.Signer
	tickets  *TicketIssuer
	rec      *Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	signer, err := qrtoken.NewSigner([]string{"test-secret"}, 0)
	require.NoError(t, err)
	f := &fixture{
		store:    memstore.New(),
		gw:       &fakeGateway{},
		renderer: &stubRenderer{},
		signer:   signer,
	}
	f.tickets = NewTicketIssuer(f.store, signer, f.renderer)
	f.rec = NewReconciler(f.store, f.gw, f.tickets, ReconcilerOptions{GatewayTimeout: time.Second})
	return f
}

func (f *fixture) paidEvent(capacity int) models.Event {
	return f.store.AddEvent(models.Event{
		Title:       "Robotics Workshop",
		Capacity:    capacity,
		IsPaid:      true,
		AmountMinor: 50000,
		Currency:    "INR",
		StartAt:     time.Now().Add(24 * time.Hour),
		EndAt:       time.Now().Add(26 * time.Hour),
	})
}

func (f *fixture) freeEvent(capacity int) models.Event {
	return f.store.AddEvent(models.Event{
		Title:    "Orientation",
		Capacity: capacity,
		StartAt:  time.Now().Add(24 * time.Hour),
		EndAt:    time.Now().Add(26 * time.Hour),
	})
}

func (f *fixture) pendingRegistration(ev models.Event, email string) models.Registration {
	return f.store.AddRegistration(models.Registration{
		EventID:          ev.ID,
		StudentName:      "Asha",
		StudentEmail:     email,
		PaymentStatus:    types.PAYMENT_PENDING,
		AttendanceStatus: types.ATTENDANCE_PENDING,
	})
}

func (f *fixture) pendingPayment(reg models.Registration, orderID string) models.Payment {
	return f.store.AddPayment(models.Payment{
		RegistrationID: reg.ID,
		Gateway:        "fake",
		GatewayOrderID: orderID,
		Status:         types.TRANSACTION_PENDING,
		AmountMinor:    50000,
		Currency:       "INR",
	})
}

func (f *fixture) paymentByOrder(t *testing.T, orderID string) models.Payment {
	t.Helper()
	for _, p := range f.store.Payments() {
		if p.GatewayOrderID == orderID {
			return p
		}
	}
	t.Fatalf("no payment for order %s", orderID)
	return models.Payment{}
}

var errRender = errors.New("disk full")
