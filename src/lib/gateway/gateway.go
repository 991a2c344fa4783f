// Package gateway adapts external payment providers to the operations the
// payment reconciler needs: order creation, client-callback verification and
// webhook verification.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSignature   = errors.New("gateway: signature verification failed")
	ErrUnavailable = errors.New("gateway: provider unavailable")
	ErrNoSecret    = errors.New("gateway: signing secret is not configured")
)

type Kind string

const (
	KindCaptured Kind = "captured"
	KindFailed   Kind = "failed"
	KindRefunded Kind = "refunded"
	KindIgnored  Kind = "ignored"
)

type OrderRequest struct {
	Receipt     string
	AmountMinor int64
	Currency    string
	Notes       map[string]string
}

type Order struct {
	ID           string
	AmountMinor  int64
	Currency     string
	ClientSecret string
	Raw          map[string]any
}

// WebhookEvent is the provider-neutral view of a verified webhook delivery.
type WebhookEvent struct {
	ID        string
	Type      string
	Kind      Kind
	OrderID   string
	PaymentID string
	Reason    string
}

type Gateway interface {
	Name() string
	// KeyID is the public key handed to the checkout client.
	KeyID() string
	SignatureHeader() string
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	VerifyPayment(ctx context.Context, orderID, paymentID, signature string) error
	VerifyWebhookSignature(body []byte, signature string) error
	ParseWebhookEvent(body []byte) (*WebhookEvent, error)
}

type Config struct {
	Provider       string
	BaseURL        string
	KeyID          string
	KeySecret      string
	WebhookSecret  string
	StripeKey      string
	PublishableKey string
	StripeWebhook  string
}

// New returns the adapter named by cfg.Provider. Every secret the adapter
// verifies signatures with must be set.
func New(cfg Config) (Gateway, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "razorpay", "hmac":
		if cfg.KeySecret == "" || cfg.WebhookSecret == "" {
			return nil, fmt.Errorf("%w: GATEWAY_KEY_SECRET and GATEWAY_WEBHOOK_SECRET are required", ErrNoSecret)
		}
		return NewHMACGateway(cfg.BaseURL, cfg.KeyID, cfg.KeySecret, cfg.WebhookSecret, nil), nil
	case "stripe":
		if cfg.StripeKey == "" || cfg.StripeWebhook == "" {
			return nil, fmt.Errorf("%w: STRIPE_SECRET_KEY and STRIPE_WEBHOOK_SECRET are required", ErrNoSecret)
		}
		return NewStripeGateway(cfg.StripeKey, cfg.PublishableKey, cfg.StripeWebhook), nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.Provider)
	}
}
