package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/tidwall/gjson"
)

// StripeGateway maps orders to PaymentIntents. The client confirms with the
// PaymentIntent id as order and payment id and its client secret as the
// signature.
type StripeGateway struct {
	sc             *stripe.Client
	publishableKey string
	webhookSecret  string
}

func NewStripeGateway(secretKey, publishableKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		sc:             stripe.NewClient(secretKey),
		publishableKey: publishableKey,
		webhookSecret:  webhookSecret,
	}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) KeyID() string { return g.publishableKey }

func (g *StripeGateway) SignatureHeader() string { return "Stripe-Signature" }

func (g *StripeGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(req.AmountMinor),
		Currency: stripe.String(strings.ToLower(req.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Metadata: req.Notes,
	}
	params.SetIdempotencyKey(req.Receipt)
	pi, err := g.sc.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		log.Printf("[stripe] create PaymentIntent %s failed: %s\n", req.Receipt, err.Error())
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
	}
	return &Order{
		ID:           pi.ID,
		AmountMinor:  pi.Amount,
		Currency:     strings.ToUpper(string(pi.Currency)),
		ClientSecret: pi.ClientSecret,
		Raw:          map[string]any{"id": pi.ID, "status": string(pi.Status)},
	}, nil
}

func (g *StripeGateway) VerifyPayment(ctx context.Context, orderID, _ string, signature string) error {
	if signature == "" {
		return ErrSignature
	}
	pi, err := g.sc.V1PaymentIntents.Retrieve(ctx, orderID, nil)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
	}
	if subtle.ConstantTimeCompare([]byte(pi.ClientSecret), []byte(signature)) != 1 {
		return ErrSignature
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return ErrSignature
	}
	return nil
}

func (g *StripeGateway) VerifyWebhookSignature(body []byte, signature string) error {
	if g.webhookSecret == "" {
		return ErrSignature
	}
	if err := webhook.ValidatePayload(body, signature, g.webhookSecret); err != nil {
		log.Printf("[stripe] webhook signature rejected: %s\n", err.Error())
		return ErrSignature
	}
	return nil
}

func (g *StripeGateway) ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event stripe.Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	ev := &WebhookEvent{ID: event.ID, Type: string(event.Type), Kind: KindIgnored}
	if event.Data == nil {
		return ev, nil
	}
	obj := gjson.ParseBytes(event.Data.Raw)
	switch event.Type {
	case "payment_intent.succeeded":
		ev.Kind = KindCaptured
		ev.OrderID = obj.Get("id").String()
		ev.PaymentID = obj.Get("latest_charge").String()
	case "payment_intent.payment_failed":
		ev.Kind = KindFailed
		ev.OrderID = obj.Get("id").String()
		ev.Reason = obj.Get("last_payment_error.message").String()
	case "charge.refunded":
		ev.Kind = KindRefunded
		ev.OrderID = obj.Get("payment_intent").String()
		ev.PaymentID = obj.Get("id").String()
	}
	return ev, nil
}
