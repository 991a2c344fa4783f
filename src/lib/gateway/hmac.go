package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// HMACGateway talks to a Razorpay-compatible orders API. Client callbacks are
// signed as HMAC-SHA256(order_id + "|" + payment_id) with the key secret and
// webhooks as HMAC-SHA256(raw body) with the webhook secret.
type HMACGateway struct {
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	client        *http.Client
}

func NewHMACGateway(baseURL, keyID, keySecret, webhookSecret string, client *http.Client) *HMACGateway {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HMACGateway{
		baseURL:       strings.TrimRight(baseURL, "/"),
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		client:        client,
	}
}

func (g *HMACGateway) Name() string { return "razorpay" }

func (g *HMACGateway) KeyID() string { return g.keyID }

func (g *HMACGateway) SignatureHeader() string { return "X-Signature" }

func (g *HMACGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	body, err := json.Marshal(map[string]any{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    req.Notes,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(g.keyID, g.keySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(httpReq)
	if err != nil {
		log.Printf("[%s] create order %s failed: %s\n", g.Name(), req.Receipt, err.Error())
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, err.Error())
	}
	if res.StatusCode >= http.StatusInternalServerError || res.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode)
	}
	if res.StatusCode >= http.StatusBadRequest {
		desc := gjson.GetBytes(resBody, "error.description").String()
		return nil, fmt.Errorf("gateway rejected order %s: %s", req.Receipt, desc)
	}

	parsed := gjson.ParseBytes(resBody)
	id := parsed.Get("id").String()
	if id == "" {
		return nil, errors.New("gateway returned an order without id")
	}
	raw, _ := parsed.Value().(map[string]any)
	return &Order{
		ID:          id,
		AmountMinor: parsed.Get("amount").Int(),
		Currency:    parsed.Get("currency").String(),
		Raw:         raw,
	}, nil
}

func (g *HMACGateway) VerifyPayment(_ context.Context, orderID, paymentID, signature string) error {
	if g.keySecret == "" || signature == "" {
		return ErrSignature
	}
	expected := hexHMAC(g.keySecret, []byte(orderID+"|"+paymentID))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignature
	}
	return nil
}

func (g *HMACGateway) VerifyWebhookSignature(body []byte, signature string) error {
	if g.webhookSecret == "" || signature == "" {
		return ErrSignature
	}
	expected := hexHMAC(g.webhookSecret, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignature
	}
	return nil
}

func (g *HMACGateway) ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("webhook body is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	ev := &WebhookEvent{
		ID:        root.Get("id").String(),
		Type:      root.Get("event").String(),
		OrderID:   root.Get("payload.payment.entity.order_id").String(),
		PaymentID: root.Get("payload.payment.entity.id").String(),
	}
	if ev.ID == "" {
		sum := sha256.Sum256(body)
		ev.ID = hex.EncodeToString(sum[:])
	}
	switch ev.Type {
	case "payment.captured":
		ev.Kind = KindCaptured
	case "order.paid":
		ev.Kind = KindCaptured
		if ev.OrderID == "" {
			ev.OrderID = root.Get("payload.order.entity.id").String()
		}
	case "payment.failed":
		ev.Kind = KindFailed
		ev.Reason = root.Get("payload.payment.entity.error_description").String()
	case "refund.processed", "payment.refunded":
		ev.Kind = KindRefunded
		if ev.PaymentID == "" {
			ev.PaymentID = root.Get("payload.refund.entity.payment_id").String()
		}
	default:
		ev.Kind = KindIgnored
	}
	return ev, nil
}

func hexHMAC(secret string, data []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
