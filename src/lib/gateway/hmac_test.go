package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestHMACCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_id", user)
		assert.Equal(t, "key_secret", pass)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, int64(50000), gjson.GetBytes(body, "amount").Int())
		assert.Equal(t, "reg_3", gjson.GetBytes(body, "receipt").String())

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"order_abc","amount":50000,"currency":"INR","status":"created"}`))
	}))
	defer srv.Close()

	g := NewHMACGateway(srv.URL, "key_id", "key_secret", "whsec", srv.Client())
	order, err := g.CreateOrder(context.Background(), OrderRequest{Receipt: "reg_3", AmountMinor: 50000, Currency: "INR"})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", order.ID)
	assert.Equal(t, int64(50000), order.AmountMinor)
	assert.Equal(t, "created", order.Raw["status"])
}

func TestHMACCreateOrderUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewHMACGateway(srv.URL, "key_id", "key_secret", "whsec", srv.Client())
	_, err := g.CreateOrder(context.Background(), OrderRequest{Receipt: "reg_3", AmountMinor: 100, Currency: "INR"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHMACCreateOrderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	g := NewHMACGateway(srv.URL, "key_id", "key_secret", "whsec", srv.Client())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := g.CreateOrder(ctx, OrderRequest{Receipt: "reg_3", AmountMinor: 100, Currency: "INR"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHMACCreateOrderRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"description":"amount too small"}}`))
	}))
	defer srv.Close()

	g := NewHMACGateway(srv.URL, "key_id", "key_secret", "whsec", srv.Client())
	_, err := g.CreateOrder(context.Background(), OrderRequest{Receipt: "reg_3", AmountMinor: 1, Currency: "INR"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestHMACVerifyPayment(t *testing.T) {
	g := NewHMACGateway("", "key_id", "key_secret", "whsec", nil)
	sig := hexHMAC("key_secret", []byte("order_abc|pay_xyz"))

	assert.NoError(t, g.VerifyPayment(context.Background(), "order_abc", "pay_xyz", sig))
	assert.ErrorIs(t, g.VerifyPayment(context.Background(), "order_abc", "pay_other", sig), ErrSignature)
	assert.ErrorIs(t, g.VerifyPayment(context.Background(), "order_abc", "pay_xyz", "deadbeef"), ErrSignature)
}

func TestHMACVerifyWebhookSignatureUsesRawBytes(t *testing.T) {
	g := NewHMACGateway("", "key_id", "key_secret", "whsec", nil)
	body := []byte(`{"event":"payment.captured", "payload":{}}`)
	sig := hexHMAC("whsec", body)

	assert.NoError(t, g.VerifyWebhookSignature(body, sig))
	reformatted := []byte(`{"event":"payment.captured","payload":{}}`)
	assert.ErrorIs(t, g.VerifyWebhookSignature(reformatted, sig), ErrSignature)
	assert.ErrorIs(t, g.VerifyWebhookSignature(body, ""), ErrSignature)
}

func TestHMACParseWebhookEvent(t *testing.T) {
	g := NewHMACGateway("", "", "", "", nil)
	cases := []struct {
		body      string
		kind      Kind
		orderID   string
		paymentID string
	}{
		{`{"id":"evt_1","event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"order_1"}}}}`, KindCaptured, "order_1", "pay_1"},
		{`{"id":"evt_2","event":"order.paid","payload":{"order":{"entity":{"id":"order_2"}}}}`, KindCaptured, "order_2", ""},
		{`{"id":"evt_3","event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_3","order_id":"order_3","error_description":"card declined"}}}}`, KindFailed, "order_3", "pay_3"},
		{`{"id":"evt_4","event":"refund.processed","payload":{"refund":{"entity":{"payment_id":"pay_4"}},"payment":{"entity":{"order_id":"order_4"}}}}`, KindRefunded, "order_4", "pay_4"},
		{`{"id":"evt_5","event":"invoice.expired","payload":{}}`, KindIgnored, "", ""},
	}
	for _, tc := range cases {
		ev, err := g.ParseWebhookEvent([]byte(tc.body))
		require.NoError(t, err)
		assert.Equal(t, tc.kind, ev.Kind, tc.body)
		assert.Equal(t, tc.orderID, ev.OrderID, tc.body)
		assert.Equal(t, tc.paymentID, ev.PaymentID, tc.body)
	}

	ev, err := g.ParseWebhookEvent([]byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"error_description":"card declined"}}}}`))
	require.NoError(t, err)
	assert.Equal(t, "card declined", ev.Reason)
	assert.Len(t, ev.ID, 64, "deliveries without id are keyed by body hash")

	_, err = g.ParseWebhookEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewSelectsProvider(t *testing.T) {
	g, err := New(Config{Provider: "stripe", PublishableKey: "pk_test", StripeKey: "sk_test", StripeWebhook: "whsec_test"})
	require.NoError(t, err)
	assert.Equal(t, "stripe", g.Name())
	assert.Equal(t, "pk_test", g.KeyID())

	g, err = New(Config{Provider: "razorpay", KeyID: "rzp_key", KeySecret: "key_secret", WebhookSecret: "whsec"})
	require.NoError(t, err)
	assert.Equal(t, "razorpay", g.Name())
	assert.Equal(t, "X-Signature", g.SignatureHeader())

	_, err = New(Config{Provider: "paypal"})
	assert.Error(t, err)
}

func TestNewRequiresSigningSecrets(t *testing.T) {
	cases := []Config{
		{Provider: "razorpay"},
		{Provider: "razorpay", KeySecret: "key_secret"},
		{Provider: "", WebhookSecret: "whsec"},
		{Provider: "stripe", StripeKey: "sk_test"},
		{Provider: "stripe", StripeWebhook: "whsec_test"},
	}
	for _, cfg := range cases {
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrNoSecret, "%+v", cfg)
	}
}

func TestHMACEmptySecretsRejectEverything(t *testing.T) {
	g := NewHMACGateway("", "key_id", "", "", nil)
	body := []byte(`{"id":"evt_1","event":"payment.captured"}`)

	forgedCallback := hexHMAC("", []byte("order_1|pay_forged"))
	assert.ErrorIs(t, g.VerifyPayment(context.Background(), "order_1", "pay_forged", forgedCallback), ErrSignature)
	assert.ErrorIs(t, g.VerifyWebhookSignature(body, hexHMAC("", body)), ErrSignature)
}
