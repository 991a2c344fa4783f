package lib

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventpass_payment_transitions_total",
		Help: "Payment reconciliation outcomes by entry point.",
	}, []string{"source", "outcome"})

	TicketsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "eventpass_tickets_issued_total",
		Help: "Tickets created.",
	})

	ScanResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventpass_attendance_scans_total",
		Help: "Gate scan results by status.",
	}, []string{"status"})

	WebhookDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "eventpass_webhook_deliveries_total",
		Help: "Webhook deliveries by provider and outcome.",
	}, []string{"provider", "outcome"})
)
