package common

import (
	"context"
	"eventpass/src/models"
	"eventpass/src/types"
	"log"
)

// SeatCounter owns Event.RegistrationCount. It is called by the payment
// reconciler once per registration payment-status transition, inside the
// reconciler's transaction.
type SeatCounter struct {
	events EventStore
}

func NewSeatCounter(events EventStore) *SeatCounter {
	return &SeatCounter{events: events}
}

func (s *SeatCounter) OnPaymentStatusChange(ctx context.Context, reg *models.Registration, oldStatus, newStatus types.PaymentStatus) error {
	switch {
	case oldStatus != types.PAYMENT_PAID && newStatus == types.PAYMENT_PAID:
		ev, err := s.events.LockEvent(ctx, reg.EventID)
		if err != nil {
			return err
		}
		if ev.RegistrationCount >= ev.Capacity {
			log.Printf("[seats] event %d is full (%d/%d), registration %d not counted\n", ev.ID, ev.RegistrationCount, ev.Capacity, reg.ID)
			return types.ErrEventFull
		}
		return s.events.SetEventRegistrationCount(ctx, ev.ID, ev.RegistrationCount+1)
	case oldStatus == types.PAYMENT_PAID && newStatus != types.PAYMENT_PAID:
		ev, err := s.events.LockEvent(ctx, reg.EventID)
		if err != nil {
			return err
		}
		if ev.RegistrationCount <= 0 {
			log.Printf("[seats] event %d count already 0 while releasing registration %d\n", ev.ID, reg.ID)
			return nil
		}
		return s.events.SetEventRegistrationCount(ctx, ev.ID, ev.RegistrationCount-1)
	}
	return nil
}
