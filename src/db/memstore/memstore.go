// Package memstore is an in-memory implementation of the service store
// ports. Transactions are serialized, which gives every WithTx call the
// isolation the row locks provide in PostgreSQL, and are rolled back by
// restoring a snapshot.
package memstore

import (
	"context"
	"errors"
	"eventpass/src/models"
	"eventpass/src/types"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
	"unicode/utf8"
)

// ErrUniqueViolation stands in for a unique index the services never map.
var ErrUniqueViolation = errors.New("memstore: unique constraint violated")

type txKey struct{}

type tables struct {
	events        map[uint]models.Event
	registrations map[uint]models.Registration
	payments      map[uint]models.Payment
	tickets       map[uint]models.Ticket
	logs          map[uint]models.AttendanceLog
	resources     map[uint]models.Resource
	bookings      map[uint]models.ResourceBooking
	webhooks      map[uint]models.WebhookEvent
}

func (t tables) clone() tables {
	return tables{
		events:        maps.Clone(t.events),
		registrations: maps.Clone(t.registrations),
		payments:      maps.Clone(t.payments),
		tickets:       maps.Clone(t.tickets),
		logs:          maps.Clone(t.logs),
		resources:     maps.Clone(t.resources),
		bookings:      maps.Clone(t.bookings),
		webhooks:      maps.Clone(t.webhooks),
	}
}

type Store struct {
	mu     sync.Mutex
	data   tables
	nextID uint
	now    func() time.Time
}

func New() *Store {
	return &Store{
		data: tables{
			events:        map[uint]models.Event{},
			registrations: map[uint]models.Registration{},
			payments:      map[uint]models.Payment{},
			tickets:       map[uint]models.Ticket{},
			logs:          map[uint]models.AttendanceLog{},
			resources:     map[uint]models.Resource{},
			bookings:      map[uint]models.ResourceBooking{},
			webhooks:      map[uint]models.WebhookEvent{},
		},
		now: time.Now,
	}
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// do runs fn with exclusive access. Calls inside WithTx already hold it.
func (s *Store) do(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	var out *models.Event
	err := s.do(ctx, func() error {
		ev, ok := s.data.events[id]
		if !ok {
			return types.ErrEventNotFound
		}
		out = &ev
		return nil
	})
	return out, err
}

func (s *Store) LockEvent(ctx context.Context, id uint) (*models.Event, error) {
	return s.GetEvent(ctx, id)
}

func (s *Store) SetEventRegistrationCount(ctx context.Context, id uint, count int) error {
	return s.do(ctx, func() error {
		ev, ok := s.data.events[id]
		if !ok {
			return types.ErrEventNotFound
		}
		if count < 0 || count > ev.Capacity {
			return errors.New("memstore: chk_events_registration_count violated")
		}
		ev.RegistrationCount = count
		s.data.events[id] = ev
		return nil
	})
}

func (s *Store) FindOrCreateRegistration(ctx context.Context, reg *models.Registration) (*models.Registration, bool, error) {
	var out *models.Registration
	created := false
	err := s.do(ctx, func() error {
		for _, r := range s.data.registrations {
			if r.EventID == reg.EventID && r.StudentEmail == reg.StudentEmail {
				out = &r
				return nil
			}
		}
		row := *reg
		row.ID = s.id()
		row.CreatedAt = s.now()
		row.UpdatedAt = row.CreatedAt
		s.data.registrations[row.ID] = row
		*reg = row
		out, created = reg, true
		return nil
	})
	return out, created, err
}

func (s *Store) GetRegistration(ctx context.Context, id uint) (*models.Registration, error) {
	var out *models.Registration
	err := s.do(ctx, func() error {
		r, ok := s.data.registrations[id]
		if !ok {
			return types.ErrRegistrationNotFound
		}
		out = &r
		return nil
	})
	return out, err
}

func (s *Store) LockRegistration(ctx context.Context, id uint) (*models.Registration, error) {
	return s.GetRegistration(ctx, id)
}

func (s *Store) updateRegistration(ctx context.Context, id uint, fn func(r *models.Registration) bool) (bool, error) {
	changed := false
	err := s.do(ctx, func() error {
		r, ok := s.data.registrations[id]
		if !ok {
			return nil
		}
		if changed = fn(&r); changed {
			r.UpdatedAt = s.now()
			s.data.registrations[id] = r
		}
		return nil
	})
	return changed, err
}

func (s *Store) SetPaymentStatus(ctx context.Context, id uint, status types.PaymentStatus) error {
	_, err := s.updateRegistration(ctx, id, func(r *models.Registration) bool {
		r.PaymentStatus = status
		return true
	})
	return err
}

func (s *Store) SetAttendanceStatus(ctx context.Context, id uint, status types.AttendanceStatus) error {
	_, err := s.updateRegistration(ctx, id, func(r *models.Registration) bool {
		r.AttendanceStatus = status
		return true
	})
	return err
}

func (s *Store) SetQRToken(ctx context.Context, id uint, token string) (bool, error) {
	return s.updateRegistration(ctx, id, func(r *models.Registration) bool {
		if r.QRToken != nil {
			return false
		}
		r.QRToken = &token
		return true
	})
}

func (s *Store) MarkAbsent(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := s.do(ctx, func() error {
		for id, r := range s.data.registrations {
			ev, ok := s.data.events[r.EventID]
			if !ok || !ev.EndAt.Before(now) || r.AttendanceStatus != types.ATTENDANCE_PENDING {
				continue
			}
			r.AttendanceStatus = types.ATTENDANCE_ABSENT
			r.UpdatedAt = s.now()
			s.data.registrations[id] = r
			n++
		}
		return nil
	})
	return n, err
}

func checkPaymentColumns(p *models.Payment) error {
	if p.FailureReason != nil && utf8.RuneCountInString(*p.FailureReason) > models.FailureReasonSize {
		return fmt.Errorf("memstore: value too long for failure_reason (%d)", models.FailureReasonSize)
	}
	return nil
}

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	return s.do(ctx, func() error {
		if err := checkPaymentColumns(p); err != nil {
			return err
		}
		for _, existing := range s.data.payments {
			if existing.GatewayOrderID == p.GatewayOrderID {
				return types.ErrDuplicateOrder
			}
		}
		p.ID = s.id()
		p.CreatedAt = s.now()
		p.UpdatedAt = p.CreatedAt
		s.data.payments[p.ID] = *p
		return nil
	})
}

func (s *Store) LockPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var out *models.Payment
	err := s.do(ctx, func() error {
		for _, p := range s.data.payments {
			if p.GatewayOrderID == orderID {
				out = &p
				return nil
			}
		}
		return types.ErrPaymentNotFound
	})
	return out, err
}

func (s *Store) UpdatePayment(ctx context.Context, p *models.Payment) error {
	return s.do(ctx, func() error {
		if _, ok := s.data.payments[p.ID]; !ok {
			return types.ErrPaymentNotFound
		}
		if err := checkPaymentColumns(p); err != nil {
			return err
		}
		if p.Status == types.TRANSACTION_SUCCESS {
			for _, other := range s.data.payments {
				if other.ID != p.ID && other.RegistrationID == p.RegistrationID && other.Status == types.TRANSACTION_SUCCESS {
					return ErrUniqueViolation
				}
			}
		}
		p.UpdatedAt = s.now()
		s.data.payments[p.ID] = *p
		return nil
	})
}

func (s *Store) GetTicketByRegistration(ctx context.Context, registrationID uint) (*models.Ticket, error) {
	return s.findTicket(ctx, func(t models.Ticket) bool { return t.RegistrationID == registrationID })
}

func (s *Store) GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error) {
	return s.findTicket(ctx, func(t models.Ticket) bool { return t.TicketCode == code })
}

func (s *Store) findTicket(ctx context.Context, match func(models.Ticket) bool) (*models.Ticket, error) {
	var out *models.Ticket
	err := s.do(ctx, func() error {
		for _, t := range s.data.tickets {
			if match(t) {
				out = &t
				return nil
			}
		}
		return types.ErrTicketNotFound
	})
	return out, err
}

func (s *Store) CreateTicket(ctx context.Context, t *models.Ticket) error {
	return s.do(ctx, func() error {
		for _, existing := range s.data.tickets {
			if existing.RegistrationID == t.RegistrationID {
				return types.ErrTicketExists
			}
			if existing.TicketCode == t.TicketCode {
				return types.ErrDuplicateTicketCode
			}
		}
		t.ID = s.id()
		s.data.tickets[t.ID] = *t
		return nil
	})
}

func (s *Store) CreateAttendanceLog(ctx context.Context, l *models.AttendanceLog) error {
	return s.do(ctx, func() error {
		l.ID = s.id()
		s.data.logs[l.ID] = *l
		return nil
	})
}

func (s *Store) LockAttendanceLog(ctx context.Context, id uint) (*models.AttendanceLog, error) {
	var out *models.AttendanceLog
	err := s.do(ctx, func() error {
		l, ok := s.data.logs[id]
		if !ok {
			return types.ErrAttendanceLogNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

func (s *Store) UpdateAttendanceLog(ctx context.Context, l *models.AttendanceLog) error {
	return s.do(ctx, func() error {
		row, ok := s.data.logs[l.ID]
		if !ok {
			return types.ErrAttendanceLogNotFound
		}
		row.IsRevoked = l.IsRevoked
		row.RevokedAt = l.RevokedAt
		row.RevokedBy = l.RevokedBy
		s.data.logs[l.ID] = row
		return nil
	})
}

func (s *Store) LockResource(ctx context.Context, id uint) (*models.Resource, error) {
	var out *models.Resource
	err := s.do(ctx, func() error {
		r, ok := s.data.resources[id]
		if !ok {
			return types.ErrResourceNotFound
		}
		out = &r
		return nil
	})
	return out, err
}

func (s *Store) ListActiveBookings(ctx context.Context, resourceID uint, start, end time.Time) ([]models.ResourceBooking, error) {
	var out []models.ResourceBooking
	err := s.do(ctx, func() error {
		for _, b := range s.data.bookings {
			if b.ResourceID != resourceID {
				continue
			}
			if b.Status != types.BOOKING_PENDING && b.Status != types.BOOKING_APPROVED {
				continue
			}
			if b.StartDate.After(end) || b.EndDate.Before(start) {
				continue
			}
			out = append(out, b)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b models.ResourceBooking) int { return a.StartDate.Compare(b.StartDate) })
	return out, err
}

func (s *Store) CreateBooking(ctx context.Context, b *models.ResourceBooking) error {
	return s.do(ctx, func() error {
		b.ID = s.id()
		b.CreatedAt = s.now()
		b.UpdatedAt = b.CreatedAt
		s.data.bookings[b.ID] = *b
		return nil
	})
}

func (s *Store) RecordWebhookEvent(ctx context.Context, e *models.WebhookEvent) (*models.WebhookEvent, error) {
	var out *models.WebhookEvent
	err := s.do(ctx, func() error {
		for _, existing := range s.data.webhooks {
			if existing.Provider == e.Provider && existing.ProviderEventID == e.ProviderEventID {
				out = &existing
				return nil
			}
		}
		e.ID = s.id()
		e.CreatedAt = s.now()
		s.data.webhooks[e.ID] = *e
		out = e
		return nil
	})
	return out, err
}

func (s *Store) MarkWebhookProcessed(ctx context.Context, id uint, processed bool, processingErr error) error {
	return s.do(ctx, func() error {
		row, ok := s.data.webhooks[id]
		if !ok {
			return nil
		}
		row.ProcessingError = nil
		if processingErr != nil {
			msg := processingErr.Error()
			row.ProcessingError = &msg
		}
		if processed {
			now := s.now().UTC()
			row.ProcessedAt = &now
		}
		s.data.webhooks[id] = row
		return nil
	})
}
