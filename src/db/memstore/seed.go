package memstore

import (
	"eventpass/src/models"
	"slices"
)

// Seeding and inspection helpers for tests. They return copies.

func (s *Store) AddEvent(ev models.Event) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.ID = s.id()
	s.data.events[ev.ID] = ev
	return ev
}

func (s *Store) AddRegistration(r models.Registration) models.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	r.CreatedAt = s.now()
	r.UpdatedAt = r.CreatedAt
	s.data.registrations[r.ID] = r
	return r
}

func (s *Store) AddPayment(p models.Payment) models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.data.payments[p.ID] = p
	return p
}

func (s *Store) AddResource(r models.Resource) models.Resource {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.id()
	s.data.resources[r.ID] = r
	return r
}

func (s *Store) AddBooking(b models.ResourceBooking) models.ResourceBooking {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.id()
	s.data.bookings[b.ID] = b
	return b
}

func (s *Store) Event(id uint) models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.events[id]
}

func (s *Store) Registration(id uint) models.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.registrations[id]
}

func (s *Store) Payments() []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.data.payments, func(p models.Payment) uint { return p.ID })
}

func (s *Store) Tickets() []models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.data.tickets, func(t models.Ticket) uint { return t.ID })
}

func (s *Store) AttendanceLogs() []models.AttendanceLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.data.logs, func(l models.AttendanceLog) uint { return l.ID })
}

func (s *Store) WebhookEvents() []models.WebhookEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.data.webhooks, func(w models.WebhookEvent) uint { return w.ID })
}

func (s *Store) Bookings() []models.ResourceBooking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByID(s.data.bookings, func(b models.ResourceBooking) uint { return b.ID })
}

func sortedByID[T any](rows map[uint]T, id func(T) uint) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b T) int { return int(id(a)) - int(id(b)) })
	return out
}

func (s *Store) AddTicket(t models.Ticket) models.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.id()
	s.data.tickets[t.ID] = t
	return t
}
