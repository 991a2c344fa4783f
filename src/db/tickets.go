package db

import (
	"context"
	"eventpass/src/models"
	"eventpass/src/types"

	"gorm.io/gorm"
)

func (s *Store) GetTicketByRegistration(ctx context.Context, registrationID uint) (*models.Ticket, error) {
	var t models.Ticket
	err := s.conn(ctx).
		Where("registration_id = ?", registrationID).
		First(&t).
		Error
	if err != nil {
		return nil, notFound(err, types.ErrTicketNotFound)
	}
	return &t, nil
}

func (s *Store) GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error) {
	var t models.Ticket
	err := s.conn(ctx).
		Where("ticket_code = ?", code).
		First(&t).
		Error
	if err != nil {
		return nil, notFound(err, types.ErrTicketNotFound)
	}
	return &t, nil
}

// CreateTicket inserts t inside a savepoint so a code collision can be
// retried in the same transaction.
func (s *Store) CreateTicket(ctx context.Context, t *models.Ticket) error {
	err := s.savepoint(ctx, func(tx *gorm.DB) error {
		return tx.Create(t).Error
	})
	if constraint, ok := uniqueViolation(err); ok {
		if constraint == "idx_tickets_registration_id" {
			return types.ErrTicketExists
		}
		return types.ErrDuplicateTicketCode
	}
	return err
}
