package db

import (
	"context"
	"eventpass/src/models"
	"eventpass/src/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	err := s.savepoint(ctx, func(tx *gorm.DB) error {
		return tx.Create(p).Error
	})
	if _, ok := uniqueViolation(err); ok {
		return types.ErrDuplicateOrder
	}
	return err
}

// LockPaymentByOrderID takes the row lock that orders concurrent completion
// signals for one gateway order.
func (s *Store) LockPaymentByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	var p models.Payment
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("gateway_order_id = ?", orderID).
		First(&p).
		Error
	if err != nil {
		return nil, notFound(err, types.ErrPaymentNotFound)
	}
	return &p, nil
}

func (s *Store) UpdatePayment(ctx context.Context, p *models.Payment) error {
	return s.conn(ctx).Save(p).Error
}
