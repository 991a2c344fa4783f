package db

import (
	"context"
	"database/sql"
	"eventpass/src/models"
	"eventpass/src/types"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

func TestNewDB(t *testing.T) {
	gormDB, _ := NewMockDB(t)
	NewDB(gormDB)
	assert.Same(t, gormDB, GetDb())
}

func TestGetEventNotFound(t *testing.T) {
	gormDB, mock := NewMockDB(t)
	store := NewStore(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetEvent(context.Background(), 42)
	assert.ErrorIs(t, err, types.ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockEventSelectsForUpdate(t *testing.T) {
	gormDB, mock := NewMockDB(t)
	store := NewStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "events" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "capacity", "registration_count"}).AddRow(7, 10, 3))
	mock.ExpectExec(`UPDATE "events" SET "registration_count"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(ctx context.Context) error {
		ev, err := store.LockEvent(ctx, 7)
		if err != nil {
			return err
		}
		assert.Equal(t, 3, ev.RegistrationCount)
		return store.SetEventRegistrationCount(ctx, ev.ID, ev.RegistrationCount+1)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNestedWithTxJoinsOuterTransaction(t *testing.T) {
	gormDB, mock := NewMockDB(t)
	store := NewStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "registrations" WHERE .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "payment_status"}).AddRow(3, 7, "pending"))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(ctx context.Context) error {
		return store.WithTx(ctx, func(ctx context.Context) error {
			_, err := store.LockRegistration(ctx, 3)
			return err
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetQRTokenIsSetOnce(t *testing.T) {
	gormDB, mock := NewMockDB(t)
	store := NewStore(gormDB)

	mock.ExpectExec(`UPDATE "registrations" SET .* WHERE id = \$\d+ AND qr_token IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "registrations" SET .* WHERE id = \$\d+ AND qr_token IS NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	written, err := store.SetQRToken(context.Background(), 3, "first")
	require.NoError(t, err)
	assert.True(t, written)

	written, err = store.SetQRToken(context.Background(), 3, "second")
	require.NoError(t, err)
	assert.False(t, written)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTicketMapsUniqueViolations(t *testing.T) {
	cases := []struct {
		constraint string
		want       error
	}{
		{"idx_tickets_ticket_code", types.ErrDuplicateTicketCode},
		{"idx_tickets_registration_id", types.ErrTicketExists},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			gormDB, mock := NewMockDB(t)
			store := NewStore(gormDB)

			mock.ExpectBegin()
			mock.ExpectExec(`SAVEPOINT`).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`INSERT INTO "tickets"`).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tc.constraint})
			mock.ExpectExec(`ROLLBACK TO SAVEPOINT`).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectRollback()

			err := store.WithTx(context.Background(), func(ctx context.Context) error {
				return store.CreateTicket(ctx, &models.Ticket{
					RegistrationID: 3,
					TicketCode:     "EVT7-R3-ABCDEFGH",
					QRAssetPath:    "tickets/evt7-r3.png",
					GeneratedAt:    time.Now(),
				})
			})
			assert.ErrorIs(t, err, tc.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreatePaymentDuplicateOrder(t *testing.T) {
	gormDB, mock := NewMockDB(t)
	store := NewStore(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "payments"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_payments_gateway_order_id"})
	mock.ExpectRollback()

	err := store.CreatePayment(context.Background(), &models.Payment{
		RegistrationID: 3,
		Gateway:        "razorpay",
		GatewayOrderID: "order_123",
		Status:         types.TRANSACTION_PENDING,
		AmountMinor:    50000,
		Currency:       "INR",
	})
	assert.ErrorIs(t, err, types.ErrDuplicateOrder)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockPaymentByOrderIDNotFound(t *testing.T) {
	gormDB, mock := NewMockDB(t)
	store := NewStore(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "payments" WHERE gateway_order_id = .* FOR UPDATE`).
		WillReturnError(sql.ErrNoRows)

	_, err := store.LockPaymentByOrderID(context.Background(), "order_missing")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAbsentOnlyEndedEvents(t *testing.T) {
	gormDB, mock := NewMockDB(t)
	store := NewStore(gormDB)

	mock.ExpectExec(`UPDATE "registrations" SET .* WHERE attendance_status = .* AND event_id IN \(SELECT id FROM "events" WHERE end_at < `).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.MarkAbsent(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
