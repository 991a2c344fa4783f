package common

import (
	"context"
	"eventpass/src/db/memstore"
	"eventpass/src/models"
	"eventpass/src/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingRequest(t *testing.T) {
	store := memstore.New()
	hall := store.AddResource(models.Resource{Name: "Main Hall", Timezone: "Asia/Kolkata"})
	store.AddBooking(models.ResourceBooking{
		ResourceID: hall.ID,
		StartDate:  day("2025-03-10"),
		EndDate:    day("2025-03-12"),
		StartTime:  "09:00",
		EndTime:    "11:00",
		Status:     types.BOOKING_APPROVED,
	})
	store.AddBooking(models.ResourceBooking{
		ResourceID: hall.ID,
		StartDate:  day("2025-03-20"),
		EndDate:    day("2025-03-20"),
		StartTime:  "09:00",
		EndTime:    "18:00",
		Status:     types.BOOKING_CANCELLED,
	})
	svc := NewBookingService(store)

	tests := []struct {
		name string
		in   BookingInput
		want error
	}{
		{"overlaps approved booking", BookingInput{StartDate: "2025-03-12", EndDate: "2025-03-13", StartTime: "10:00", EndTime: "12:00"}, types.ErrBookingConflict},
		{"back to back", BookingInput{StartDate: "2025-03-11", EndDate: "2025-03-11", StartTime: "11:00", EndTime: "12:00"}, nil},
		{"cancelled slot is free", BookingInput{StartDate: "2025-03-20", EndDate: "2025-03-20", StartTime: "10:00", EndTime: "12:00"}, nil},
		{"end before start", BookingInput{StartDate: "2025-03-21", EndDate: "2025-03-20", StartTime: "10:00", EndTime: "12:00"}, types.ErrValidation},
		{"empty window", BookingInput{StartDate: "2025-03-21", EndDate: "2025-03-21", StartTime: "12:00", EndTime: "12:00"}, types.ErrValidation},
		{"range too long", BookingInput{StartDate: "0001-01-01", EndDate: "9999-12-31", StartTime: "10:00", EndTime: "12:00"}, types.ErrValidation},
		{"one year", BookingInput{StartDate: "2026-01-01", EndDate: "2026-12-31", StartTime: "19:00", EndTime: "20:00"}, nil},
		{"bad date", BookingInput{StartDate: "21/03/2025", EndDate: "2025-03-21", StartTime: "10:00", EndTime: "12:00"}, types.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			in.ResourceID = hall.ID
			in.RequestedBy = "clubs-office"
			b, err := svc.Request(context.Background(), in)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, types.BOOKING_PENDING, b.Status)
			assert.Equal(t, "clubs-office", b.RequestedBy)
		})
	}
}

func TestBookingPendingBlocksSlot(t *testing.T) {
	store := memstore.New()
	hall := store.AddResource(models.Resource{Name: "Lab 2", Timezone: "UTC"})
	svc := NewBookingService(store)
	in := BookingInput{ResourceID: hall.ID, StartDate: "2025-05-01", EndDate: "2025-05-01", StartTime: "14:00", EndTime: "15:00"}

	_, err := svc.Request(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.Request(context.Background(), in)
	assert.ErrorIs(t, err, types.ErrBookingConflict)
	assert.Len(t, store.Bookings(), 1)
}

func TestBookingUnknownResource(t *testing.T) {
	svc := NewBookingService(memstore.New())
	_, err := svc.Request(context.Background(), BookingInput{ResourceID: 5, StartDate: "2025-05-01", EndDate: "2025-05-01", StartTime: "14:00", EndTime: "15:00"})
	assert.ErrorIs(t, err, types.ErrResourceNotFound)
}
