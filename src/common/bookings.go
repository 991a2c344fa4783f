package common

import (
	"context"
	"eventpass/src/models"
	"eventpass/src/types"
	"fmt"
	"log"
	"strings"
	"time"
)

// MaxBookingDays is the longest date range a single booking may cover.
const MaxBookingDays = 366

type BookingService struct {
	store interface {
		TxRunner
		BookingStore
	}
}

func NewBookingService(store interface {
	TxRunner
	BookingStore
}) *BookingService {
	return &BookingService{store: store}
}

type BookingInput struct {
	ResourceID  uint
	EventID     *uint
	RequestedBy string
	StartDate   string
	EndDate     string
	StartTime   string
	EndTime     string
	Purpose     string
}

func (in BookingInput) window() (DailyWindow, error) {
	start, err := time.Parse(types.DATE_FORMAT, in.StartDate)
	if err != nil {
		return DailyWindow{}, fmt.Errorf("%w: invalid start_date", types.ErrValidation)
	}
	end, err := time.Parse(types.DATE_FORMAT, in.EndDate)
	if err != nil {
		return DailyWindow{}, fmt.Errorf("%w: invalid end_date", types.ErrValidation)
	}
	if end.Before(start) {
		return DailyWindow{}, fmt.Errorf("%w: end_date is before start_date", types.ErrValidation)
	}
	if end.Sub(start) >= MaxBookingDays*24*time.Hour {
		return DailyWindow{}, fmt.Errorf("%w: a booking covers at most %d days", types.ErrValidation, MaxBookingDays)
	}
	from, err := time.Parse(types.TIME_FORMAT, in.StartTime)
	if err != nil {
		return DailyWindow{}, fmt.Errorf("%w: invalid start_time", types.ErrValidation)
	}
	to, err := time.Parse(types.TIME_FORMAT, in.EndTime)
	if err != nil {
		return DailyWindow{}, fmt.Errorf("%w: invalid end_time", types.ErrValidation)
	}
	if !from.Before(to) {
		return DailyWindow{}, fmt.Errorf("%w: start_time must be before end_time", types.ErrValidation)
	}
	return DailyWindow{StartDate: start, EndDate: end, StartTime: in.StartTime, EndTime: in.EndTime}, nil
}

func bookingWindow(b models.ResourceBooking) DailyWindow {
	return DailyWindow{
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
	}
}

// Request books a resource for a daily window over a date range. Pending and
// approved bookings block the slot.
func (s *BookingService) Request(ctx context.Context, in BookingInput) (*models.ResourceBooking, error) {
	want, err := in.window()
	if err != nil {
		return nil, err
	}
	var booking *models.ResourceBooking
	err = s.store.WithTx(ctx, func(ctx context.Context) error {
		res, err := s.store.LockResource(ctx, in.ResourceID)
		if err != nil {
			return err
		}
		loc, err := time.LoadLocation(res.Timezone)
		if err != nil {
			log.Printf("[bookings] resource %d has unknown timezone %q, using UTC\n", res.ID, res.Timezone)
			loc = time.UTC
		}
		active, err := s.store.ListActiveBookings(ctx, res.ID, want.StartDate, want.EndDate)
		if err != nil {
			return err
		}
		for _, b := range active {
			clash, err := WindowsConflict(want, bookingWindow(b), loc)
			if err != nil {
				return err
			}
			if clash {
				log.Printf("[bookings] resource %d request by %s clashes with booking %d\n", res.ID, in.RequestedBy, b.ID)
				return types.ErrBookingConflict
			}
		}
		booking = &models.ResourceBooking{
			ResourceID:  res.ID,
			EventID:     in.EventID,
			RequestedBy: in.RequestedBy,
			StartDate:   want.StartDate,
			EndDate:     want.EndDate,
			StartTime:   in.StartTime,
			EndTime:     in.EndTime,
			Purpose:     strings.TrimSpace(in.Purpose),
			Status:      types.BOOKING_PENDING,
		}
		return s.store.CreateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}
