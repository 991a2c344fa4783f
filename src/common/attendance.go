package common

import (
	"context"
	"errors"
	"eventpass/src/lib"
	"eventpass/src/lib/qrtoken"
	"eventpass/src/models"
	"eventpass/src/types"
	"fmt"
	"log"
	"time"
)

// ScanSessions remembers a gate scan until staff confirm it.
type ScanSessions interface {
	Save(ctx context.Context, sess lib.ScanSession) error
	Take(ctx context.Context, registrationID uint) (*lib.ScanSession, error)
}

// AttendanceFeed receives confirmed and revoked attendance for live
// dashboards.
type AttendanceFeed interface {
	Publish(ctx context.Context, eventID uint, kind string, data any) error
}

const (
	FeedAttendanceConfirmed = "attendance.confirmed"
	FeedAttendanceRevoked   = "attendance.revoked"
)

type attendanceStore interface {
	TxRunner
	AttendanceStore
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	GetRegistration(ctx context.Context, id uint) (*models.Registration, error)
	LockRegistration(ctx context.Context, id uint) (*models.Registration, error)
	SetAttendanceStatus(ctx context.Context, id uint, status types.AttendanceStatus) error
	MarkAbsent(ctx context.Context, now time.Time) (int64, error)
}

type Verifier struct {
	store    attendanceStore
	signer   *qrtoken.Signer
	sessions ScanSessions
	feed     AttendanceFeed
	now      func() time.Time
}

func NewVerifier(store attendanceStore, signer *qrtoken.Signer, sessions ScanSessions) *Verifier {
	return &Verifier{store: store, signer: signer, sessions: sessions, now: time.Now}
}

// WithFeed sets the feed that confirmed and revoked logs are published to.
func (v *Verifier) WithFeed(feed AttendanceFeed) *Verifier {
	v.feed = feed
	return v
}

func (v *Verifier) publish(ctx context.Context, kind string, entry *models.AttendanceLog) {
	if v.feed == nil || entry == nil {
		return
	}
	if err := v.feed.Publish(ctx, entry.EventID, kind, entry); err != nil {
		log.Printf("[attendance] publish %s for log %d failed: %s\n", kind, entry.ID, err.Error())
	}
}

type ScanInput struct {
	EventID uint
	QRValue string
	Scanner string
}

type ScanResult struct {
	Status         types.ScanStatus `json:"status"`
	RegistrationID uint             `json:"registration_id,omitempty"`
	StudentName    string           `json:"student_name,omitempty"`
	StudentEmail   string           `json:"student_email,omitempty"`
}

// Scan authenticates a presented QR value for the event being admitted. It
// does not change attendance.
func (v *Verifier) Scan(ctx context.Context, in ScanInput) (*ScanResult, error) {
	res, err := v.scan(ctx, in)
	if err != nil {
		lib.ScanResults.WithLabelValues(string(types.CodeOf(err))).Inc()
		return nil, err
	}
	lib.ScanResults.WithLabelValues(string(res.Status)).Inc()
	return res, nil
}

func (v *Verifier) scan(ctx context.Context, in ScanInput) (*ScanResult, error) {
	payload, err := v.signer.Verify(in.QRValue)
	if err != nil {
		return nil, tokenError(err)
	}
	if payload.EventID != in.EventID {
		log.Printf("[attendance] ticket of event %d scanned at event %d by %s\n", payload.EventID, in.EventID, in.Scanner)
		return nil, types.ErrEventMismatch
	}
	reg, err := v.store.GetRegistration(ctx, payload.RegistrationID)
	if err != nil {
		return nil, err
	}
	if reg.EventID != in.EventID {
		return nil, types.ErrEventMismatch
	}
	if reg.QRToken == nil || *reg.QRToken != in.QRValue {
		log.Printf("[attendance] stale token presented for registration %d\n", reg.ID)
		return nil, types.ErrExpiredToken
	}
	if err := v.requirePaid(ctx, reg); err != nil {
		return nil, err
	}

	res := &ScanResult{
		RegistrationID: reg.ID,
		StudentName:    reg.StudentName,
		StudentEmail:   reg.StudentEmail,
	}
	if reg.IsPresent() {
		res.Status = types.SCAN_ALREADY_MARKED
		return res, nil
	}
	res.Status = types.SCAN_CONFIRM
	if v.sessions != nil {
		sess := lib.ScanSession{
			RegistrationID: reg.ID,
			EventID:        reg.EventID,
			Scanner:        in.Scanner,
			ScannedAt:      v.now().UTC(),
		}
		if err := v.sessions.Save(ctx, sess); err != nil {
			log.Printf("[attendance] could not save scan session for registration %d: %s\n", reg.ID, err.Error())
		}
	}
	return res, nil
}

func (v *Verifier) requirePaid(ctx context.Context, reg *models.Registration) error {
	if reg.IsPaid() {
		return nil
	}
	ev, err := v.store.GetEvent(ctx, reg.EventID)
	if err != nil {
		return err
	}
	if ev.IsFree() {
		return nil
	}
	return types.ErrRegistrationUnpaid
}

type ConfirmResult struct {
	Status types.ScanStatus `json:"status"`
	LogID  uint             `json:"log_id,omitempty"`
}

// Confirm marks the registration present and appends an attendance log.
// A registration that is already present is reported without a new log.
func (v *Verifier) Confirm(ctx context.Context, registrationID uint, scanner string) (*ConfirmResult, error) {
	out := &ConfirmResult{}
	var created *models.AttendanceLog
	err := v.store.WithTx(ctx, func(ctx context.Context) error {
		reg, err := v.store.LockRegistration(ctx, registrationID)
		if err != nil {
			return err
		}
		if reg.IsPresent() {
			out.Status = types.SCAN_ALREADY_MARKED
			return nil
		}
		if err := v.requirePaid(ctx, reg); err != nil {
			return err
		}

		now := v.now().UTC()
		scannedAt := now
		if v.sessions != nil {
			sess, err := v.sessions.Take(ctx, reg.ID)
			if err != nil {
				log.Printf("[attendance] scan session lookup for registration %d failed: %s\n", reg.ID, err.Error())
			} else if sess != nil && sess.EventID == reg.EventID {
				scannedAt = sess.ScannedAt
			}
		}

		if err := v.store.SetAttendanceStatus(ctx, reg.ID, types.ATTENDANCE_PRESENT); err != nil {
			return err
		}
		entry := &models.AttendanceLog{
			RegistrationID: reg.ID,
			EventID:        reg.EventID,
			ScannedAt:      scannedAt,
			ConfirmedAt:    now,
			Scanner:        scanner,
		}
		if err := v.store.CreateAttendanceLog(ctx, entry); err != nil {
			return err
		}
		out.Status = types.SCAN_SUCCESS
		out.LogID = entry.ID
		created = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	lib.ScanResults.WithLabelValues("confirm_" + string(out.Status)).Inc()
	v.publish(ctx, FeedAttendanceConfirmed, created)
	return out, nil
}

// Revoke cancels an attendance log and returns the registration to pending.
// Revoking a revoked log succeeds without changes.
func (v *Verifier) Revoke(ctx context.Context, logID uint, actor string) error {
	var revoked *models.AttendanceLog
	err := v.store.WithTx(ctx, func(ctx context.Context) error {
		entry, err := v.store.LockAttendanceLog(ctx, logID)
		if err != nil {
			return err
		}
		if entry.IsRevoked {
			return nil
		}
		now := v.now().UTC()
		entry.IsRevoked = true
		entry.RevokedAt = &now
		entry.RevokedBy = &actor
		if err := v.store.UpdateAttendanceLog(ctx, entry); err != nil {
			return err
		}
		if _, err := v.store.LockRegistration(ctx, entry.RegistrationID); err != nil {
			return err
		}
		log.Printf("[attendance] log %d revoked by %s\n", entry.ID, actor)
		revoked = entry
		return v.store.SetAttendanceStatus(ctx, entry.RegistrationID, types.ATTENDANCE_PENDING)
	})
	if err != nil {
		return err
	}
	v.publish(ctx, FeedAttendanceRevoked, revoked)
	return nil
}

// MarkAbsent turns pending attendance into absent for every event that
// ended before now.
func (v *Verifier) MarkAbsent(ctx context.Context, now time.Time) (int64, error) {
	n, err := v.store.MarkAbsent(ctx, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("[attendance] %d registrations marked absent\n", n)
	}
	return n, nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, qrtoken.ErrExpired):
		return types.ErrExpiredToken
	case errors.Is(err, qrtoken.ErrSignatureMismatch):
		return types.ErrSignatureMismatch
	case errors.Is(err, qrtoken.ErrMalformed), errors.Is(err, qrtoken.ErrMalformedPayload):
		return types.ErrInvalidToken
	}
	return fmt.Errorf("verify ticket token: %w", err)
}
