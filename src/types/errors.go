package types

import (
	"errors"
	"net/http"
)

type ErrorCode string

const (
	CodeValidation              ErrorCode = "validation_error"
	CodeSignatureInvalid        ErrorCode = "signature_invalid"
	CodeWebhookSignatureInvalid ErrorCode = "webhook_signature_invalid"
	CodeInvalidToken            ErrorCode = "invalid_token"
	CodeSignatureMismatch       ErrorCode = "signature_mismatch"
	CodeExpiredToken            ErrorCode = "expired_token"
	CodeEventMismatch           ErrorCode = "event_mismatch"
	CodeAlreadyProcessed        ErrorCode = "already_processed"
	CodeConflict                ErrorCode = "conflict"
	CodeNotFound                ErrorCode = "not_found"
	CodeGatewayUnavailable      ErrorCode = "gateway_unavailable"
	CodeInvariantViolation      ErrorCode = "internal_invariant_violation"
	CodeInternal                ErrorCode = "internal_error"
)

// Error is a classified failure. Sentinel values below are compared with
// errors.Is and may be wrapped with fmt.Errorf("%w").
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

var (
	ErrValidation              = NewError(CodeValidation, "invalid request")
	ErrEventNotFound           = NewError(CodeNotFound, "event not found")
	ErrRegistrationNotFound    = NewError(CodeNotFound, "registration not found")
	ErrPaymentNotFound         = NewError(CodeNotFound, "payment not found")
	ErrTicketNotFound          = NewError(CodeNotFound, "ticket not found")
	ErrAttendanceLogNotFound   = NewError(CodeNotFound, "attendance log not found")
	ErrResourceNotFound        = NewError(CodeNotFound, "resource not found")
	ErrEventClosed             = NewError(CodeValidation, "event is no longer accepting registrations")
	ErrRegistrationUnpaid      = NewError(CodeConflict, "registration has not been paid")
	ErrEventFull               = NewError(CodeConflict, "event is fully booked")
	ErrBookingConflict         = NewError(CodeConflict, "resource is already booked for the requested time")
	ErrDuplicateOrder          = NewError(CodeConflict, "gateway order already recorded")
	ErrDuplicateTicketCode     = NewError(CodeConflict, "ticket code already in use")
	ErrTicketExists            = NewError(CodeConflict, "ticket already issued for registration")
	ErrPaymentTerminal         = NewError(CodeConflict, "payment is in a terminal state")
	ErrSignatureInvalid        = NewError(CodeSignatureInvalid, "payment signature verification failed")
	ErrWebhookSignatureInvalid = NewError(CodeWebhookSignatureInvalid, "webhook signature verification failed")
	ErrInvalidToken            = NewError(CodeInvalidToken, "invalid ticket token")
	ErrSignatureMismatch       = NewError(CodeSignatureMismatch, "ticket token signature mismatch")
	ErrExpiredToken            = NewError(CodeExpiredToken, "ticket token expired")
	ErrEventMismatch           = NewError(CodeEventMismatch, "ticket belongs to another event")
	ErrAlreadyMarked           = NewError(CodeAlreadyProcessed, "attendance already marked")
	ErrGatewayUnavailable      = NewError(CodeGatewayUnavailable, "payment gateway unavailable")
	ErrRegistrationNotPaid     = NewError(CodeInvariantViolation, "ticket requested for an unpaid registration")
)

// CodeOf returns the taxonomy code of err, CodeInternal when unclassified.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeValidation, CodeWebhookSignatureInvalid, CodeInvalidToken, CodeSignatureMismatch:
		return http.StatusBadRequest
	case CodeSignatureInvalid:
		return http.StatusUnauthorized
	case CodeExpiredToken, CodeEventMismatch:
		return http.StatusUnprocessableEntity
	case CodeAlreadyProcessed:
		return http.StatusOK
	case CodeConflict:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeGatewayUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
