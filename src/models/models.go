package models

// All lists the tables owned by the service, in dependency order.
func All() []any {
	return []any{
		&Event{},
		&Registration{},
		&Payment{},
		&Ticket{},
		&AttendanceLog{},
		&Resource{},
		&ResourceBooking{},
		&WebhookEvent{},
	}
}
