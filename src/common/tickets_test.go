package common

import (
	"context"
	"eventpass/src/models"
	"eventpass/src/types"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketCodeFormat(t *testing.T) {
	assert.Equal(t, "EVT3-R41-ABCD1234", TicketCode(3, 41, "ABCD1234"))
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{8}$`), RandomTicketSuffix())
}

func sequence(values ...string) func() string {
	i := 0
	return func() string {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestIssueRequiresPaidRegistration(t *testing.T) {
	f := newFixture(t)
	ev := f.paidEvent(10)
	reg := f.pendingRegistration(ev, "a@uni.edu")

	_, _, err := f.tickets.Issue(context.Background(), &reg)
	assert.ErrorIs(t, err, types.ErrRegistrationNotPaid)
	assert.Equal(t, types.CodeInvariantViolation, types.CodeOf(err))
	assert.Empty(t, f.store.Tickets())
}

func TestIssueFreeEventWithoutPayment(t *testing.T) {
	f := newFixture(t)
	ev := f.freeEvent(10)
	reg := f.pendingRegistration(ev, "a@uni.edu")

	ticket, created, err := f.tickets.Issue(context.Background(), &reg)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, reg.ID, ticket.RegistrationID)
	assert.Equal(t, "tmp/"+ticket.TicketCode+".jpeg", ticket.QRAssetPath)
}

func TestIssueIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ev := f.freeEvent(10)
	reg := f.pendingRegistration(ev, "a@uni.edu")

	first, created, err := f.tickets.Issue(context.Background(), &reg)
	require.NoError(t, err)
	require.True(t, created)
	token := f.store.Registration(reg.ID).QRToken
	require.NotNil(t, token)

	second, created, err := f.tickets.Issue(context.Background(), &reg)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.TicketCode, second.TicketCode)
	assert.Equal(t, *token, *f.store.Registration(reg.ID).QRToken)
	assert.Len(t, f.store.Tickets(), 1)
}

func TestIssueKeepsExistingToken(t *testing.T) {
	f := newFixture(t)
	ev := f.freeEvent(10)
	token := "minted-earlier"
	reg := f.store.AddRegistration(models.Registration{
		EventID:       ev.ID,
		StudentName:   "Asha",
		StudentEmail:  "a@uni.edu",
		PaymentStatus: types.PAYMENT_PAID,
		QRToken:       &token,
	})

	_, _, err := f.tickets.Issue(context.Background(), &reg)
	require.NoError(t, err)
	assert.Equal(t, token, *f.store.Registration(reg.ID).QRToken)
}

func TestIssueTokenVerifies(t *testing.T) {
	f := newFixture(t)
	ev := f.freeEvent(10)
	reg := f.pendingRegistration(ev, "a@uni.edu")
	f.tickets.now = func() time.Time { return time.Now().Add(-time.Hour) }

	_, _, err := f.tickets.Issue(context.Background(), &reg)
	require.NoError(t, err)

	payload, err := f.signer.Verify(*f.store.Registration(reg.ID).QRToken)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, payload.RegistrationID)
	assert.Equal(t, ev.ID, payload.EventID)
	assert.Equal(t, "a@uni.edu", payload.StudentEmail)
}

func TestIssueRetriesCodeCollision(t *testing.T) {
	f := newFixture(t)
	ev := f.freeEvent(10)
	reg := f.pendingRegistration(ev, "a@uni.edu")
	taken := TicketCode(ev.ID, reg.ID, "AAAAAAAA")
	f.store.AddTicket(models.Ticket{RegistrationID: 9999, TicketCode: taken, GeneratedAt: time.Now()})
	f.tickets.suffix = sequence("AAAAAAAA", "BBBBBBBB")

	ticket, created, err := f.tickets.Issue(context.Background(), &reg)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, TicketCode(ev.ID, reg.ID, "BBBBBBBB"), ticket.TicketCode)
	assert.Equal(t, []string{taken, ticket.TicketCode}, f.renderer.codes)
}

func TestIssueGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture(t)
	ev := f.freeEvent(10)
	reg := f.pendingRegistration(ev, "a@uni.edu")
	f.store.AddTicket(models.Ticket{RegistrationID: 9999, TicketCode: TicketCode(ev.ID, reg.ID, "AAAAAAAA"), GeneratedAt: time.Now()})
	f.tickets.suffix = sequence("AAAAAAAA")

	_, _, err := f.tickets.Issue(context.Background(), &reg)
	assert.ErrorIs(t, err, types.ErrDuplicateTicketCode)
	assert.Len(t, f.renderer.codes, ticketCodeAttempts)
	assert.Nil(t, f.store.Registration(reg.ID).QRToken)
}
