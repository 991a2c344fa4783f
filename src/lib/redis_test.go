package lib

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSessionSaveAndTake(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewScanSessionStore(rdb, 5*time.Minute)
	sess := ScanSession{
		RegistrationID: 3,
		EventID:        7,
		Scanner:        "gate-1",
		ScannedAt:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	b, _ := json.Marshal(sess)

	mock.ExpectSet("scan:registration:3", b, 5*time.Minute).SetVal("OK")
	mock.ExpectGetDel("scan:registration:3").SetVal(string(b))

	require.NoError(t, store.Save(context.Background(), sess))
	got, err := store.Take(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, sess, *got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanSessionTakeMissing(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewScanSessionStore(rdb, time.Minute)

	mock.ExpectGetDel("scan:registration:9").RedisNil()

	got, err := store.Take(context.Background(), 9)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLockAcquireAndRelease(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewLock(rdb, "locks:mark-absent")

	mock.ExpectSetNX("locks:mark-absent", l.token, time.Minute).SetVal(true)
	mock.ExpectEvalSha(releaseScript.Hash(), []string{"locks:mark-absent"}, l.token).SetVal(int64(1))

	ok, err := l.Acquire(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockHeldElsewhere(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewLock(rdb, "locks:mark-absent")

	mock.ExpectSetNX("locks:mark-absent", l.token, time.Minute).SetVal(false)
	mock.ExpectEvalSha(releaseScript.Hash(), []string{"locks:mark-absent"}, l.token).SetVal(int64(0))

	ok, err := l.Acquire(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, l.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
