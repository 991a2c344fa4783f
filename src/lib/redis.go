package lib

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

func GetRedisClient() *redis.Client {
	if redisClient != nil {
		return redisClient
	}
	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		return nil
	}
	opt, err := redis.ParseURL(redisHost)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil
	}
	rdb := redis.NewClient(opt)
	redisClient = rdb
	return rdb
}

// NewRedisClient Replace redis instance with custom client implementation
func NewRedisClient(c *redis.Client) *redis.Client {
	redisClient = c
	return redisClient
}

// ScanSession is what a gate scan remembers until staff confirm it.
type ScanSession struct {
	RegistrationID uint      `json:"registration_id"`
	EventID        uint      `json:"event_id"`
	Scanner        string    `json:"scanner"`
	ScannedAt      time.Time `json:"scanned_at"`
}

type ScanSessionStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewScanSessionStore(rdb redis.Cmdable, ttl time.Duration) *ScanSessionStore {
	return &ScanSessionStore{rdb: rdb, ttl: ttl}
}

func scanSessionKey(registrationID uint) string {
	return fmt.Sprintf("scan:registration:%d", registrationID)
}

func (s *ScanSessionStore) Save(ctx context.Context, sess ScanSession) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, scanSessionKey(sess.RegistrationID), b, s.ttl).Err()
}

// Take returns and removes the pending scan of a registration. It returns
// nil when none is stored or it has expired.
func (s *ScanSessionStore) Take(ctx context.Context, registrationID uint) (*ScanSession, error) {
	val, err := s.rdb.GetDel(ctx, scanSessionKey(registrationID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess ScanSession
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Lock is a best-effort SET NX lock shared by replicas.
type Lock struct {
	rdb   redis.Cmdable
	key   string
	token string
}

func NewLock(rdb redis.Cmdable, key string) *Lock {
	return &Lock{rdb: rdb, key: key, token: uuid.NewString()}
}

func (l *Lock) Acquire(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, l.key, l.token, ttl).Result()
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Release deletes the key only while it still holds this lock's token.
func (l *Lock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err()
}
