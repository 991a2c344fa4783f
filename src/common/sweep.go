package common

import (
	"context"
	"eventpass/src/lib"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const absentSweepLockKey = "lock:attendance:mark-absent"

// AbsentSweep runs Verifier.MarkAbsent on a schedule. With redis configured
// only one replica sweeps at a time.
type AbsentSweep struct {
	verifier *Verifier
	rdb      redis.Cmdable
	lockTTL  time.Duration
	now      func() time.Time
}

func NewAbsentSweep(verifier *Verifier, rdb redis.Cmdable, lockTTL time.Duration) *AbsentSweep {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &AbsentSweep{verifier: verifier, rdb: rdb, lockTTL: lockTTL, now: time.Now}
}

// Run performs one sweep and reports how many registrations changed. It
// returns 0 without sweeping when another replica holds the lock.
func (s *AbsentSweep) Run(ctx context.Context) (int64, error) {
	if s.rdb != nil {
		lock := lib.NewLock(s.rdb, absentSweepLockKey)
		ok, err := lock.Acquire(ctx, s.lockTTL)
		if err != nil {
			return 0, err
		}
		if !ok {
			log.Println("[sweep] mark-absent already running elsewhere")
			return 0, nil
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Printf("[sweep] release lock: %s\n", err.Error())
			}
		}()
	}
	return s.verifier.MarkAbsent(ctx, s.now().UTC())
}

// Tick is the scheduler entry point.
func (s *AbsentSweep) Tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.lockTTL)
	defer cancel()
	if _, err := s.Run(ctx); err != nil {
		log.Printf("[sweep] mark-absent failed: %s\n", err.Error())
	}
}

// Schedule registers the sweep with the shared gocron scheduler.
func (s *AbsentSweep) Schedule(every time.Duration) (*string, error) {
	return lib.CreateCronJob("mark-absent", s.Tick, every)
}
