// Package lock serialises booking writes per event date.  Two requests
// that could claim overlapping ranges on the same day take the same key,
// so the availability check and the insert that follows it never
// interleave.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrBusy is returned when the key could not be acquired before the
// context ended.
var ErrBusy = errors.New("lock busy")

// Locker hands out exclusive keyed locks.  The returned release func is
// safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// DateKey is the lock key guarding every range on fecha.
func DateKey(fecha string) string { return "reserva:" + fecha }

const retryEvery = 25 * time.Millisecond

// RedisLocker uses SET NX PX with a random token so one node's release
// cannot drop a lock another node re-acquired after expiry.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
}

var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// New returns a RedisLocker when rdb is set and an in-process Local
// locker otherwise.
func New(rdb *redis.Client, prefix string) Locker {
	if rdb == nil {
		return NewLocal()
	}
	if prefix == "" {
		prefix = "lock"
	}
	return &RedisLocker{rdb: rdb, prefix: prefix}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	full := l.prefix + ":" + key
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, full, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					ctx, cancel := context.WithTimeout(context.Background(), time.Second)
					defer cancel()
					_ = releaseScript.Run(ctx, l.rdb, []string{full}, token).Err()
				})
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrBusy
		case <-time.After(retryEvery):
		}
	}
}

// Local is a keyed mutex for single-node deployments and tests.  ttl is
// ignored; locks last until released.
type Local struct {
	mu   sync.Mutex
	keys map[string]chan struct{}
}

func NewLocal() *Local { return &Local{keys: map[string]chan struct{}{}} }

func (l *Local) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	for {
		l.mu.Lock()
		held, busy := l.keys[key]
		if !busy {
			ch := make(chan struct{})
			l.keys[key] = ch
			l.mu.Unlock()
			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.keys, key)
					l.mu.Unlock()
					close(ch)
				})
			}, nil
		}
		l.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ErrBusy
		case <-held:
		}
	}
}
