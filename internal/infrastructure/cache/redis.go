package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// OpenRedis connects and pings within ctx. The client backs idempotency
// records and the workflow event channel.
func OpenRedis(ctx context.Context, o Options) (*redis.Client, error) {
	if o.DialTimeout == 0 {
		o.DialTimeout = 5 * time.Second
	}
	r := redis.NewClient(&redis.Options{Addr: o.Addr, Password: o.Password, DB: o.DB, DialTimeout: o.DialTimeout})
	ctx, cancel := context.WithTimeout(ctx, o.DialTimeout)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// Ping is a health check over r.
func Ping(r redis.Cmdable) func(ctx context.Context) error {
	return func(ctx context.Context) error { return r.Ping(ctx).Err() }
}
