package stats

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/mediocregopher/radix/v4"
	"go.uber.org/zap"

	"github.com/starshine-sys/guildcache/common/log"
)

// Redis keeps guild and user totals in Redis, summed over every process that shares the key prefix.
// Deltas are buffered and written by Flush.
type Redis struct {
	client radix.Client
	prefix string
	log    *zap.SugaredLogger

	pendingGuilds atomic.Int64
	pendingUsers  atomic.Int64

	// what this process has added in total, subtracted again on Close
	guilds atomic.Int64
	users  atomic.Int64

	mu     sync.Mutex
	events map[string]int64
}

var _ Sink = (*Redis)(nil)

func NewRedis(ctx context.Context, url, prefix string) (*Redis, error) {
	client, err := (&radix.PoolConfig{}).New(ctx, "tcp", url)
	if err != nil {
		return nil, errors.Wrap(err, "creating radix client")
	}

	if prefix == "" {
		prefix = "guildcache"
	}

	return &Redis{
		client: client,
		prefix: prefix,
		log:    log.Named("redis"),
		events: map[string]int64{},
	}, nil
}

func (r *Redis) key(name string) string { return r.prefix + ":" + name }

func (r *Redis) AddGuilds(delta int64) { r.pendingGuilds.Add(delta) }
func (r *Redis) AddUsers(delta int64)  { r.pendingUsers.Add(delta) }

func (r *Redis) RegisterEvent(name string) {
	r.mu.Lock()
	r.events[name]++
	r.mu.Unlock()
}

// Run flushes every interval until ctx is cancelled.
func (r *Redis) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.Flush(ctx); err != nil {
				r.log.Errorf("Error flushing counts to Redis: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Flush writes buffered deltas. Deltas that fail to write are kept for the next flush.
func (r *Redis) Flush(ctx context.Context) error {
	if d := r.pendingGuilds.Swap(0); d != 0 {
		if err := r.incr(ctx, "guilds", d); err != nil {
			r.pendingGuilds.Add(d)
			return err
		}
		r.guilds.Add(d)
	}

	if d := r.pendingUsers.Swap(0); d != 0 {
		if err := r.incr(ctx, "users", d); err != nil {
			r.pendingUsers.Add(d)
			return err
		}
		r.users.Add(d)
	}

	r.mu.Lock()
	events := r.events
	r.events = make(map[string]int64, len(events))
	r.mu.Unlock()

	if len(events) == 0 {
		return nil
	}

	p := radix.NewPipeline()
	for name, n := range events {
		p.Append(radix.Cmd(nil, "HINCRBY", r.key("events"), name, strconv.FormatInt(n, 10)))
	}
	return errors.Wrap(r.client.Do(ctx, p), "incrementing event counts")
}

func (r *Redis) incr(ctx context.Context, name string, delta int64) error {
	err := r.client.Do(ctx, radix.Cmd(nil, "INCRBY", r.key(name), strconv.FormatInt(delta, 10)))
	return errors.Wrapf(err, "incrementing %v", r.key(name))
}

// Totals returns the guild and user totals over every process.
func (r *Redis) Totals(ctx context.Context) (guilds, users int64, err error) {
	get := func(name string, v *int64) error {
		// missing keys are read as zero
		return r.client.Do(ctx, radix.Cmd(&radix.Maybe{Rcv: v}, "GET", r.key(name)))
	}

	if err = get("guilds", &guilds); err != nil {
		return 0, 0, errors.Wrap(err, "getting guild total")
	}
	if err = get("users", &users); err != nil {
		return 0, 0, errors.Wrap(err, "getting user total")
	}
	return guilds, users, nil
}

// Close removes this process's contribution from the totals and closes the client.
func (r *Redis) Close(ctx context.Context) error {
	// pending deltas were never written, so only subtract what was
	r.pendingGuilds.Store(0)
	r.pendingUsers.Store(0)

	var err error
	if g := r.guilds.Swap(0); g != 0 {
		err = errors.Append(err, r.incr(ctx, "guilds", -g))
	}
	if u := r.users.Swap(0); u != 0 {
		err = errors.Append(err, r.incr(ctx, "users", -u))
	}

	return errors.Append(err, r.client.Close())
}
