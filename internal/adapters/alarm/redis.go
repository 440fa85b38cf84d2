package alarm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

const (
	pendingKey = "alarms:pending"
	payloadKey = "alarms:payload"

	claimBatch = 100
)

// Redis keeps alarms in a sorted set scored by trigger time, so they survive
// restarts. A poll loop claims due members; only the ZREM winner delivers.
type Redis struct {
	client   *redis.Client
	interval time.Duration
	logger   *logger.Logger
	now      func() time.Time

	out     chan ports.Alarm
	dropped uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	doneCh  chan struct{}
	started bool
}

func NewRedis(client *redis.Client, interval time.Duration, bufferSize int, log *logger.Logger) *Redis {
	if interval <= 0 {
		interval = time.Second
	}
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Redis{
		client:   client,
		interval: interval,
		logger:   log.WithComponent("alarm.redis"),
		now:      time.Now,
		out:      make(chan ports.Alarm, bufferSize),
		doneCh:   make(chan struct{}),
	}
}

func (r *Redis) Fired() <-chan ports.Alarm {
	return r.out
}

func (r *Redis) ScheduleAt(ctx context.Context, alarm ports.Alarm) error {
	if alarm.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}

	payload, err := json.Marshal(alarm)
	if err != nil {
		return fmt.Errorf("marshal alarm: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, payloadKey, alarm.ID, payload)
		pipe.ZAdd(ctx, pendingKey, redis.Z{Score: float64(alarm.TriggerAt.UnixMilli()), Member: alarm.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("schedule alarm: %w", err)
	}
	return nil
}

func (r *Redis) Cancel(ctx context.Context, id string) (bool, error) {
	var removed *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, pendingKey, id)
		pipe.HDel(ctx, payloadKey, id)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("cancel alarm: %w", err)
	}
	return removed.Val() > 0, nil
}

// Start launches the poll loop. It stops when ctx is done or Stop is called.
func (r *Redis) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.started = true
	go r.loop(ctx)
	return nil
}

func (r *Redis) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()
	<-r.doneCh
}

func (r *Redis) Dropped() uint64 {
	return atomic.LoadUint64(&r.dropped)
}

func (r *Redis) loop(ctx context.Context) {
	defer close(r.doneCh)
	defer close(r.out)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.poll(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.logger.WithError(err).Warn("Failed to poll due alarms")
			}
		}
	}
}

func (r *Redis) poll(ctx context.Context) error {
	ids, err := r.client.ZRangeByScore(ctx, pendingKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(r.now().UnixMilli(), 10),
		Count: claimBatch,
	}).Result()
	if err != nil {
		return fmt.Errorf("list due alarms: %w", err)
	}

	for _, id := range ids {
		alarm, claimed, err := r.claim(ctx, id)
		if err != nil {
			return err
		}
		if !claimed {
			continue
		}
		select {
		case r.out <- alarm:
		default:
			atomic.AddUint64(&r.dropped, 1)
		}
	}
	return nil
}

// claim removes id from the pending set. Another poller may win the race.
func (r *Redis) claim(ctx context.Context, id string) (ports.Alarm, bool, error) {
	removed, err := r.client.ZRem(ctx, pendingKey, id).Result()
	if err != nil {
		return ports.Alarm{}, false, fmt.Errorf("claim alarm %s: %w", id, err)
	}
	if removed == 0 {
		return ports.Alarm{}, false, nil
	}

	payload, err := r.client.HGet(ctx, payloadKey, id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ports.Alarm{}, false, nil
		}
		return ports.Alarm{}, false, fmt.Errorf("load alarm %s: %w", id, err)
	}
	if err := r.client.HDel(ctx, payloadKey, id).Err(); err != nil {
		r.logger.WithError(err).Warnw("Failed to delete alarm payload", "alarm_id", id)
	}

	var alarm ports.Alarm
	if err := json.Unmarshal(payload, &alarm); err != nil {
		return ports.Alarm{}, false, fmt.Errorf("decode alarm %s: %w", id, err)
	}
	return alarm, true, nil
}
