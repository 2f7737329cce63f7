package alerts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"doseguard/internal/verification/models"
)

// RedisQueue is the durable retry queue for alerts that could not be stored.
// Alerts are JSON encoded on a Redis list, oldest first. A claimed alert sits
// on a processing list until it is acked or released, so a crash between
// claim and store leaves it recoverable. Entries that do not decode are moved
// to a dead-letter list.
type RedisQueue struct {
	client     *redis.Client
	key        string
	processing string
	dead       string
}

// Claimed is an alert taken from the queue but not yet acknowledged.
type Claimed struct {
	Alert models.ComplianceAlert
	raw   string
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{
		client:     client,
		key:        key,
		processing: key + ":processing",
		dead:       key + ":dead",
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, a models.ComplianceAlert) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode queued alert: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, body).Err(); err != nil {
		return fmt.Errorf("enqueue alert: %w", err)
	}
	return nil
}

// Claim moves the oldest alert onto the processing list and returns it. It
// returns nil and no error when the queue is empty.
func (q *RedisQueue) Claim(ctx context.Context) (*Claimed, error) {
	for {
		raw, err := q.client.LMove(ctx, q.key, q.processing, "LEFT", "RIGHT").Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, nil
			}
			return nil, fmt.Errorf("claim alert: %w", err)
		}
		var a models.ComplianceAlert
		if err := json.Unmarshal([]byte(raw), &a); err == nil {
			return &Claimed{Alert: a, raw: raw}, nil
		}
		if err := q.moveFromProcessing(ctx, raw, q.dead, false); err != nil {
			return nil, fmt.Errorf("dead-letter undecodable alert: %w", err)
		}
	}
}

// Ack removes a stored alert from the processing list.
func (q *RedisQueue) Ack(ctx context.Context, c *Claimed) error {
	if err := q.client.LRem(ctx, q.processing, 1, c.raw).Err(); err != nil {
		return fmt.Errorf("ack alert: %w", err)
	}
	return nil
}

// Release puts a claimed alert back at the head so it is retried first.
func (q *RedisQueue) Release(ctx context.Context, c *Claimed) error {
	if err := q.moveFromProcessing(ctx, c.raw, q.key, true); err != nil {
		return fmt.Errorf("release alert: %w", err)
	}
	return nil
}

// Recover returns every alert left on the processing list by an earlier run
// to the head of the queue, preserving their order.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	n := 0
	for {
		err := q.client.LMove(ctx, q.processing, q.key, "RIGHT", "LEFT").Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("recover claimed alerts: %w", err)
		}
		n++
	}
}

func (q *RedisQueue) moveFromProcessing(ctx context.Context, raw, dest string, head bool) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processing, 1, raw)
		if head {
			pipe.LPush(ctx, dest, raw)
		} else {
			pipe.RPush(ctx, dest, raw)
		}
		return nil
	})
	return err
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.llen(ctx, q.key)
}

func (q *RedisQueue) InFlight(ctx context.Context) (int64, error) {
	return q.llen(ctx, q.processing)
}

func (q *RedisQueue) DeadLetters(ctx context.Context) (int64, error) {
	return q.llen(ctx, q.dead)
}

func (q *RedisQueue) llen(ctx context.Context, key string) (int64, error) {
	n, err := q.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("alert queue length %s: %w", key, err)
	}
	return n, nil
}

// Fallback holds alerts in process when neither the store nor the retry
// queue accepted them. Contents are lost on restart.
type Fallback struct {
	mu     sync.Mutex
	alerts []models.ComplianceAlert
}

func NewFallback() *Fallback {
	return &Fallback{}
}

func (f *Fallback) Push(a models.ComplianceAlert) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a)
}

// Drain removes and returns everything held.
func (f *Fallback) Drain() []models.ComplianceAlert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.alerts
	f.alerts = nil
	return out
}

func (f *Fallback) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.alerts)
}
