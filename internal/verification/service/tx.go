package service

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	id "doseguard/pkg/domain"
	dErrors "doseguard/pkg/domain-errors"
)

// Sharded mutexes serialize in-memory commits per container. Operations on
// different containers rarely share a shard.
const numContainerShards = 128

// defaultTxTimeout is the maximum duration for a commit transaction.
const defaultTxTimeout = 5 * time.Second

// ShardedTx is the in-memory TxRunner. It provides mutual exclusion per
// container, not rollback; commit steps are ordered so a failure leaves no
// partial consumption.
type ShardedTx struct {
	shards  [numContainerShards]sync.Mutex
	timeout time.Duration
}

func NewShardedTx() *ShardedTx {
	return &ShardedTx{timeout: defaultTxTimeout}
}

func (t *ShardedTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := t.selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(ctx)
}

// selectShard picks a shard from the container ID in context, or shard 0.
func (t *ShardedTx) selectShard(ctx context.Context) int {
	if key, ok := ctx.Value(txContainerKeyCtx).(string); ok && key != "" {
		h := fnv.New32a()
		_, _ = h.Write([]byte(key))
		return int(h.Sum32() % numContainerShards)
	}
	return 0
}

type txContainerKey struct{}

var txContainerKeyCtx = txContainerKey{}

// withContainerKey tags ctx so an in-memory runner can lock per container.
func withContainerKey(ctx context.Context, containerID id.ContainerID) context.Context {
	return context.WithValue(ctx, txContainerKeyCtx, containerID.String())
}
