// Package cache mirrors the hyperperiod manager's cache to Redis so a
// horizontally-scaled fleet of intake hosts converges on the same
// cached hyperperiod for a workload id without a shared database. It
// never participates in a single Schedule call's correctness; only the
// hyperperiod manager's own cross-call cache is mirrored here.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khryptorgraphics/taskorch/internal/hyperperiod"
	"github.com/khryptorgraphics/taskorch/internal/task"
)

const keyPrefix = "taskorch:hyperperiod:"

// HyperperiodMirror wraps a hyperperiod.Manager and mirrors every
// successful Calculate to Redis, and falls back to Redis on a local
// cache miss.
type HyperperiodMirror struct {
	manager *hyperperiod.Manager
	client  *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
}

// NewHyperperiodMirror wraps manager with a Redis mirror. ttl bounds
// how long a mirrored value is trusted across the fleet.
func NewHyperperiodMirror(manager *hyperperiod.Manager, client *redis.Client, ttl time.Duration, logger *slog.Logger) *HyperperiodMirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &HyperperiodMirror{manager: manager, client: client, ttl: ttl, logger: logger}
}

// Calculate delegates to the wrapped manager, then best-effort mirrors
// the result to Redis. A mirror write failure is logged and never
// surfaced as a core error — the in-process cache remains
// authoritative for this process.
func (m *HyperperiodMirror) Calculate(ctx context.Context, workloadID string, tasks []task.Task) (hyperperiod.Info, error) {
	info, err := m.manager.Calculate(workloadID, tasks)
	if err != nil {
		return hyperperiod.Info{}, err
	}
	key := keyPrefix + workloadID
	if setErr := m.client.Set(ctx, key, strconv.FormatUint(info.HyperperiodUS, 10), m.ttl).Err(); setErr != nil {
		m.logger.Warn("hyperperiod redis mirror write skipped", "workload_id", workloadID, "error", setErr)
	}
	return info, nil
}

// Get consults the in-process cache first, falling back to the Redis
// mirror on a miss (e.g. a different intake host computed it).
func (m *HyperperiodMirror) Get(ctx context.Context, workloadID string) (uint64, bool) {
	if info, ok := m.manager.Get(workloadID); ok {
		return info.HyperperiodUS, true
	}
	val, err := m.client.Get(ctx, keyPrefix+workloadID).Result()
	if err != nil {
		return 0, false
	}
	hp, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		m.logger.Warn("hyperperiod redis mirror returned unparsable value", "workload_id", workloadID, "error", err)
		return 0, false
	}
	return hp, true
}

// NewRedisClient builds a redis.Client from a simple host:port address.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}
