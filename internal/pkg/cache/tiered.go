// internal/pkg/cache/tiered.go
package cache

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/metrics"
)

// RemoteCache 抽象分布式缓存层 (L2)。
// 由 internal/pkg/redis.Client 实现；测试中用内存假实现替换。
type RemoteCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// InvalidationBroadcaster 把一次前缀失效广播给所有其它实例，
// 让它们清掉各自的 L1。L1 是实例私有的，只靠 TTL 过期不足以
// 保证促销价格编辑后的读一致性。
type InvalidationBroadcaster interface {
	Broadcast(ctx context.Context, prefix string) error
}

// Tiered 将 L1（进程内）与 L2（分布式）组合在一个 get-or-compute
// 契约之后。读路径对缓存故障采取 fail-open：任何一层不可用都
// 退化为直接计算；写失效路径则相反，删除失败必须大声暴露。
type Tiered struct {
	local  *Local
	remote RemoteCache
	bus    InvalidationBroadcaster // 可为 nil（单实例部署）

	group singleflight.Group
}

// NewTiered 组装一个两级缓存。
func NewTiered(local *Local, remote RemoteCache, bus InvalidationBroadcaster) *Tiered {
	return &Tiered{local: local, remote: remote, bus: bus}
}

// GetOrCompute 按 L1 → L2 → compute 的顺序取值。
// L2 命中会回填 L1；compute 的结果写入两层。同一个 key 上的并发
// miss 由 singleflight 合并，避免缓存击穿时的惊群。
// 约束：L1 的 TTL 不得超过 L2，否则按 L2 截断。
func (t *Tiered) GetOrCompute(ctx context.Context, key string, l1TTL, l2TTL time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if l1TTL > l2TTL {
		l1TTL = l2TTL
	}

	if val, ok := t.local.Get(key); ok {
		metrics.CacheHits.WithLabelValues("l1").Inc()
		return val, nil
	}

	val, err, _ := t.group.Do(key, func() (interface{}, error) {
		// singleflight 合并后的第一个进入者再查一次 L1，
		// 排队期间可能已有别人回填。
		if val, ok := t.local.Get(key); ok {
			metrics.CacheHits.WithLabelValues("l1").Inc()
			return val, nil
		}

		if val, ok, err := t.remote.Get(ctx, key); err != nil {
			// L2 不可用：记录后穿透到 compute，不能让缓存故障放大为读故障
			logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("l2 cache read failed, falling through to compute")
		} else if ok {
			metrics.CacheHits.WithLabelValues("l2").Inc()
			t.local.Set(key, val, l1TTL)
			return val, nil
		}

		metrics.CacheMisses.Inc()
		computed, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		if err := t.remote.Set(ctx, key, computed, l2TTL); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("l2 cache write failed")
		}
		t.local.Set(key, computed, l1TTL)
		return computed, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]byte), nil
}

// Invalidate 同步删除两层中所有以 prefix 开头的 key，并把失效
// 广播给其它实例。必须在促销/目录的变更调用返回之前完成——
// 这里不允许最终一致窗口，下一次读不能看到过期价格。
// L2 删除或广播失败时返回错误并递增告警指标；调用方把变更本身
// 视为已成功，但必须把失效失败暴露出去。
func (t *Tiered) Invalidate(ctx context.Context, prefix string) error {
	t.local.DeletePattern(prefix)

	if err := t.remote.DeleteByPattern(ctx, prefix+"*"); err != nil {
		metrics.CacheInvalidationFailures.WithLabelValues("l2").Inc()
		logger.Ctx(ctx).Error().Err(err).Str("prefix", prefix).Msg("CRITICAL: l2 invalidation failed, stale entries may be visible")
		return err
	}

	if t.bus != nil {
		if err := t.bus.Broadcast(ctx, prefix); err != nil {
			metrics.CacheInvalidationFailures.WithLabelValues("l1_broadcast").Inc()
			logger.Ctx(ctx).Error().Err(err).Str("prefix", prefix).Msg("CRITICAL: invalidation broadcast failed, other instances may serve stale L1 entries")
			return err
		}
	}
	return nil
}

// HandleRemoteInvalidation 处理来自其它实例的失效广播：只清本地 L1。
// L2 已由发起失效的实例删除过了。
func (t *Tiered) HandleRemoteInvalidation(prefix string) {
	t.local.DeletePattern(prefix)
}

// Fetch 是 GetOrCompute 的带类型版本，负责 JSON 编解码。
func Fetch[T any](ctx context.Context, t *Tiered, key string, l1TTL, l2TTL time.Duration, compute func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	raw, err := t.GetOrCompute(ctx, key, l1TTL, l2TTL, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, err
	}
	return out, nil
}
