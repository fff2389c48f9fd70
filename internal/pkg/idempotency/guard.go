// internal/pkg/idempotency/guard.go
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/metrics"
)

const keyPrefix = "idem:"

// LockStore 是幂等锁需要的最小存储契约。
// SetNX 必须是存储端的单次原子操作（set-if-absent 语义）——
// 先读后写会重新引入这套机制本来要消灭的双重提交竞争。
// 由 internal/pkg/redis.Client 实现。
type LockStore interface {
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
}

// Guard 对同一个逻辑用户动作做短 TTL 的互斥：
// 同一 (身份, 动作, 路径, 请求体) 在 TTL 窗口内只放行一次。
// 不同身份、或同一身份的不同动作互不影响。
type Guard struct {
	store LockStore
	ttl   time.Duration
}

// NewGuard 创建幂等守卫。ttl 是锁的自动释放时间，通常为几秒。
func NewGuard(store LockStore, ttl time.Duration) *Guard {
	return &Guard{store: store, ttl: ttl}
}

// Fingerprint 从四元组计算确定性指纹。
// 请求体先单独取内容哈希，避免大请求体整体进入第二次哈希的输入拼接。
func Fingerprint(identity, action, path string, body []byte) string {
	bodySum := sha256.Sum256(body)
	h := sha256.New()
	h.Write([]byte(identity))
	h.Write([]byte{0})
	h.Write([]byte(action))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(bodySum[:])
	return hex.EncodeToString(h.Sum(nil))
}

// WithLock 在执行 next 之前尝试原子占有指纹对应的锁。
//   - 占有成功：执行 next，锁靠 TTL 自动过期（不主动释放，
//     短窗口内的重复提交本来就应该被拒绝）。
//   - 锁已存在：立即返回 ALREADY_PROCESSING，next 不会被调用。
//   - 存储不可用：fail-open——记录日志和指标后直接执行 next，
//     宁可漏掉一次去重，也不能让锁存储故障阻断全部流量。
func (g *Guard) WithLock(ctx context.Context, identity, action, path string, body []byte, next func(ctx context.Context) error) error {
	key := keyPrefix + Fingerprint(identity, action, path, body)

	acquired, err := g.store.SetNX(ctx, key, []byte("1"), g.ttl)
	if err != nil {
		metrics.IdempotencyFailOpen.Inc()
		logger.Ctx(ctx).Warn().Err(err).Str("action", action).Msg("idempotency store unreachable, proceeding without lock")
		return next(ctx)
	}
	if !acquired {
		metrics.IdempotencyRejections.Inc()
		return apperr.New(apperr.CodeAlreadyProcessing, "identical request is already being processed")
	}
	return next(ctx)
}
