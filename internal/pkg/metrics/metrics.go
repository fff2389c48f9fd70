// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 缓存与幂等相关的核心指标。
// CacheInvalidationFailures 是告警指标：失效删除失败意味着
// 可能有过期的促销价格继续对外可见，属于正确性问题而非性能问题。
var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaar_cache_hits_total",
		Help: "Cache hits by tier (l1/l2).",
	}, []string{"tier"})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazaar_cache_misses_total",
		Help: "Requests that missed both cache tiers and hit compute.",
	})

	CacheInvalidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaar_cache_invalidation_failures_total",
		Help: "Pattern invalidations that could not be confirmed. Stale prices may be visible; page on this.",
	}, []string{"tier"})

	IdempotencyRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazaar_idempotency_rejections_total",
		Help: "Duplicate submissions rejected by the idempotency guard. Expected under double-click, not an error.",
	})

	IdempotencyFailOpen = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazaar_idempotency_fail_open_total",
		Help: "Requests admitted without a lock because the lock store was unreachable.",
	})

	PriceResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bazaar_price_resolve_duration_seconds",
		Help:    "Latency of batch price resolution including all deal enrichments.",
		Buckets: prometheus.DefBuckets,
	})
)
