// internal/service/promotion/application/registry.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	catalog "bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/promotion/domain"
)

// Registry 按活动类型对商品批次做富化。
// 四种类型共享同一实现，类型差异全部收敛在领域层的生效策略里。
type Registry struct {
	dealRepo domain.DealRepository
	tracer   trace.Tracer

	// now 可在测试中替换以固定时钟
	now func() time.Time
}

// NewRegistry 创建一个新的活动注册表实例
func NewRegistry(dealRepo domain.DealRepository, tracer trace.Tracer) *Registry {
	return &Registry{dealRepo: dealRepo, tracer: tracer, now: time.Now}
}

// EnrichBatch 给定一批商品，返回其中在指定类型下命中生效活动的
// 商品的装饰信息（活动标题、折扣、折扣类型、结束时间）。
//
// 契约：
//   - 无论批量多大，只对存储发起一次查询（禁止按商品逐个查询）；
//   - 没有生效条目的商品不会出现在结果里；
//   - 幂等，重复调用得到相同结果；
//   - 同类型下多个活动同时命中一个商品时，创建时间最新的活动胜出
//     （仓储按 created_at DESC 返回，这里保留首个命中）。
func (r *Registry) EnrichBatch(ctx context.Context, kind domain.Kind, products []catalog.Product) (map[string]domain.Decoration, error) {
	ctx, span := r.tracer.Start(ctx, "registry.EnrichBatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("deal.kind", string(kind)),
		attribute.Int("batch.size", len(products)),
	)

	if len(products) == 0 {
		return map[string]domain.Decoration{}, nil
	}

	ids := make([]string, 0, len(products))
	for i := range products {
		ids = append(ids, products[i].ID)
	}

	now := r.now()
	deals, err := r.dealRepo.FindLiveByKind(ctx, kind, ids, now)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := make(map[string]domain.Decoration)
	for i := range deals {
		deal := &deals[i]
		// 仓储只做粗筛（发布位 + 商品命中），时间窗在这里终裁
		if !deal.LiveAt(now) {
			continue
		}
		for _, item := range deal.Items {
			if !item.IsActive {
				continue
			}
			if _, seen := out[item.ProductID]; seen {
				continue // 更新的活动已命中，后续的丢弃
			}
			out[item.ProductID] = domain.Decoration{
				Kind:         kind,
				DealID:       deal.ID,
				Title:        deal.Title,
				Discount:     item.Discount,
				DiscountType: item.DiscountType,
				EndsAt:       deal.EndsAt,
			}
		}
	}

	span.SetAttributes(attribute.Int("decorated.count", len(out)))
	return out, nil
}
