// internal/service/pricing/resolver.go
package pricing

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"bazaar/internal/pkg/metrics"
	catalog "bazaar/internal/service/catalog/domain"
	promotion "bazaar/internal/service/promotion/domain"
)

// Enricher 是定价引擎对活动注册表的依赖。
// 由 promotion/application.Registry 实现。
type Enricher interface {
	EnrichBatch(ctx context.Context, kind promotion.Kind, products []catalog.Product) (map[string]promotion.Decoration, error)
}

// PricedProduct 是定价引擎对单个商品的输出。
type PricedProduct struct {
	Product     catalog.Product       `json:"product"`
	BasePrice   float64               `json:"basePrice"`
	FinalPrice  float64               `json:"finalPrice"`
	WinningDeal *promotion.Decoration `json:"winningDeal,omitempty"`
}

// UnitPrice 返回购物车行的单价。
// sku 为空时就是商品的最终价；指定规格时，把同样的折扣链
// （商家常规折扣 + 胜出活动折扣）施加到规格自己的标价上。
func (pp *PricedProduct) UnitPrice(sku string) float64 {
	if sku == "" {
		return pp.FinalPrice
	}
	v, ok := pp.Product.Variation(sku)
	if !ok {
		return pp.FinalPrice
	}
	price := applyDiscount(decimal.NewFromFloat(v.Price), pp.Product.Discount, pp.Product.DiscountType)
	if pp.WinningDeal != nil {
		price = applyDiscount(price, pp.WinningDeal.Discount, pp.WinningDeal.DiscountType)
	}
	return round2(price)
}

// Resolver 是批量价格解析引擎。
// 对一批商品并发调用四类活动的富化，然后按固定优先级裁决：
// 每日特惠 > 精选特卖 > 限时秒杀 > 清仓甩卖 > 基础价。
type Resolver struct {
	enricher Enricher
	tracer   trace.Tracer
}

// NewResolver 创建一个新的定价引擎实例
func NewResolver(enricher Enricher, tracer trace.Tracer) *Resolver {
	return &Resolver{enricher: enricher, tracer: tracer}
}

// Resolve 计算每个商品的基础价、最终价和胜出活动。
//
// 存储往返次数与活动类型数成正比（目前是 4），与商品数量无关。
// 四路富化是相互独立的读，fan-out 并发执行、全部完成后才合并，
// 不做部分合并。任何一路失败则整体失败。
func (r *Resolver) Resolve(ctx context.Context, products []catalog.Product) ([]PricedProduct, error) {
	ctx, span := r.tracer.Start(ctx, "pricing.Resolve")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(products)))

	if len(products) == 0 {
		return nil, nil
	}

	timer := prometheus.NewTimer(metrics.PriceResolveDuration)
	defer timer.ObserveDuration()

	kinds := promotion.KindsByPrecedence
	decorations := make([]map[string]promotion.Decoration, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			decos, err := r.enricher.EnrichBatch(gctx, kind, products)
			if err != nil {
				return err
			}
			decorations[i] = decos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := make([]PricedProduct, 0, len(products))
	for i := range products {
		p := products[i]
		base := basePrice(&p)
		final := base

		// 按优先级取第一个命中的装饰，低优先级的直接丢弃
		var winning *promotion.Decoration
		for ki := range kinds {
			if deco, ok := decorations[ki][p.ID]; ok {
				winning = &deco
				final = applyDiscount(base, deco.Discount, deco.DiscountType)
				break
			}
		}

		out = append(out, PricedProduct{
			Product:     p,
			BasePrice:   round2(base),
			FinalPrice:  round2(final),
			WinningDeal: winning,
		})
	}
	return out, nil
}
