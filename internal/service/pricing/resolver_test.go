// internal/service/pricing/resolver_test.go
package pricing

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	catalog "bazaar/internal/service/catalog/domain"
	promotion "bazaar/internal/service/promotion/domain"
)

// fakeEnricher 按类型返回预设的装饰结果，并记录调用次数。
type fakeEnricher struct {
	mu      sync.Mutex
	byKind  map[promotion.Kind]map[string]promotion.Decoration
	calls   int
	failOn  promotion.Kind
	failErr error
}

func (f *fakeEnricher) EnrichBatch(ctx context.Context, kind promotion.Kind, products []catalog.Product) (map[string]promotion.Decoration, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if kind == f.failOn && f.failErr != nil {
		return nil, f.failErr
	}
	decos := f.byKind[kind]
	if decos == nil {
		return map[string]promotion.Decoration{}, nil
	}
	return decos, nil
}

func deco(kind promotion.Kind, dealID string, discount float64, dt catalog.DiscountType) promotion.Decoration {
	return promotion.Decoration{Kind: kind, DealID: dealID, Discount: discount, DiscountType: dt}
}

func newTestResolver(enricher *fakeEnricher) *Resolver {
	return NewResolver(enricher, noop.NewTracerProvider().Tracer("test"))
}

func TestResolveBasePriceFromOwnDiscount(t *testing.T) {
	resolver := newTestResolver(&fakeEnricher{})

	products := []catalog.Product{
		{ID: "p1", Price: 100, Discount: 10, DiscountType: catalog.DiscountPercent},
		{ID: "p2", Price: 50, Discount: 7.5, DiscountType: catalog.DiscountFlat},
		{ID: "p3", Price: 5, Discount: 10, DiscountType: catalog.DiscountFlat},
	}
	priced, err := resolver.Resolve(context.Background(), products)
	require.NoError(t, err)
	require.Len(t, priced, 3)

	assert.Equal(t, 90.0, priced[0].BasePrice)
	assert.Equal(t, 90.0, priced[0].FinalPrice, "no live deal keeps final at base")
	assert.Nil(t, priced[0].WinningDeal)

	assert.Equal(t, 42.5, priced[1].BasePrice)
	assert.Equal(t, 0.0, priced[2].BasePrice, "an oversized flat discount clamps to zero")
}

func TestResolvePrecedenceFirstMatchWins(t *testing.T) {
	enricher := &fakeEnricher{byKind: map[promotion.Kind]map[string]promotion.Decoration{
		promotion.KindFlash:     {"p1": deco(promotion.KindFlash, "d-flash", 50, catalog.DiscountPercent)},
		promotion.KindFeatured:  {"p1": deco(promotion.KindFeatured, "d-featured", 20, catalog.DiscountPercent)},
		promotion.KindClearance: {"p1": deco(promotion.KindClearance, "d-clearance", 70, catalog.DiscountPercent)},
	}}
	resolver := newTestResolver(enricher)

	priced, err := resolver.Resolve(context.Background(), []catalog.Product{{ID: "p1", Price: 100}})
	require.NoError(t, err)
	require.Len(t, priced, 1)

	// featured 排在 flash 和 clearance 之前，即使折扣更小也必须胜出
	require.NotNil(t, priced[0].WinningDeal)
	assert.Equal(t, "d-featured", priced[0].WinningDeal.DealID)
	assert.Equal(t, 80.0, priced[0].FinalPrice)
}

func TestResolveDealOfDayBeatsEverything(t *testing.T) {
	enricher := &fakeEnricher{byKind: map[promotion.Kind]map[string]promotion.Decoration{
		promotion.KindDealOfDay: {"p1": deco(promotion.KindDealOfDay, "d-dod", 5, catalog.DiscountPercent)},
		promotion.KindFeatured:  {"p1": deco(promotion.KindFeatured, "d-featured", 60, catalog.DiscountPercent)},
	}}
	resolver := newTestResolver(enricher)

	priced, err := resolver.Resolve(context.Background(), []catalog.Product{{ID: "p1", Price: 200}})
	require.NoError(t, err)
	require.NotNil(t, priced[0].WinningDeal)
	assert.Equal(t, promotion.KindDealOfDay, priced[0].WinningDeal.Kind)
	assert.Equal(t, 190.0, priced[0].FinalPrice)
}

func TestResolveDealStacksOnBasePrice(t *testing.T) {
	// 活动折扣施加在基础价（已含商家折扣）之上，而不是标价上
	enricher := &fakeEnricher{byKind: map[promotion.Kind]map[string]promotion.Decoration{
		promotion.KindFlash: {"p1": deco(promotion.KindFlash, "d1", 50, catalog.DiscountPercent)},
	}}
	resolver := newTestResolver(enricher)

	priced, err := resolver.Resolve(context.Background(), []catalog.Product{
		{ID: "p1", Price: 100, Discount: 20, DiscountType: catalog.DiscountPercent},
	})
	require.NoError(t, err)
	assert.Equal(t, 80.0, priced[0].BasePrice)
	assert.Equal(t, 40.0, priced[0].FinalPrice)
}

func TestResolveQueriesOncePerKindRegardlessOfBatchSize(t *testing.T) {
	enricher := &fakeEnricher{}
	resolver := newTestResolver(enricher)

	products := make([]catalog.Product, 200)
	for i := range products {
		products[i] = catalog.Product{ID: string(rune('a' + i%26)), Price: 10}
	}
	_, err := resolver.Resolve(context.Background(), products)
	require.NoError(t, err)
	assert.Equal(t, len(promotion.KindsByPrecedence), enricher.calls)
}

func TestResolveFailsWhenAnyKindFails(t *testing.T) {
	enricher := &fakeEnricher{failOn: promotion.KindFlash, failErr: errors.New("store down")}
	resolver := newTestResolver(enricher)

	_, err := resolver.Resolve(context.Background(), []catalog.Product{{ID: "p1", Price: 10}})
	require.Error(t, err, "no partial merges: one failed kind fails the batch")
}

func TestResolveEmptyBatch(t *testing.T) {
	enricher := &fakeEnricher{}
	resolver := newTestResolver(enricher)

	priced, err := resolver.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, priced)
	assert.Zero(t, enricher.calls)
}

func TestResolveRoundsOnlyAtTheBoundary(t *testing.T) {
	// 10% off 0.30: exact 0.27, a float chain would yield 0.27000000000000002
	enricher := &fakeEnricher{byKind: map[promotion.Kind]map[string]promotion.Decoration{
		promotion.KindFlash: {"p1": deco(promotion.KindFlash, "d1", 10, catalog.DiscountPercent)},
	}}
	resolver := newTestResolver(enricher)

	priced, err := resolver.Resolve(context.Background(), []catalog.Product{{ID: "p1", Price: 0.30}})
	require.NoError(t, err)
	assert.Equal(t, 0.27, priced[0].FinalPrice)
}

func TestUnitPriceUsesVariationPrice(t *testing.T) {
	winning := deco(promotion.KindFlash, "d1", 50, catalog.DiscountPercent)
	pp := PricedProduct{
		Product: catalog.Product{
			ID: "p1", Price: 100, Discount: 10, DiscountType: catalog.DiscountPercent,
			Variations: []catalog.Variation{{SKU: "red-xl", Price: 120, Stock: 5}},
		},
		BasePrice:   90,
		FinalPrice:  45,
		WinningDeal: &winning,
	}

	assert.Equal(t, 45.0, pp.UnitPrice(""), "no sku falls back to the product final price")
	assert.Equal(t, 54.0, pp.UnitPrice("red-xl"), "variation price runs through the same discount chain")
	assert.Equal(t, 45.0, pp.UnitPrice("missing"), "unknown sku falls back to the product final price")
}

func TestApplyDiscountUnknownKindIsNoop(t *testing.T) {
	got := applyDiscount(decimal.NewFromInt(80), 25, catalog.DiscountType("bogus"))
	assert.True(t, got.Equal(decimal.NewFromInt(80)))
}
