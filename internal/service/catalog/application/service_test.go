// internal/service/catalog/application/service_test.go
package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/cache"
	"bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/pricing"
	promotion "bazaar/internal/service/promotion/domain"
)

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
	queries  int
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	p, ok := f.products[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "product %s not found", id)
	}
	return &p, nil
}

func (f *fakeProductRepo) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	return nil, nil
}

func (f *fakeProductRepo) ListApproved(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	var out []domain.Product
	for _, p := range f.products {
		if p.Purchasable() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) Save(ctx context.Context, product *domain.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[product.ID] = *product
	return nil
}

func (f *fakeProductRepo) UpdateStatus(ctx context.Context, id string, status domain.ProductStatus, isActive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return apperr.New(apperr.CodeNotFound, "product %s not found", id)
	}
	p.Status = status
	p.IsActive = isActive
	f.products[id] = p
	return nil
}

// emptyEnricher 不产生任何活动装饰。
type emptyEnricher struct{}

func (emptyEnricher) EnrichBatch(ctx context.Context, kind promotion.Kind, products []domain.Product) (map[string]promotion.Decoration, error) {
	return map[string]promotion.Decoration{}, nil
}

type memRemote struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (m *memRemote) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memRemote) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memRemote) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

func newCatalogFixture(t *testing.T) (*Service, *fakeProductRepo) {
	t.Helper()
	repo := &fakeProductRepo{products: map[string]domain.Product{}}
	tracer := noop.NewTracerProvider().Tracer("test")
	local := cache.NewLocal(time.Minute)
	t.Cleanup(local.Close)
	tiered := cache.NewTiered(local, &memRemote{entries: map[string][]byte{}}, nil)
	resolver := pricing.NewResolver(emptyEnricher{}, tracer)
	return NewService(repo, resolver, tiered, tracer, 30*time.Second, 5*time.Minute), repo
}

func approvedProduct(id string, price float64) domain.Product {
	return domain.Product{
		ID: id, VendorID: "v1", Title: "Product " + id,
		Price: price, Stock: 10,
		IsActive: true, Status: domain.StatusApproved,
	}
}

func TestGetProductCachesResolvedPrice(t *testing.T) {
	service, repo := newCatalogFixture(t)
	repo.products["p1"] = approvedProduct("p1", 49.99)

	got, err := service.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 49.99, got.FinalPrice)
	assert.Equal(t, 1, repo.queries)

	// 第二次读走缓存，不再碰仓储
	got, err = service.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.Product.ID)
	assert.Equal(t, 1, repo.queries)
}

func TestGetProductNotFoundIsNotCached(t *testing.T) {
	service, repo := newCatalogFixture(t)

	_, err := service.GetProduct(context.Background(), "ghost")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	// 商品出现后必须立即可见：错误不允许被缓存
	repo.products["ghost"] = approvedProduct("ghost", 5)
	got, err := service.GetProduct(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.FinalPrice)
}

func TestUpdateStatusInvalidatesCatalogCache(t *testing.T) {
	service, repo := newCatalogFixture(t)
	repo.products["p1"] = approvedProduct("p1", 10)

	_, err := service.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 1, repo.queries)

	require.NoError(t, service.UpdateStatus(context.Background(), "p1", domain.StatusSuspended, false))

	// 失效后下一次读必须回到仓储
	_, err = service.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.queries)
}

func TestListProductsCachesPerPage(t *testing.T) {
	service, repo := newCatalogFixture(t)
	repo.products["p1"] = approvedProduct("p1", 10)
	repo.products["p2"] = approvedProduct("p2", 20)

	first, err := service.ListProducts(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, 1, repo.queries)

	_, err = service.ListProducts(context.Background(), 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.queries, "the same page is served from cache")
}
