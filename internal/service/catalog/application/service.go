// internal/service/catalog/application/service.go
package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/cache"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/pricing"
)

// CacheNamespace 是目录读路径使用的缓存键前缀。
// 活动的发布和改价会改变目录里的解析价格，促销侧失效时会连同这个前缀一起清。
const CacheNamespace = "catalog:"

// Service 承载目录的读路径和员工侧的审核用例。
// 购物者读路径全部走二级缓存，价格在缓存填充时就已经解析完。
type Service struct {
	products domain.ProductRepository
	resolver *pricing.Resolver
	cache    *cache.Tiered
	tracer   trace.Tracer

	l1TTL time.Duration
	l2TTL time.Duration
}

func NewService(products domain.ProductRepository, resolver *pricing.Resolver, tiered *cache.Tiered, tracer trace.Tracer, l1TTL, l2TTL time.Duration) *Service {
	return &Service{
		products: products,
		resolver: resolver,
		cache:    tiered,
		tracer:   tracer,
		l1TTL:    l1TTL,
		l2TTL:    l2TTL,
	}
}

// GetProduct 返回单个商品的已定价视图，结果经过二级缓存。
func (s *Service) GetProduct(ctx context.Context, id string) (*pricing.PricedProduct, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	key := CacheNamespace + "product:" + id
	priced, err := cache.Fetch(ctx, s.cache, key, s.l1TTL, s.l2TTL, func(ctx context.Context) (pricing.PricedProduct, error) {
		product, err := s.products.FindByID(ctx, id)
		if err != nil {
			return pricing.PricedProduct{}, err
		}
		resolved, err := s.resolver.Resolve(ctx, []domain.Product{*product})
		if err != nil {
			return pricing.PricedProduct{}, err
		}
		return resolved[0], nil
	})
	if err != nil {
		return nil, err
	}
	return &priced, nil
}

// ListProducts 分页返回可售商品的已定价列表，结果经过二级缓存。
func (s *Service) ListProducts(ctx context.Context, limit, offset int) ([]pricing.PricedProduct, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.ListProducts")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	key := fmt.Sprintf("%slist:%d:%d", CacheNamespace, limit, offset)
	return cache.Fetch(ctx, s.cache, key, s.l1TTL, s.l2TTL, func(ctx context.Context) ([]pricing.PricedProduct, error) {
		products, err := s.products.ListApproved(ctx, limit, offset)
		if err != nil {
			return nil, err
		}
		return s.resolver.Resolve(ctx, products)
	})
}

// SaveProduct 创建或更新商品，随后失效目录缓存。
func (s *Service) SaveProduct(ctx context.Context, product *domain.Product) error {
	ctx, span := s.tracer.Start(ctx, "catalog.SaveProduct")
	defer span.End()

	if err := s.products.Save(ctx, product); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// UpdateStatus 是员工审核动作：改状态、改上架标记，然后失效目录缓存。
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.ProductStatus, isActive bool) error {
	ctx, span := s.tracer.Start(ctx, "catalog.UpdateStatus")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id), attribute.String("product.status", string(status)))

	if err := s.products.UpdateStatus(ctx, id, status, isActive); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// invalidate 失效目录命名空间。失效失败不阻塞变更本身，
// Invalidate 内部已经记录了告警指标和 CRITICAL 日志。
func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, CacheNamespace); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("catalog cache invalidation incomplete")
	}
}
