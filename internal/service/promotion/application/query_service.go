// internal/service/promotion/application/query_service.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/cache"
	"bazaar/internal/service/promotion/domain"
)

// LiveDealView 是购物者看到的活动卡片。
type LiveDealView struct {
	ID       string       `json:"id"`
	Kind     domain.Kind  `json:"kind"`
	Title    string       `json:"title"`
	Image    domain.Image `json:"image,omitempty"`
	StartsAt *time.Time   `json:"startsAt,omitempty"`
	EndsAt   *time.Time   `json:"endsAt,omitempty"`
	Items    int          `json:"items"`
}

// QueryService 承载购物者侧的活动读路径，结果经过二级缓存。
type QueryService struct {
	dealRepo domain.DealRepository
	cache    *cache.Tiered
	tracer   trace.Tracer

	l1TTL time.Duration
	l2TTL time.Duration

	now func() time.Time
}

func NewQueryService(dealRepo domain.DealRepository, tiered *cache.Tiered, tracer trace.Tracer, l1TTL, l2TTL time.Duration) *QueryService {
	return &QueryService{
		dealRepo: dealRepo,
		cache:    tiered,
		tracer:   tracer,
		l1TTL:    l1TTL,
		l2TTL:    l2TTL,
		now:      time.Now,
	}
}

// ListLive 返回某类型下当前生效的活动卡片列表。
// 缓存键落在该类型的命名空间下，管理端变更会整体失效。
func (s *QueryService) ListLive(ctx context.Context, kind domain.Kind) ([]LiveDealView, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.ListLive")
	defer span.End()
	span.SetAttributes(attribute.String("deal.kind", string(kind)))

	if !kind.Valid() {
		return nil, apperr.New(apperr.CodeValidationFailed, "unknown deal kind %q", kind)
	}

	key := DealCacheNamespace(kind) + "live"
	return cache.Fetch(ctx, s.cache, key, s.l1TTL, s.l2TTL, func(ctx context.Context) ([]LiveDealView, error) {
		deals, err := s.dealRepo.ListByKind(ctx, kind, 100, 0)
		if err != nil {
			return nil, err
		}
		now := s.now()
		views := make([]LiveDealView, 0, len(deals))
		for i := range deals {
			deal := &deals[i]
			if !deal.LiveAt(now) {
				continue
			}
			views = append(views, LiveDealView{
				ID:       deal.ID,
				Kind:     deal.Kind,
				Title:    deal.Title,
				Image:    deal.Image,
				StartsAt: deal.StartsAt,
				EndsAt:   deal.EndsAt,
				Items:    len(deal.Items),
			})
		}
		return views, nil
	})
}
