// internal/service/promotion/application/admin_service.go
package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/cache"
	"bazaar/internal/pkg/logger"
	catalogapp "bazaar/internal/service/catalog/application"
	"bazaar/internal/service/promotion/domain"
)

// DealCacheNamespace 返回某活动类型下全部缓存键的前缀。
func DealCacheNamespace(kind domain.Kind) string {
	return "deals:" + string(kind) + ":"
}

// AdminService 承载员工侧的活动与优惠券维护用例。
// 这些操作永远不会由购物者触发。
type AdminService struct {
	dealRepo   domain.DealRepository
	couponRepo domain.CouponRepository
	uploader   domain.Uploader
	cache      *cache.Tiered
	tracer     trace.Tracer
}

// NewAdminService 创建一个新的管理服务实例
func NewAdminService(dealRepo domain.DealRepository, couponRepo domain.CouponRepository, uploader domain.Uploader, tiered *cache.Tiered, tracer trace.Tracer) *AdminService {
	return &AdminService{
		dealRepo:   dealRepo,
		couponRepo: couponRepo,
		uploader:   uploader,
		cache:      tiered,
		tracer:     tracer,
	}
}

// SaveDeal 创建或更新一个活动，随后同步失效相关缓存命名空间。
func (s *AdminService) SaveDeal(ctx context.Context, req *SaveDealRequest) (*domain.Deal, error) {
	ctx, span := s.tracer.Start(ctx, "admin.SaveDeal")
	defer span.End()

	if !req.Kind.Valid() {
		return nil, apperr.New(apperr.CodeValidationFailed, "unknown deal kind %q", req.Kind)
	}
	if req.Title == "" {
		return nil, apperr.New(apperr.CodeValidationFailed, "deal title is required")
	}
	for _, item := range req.Items {
		if item.Discount < 0 {
			return nil, apperr.New(apperr.CodeValidationFailed, "negative discount for product %s", item.ProductID)
		}
	}

	deal := &domain.Deal{
		ID:          req.ID,
		Kind:        req.Kind,
		Title:       req.Title,
		IsPublished: req.IsPublished,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		UpdatedAt:   time.Now(),
	}
	if deal.ID == "" {
		deal.ID = uuid.New().String()
		deal.CreatedAt = time.Now()
	} else {
		existing, err := s.dealRepo.FindByID(ctx, deal.ID)
		if err != nil {
			return nil, err
		}
		deal.CreatedAt = existing.CreatedAt
		deal.Image = existing.Image
	}
	for _, item := range req.Items {
		deal.Items = append(deal.Items, domain.DealItem{
			ProductID:    item.ProductID,
			Discount:     item.Discount,
			DiscountType: item.DiscountType,
			IsActive:     item.IsActive,
		})
	}

	if err := s.dealRepo.Save(ctx, deal); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.invalidateDealCaches(ctx, deal.Kind)
	span.SetAttributes(attribute.String("deal.id", deal.ID), attribute.String("deal.kind", string(deal.Kind)))
	return deal, nil
}

// SetDealPublished 切换活动的发布状态。
// 这是影响价格可见性的关键写路径：缓存失效必须在返回前完成。
func (s *AdminService) SetDealPublished(ctx context.Context, dealID string, published bool) error {
	ctx, span := s.tracer.Start(ctx, "admin.SetDealPublished")
	defer span.End()

	deal, err := s.dealRepo.FindByID(ctx, dealID)
	if err != nil {
		return err
	}
	deal.IsPublished = published
	deal.UpdatedAt = time.Now()
	if err := s.dealRepo.Save(ctx, deal); err != nil {
		span.RecordError(err)
		return err
	}

	s.invalidateDealCaches(ctx, deal.Kind)
	return nil
}

// DeleteDeal 删除一个活动并清理其图片资源。
func (s *AdminService) DeleteDeal(ctx context.Context, dealID string) error {
	ctx, span := s.tracer.Start(ctx, "admin.DeleteDeal")
	defer span.End()

	deal, err := s.dealRepo.FindByID(ctx, dealID)
	if err != nil {
		return err
	}
	if err := s.dealRepo.Delete(ctx, dealID); err != nil {
		span.RecordError(err)
		return err
	}

	s.invalidateDealCaches(ctx, deal.Kind)

	if deal.Image.PublicID != "" {
		// 资源清理失败不影响删除结果，记录后继续
		if err := s.uploader.Remove(ctx, deal.Image.PublicID); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("publicId", deal.Image.PublicID).Msg("failed to remove deal image")
		}
	}
	return nil
}

// AttachDealImage 上传活动图片并把返回的不透明引用挂到活动上。
func (s *AdminService) AttachDealImage(ctx context.Context, dealID, filename string, content []byte) (*domain.Deal, error) {
	ctx, span := s.tracer.Start(ctx, "admin.AttachDealImage")
	defer span.End()

	deal, err := s.dealRepo.FindByID(ctx, dealID)
	if err != nil {
		return nil, err
	}

	image, err := s.uploader.Upload(ctx, filename, content)
	if err != nil {
		span.RecordError(err)
		return nil, apperr.Wrap(err, apperr.CodeDependencyUnavailable, "image upload failed")
	}

	old := deal.Image
	deal.Image = image
	deal.UpdatedAt = time.Now()
	if err := s.dealRepo.Save(ctx, deal); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.invalidateDealCaches(ctx, deal.Kind)

	if old.PublicID != "" {
		if err := s.uploader.Remove(ctx, old.PublicID); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("publicId", old.PublicID).Msg("failed to remove replaced deal image")
		}
	}
	return deal, nil
}

// ListDeals 分页列出某类型的活动，供管理端使用。
func (s *AdminService) ListDeals(ctx context.Context, kind domain.Kind, limit, offset int) ([]domain.Deal, error) {
	if !kind.Valid() {
		return nil, apperr.New(apperr.CodeValidationFailed, "unknown deal kind %q", kind)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.dealRepo.ListByKind(ctx, kind, limit, offset)
}

// SaveCoupon 创建或更新一张优惠券。
func (s *AdminService) SaveCoupon(ctx context.Context, req *SaveCouponRequest) (*domain.Coupon, error) {
	ctx, span := s.tracer.Start(ctx, "admin.SaveCoupon")
	defer span.End()

	if req.Code == "" {
		return nil, apperr.New(apperr.CodeValidationFailed, "coupon code is required")
	}
	if req.Amount <= 0 {
		return nil, apperr.New(apperr.CodeValidationFailed, "coupon amount must be positive")
	}
	if !req.ValidTo.After(req.ValidFrom) {
		return nil, apperr.New(apperr.CodeValidationFailed, "coupon validity window is empty")
	}

	coupon := &domain.Coupon{
		ID:           req.ID,
		Code:         req.Code,
		VendorID:     req.VendorID,
		DiscountType: req.DiscountType,
		Amount:       req.Amount,
		MinPurchase:  req.MinPurchase,
		ValidFrom:    req.ValidFrom,
		ValidTo:      req.ValidTo,
		IsActive:     req.IsActive,
		Rule:         req.Rule,
		UpdatedAt:    time.Now(),
	}
	if coupon.ID == "" {
		coupon.ID = uuid.New().String()
		coupon.CreatedAt = time.Now()
	}

	if err := s.couponRepo.Save(ctx, coupon); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return coupon, nil
}

// DeleteCoupon 删除一张优惠券。
func (s *AdminService) DeleteCoupon(ctx context.Context, id string) error {
	return s.couponRepo.Delete(ctx, id)
}

// invalidateDealCaches 同步清除活动与目录命名空间下的缓存。
// 失效失败时变更本身仍视为成功；Tiered 内部已经记录了告警指标,
// 这里不再向调用方传播错误。
func (s *AdminService) invalidateDealCaches(ctx context.Context, kind domain.Kind) {
	if err := s.cache.Invalidate(ctx, DealCacheNamespace(kind)); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("kind", string(kind)).Msg("deal cache invalidation incomplete")
	}
	if err := s.cache.Invalidate(ctx, catalogapp.CacheNamespace); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("catalog cache invalidation incomplete")
	}
}
