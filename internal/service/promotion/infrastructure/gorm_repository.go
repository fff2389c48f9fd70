// internal/service/promotion/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"bazaar/internal/pkg/apperr"
	catalog "bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/promotion/domain"
)

// GormDealRepository 是 DealRepository 的 GORM 实现
type GormDealRepository struct {
	db *gorm.DB
}

// NewGormDealRepository 创建一个新的 GORM 仓储实例
func NewGormDealRepository(db *gorm.DB) *GormDealRepository {
	return &GormDealRepository{db: db}
}

// FindByID 按 ID 查找活动，预加载条目
func (r *GormDealRepository) FindByID(ctx context.Context, id string) (*domain.Deal, error) {
	var model DealModel
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "deal %s not found", id)
		}
		return nil, errors.Wrap(err, "query deal by id")
	}
	return ToDomainDeal(&model), nil
}

// liveDealRow 是 FindLiveByKind 单条 SQL 的扁平结果行。
type liveDealRow struct {
	DealID       string
	Title        string
	IsPublished  bool
	StartsAt     *time.Time
	EndsAt       *time.Time
	CreatedAt    time.Time
	ProductID    string
	Discount     float64
	DiscountType catalog.DiscountType
	ItemActive   bool
}

// FindLiveByKind 用一条 JOIN 查询取回命中任一商品的已发布活动及其
// 匹配条目，按创建时间倒序。刻意不用 Preload：那会多发一条 SQL，
// 这里的契约是无论批量多大都只有一次存储往返。
// 时间窗过滤留给领域层的 LiveAt，SQL 只做发布位和商品命中的粗筛。
func (r *GormDealRepository) FindLiveByKind(ctx context.Context, kind domain.Kind, productIDs []string, now time.Time) ([]domain.Deal, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	var rows []liveDealRow
	err := r.db.WithContext(ctx).
		Table("deal").
		Select("deal.id AS deal_id, deal.title, deal.is_published, deal.starts_at, deal.ends_at, deal.created_at, "+
			"deal_item.product_id, deal_item.discount, deal_item.discount_type, deal_item.is_active AS item_active").
		Joins("JOIN deal_item ON deal_item.deal_id = deal.id").
		Where("deal.kind = ? AND deal.is_published = ?", kind, true).
		Where("deal_item.product_id IN ?", productIDs).
		Order("deal.created_at DESC, deal.id").
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query live deals")
	}

	// 将扁平行按活动分组，保持 created_at DESC 的出现顺序
	var deals []domain.Deal
	index := make(map[string]int)
	for _, row := range rows {
		i, ok := index[row.DealID]
		if !ok {
			deals = append(deals, domain.Deal{
				ID:          row.DealID,
				Kind:        kind,
				Title:       row.Title,
				IsPublished: row.IsPublished,
				StartsAt:    row.StartsAt,
				EndsAt:      row.EndsAt,
				CreatedAt:   row.CreatedAt,
			})
			i = len(deals) - 1
			index[row.DealID] = i
		}
		deals[i].Items = append(deals[i].Items, domain.DealItem{
			ProductID:    row.ProductID,
			Discount:     row.Discount,
			DiscountType: row.DiscountType,
			IsActive:     row.ItemActive,
		})
	}
	return deals, nil
}

// ListByKind 分页列出某类型的全部活动，供管理端使用。
func (r *GormDealRepository) ListByKind(ctx context.Context, kind domain.Kind, limit, offset int) ([]domain.Deal, error) {
	var models []DealModel
	err := r.db.WithContext(ctx).Preload("Items").
		Where("kind = ?", kind).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list deals by kind")
	}
	out := make([]domain.Deal, 0, len(models))
	for i := range models {
		out = append(out, *ToDomainDeal(&models[i]))
	}
	return out, nil
}

// Save 创建或整体更新一个活动（条目全量替换）。
func (r *GormDealRepository) Save(ctx context.Context, deal *domain.Deal) error {
	model := FromDomainDeal(deal)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Save(model).Error; err != nil {
			return errors.Wrap(err, "save deal")
		}
		if err := tx.Where("deal_id = ?", model.ID).Delete(&DealItemModel{}).Error; err != nil {
			return errors.Wrap(err, "clear deal items")
		}
		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return errors.Wrap(err, "save deal items")
			}
		}
		return nil
	})
}

// Delete 删除活动及其条目。
func (r *GormDealRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("deal_id = ?", id).Delete(&DealItemModel{}).Error; err != nil {
			return errors.Wrap(err, "delete deal items")
		}
		res := tx.Where("id = ?", id).Delete(&DealModel{})
		if res.Error != nil {
			return errors.Wrap(res.Error, "delete deal")
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.CodeNotFound, "deal %s not found", id)
		}
		return nil
	})
}

// GormCouponRepository 是 CouponRepository 的 GORM 实现
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository 创建一个新的 GORM 仓储实例
func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

// FindByCode 按唯一码查找优惠券
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var model CouponModel
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "coupon %s not found", code)
		}
		return nil, errors.Wrap(err, "query coupon by code")
	}
	return ToDomainCoupon(&model), nil
}

// Save 创建或更新一张优惠券。
// 依赖 code 上的唯一索引兜底并发创建：MySQL 1062 转译为校验失败。
func (r *GormCouponRepository) Save(ctx context.Context, coupon *domain.Coupon) error {
	err := r.db.WithContext(ctx).Save(FromDomainCoupon(coupon)).Error
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return apperr.New(apperr.CodeValidationFailed, "coupon code %s already exists", coupon.Code)
	}
	return errors.Wrap(err, "save coupon")
}

// Delete 删除一张优惠券。
func (r *GormCouponRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&CouponModel{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete coupon")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "coupon %s not found", id)
	}
	return nil
}
