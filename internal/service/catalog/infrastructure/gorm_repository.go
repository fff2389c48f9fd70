// internal/service/catalog/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/service/catalog/domain"
)

// GormProductRepository 是 ProductRepository 的 GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository 创建一个新的 GORM 仓储实例
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID 按 ID 查找商品，预加载规格
func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel
	err := r.db.WithContext(ctx).Preload("Variations").Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.CodeNotFound, "product %s not found", id)
		}
		return nil, errors.Wrap(err, "query product by id")
	}
	return ToDomainProduct(&model), nil
}

// FindByIDs 用单次 IN 查询批量取回商品。
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []ProductModel
	err := r.db.WithContext(ctx).Preload("Variations").Where("id IN ?", ids).Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "query products by ids")
	}
	out := make([]domain.Product, 0, len(models))
	for i := range models {
		out = append(out, *ToDomainProduct(&models[i]))
	}
	return out, nil
}

// ListApproved 分页列出可售商品。
func (r *GormProductRepository) ListApproved(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	var models []ProductModel
	err := r.db.WithContext(ctx).Preload("Variations").
		Where("status = ? AND is_active = ?", domain.StatusApproved, true).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list approved products")
	}
	out := make([]domain.Product, 0, len(models))
	for i := range models {
		out = append(out, *ToDomainProduct(&models[i]))
	}
	return out, nil
}

// Save 创建或整体更新一个商品（规格全量替换）。
func (r *GormProductRepository) Save(ctx context.Context, product *domain.Product) error {
	model := FromDomainProduct(product)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Variations").Save(model).Error; err != nil {
			return errors.Wrap(err, "save product")
		}
		if err := tx.Where("product_id = ?", model.ID).Delete(&VariationModel{}).Error; err != nil {
			return errors.Wrap(err, "clear variations")
		}
		if len(model.Variations) > 0 {
			if err := tx.Create(&model.Variations).Error; err != nil {
				return errors.Wrap(err, "save variations")
			}
		}
		return nil
	})
}

// UpdateStatus 更新审核状态与上架标记。
func (r *GormProductRepository) UpdateStatus(ctx context.Context, id string, status domain.ProductStatus, isActive bool) error {
	res := r.db.WithContext(ctx).Model(&ProductModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":    status,
		"is_active": isActive,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update product status")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "product %s not found", id)
	}
	return nil
}
