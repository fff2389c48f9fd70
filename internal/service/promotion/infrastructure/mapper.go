// internal/service/promotion/infrastructure/mapper.go
package infrastructure

import "bazaar/internal/service/promotion/domain"

// ToDomainDeal 将数据库模型转换为领域模型
func ToDomainDeal(model *DealModel) *domain.Deal {
	if model == nil {
		return nil
	}
	d := &domain.Deal{
		ID:          model.ID,
		Kind:        model.Kind,
		Title:       model.Title,
		IsPublished: model.IsPublished,
		StartsAt:    model.StartsAt,
		EndsAt:      model.EndsAt,
		Image:       domain.Image{URL: model.ImageURL, PublicID: model.ImagePublicID},
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	for _, item := range model.Items {
		d.Items = append(d.Items, domain.DealItem{
			ProductID:    item.ProductID,
			Discount:     item.Discount,
			DiscountType: item.DiscountType,
			IsActive:     item.IsActive,
		})
	}
	return d
}

// FromDomainDeal 将领域模型转换为数据库模型
func FromDomainDeal(dmn *domain.Deal) *DealModel {
	if dmn == nil {
		return nil
	}
	m := &DealModel{
		ID:            dmn.ID,
		Kind:          dmn.Kind,
		Title:         dmn.Title,
		IsPublished:   dmn.IsPublished,
		StartsAt:      dmn.StartsAt,
		EndsAt:        dmn.EndsAt,
		ImageURL:      dmn.Image.URL,
		ImagePublicID: dmn.Image.PublicID,
		CreatedAt:     dmn.CreatedAt,
		UpdatedAt:     dmn.UpdatedAt,
	}
	for _, item := range dmn.Items {
		m.Items = append(m.Items, DealItemModel{
			DealID:       dmn.ID,
			ProductID:    item.ProductID,
			Discount:     item.Discount,
			DiscountType: item.DiscountType,
			IsActive:     item.IsActive,
		})
	}
	return m
}

// ToDomainCoupon 将数据库模型转换为领域模型
func ToDomainCoupon(model *CouponModel) *domain.Coupon {
	if model == nil {
		return nil
	}
	return &domain.Coupon{
		ID:           model.ID,
		Code:         model.Code,
		VendorID:     model.VendorID,
		DiscountType: model.DiscountType,
		Amount:       model.Amount,
		MinPurchase:  model.MinPurchase,
		ValidFrom:    model.ValidFrom,
		ValidTo:      model.ValidTo,
		IsActive:     model.IsActive,
		Rule:         model.Rule,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// FromDomainCoupon 将领域模型转换为数据库模型
func FromDomainCoupon(dmn *domain.Coupon) *CouponModel {
	if dmn == nil {
		return nil
	}
	return &CouponModel{
		ID:           dmn.ID,
		Code:         dmn.Code,
		VendorID:     dmn.VendorID,
		DiscountType: dmn.DiscountType,
		Amount:       dmn.Amount,
		MinPurchase:  dmn.MinPurchase,
		ValidFrom:    dmn.ValidFrom,
		ValidTo:      dmn.ValidTo,
		IsActive:     dmn.IsActive,
		Rule:         dmn.Rule,
		CreatedAt:    dmn.CreatedAt,
		UpdatedAt:    dmn.UpdatedAt,
	}
}
