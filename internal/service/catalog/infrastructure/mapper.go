// internal/service/catalog/infrastructure/mapper.go
package infrastructure

import "bazaar/internal/service/catalog/domain"

// ToDomainProduct 将数据库模型转换为领域模型
func ToDomainProduct(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}
	p := &domain.Product{
		ID:           model.ID,
		VendorID:     model.VendorID,
		Title:        model.Title,
		Price:        model.Price,
		Discount:     model.Discount,
		DiscountType: model.DiscountType,
		IsActive:     model.IsActive,
		Status:       model.Status,
		Stock:        model.Stock,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
	for _, v := range model.Variations {
		p.Variations = append(p.Variations, domain.Variation{SKU: v.SKU, Price: v.Price, Stock: v.Stock})
	}
	return p
}

// FromDomainProduct 将领域模型转换为数据库模型
func FromDomainProduct(dmn *domain.Product) *ProductModel {
	if dmn == nil {
		return nil
	}
	m := &ProductModel{
		ID:           dmn.ID,
		VendorID:     dmn.VendorID,
		Title:        dmn.Title,
		Price:        dmn.Price,
		Discount:     dmn.Discount,
		DiscountType: dmn.DiscountType,
		IsActive:     dmn.IsActive,
		Status:       dmn.Status,
		Stock:        dmn.Stock,
		CreatedAt:    dmn.CreatedAt,
		UpdatedAt:    dmn.UpdatedAt,
	}
	for _, v := range dmn.Variations {
		m.Variations = append(m.Variations, VariationModel{ProductID: dmn.ID, SKU: v.SKU, Price: v.Price, Stock: v.Stock})
	}
	return m
}
