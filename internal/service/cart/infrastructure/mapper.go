// internal/service/cart/infrastructure/mapper.go
package infrastructure

import "bazaar/internal/service/cart/domain"

// ToDomainCart 将数据库模型转换为领域模型
func ToDomainCart(model *CartModel) *domain.Cart {
	if model == nil {
		return nil
	}
	c := &domain.Cart{
		ID:         model.ID,
		CustomerID: model.CustomerID.String,
		GuestID:    model.GuestID.String,
		ExpiresAt:  model.ExpiresAt,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
	if model.CouponCode.Valid {
		c.Coupon = &domain.CouponSnapshot{
			Code:      model.CouponCode.String,
			AppliedAt: model.CouponAppliedAt.Time,
		}
	}
	for _, item := range model.Items {
		c.Items = append(c.Items, domain.CartItem{
			ProductID:    item.ProductID,
			VariationSKU: item.VariationSKU,
			Quantity:     item.Quantity,
			AddedAt:      item.AddedAt,
		})
	}
	return c
}
