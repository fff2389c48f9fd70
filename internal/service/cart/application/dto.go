// internal/service/cart/application/dto.go
package application

import (
	promotion "bazaar/internal/service/promotion/domain"
)

// CartLineView 是购物车一行的展示数据，价格已经过定价引擎解析。
type CartLineView struct {
	ProductID    string                `json:"productId"`
	VariationSKU string                `json:"variationSku,omitempty"`
	Title        string                `json:"title"`
	VendorID     string                `json:"vendorId"`
	Quantity     int                   `json:"quantity"`
	BasePrice    float64               `json:"basePrice"`
	FinalPrice   float64               `json:"finalPrice"`
	UnitPrice    float64               `json:"unitPrice"`
	Subtotal     float64               `json:"subtotal"`
	WinningDeal  *promotion.Decoration `json:"winningDeal,omitempty"`
}

// CartView 是购物车聚合后的完整视图。
// 金额都在输出边界做了 2 位小数舍入。
type CartView struct {
	Items          []CartLineView `json:"items"`
	TotalItems     int            `json:"totalItems"`
	Subtotal       float64        `json:"subtotal"`
	CouponCode     string         `json:"couponCode,omitempty"`
	CouponDiscount float64        `json:"couponDiscount"`
	Total          float64        `json:"total"`
}

// WishlistLineView 是心愿单一条收藏的展示数据。
type WishlistLineView struct {
	ProductID   string                `json:"productId"`
	Title       string                `json:"title"`
	BasePrice   float64               `json:"basePrice"`
	FinalPrice  float64               `json:"finalPrice"`
	WinningDeal *promotion.Decoration `json:"winningDeal,omitempty"`
}
