// internal/service/promotion/application/dto.go
package application

import (
	"time"

	catalog "bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/promotion/domain"
)

// DealItemInput 是创建/更新活动时的单条商品输入。
type DealItemInput struct {
	ProductID    string               `json:"productId"`
	Discount     float64              `json:"discount"`
	DiscountType catalog.DiscountType `json:"discountType"`
	IsActive     bool                 `json:"isActive"`
}

// SaveDealRequest 是创建或更新活动用例的输入数据。
type SaveDealRequest struct {
	ID          string          `json:"id,omitempty"` // 为空表示创建
	Kind        domain.Kind     `json:"kind"`
	Title       string          `json:"title"`
	IsPublished bool            `json:"isPublished"`
	StartsAt    *time.Time      `json:"startsAt,omitempty"`
	EndsAt      *time.Time      `json:"endsAt,omitempty"`
	Items       []DealItemInput `json:"items"`
}

// SaveCouponRequest 是创建或更新优惠券用例的输入数据。
type SaveCouponRequest struct {
	ID           string               `json:"id,omitempty"`
	Code         string               `json:"code"`
	VendorID     string               `json:"vendorId,omitempty"`
	DiscountType catalog.DiscountType `json:"discountType"`
	Amount       float64              `json:"amount"`
	MinPurchase  float64              `json:"minPurchase"`
	ValidFrom    time.Time            `json:"validFrom"`
	ValidTo      time.Time            `json:"validTo"`
	IsActive     bool                 `json:"isActive"`
	Rule         string               `json:"rule,omitempty"`
}
