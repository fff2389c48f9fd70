// internal/service/promotion/domain/coupon.go
package domain

import (
	"time"

	"bazaar/internal/pkg/apperr"
	catalog "bazaar/internal/service/catalog/domain"
)

// Coupon 是一张优惠码。
// VendorID 非空时为商家券，只作用于该商家的购物车行；
// 为空时为平台券，作用于全部符合条件的行。
type Coupon struct {
	ID           string               `json:"id"`
	Code         string               `json:"code"`
	VendorID     string               `json:"vendorId,omitempty"`
	DiscountType catalog.DiscountType `json:"discountType"`
	Amount       float64              `json:"amount"`
	MinPurchase  float64              `json:"minPurchase"`
	ValidFrom    time.Time            `json:"validFrom"`
	ValidTo      time.Time            `json:"validTo"`
	IsActive     bool                 `json:"isActive"`

	// Rule 是可选的 CEL 资格表达式，针对购物车事实求值。
	// 为空表示无附加条件。
	Rule string `json:"rule,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdminWide 判断是否为平台级优惠券。
func (c *Coupon) IsAdminWide() bool { return c.VendorID == "" }

// AppliesTo 判断优惠券是否覆盖指定商家的商品行。
func (c *Coupon) AppliesTo(vendorID string) bool {
	return c.IsAdminWide() || c.VendorID == vendorID
}

// Usable 校验优惠券在给定时刻的可用性。
func (c *Coupon) Usable(now time.Time) error {
	if !c.IsActive {
		return apperr.New(apperr.CodeCouponInactive, "coupon %s is not active", c.Code)
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidTo) {
		return apperr.New(apperr.CodeCouponExpired, "coupon %s is outside its validity window", c.Code)
	}
	return nil
}

// Fact 是规则引擎求值时可见的购物车事实。
// 字段名即 CEL 表达式中的变量名。
type Fact struct {
	EligibleSubtotal float64  `json:"eligible_subtotal"`
	TotalItems       int      `json:"total_items"`
	VendorIDs        []string `json:"vendor_ids"`
	IsCustomer       bool     `json:"is_customer"`
}

// RuleEngine 评估优惠券的附加资格规则。
// 由基础设施层的 CEL 适配器实现。
type RuleEngine interface {
	Evaluate(rule string, fact Fact) (bool, error)
}
