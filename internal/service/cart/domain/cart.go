// internal/service/cart/domain/cart.go
package domain

import "time"

// CartItem 是购物车中的一行。
// 同一身份下 (ProductID, VariationSKU) 组合唯一：
// 重复加购是数量累加，不产生新行。
type CartItem struct {
	ProductID    string    `json:"productId"`
	VariationSKU string    `json:"variationSku,omitempty"`
	Quantity     int       `json:"quantity"`
	AddedAt      time.Time `json:"addedAt"`
}

// CouponSnapshot 是挂在购物车上的优惠券快照。
type CouponSnapshot struct {
	Code      string    `json:"code"`
	AppliedAt time.Time `json:"appliedAt"`
}

// Cart 是购物车聚合的根实体。
// CustomerID 与 GuestID 互斥，恰好一个非空。
// 游客购物车携带过期时间，登录时并入顾客购物车后删除。
type Cart struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customerId,omitempty"`
	GuestID    string          `json:"guestId,omitempty"`
	Items      []CartItem      `json:"items"`
	Coupon     *CouponSnapshot `json:"coupon,omitempty"`
	ExpiresAt  *time.Time      `json:"expiresAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Line 按 (商品, 规格) 查找一行。
func (c *Cart) Line(productID, sku string) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].VariationSKU == sku {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// MergeFrom 把游客购物车的行并入本购物车：
// 匹配的 (商品, 规格) 行数量相加，未匹配的行追加。
// 只修改内存状态，持久化由应用层负责。
func (c *Cart) MergeFrom(guest *Cart) {
	for _, g := range guest.Items {
		if line, ok := c.Line(g.ProductID, g.VariationSKU); ok {
			line.Quantity += g.Quantity
			continue
		}
		c.Items = append(c.Items, g)
	}
	c.UpdatedAt = time.Now()
}
