// internal/service/catalog/domain/product.go
package domain

import "time"

// DiscountType 定义折扣的计算方式。
type DiscountType string

const (
	DiscountPercent DiscountType = "percent" // 百分比折扣
	DiscountFlat    DiscountType = "flat"    // 固定金额立减
)

// ProductStatus 定义商品的审核状态。
type ProductStatus string

const (
	StatusPending   ProductStatus = "pending"
	StatusApproved  ProductStatus = "approved"
	StatusRejected  ProductStatus = "rejected"
	StatusSuspended ProductStatus = "suspended"
)

// Variation 是商品的一个规格（例如颜色/尺码组合），
// 拥有自己的 SKU、价格和独立库存池。
type Variation struct {
	SKU   string  `json:"sku"`
	Price float64 `json:"price"`
	Stock int     `json:"stock"`
}

// Product 是目录聚合的根实体。
// Price 是标价；Discount/DiscountType 是商家自己的常规折扣，
// 与限时促销活动无关，二者在定价引擎里分层计算。
type Product struct {
	ID           string       `json:"id"`
	VendorID     string       `json:"vendorId"`
	Title        string       `json:"title"`
	Price        float64      `json:"price"`
	Discount     float64      `json:"discount"`
	DiscountType DiscountType `json:"discountType"`

	IsActive   bool          `json:"isActive"`
	Status     ProductStatus `json:"status"`
	Stock      int           `json:"stock"`
	Variations []Variation   `json:"variations,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Purchasable 判断商品当前是否可被购买。
// 只有审核通过且上架中的商品才能进入购物车。
func (p *Product) Purchasable() bool {
	return p.Status == StatusApproved && p.IsActive
}

// Variation 按 SKU 查找规格。
func (p *Product) Variation(sku string) (*Variation, bool) {
	for i := range p.Variations {
		if p.Variations[i].SKU == sku {
			return &p.Variations[i], true
		}
	}
	return nil, false
}

// StockFor 返回指定规格的库存池；sku 为空时返回主库存。
// 第二个返回值为 false 表示该规格不存在。
func (p *Product) StockFor(sku string) (int, bool) {
	if sku == "" {
		return p.Stock, true
	}
	v, ok := p.Variation(sku)
	if !ok {
		return 0, false
	}
	return v.Stock, true
}
