// internal/service/pricing/money.go
package pricing

import (
	"github.com/shopspring/decimal"

	catalog "bazaar/internal/service/catalog/domain"
)

// 金额中间计算全部走 decimal 保持完整精度，
// 只在最终输出边界做一次 2 位小数的舍入。

// applyDiscount 对价格施加一个折扣并把结果钳制在 0 以上。
func applyDiscount(price decimal.Decimal, amount float64, kind catalog.DiscountType) decimal.Decimal {
	var discounted decimal.Decimal
	switch kind {
	case catalog.DiscountPercent:
		cut := price.Mul(decimal.NewFromFloat(amount)).Div(decimal.NewFromInt(100))
		discounted = price.Sub(cut)
	case catalog.DiscountFlat:
		discounted = price.Sub(decimal.NewFromFloat(amount))
	default:
		discounted = price
	}
	if discounted.IsNegative() {
		return decimal.Zero
	}
	return discounted
}

// basePrice 计算商品自身的基础价：标价扣除商家常规折扣。
func basePrice(p *catalog.Product) decimal.Decimal {
	return applyDiscount(decimal.NewFromFloat(p.Price), p.Discount, p.DiscountType)
}

// round2 在输出边界把精确金额舍入为 2 位小数的浮点值。
func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
