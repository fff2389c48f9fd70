// internal/service/promotion/domain/decoration.go
package domain

import (
	"time"

	catalog "bazaar/internal/service/catalog/domain"
)

// Decoration 是批量富化的输出：某个商品命中的一条生效活动摘要。
// 定价引擎按 KindsByPrecedence 在多个 Decoration 之间做裁决。
type Decoration struct {
	Kind         Kind                 `json:"kind"`
	DealID       string               `json:"dealId"`
	Title        string               `json:"title"`
	Discount     float64              `json:"discount"`
	DiscountType catalog.DiscountType `json:"discountType"`
	EndsAt       *time.Time           `json:"endsAt,omitempty"`
}
