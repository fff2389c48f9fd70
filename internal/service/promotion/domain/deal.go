// internal/service/promotion/domain/deal.go
package domain

import (
	"time"

	catalog "bazaar/internal/service/catalog/domain"
)

// Kind 区分四种结构相似的促销活动。
// 它们共用同一个 Deal 实体，差异只在生效判定策略和优先级。
type Kind string

const (
	KindDealOfDay Kind = "deal_of_day" // 每日特惠
	KindFeatured  Kind = "featured"    // 精选特卖
	KindFlash     Kind = "flash"       // 限时秒杀
	KindClearance Kind = "clearance"   // 清仓甩卖
)

// KindsByPrecedence 是显式的优先级排序，从高到低。
// 定价引擎按这个顺序取第一个命中的活动，后面的直接丢弃。
// 优先级是一条可测试的业务规则，不允许隐含在代码遍历顺序里。
var KindsByPrecedence = []Kind{KindDealOfDay, KindFeatured, KindFlash, KindClearance}

// kindPolicy 描述一种活动类型的生效判定要素。
type kindPolicy struct {
	usesWindow bool // 是否要求 [startsAt, endsAt) 时间窗
}

// 每日特惠和秒杀必须落在时间窗内；精选和清仓只看发布开关。
// 所有类型都要求 isPublished。
var kindPolicies = map[Kind]kindPolicy{
	KindDealOfDay: {usesWindow: true},
	KindFeatured:  {usesWindow: false},
	KindFlash:     {usesWindow: true},
	KindClearance: {usesWindow: false},
}

// Valid 判断是否为已知的活动类型。
func (k Kind) Valid() bool {
	_, ok := kindPolicies[k]
	return ok
}

// Image 是上传服务返回的不透明资源引用。
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// DealItem 是活动中的一条商品记录，带该活动内的专属折扣。
// IsActive 是条目自身的开关：活动整体生效时仍可单独停用某个商品。
type DealItem struct {
	ProductID    string               `json:"productId"`
	Discount     float64              `json:"discount"`
	DiscountType catalog.DiscountType `json:"discountType"`
	IsActive     bool                 `json:"isActive"`
}

// Deal 是促销活动聚合的根实体，四种类型共用。
type Deal struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	Title       string     `json:"title"`
	IsPublished bool       `json:"isPublished"`
	StartsAt    *time.Time `json:"startsAt,omitempty"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
	Image       Image      `json:"image"`
	Items       []DealItem `json:"items"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// LiveAt 判断活动在给定时刻是否整体生效。
// 所有类型要求已发布；带时间窗的类型还要求 now 落在 [startsAt, endsAt)。
func (d *Deal) LiveAt(now time.Time) bool {
	if !d.IsPublished {
		return false
	}
	policy, ok := kindPolicies[d.Kind]
	if !ok {
		return false
	}
	if policy.usesWindow {
		if d.StartsAt == nil || d.EndsAt == nil {
			return false
		}
		if now.Before(*d.StartsAt) || !now.Before(*d.EndsAt) {
			return false
		}
	}
	return true
}

// LiveItem 返回指定商品在本活动中的生效条目。
// 条目生效 = 活动整体生效 且 条目自身 IsActive。
func (d *Deal) LiveItem(productID string, now time.Time) (*DealItem, bool) {
	if !d.LiveAt(now) {
		return nil, false
	}
	for i := range d.Items {
		if d.Items[i].ProductID == productID && d.Items[i].IsActive {
			return &d.Items[i], true
		}
	}
	return nil, false
}
