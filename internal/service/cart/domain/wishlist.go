// internal/service/cart/domain/wishlist.go
package domain

import "time"

// WishlistItem 是心愿单中的一条商品收藏。
// 心愿单只属于已登录顾客，没有游客形态。
type WishlistItem struct {
	CustomerID string    `json:"customerId"`
	ProductID  string    `json:"productId"`
	AddedAt    time.Time `json:"addedAt"`
}
