// internal/service/cart/domain/repository.go
package domain

import (
	"context"
	"time"
)

// Owner 标识购物车的归属身份：顾客或游客，恰好一个非空。
type Owner struct {
	CustomerID string
	GuestID    string
}

// CartRepository 定义购物车聚合的持久化接口。
type CartRepository interface {
	// FindByOwner 按归属身份查找购物车；不存在时返回 (nil, nil)。
	FindByOwner(ctx context.Context, owner Owner) (*Cart, error)

	// AddOrIncrementLine 把一行并入购物车：行已存在则数量累加，
	// 否则追加新行；购物车不存在则隐式创建（游客车带 ttl 过期）。
	// 合并必须依托存储层的原子 upsert，并发加购同一行不得丢失增量
	// 或产生重复行。
	AddOrIncrementLine(ctx context.Context, owner Owner, item CartItem, guestTTL time.Duration) error

	// UpdateLineQuantity 改写既有行的数量；行不存在返回 apperr.CodeNotFound。
	UpdateLineQuantity(ctx context.Context, cartID, productID, sku string, quantity int) error

	// RemoveLine 删除一行；行不存在返回 apperr.CodeNotFound。
	RemoveLine(ctx context.Context, cartID, productID, sku string) error

	// ClearItems 清空购物车的全部行和优惠券快照。
	ClearItems(ctx context.Context, cartID string) error

	// ReplaceItems 用给定的行集合整体替换购物车内容（合并流程使用）。
	ReplaceItems(ctx context.Context, cartID string, items []CartItem) error

	// SetCoupon 写入或清除（snapshot 为 nil）优惠券快照。
	SetCoupon(ctx context.Context, cartID string, snapshot *CouponSnapshot) error

	// ReOwn 把游客购物车改挂到顾客名下并清除过期时间。
	ReOwn(ctx context.Context, cartID, customerID string) error

	// Delete 删除整个购物车。
	Delete(ctx context.Context, cartID string) error
}

// WishlistRepository 定义心愿单的持久化接口。
type WishlistRepository interface {
	// List 返回顾客的全部收藏，按加入时间倒序。
	List(ctx context.Context, customerID string) ([]WishlistItem, error)

	// Add 添加收藏；已存在时返回 (false, nil) 表示未新增。
	Add(ctx context.Context, item WishlistItem) (bool, error)

	// Remove 移除收藏；不存在时返回 apperr.CodeNotFound。
	Remove(ctx context.Context, customerID, productID string) error
}
