// internal/service/cart/infrastructure/gorm_model.go
package infrastructure

import (
	"database/sql"
	"time"
)

// CartModel 对应数据库中的 cart 表。
// customer_id / guest_id 各自带唯一索引：一个身份至多一辆购物车。
type CartModel struct {
	ID              string         `gorm:"primaryKey;size:36"`
	CustomerID      sql.NullString `gorm:"size:36;uniqueIndex"`
	GuestID         sql.NullString `gorm:"size:64;uniqueIndex"`
	CouponCode      sql.NullString `gorm:"size:64"`
	CouponAppliedAt sql.NullTime
	ExpiresAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []CartItemModel `gorm:"foreignKey:CartID"`
}

// TableName 指定 GORM 应该使用的表名
func (CartModel) TableName() string {
	return "cart"
}

// CartItemModel 对应数据库中的 cart_item 表。
// (cart_id, product_id, variation_sku) 上的唯一索引是
// "存在则累加、不存在则追加" 原子合并的基础。
type CartItemModel struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	CartID       string `gorm:"size:36;uniqueIndex:idx_cart_line"`
	ProductID    string `gorm:"size:36;uniqueIndex:idx_cart_line"`
	VariationSKU string `gorm:"size:64;uniqueIndex:idx_cart_line;default:''"`
	Quantity     int
	AddedAt      time.Time
}

// TableName 指定 GORM 应该使用的表名
func (CartItemModel) TableName() string {
	return "cart_item"
}

// WishlistItemModel 对应数据库中的 wishlist_item 表。
type WishlistItemModel struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	CustomerID string `gorm:"size:36;uniqueIndex:idx_customer_product"`
	ProductID  string `gorm:"size:36;uniqueIndex:idx_customer_product"`
	AddedAt    time.Time
}

// TableName 指定 GORM 应该使用的表名
func (WishlistItemModel) TableName() string {
	return "wishlist_item"
}
