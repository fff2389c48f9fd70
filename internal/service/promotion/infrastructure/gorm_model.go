// internal/service/promotion/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	catalog "bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/promotion/domain"
)

// DealModel 对应数据库中的 deal 表。
type DealModel struct {
	ID            string      `gorm:"primaryKey;size:36"`
	Kind          domain.Kind `gorm:"size:16;index:idx_kind_published"`
	Title         string      `gorm:"size:255"`
	IsPublished   bool        `gorm:"index:idx_kind_published"`
	StartsAt      *time.Time
	EndsAt        *time.Time
	ImageURL      string `gorm:"size:512"`
	ImagePublicID string `gorm:"size:128"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Items []DealItemModel `gorm:"foreignKey:DealID"`
}

// TableName 指定 GORM 应该使用的表名
func (DealModel) TableName() string {
	return "deal"
}

// DealItemModel 对应数据库中的 deal_item 表。
type DealItemModel struct {
	ID           uint                 `gorm:"primaryKey;autoIncrement"`
	DealID       string               `gorm:"size:36;uniqueIndex:idx_deal_product"`
	ProductID    string               `gorm:"size:36;uniqueIndex:idx_deal_product;index"`
	Discount     float64              `gorm:"type:decimal(10,2)"`
	DiscountType catalog.DiscountType `gorm:"size:16"`
	IsActive     bool
}

// TableName 指定 GORM 应该使用的表名
func (DealItemModel) TableName() string {
	return "deal_item"
}

// CouponModel 对应数据库中的 coupon 表。
type CouponModel struct {
	ID           string               `gorm:"primaryKey;size:36"`
	Code         string               `gorm:"size:64;uniqueIndex"`
	VendorID     string               `gorm:"size:36;index"`
	DiscountType catalog.DiscountType `gorm:"size:16"`
	Amount       float64              `gorm:"type:decimal(10,2)"`
	MinPurchase  float64              `gorm:"type:decimal(10,2)"`
	ValidFrom    time.Time
	ValidTo      time.Time
	IsActive     bool
	Rule         string `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 指定 GORM 应该使用的表名
func (CouponModel) TableName() string {
	return "coupon"
}
