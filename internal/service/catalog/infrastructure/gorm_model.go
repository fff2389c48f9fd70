// internal/service/catalog/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"bazaar/internal/service/catalog/domain"
)

// ProductModel 对应数据库中的 product 表。
type ProductModel struct {
	ID           string              `gorm:"primaryKey;size:36"`
	VendorID     string              `gorm:"size:36;index"`
	Title        string              `gorm:"size:255"`
	Price        float64             `gorm:"type:decimal(10,2)"`
	Discount     float64             `gorm:"type:decimal(10,2)"`
	DiscountType domain.DiscountType `gorm:"size:16"`
	IsActive     bool
	Status       domain.ProductStatus `gorm:"size:16;index"`
	Stock        int
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Variations []VariationModel `gorm:"foreignKey:ProductID"`
}

// TableName 指定 GORM 应该使用的表名
func (ProductModel) TableName() string {
	return "product"
}

// VariationModel 对应数据库中的 product_variation 表。
type VariationModel struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	ProductID string  `gorm:"size:36;uniqueIndex:idx_product_sku"`
	SKU       string  `gorm:"size:64;uniqueIndex:idx_product_sku"`
	Price     float64 `gorm:"type:decimal(10,2)"`
	Stock     int
}

// TableName 指定 GORM 应该使用的表名
func (VariationModel) TableName() string {
	return "product_variation"
}
