// internal/service/cart/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/service/cart/domain"
)

const mysqlErrDuplicateEntry = 1062

// GormCartRepository 是 CartRepository 的 GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository 创建一个新的 GORM 仓储实例
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func ownerCondition(owner domain.Owner) (string, string) {
	if owner.CustomerID != "" {
		return "customer_id = ?", owner.CustomerID
	}
	return "guest_id = ?", owner.GuestID
}

// FindByOwner 按归属身份查找购物车。
// 不存在、或游客购物车已过期时返回 (nil, nil)。
func (r *GormCartRepository) FindByOwner(ctx context.Context, owner domain.Owner) (*domain.Cart, error) {
	cond, arg := ownerCondition(owner)
	var model CartModel
	err := r.db.WithContext(ctx).Preload("Items").Where(cond, arg).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "query cart by owner")
	}
	if model.ExpiresAt != nil && time.Now().After(*model.ExpiresAt) {
		return nil, nil
	}
	return ToDomainCart(&model), nil
}

// AddOrIncrementLine 原子地把一行并入购物车。
// 行合并依托 (cart_id, product_id, variation_sku) 唯一索引上的
// upsert：INSERT ... ON DUPLICATE KEY UPDATE quantity = quantity + N。
// 并发加购同一行时由存储保证既不丢增量也不产生重复行。
func (r *GormCartRepository) AddOrIncrementLine(ctx context.Context, owner domain.Owner, item domain.CartItem, guestTTL time.Duration) error {
	cartID, err := r.findOrCreateCart(ctx, owner, guestTTL)
	if err != nil {
		return err
	}

	row := CartItemModel{
		CartID:       cartID,
		ProductID:    item.ProductID,
		VariationSKU: item.VariationSKU,
		Quantity:     item.Quantity,
		AddedAt:      item.AddedAt,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}, {Name: "variation_sku"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("quantity + VALUES(quantity)"),
		}),
	}).Create(&row).Error
	return errors.Wrap(err, "upsert cart line")
}

// findOrCreateCart 返回身份对应的购物车 ID，必要时隐式创建。
// 并发创建同一身份的购物车会撞唯一索引，1062 时重读即可。
func (r *GormCartRepository) findOrCreateCart(ctx context.Context, owner domain.Owner, guestTTL time.Duration) (string, error) {
	cond, arg := ownerCondition(owner)
	var model CartModel
	err := r.db.WithContext(ctx).Select("id").Where(cond, arg).First(&model).Error
	if err == nil {
		return model.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errors.Wrap(err, "query cart id")
	}

	fresh := CartModel{ID: uuid.New().String(), CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if owner.CustomerID != "" {
		fresh.CustomerID = sql.NullString{String: owner.CustomerID, Valid: true}
	} else {
		fresh.GuestID = sql.NullString{String: owner.GuestID, Valid: true}
		expires := time.Now().Add(guestTTL)
		fresh.ExpiresAt = &expires
	}
	err = r.db.WithContext(ctx).Create(&fresh).Error
	if err == nil {
		return fresh.ID, nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
		// 另一个并发请求刚创建了这辆车，直接用它的
		if err := r.db.WithContext(ctx).Select("id").Where(cond, arg).First(&model).Error; err != nil {
			return "", errors.Wrap(err, "re-read cart after duplicate create")
		}
		return model.ID, nil
	}
	return "", errors.Wrap(err, "create cart")
}

// UpdateLineQuantity 改写既有行的数量。
func (r *GormCartRepository) UpdateLineQuantity(ctx context.Context, cartID, productID, sku string, quantity int) error {
	res := r.db.WithContext(ctx).Model(&CartItemModel{}).
		Where("cart_id = ? AND product_id = ? AND variation_sku = ?", cartID, productID, sku).
		Update("quantity", quantity)
	if res.Error != nil {
		return errors.Wrap(res.Error, "update cart line quantity")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "cart line not found")
	}
	return nil
}

// RemoveLine 删除一行。
func (r *GormCartRepository) RemoveLine(ctx context.Context, cartID, productID, sku string) error {
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ? AND variation_sku = ?", cartID, productID, sku).
		Delete(&CartItemModel{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "remove cart line")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "cart line not found")
	}
	return nil
}

// ClearItems 清空购物车的全部行和优惠券快照。
func (r *GormCartRepository) ClearItems(ctx context.Context, cartID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&CartItemModel{}).Error; err != nil {
			return errors.Wrap(err, "clear cart items")
		}
		err := tx.Model(&CartModel{}).Where("id = ?", cartID).Updates(map[string]interface{}{
			"coupon_code":       sql.NullString{},
			"coupon_applied_at": sql.NullTime{},
		}).Error
		return errors.Wrap(err, "clear cart coupon")
	})
}

// ReplaceItems 用给定的行集合整体替换购物车内容。
func (r *GormCartRepository) ReplaceItems(ctx context.Context, cartID string, items []domain.CartItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&CartItemModel{}).Error; err != nil {
			return errors.Wrap(err, "delete old cart items")
		}
		if len(items) == 0 {
			return nil
		}
		rows := make([]CartItemModel, 0, len(items))
		for _, item := range items {
			rows = append(rows, CartItemModel{
				CartID:       cartID,
				ProductID:    item.ProductID,
				VariationSKU: item.VariationSKU,
				Quantity:     item.Quantity,
				AddedAt:      item.AddedAt,
			})
		}
		return errors.Wrap(tx.Create(&rows).Error, "insert replacement cart items")
	})
}

// SetCoupon 写入或清除优惠券快照。
func (r *GormCartRepository) SetCoupon(ctx context.Context, cartID string, snapshot *domain.CouponSnapshot) error {
	values := map[string]interface{}{
		"coupon_code":       sql.NullString{},
		"coupon_applied_at": sql.NullTime{},
	}
	if snapshot != nil {
		values["coupon_code"] = sql.NullString{String: snapshot.Code, Valid: true}
		values["coupon_applied_at"] = sql.NullTime{Time: snapshot.AppliedAt, Valid: true}
	}
	res := r.db.WithContext(ctx).Model(&CartModel{}).Where("id = ?", cartID).Updates(values)
	if res.Error != nil {
		return errors.Wrap(res.Error, "set cart coupon")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "cart %s not found", cartID)
	}
	return nil
}

// ReOwn 把游客购物车改挂到顾客名下并清除过期时间。
// 目标顾客已有购物车时会撞 customer_id 唯一索引，调用方应先走合并。
func (r *GormCartRepository) ReOwn(ctx context.Context, cartID, customerID string) error {
	res := r.db.WithContext(ctx).Model(&CartModel{}).Where("id = ?", cartID).Updates(map[string]interface{}{
		"customer_id": sql.NullString{String: customerID, Valid: true},
		"guest_id":    sql.NullString{},
		"expires_at":  nil,
	})
	if res.Error != nil {
		return errors.Wrap(res.Error, "re-own cart")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "cart %s not found", cartID)
	}
	return nil
}

// Delete 删除整个购物车。
func (r *GormCartRepository) Delete(ctx context.Context, cartID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&CartItemModel{}).Error; err != nil {
			return errors.Wrap(err, "delete cart items")
		}
		return errors.Wrap(tx.Where("id = ?", cartID).Delete(&CartModel{}).Error, "delete cart")
	})
}

// GormWishlistRepository 是 WishlistRepository 的 GORM 实现
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewGormWishlistRepository 创建一个新的 GORM 仓储实例
func NewGormWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

// List 返回顾客的全部收藏，按加入时间倒序。
func (r *GormWishlistRepository) List(ctx context.Context, customerID string) ([]domain.WishlistItem, error) {
	var models []WishlistItemModel
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("added_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrap(err, "list wishlist items")
	}
	out := make([]domain.WishlistItem, 0, len(models))
	for _, m := range models {
		out = append(out, domain.WishlistItem{CustomerID: m.CustomerID, ProductID: m.ProductID, AddedAt: m.AddedAt})
	}
	return out, nil
}

// Add 添加收藏；唯一索引冲突表示已收藏，返回 (false, nil)。
func (r *GormWishlistRepository) Add(ctx context.Context, item domain.WishlistItem) (bool, error) {
	err := r.db.WithContext(ctx).Create(&WishlistItemModel{
		CustomerID: item.CustomerID,
		ProductID:  item.ProductID,
		AddedAt:    item.AddedAt,
	}).Error
	if err == nil {
		return true, nil
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
		return false, nil
	}
	return false, errors.Wrap(err, "add wishlist item")
}

// Remove 移除收藏。
func (r *GormWishlistRepository) Remove(ctx context.Context, customerID, productID string) error {
	res := r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&WishlistItemModel{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "remove wishlist item")
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "wishlist item not found")
	}
	return nil
}
