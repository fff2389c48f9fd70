// internal/service/cart/application/wishlist.go
package application

import (
	"context"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/auth"
	"bazaar/internal/service/cart/domain"
	catalog "bazaar/internal/service/catalog/domain"
)

// ToggleWishlist 收藏商品，已收藏则取消收藏。
// 返回值表示操作后该商品是否在心愿单中。
func (s *Service) ToggleWishlist(ctx context.Context, identity auth.Identity, productID string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "cart.ToggleWishlist")
	defer span.End()

	if !identity.IsCustomer() {
		return false, apperr.New(apperr.CodeValidationFailed, "wishlist requires a signed-in customer")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return false, err
	}

	added, err := s.wishlists.Add(ctx, domain.WishlistItem{
		CustomerID: identity.CustomerID,
		ProductID:  productID,
		AddedAt:    s.now(),
	})
	if err != nil {
		return false, err
	}
	if added {
		return true, nil
	}
	if err := s.wishlists.Remove(ctx, identity.CustomerID, productID); err != nil {
		return false, err
	}
	return false, nil
}

// RemoveFromWishlist 明确移除一条收藏。
func (s *Service) RemoveFromWishlist(ctx context.Context, identity auth.Identity, productID string) error {
	ctx, span := s.tracer.Start(ctx, "cart.RemoveFromWishlist")
	defer span.End()

	if !identity.IsCustomer() {
		return apperr.New(apperr.CodeValidationFailed, "wishlist requires a signed-in customer")
	}
	return s.wishlists.Remove(ctx, identity.CustomerID, productID)
}

// ListWishlist 返回带实时价格的心愿单。
// 已失效的商品静默剔除，与购物车视图的行为一致。
func (s *Service) ListWishlist(ctx context.Context, identity auth.Identity) ([]WishlistLineView, error) {
	ctx, span := s.tracer.Start(ctx, "cart.ListWishlist")
	defer span.End()

	if !identity.IsCustomer() {
		return nil, apperr.New(apperr.CodeValidationFailed, "wishlist requires a signed-in customer")
	}

	items, err := s.wishlists.List(ctx, identity.CustomerID)
	if err != nil {
		return nil, err
	}
	views := make([]WishlistLineView, 0, len(items))
	if len(items) == 0 {
		return views, nil
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	batch := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if p.Purchasable() {
			batch = append(batch, p)
		}
	}
	priced, err := s.resolver.Resolve(ctx, batch)
	if err != nil {
		return nil, err
	}
	pricedByID := make(map[string]int, len(priced))
	for i := range priced {
		pricedByID[priced[i].Product.ID] = i
	}

	for _, item := range items {
		i, ok := pricedByID[item.ProductID]
		if !ok {
			continue
		}
		pp := &priced[i]
		views = append(views, WishlistLineView{
			ProductID:   item.ProductID,
			Title:       pp.Product.Title,
			BasePrice:   pp.BasePrice,
			FinalPrice:  pp.FinalPrice,
			WinningDeal: pp.WinningDeal,
		})
	}
	return views, nil
}
