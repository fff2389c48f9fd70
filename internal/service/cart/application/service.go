// internal/service/cart/application/service.go
package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/auth"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/cart/domain"
	catalog "bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/pricing"
	promotion "bazaar/internal/service/promotion/domain"
)

// PriceResolver 是购物车服务对定价引擎的依赖。
// 由 pricing.Resolver 实现。
type PriceResolver interface {
	Resolve(ctx context.Context, products []catalog.Product) ([]pricing.PricedProduct, error)
}

// Service 承载购物车的全部业务用例。
// 购物车数据按身份隔离，永远不经过共享缓存，每次读都走定价引擎。
type Service struct {
	carts     domain.CartRepository
	wishlists domain.WishlistRepository
	products  catalog.ProductRepository
	coupons   promotion.CouponRepository
	rules     promotion.RuleEngine
	resolver  PriceResolver
	tracer    trace.Tracer

	maxQuantityPerLine int
	guestCartTTL       time.Duration

	// now 可在测试中替换以固定时钟
	now func() time.Time
}

// NewService 创建购物车服务实例。
func NewService(
	carts domain.CartRepository,
	wishlists domain.WishlistRepository,
	products catalog.ProductRepository,
	coupons promotion.CouponRepository,
	rules promotion.RuleEngine,
	resolver PriceResolver,
	tracer trace.Tracer,
	maxQuantityPerLine int,
	guestCartTTL time.Duration,
) *Service {
	return &Service{
		carts:              carts,
		wishlists:          wishlists,
		products:           products,
		coupons:            coupons,
		rules:              rules,
		resolver:           resolver,
		tracer:             tracer,
		maxQuantityPerLine: maxQuantityPerLine,
		guestCartTTL:       guestCartTTL,
		now:                time.Now,
	}
}

func toOwner(id auth.Identity) domain.Owner {
	return domain.Owner{CustomerID: id.CustomerID, GuestID: id.GuestID}
}

// GetCart 返回身份对应的购物车视图。
// 不可售商品只从视图中静默剔除，存储中的行保持不动；
// 没有购物车时返回零值视图而不是错误。
func (s *Service) GetCart(ctx context.Context, identity auth.Identity) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "cart.GetCart")
	defer span.End()

	cart, err := s.carts.FindByOwner(ctx, toOwner(identity))
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, identity, cart)
}

// AddToCart 校验后把一行并入购物车，返回重新计算的购物车视图。
func (s *Service) AddToCart(ctx context.Context, identity auth.Identity, productID string, quantity int, variationSKU string) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "cart.AddToCart")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID), attribute.Int("quantity", quantity))

	if quantity < 1 {
		return nil, apperr.New(apperr.CodeValidationFailed, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.FindByOwner(ctx, toOwner(identity))
	if err != nil {
		return nil, err
	}
	existing := 0
	if cart != nil {
		if line, ok := cart.Line(productID, variationSKU); ok {
			existing = line.Quantity
		}
	}

	if err := s.validateLine(product, variationSKU, existing+quantity); err != nil {
		return nil, err
	}

	err = s.carts.AddOrIncrementLine(ctx, toOwner(identity), domain.CartItem{
		ProductID:    productID,
		VariationSKU: variationSKU,
		Quantity:     quantity,
		AddedAt:      s.now(),
	}, s.guestCartTTL)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return s.GetCart(ctx, identity)
}

// UpdateItemQuantity 把既有行改写为目标数量，返回重新计算的视图。
func (s *Service) UpdateItemQuantity(ctx context.Context, identity auth.Identity, productID string, quantity int, variationSKU string) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "cart.UpdateItemQuantity")
	defer span.End()

	if quantity < 1 {
		return nil, apperr.New(apperr.CodeValidationFailed, "quantity must be at least 1")
	}

	cart, err := s.requireCartLine(ctx, identity, productID, variationSKU)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.validateLine(product, variationSKU, quantity); err != nil {
		return nil, err
	}

	if err := s.carts.UpdateLineQuantity(ctx, cart.ID, productID, variationSKU, quantity); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, identity)
}

// RemoveItem 删除既有行，返回重新计算的视图。
func (s *Service) RemoveItem(ctx context.Context, identity auth.Identity, productID, variationSKU string) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "cart.RemoveItem")
	defer span.End()

	cart, err := s.requireCartLine(ctx, identity, productID, variationSKU)
	if err != nil {
		return nil, err
	}
	if err := s.carts.RemoveLine(ctx, cart.ID, productID, variationSKU); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, identity)
}

// ClearCart 清空购物车。没有购物车时是静默的 no-op。
func (s *Service) ClearCart(ctx context.Context, identity auth.Identity) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "cart.ClearCart")
	defer span.End()

	cart, err := s.carts.FindByOwner(ctx, toOwner(identity))
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return &CartView{Items: []CartLineView{}}, nil
	}
	if err := s.carts.ClearItems(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, identity)
}

// MergeGuestCart 在登录时把游客购物车并入顾客购物车。
//   - 没有游客购物车：no-op（重复调用因此天然幂等）；
//   - 顾客还没有购物车：直接改挂归属；
//   - 两边都有：匹配行数量相加、未匹配行追加，然后删除游客车。
func (s *Service) MergeGuestCart(ctx context.Context, guestID, customerID string) error {
	ctx, span := s.tracer.Start(ctx, "cart.MergeGuestCart")
	defer span.End()

	guestCart, err := s.carts.FindByOwner(ctx, domain.Owner{GuestID: guestID})
	if err != nil {
		return err
	}
	if guestCart == nil {
		return nil
	}

	customerCart, err := s.carts.FindByOwner(ctx, domain.Owner{CustomerID: customerID})
	if err != nil {
		return err
	}

	if customerCart == nil {
		return s.carts.ReOwn(ctx, guestCart.ID, customerID)
	}

	customerCart.MergeFrom(guestCart)
	if err := s.carts.ReplaceItems(ctx, customerCart.ID, customerCart.Items); err != nil {
		return err
	}
	if err := s.carts.Delete(ctx, guestCart.ID); err != nil {
		return err
	}
	logger.Ctx(ctx).Info().Str("customerId", customerID).Int("lines", len(customerCart.Items)).Msg("guest cart merged")
	return nil
}

// requireCartLine 加载购物车并确认目标行存在。
func (s *Service) requireCartLine(ctx context.Context, identity auth.Identity, productID, variationSKU string) (*domain.Cart, error) {
	cart, err := s.carts.FindByOwner(ctx, toOwner(identity))
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, apperr.New(apperr.CodeNotFound, "cart is empty")
	}
	if _, ok := cart.Line(productID, variationSKU); !ok {
		return nil, apperr.New(apperr.CodeNotFound, "cart line not found")
	}
	return cart, nil
}

// validateLine 按目标行数量做可售性、库存和上限校验。
// targetQuantity 是合并后的行数量，不是本次增量。
func (s *Service) validateLine(product *catalog.Product, variationSKU string, targetQuantity int) error {
	if !product.Purchasable() {
		return apperr.New(apperr.CodeUnavailable, "product %s is not available for purchase", product.ID)
	}
	stock, ok := product.StockFor(variationSKU)
	if !ok {
		return apperr.New(apperr.CodeNotFound, "variation %s not found for product %s", variationSKU, product.ID)
	}
	if targetQuantity > stock {
		return apperr.New(apperr.CodeInsufficientStock, "requested %d exceeds available stock %d", targetQuantity, stock)
	}
	if targetQuantity > s.maxQuantityPerLine {
		return apperr.New(apperr.CodeQuantityLimitExceeded, "quantity %d exceeds per-line limit %d", targetQuantity, s.maxQuantityPerLine)
	}
	return nil
}

// buildView 把存储形态的购物车转成带价格的视图：
// 一次批量取商品 → 剔除不可售 → 一次批量定价 → 汇总金额。
func (s *Service) buildView(ctx context.Context, identity auth.Identity, cart *domain.Cart) (*CartView, error) {
	view := &CartView{Items: []CartLineView{}}
	if cart == nil || len(cart.Items) == 0 {
		return view, nil
	}

	ids := make([]string, 0, len(cart.Items))
	seen := make(map[string]bool)
	for _, item := range cart.Items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	purchasable := make(map[string]catalog.Product)
	batch := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if p.Purchasable() {
			purchasable[p.ID] = p
			batch = append(batch, p)
		}
	}

	priced, err := s.resolver.Resolve(ctx, batch)
	if err != nil {
		return nil, err
	}
	pricedByID := make(map[string]*pricing.PricedProduct, len(priced))
	for i := range priced {
		pricedByID[priced[i].Product.ID] = &priced[i]
	}

	subtotal := decimal.Zero
	for _, item := range cart.Items {
		pp, ok := pricedByID[item.ProductID]
		if !ok {
			continue // 商品已下架或未过审，只在视图中剔除
		}
		if item.VariationSKU != "" {
			if _, ok := pp.Product.Variation(item.VariationSKU); !ok {
				continue // 规格已被商家移除
			}
		}

		unit := pp.UnitPrice(item.VariationSKU)
		lineSubtotal := decimal.NewFromFloat(unit).Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineSubtotal)

		lineSubtotalF, _ := lineSubtotal.Round(2).Float64()
		view.Items = append(view.Items, CartLineView{
			ProductID:    item.ProductID,
			VariationSKU: item.VariationSKU,
			Title:        pp.Product.Title,
			VendorID:     pp.Product.VendorID,
			Quantity:     item.Quantity,
			BasePrice:    pp.BasePrice,
			FinalPrice:   pp.FinalPrice,
			UnitPrice:    unit,
			Subtotal:     lineSubtotalF,
		})
		view.Items[len(view.Items)-1].WinningDeal = pp.WinningDeal
		view.TotalItems += item.Quantity
	}

	subtotalF, _ := subtotal.Round(2).Float64()
	view.Subtotal = subtotalF
	view.Total = subtotalF

	if cart.Coupon != nil {
		s.applyCouponToView(ctx, identity, cart.Coupon.Code, view)
	}
	return view, nil
}
