// internal/service/cart/application/coupon.go
package application

import (
	"context"

	"github.com/shopspring/decimal"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/auth"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/cart/domain"
	catalog "bazaar/internal/service/catalog/domain"
	promotion "bazaar/internal/service/promotion/domain"
)

// ApplyCoupon 校验优惠码后把快照写入购物车并返回带折扣的视图。
// 商家券只对该商家的购物车行计算抵扣，最低消费也只看该子集。
func (s *Service) ApplyCoupon(ctx context.Context, identity auth.Identity, code string) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "cart.ApplyCoupon")
	defer span.End()

	cart, err := s.carts.FindByOwner(ctx, toOwner(identity))
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperr.New(apperr.CodeValidationFailed, "cannot apply a coupon to an empty cart")
	}

	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := coupon.Usable(s.now()); err != nil {
		return nil, err
	}

	view, err := s.buildViewWithoutCoupon(ctx, cart)
	if err != nil {
		return nil, err
	}
	if _, err := s.couponDiscount(ctx, identity, coupon, view); err != nil {
		return nil, err
	}

	if err := s.carts.SetCoupon(ctx, cart.ID, &domain.CouponSnapshot{Code: coupon.Code, AppliedAt: s.now()}); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, identity)
}

// RemoveCoupon 撤下购物车上的优惠码。没有优惠码时是 no-op。
func (s *Service) RemoveCoupon(ctx context.Context, identity auth.Identity) (*CartView, error) {
	ctx, span := s.tracer.Start(ctx, "cart.RemoveCoupon")
	defer span.End()

	cart, err := s.carts.FindByOwner(ctx, toOwner(identity))
	if err != nil {
		return nil, err
	}
	if cart != nil && cart.Coupon != nil {
		if err := s.carts.SetCoupon(ctx, cart.ID, nil); err != nil {
			return nil, err
		}
	}
	return s.GetCart(ctx, identity)
}

// couponDiscount 在当前视图上计算优惠码的抵扣金额。
// 返回前会校验作用域、最低消费和附加规则。
func (s *Service) couponDiscount(ctx context.Context, identity auth.Identity, coupon *promotion.Coupon, view *CartView) (float64, error) {
	eligible := decimal.Zero
	vendorSeen := make(map[string]bool)
	vendorIDs := make([]string, 0, 4)
	for _, line := range view.Items {
		if !vendorSeen[line.VendorID] {
			vendorSeen[line.VendorID] = true
			vendorIDs = append(vendorIDs, line.VendorID)
		}
		if coupon.AppliesTo(line.VendorID) {
			eligible = eligible.Add(decimal.NewFromFloat(line.Subtotal))
		}
	}
	eligibleF, _ := eligible.Round(2).Float64()

	if eligibleF == 0 {
		return 0, apperr.New(apperr.CodeValidationFailed, "coupon %s does not apply to any item in the cart", coupon.Code)
	}
	if eligibleF < coupon.MinPurchase {
		return 0, apperr.New(apperr.CodeMinPurchaseNotMet, "eligible subtotal %.2f is below the required minimum %.2f", eligibleF, coupon.MinPurchase)
	}

	ok, err := s.rules.Evaluate(coupon.Rule, promotion.Fact{
		EligibleSubtotal: eligibleF,
		TotalItems:       view.TotalItems,
		VendorIDs:        vendorIDs,
		IsCustomer:       identity.IsCustomer(),
	})
	if err != nil {
		return 0, apperr.Wrap(err, apperr.CodeValidationFailed, "coupon rule evaluation failed")
	}
	if !ok {
		return 0, apperr.New(apperr.CodeValidationFailed, "cart does not meet the conditions of coupon %s", coupon.Code)
	}

	var discount decimal.Decimal
	switch coupon.DiscountType {
	case catalog.DiscountPercent:
		discount = eligible.Mul(decimal.NewFromFloat(coupon.Amount)).Div(decimal.NewFromInt(100))
	default:
		discount = decimal.NewFromFloat(coupon.Amount)
	}
	if discount.GreaterThan(eligible) {
		discount = eligible // 抵扣不超过可用子集金额
	}
	discountF, _ := discount.Round(2).Float64()
	return discountF, nil
}

// applyCouponToView 在读路径上重算快照优惠码的抵扣。
// 快照对应的券已失效时不报错，只是视图里不再出现折扣。
func (s *Service) applyCouponToView(ctx context.Context, identity auth.Identity, code string, view *CartView) {
	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("code", code).Msg("cart coupon snapshot no longer resolvable")
		return
	}
	if err := coupon.Usable(s.now()); err != nil {
		return
	}
	discount, err := s.couponDiscount(ctx, identity, coupon, view)
	if err != nil {
		return
	}
	view.CouponCode = code
	view.CouponDiscount = discount
	total, _ := decimal.NewFromFloat(view.Subtotal).Sub(decimal.NewFromFloat(discount)).Round(2).Float64()
	view.Total = total
}

// buildViewWithoutCoupon 构建不含优惠码的视图，用于申领时的基线计算。
func (s *Service) buildViewWithoutCoupon(ctx context.Context, cart *domain.Cart) (*CartView, error) {
	stripped := *cart
	stripped.Coupon = nil
	return s.buildView(ctx, auth.Identity{}, &stripped)
}
