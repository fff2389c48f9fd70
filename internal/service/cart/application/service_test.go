// internal/service/cart/application/service_test.go
package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/auth"
	"bazaar/internal/service/cart/domain"
	catalog "bazaar/internal/service/catalog/domain"
	"bazaar/internal/service/pricing"
	promotion "bazaar/internal/service/promotion/domain"
)

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

// fakeCartRepo 是 CartRepository 的内存假实现，
// 复刻真实仓储的合并与 NotFound 语义。
type fakeCartRepo struct {
	carts map[string]*domain.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: map[string]*domain.Cart{}}
}

func (f *fakeCartRepo) FindByOwner(ctx context.Context, owner domain.Owner) (*domain.Cart, error) {
	for _, c := range f.carts {
		if owner.CustomerID != "" && c.CustomerID == owner.CustomerID {
			return cloneCart(c), nil
		}
		if owner.GuestID != "" && c.GuestID == owner.GuestID {
			return cloneCart(c), nil
		}
	}
	return nil, nil
}

func (f *fakeCartRepo) AddOrIncrementLine(ctx context.Context, owner domain.Owner, item domain.CartItem, guestTTL time.Duration) error {
	var cart *domain.Cart
	for _, c := range f.carts {
		if (owner.CustomerID != "" && c.CustomerID == owner.CustomerID) ||
			(owner.GuestID != "" && c.GuestID == owner.GuestID) {
			cart = c
			break
		}
	}
	if cart == nil {
		cart = &domain.Cart{ID: uuid.New().String(), CustomerID: owner.CustomerID, GuestID: owner.GuestID}
		f.carts[cart.ID] = cart
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == item.ProductID && cart.Items[i].VariationSKU == item.VariationSKU {
			cart.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	cart.Items = append(cart.Items, item)
	return nil
}

func (f *fakeCartRepo) UpdateLineQuantity(ctx context.Context, cartID, productID, sku string, quantity int) error {
	cart, ok := f.carts[cartID]
	if !ok {
		return apperr.New(apperr.CodeNotFound, "cart not found")
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID && cart.Items[i].VariationSKU == sku {
			cart.Items[i].Quantity = quantity
			return nil
		}
	}
	return apperr.New(apperr.CodeNotFound, "cart line not found")
}

func (f *fakeCartRepo) RemoveLine(ctx context.Context, cartID, productID, sku string) error {
	cart, ok := f.carts[cartID]
	if !ok {
		return apperr.New(apperr.CodeNotFound, "cart not found")
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID && cart.Items[i].VariationSKU == sku {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
	}
	return apperr.New(apperr.CodeNotFound, "cart line not found")
}

func (f *fakeCartRepo) ClearItems(ctx context.Context, cartID string) error {
	if cart, ok := f.carts[cartID]; ok {
		cart.Items = nil
		cart.Coupon = nil
	}
	return nil
}

func (f *fakeCartRepo) ReplaceItems(ctx context.Context, cartID string, items []domain.CartItem) error {
	if cart, ok := f.carts[cartID]; ok {
		cart.Items = append([]domain.CartItem(nil), items...)
	}
	return nil
}

func (f *fakeCartRepo) SetCoupon(ctx context.Context, cartID string, snapshot *domain.CouponSnapshot) error {
	if cart, ok := f.carts[cartID]; ok {
		cart.Coupon = snapshot
	}
	return nil
}

func (f *fakeCartRepo) ReOwn(ctx context.Context, cartID, customerID string) error {
	if cart, ok := f.carts[cartID]; ok {
		cart.GuestID = ""
		cart.CustomerID = customerID
	}
	return nil
}

func (f *fakeCartRepo) Delete(ctx context.Context, cartID string) error {
	delete(f.carts, cartID)
	return nil
}

func cloneCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = append([]domain.CartItem(nil), c.Items...)
	if c.Coupon != nil {
		coupon := *c.Coupon
		out.Coupon = &coupon
	}
	return &out
}

type fakeWishlistRepo struct {
	items []domain.WishlistItem
}

func (f *fakeWishlistRepo) List(ctx context.Context, customerID string) ([]domain.WishlistItem, error) {
	var out []domain.WishlistItem
	for _, item := range f.items {
		if item.CustomerID == customerID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeWishlistRepo) Add(ctx context.Context, item domain.WishlistItem) (bool, error) {
	for _, existing := range f.items {
		if existing.CustomerID == item.CustomerID && existing.ProductID == item.ProductID {
			return false, nil
		}
	}
	f.items = append(f.items, item)
	return true, nil
}

func (f *fakeWishlistRepo) Remove(ctx context.Context, customerID, productID string) error {
	for i, item := range f.items {
		if item.CustomerID == customerID && item.ProductID == productID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return apperr.New(apperr.CodeNotFound, "wishlist item not found")
}

type fakeProductRepo struct {
	products map[string]catalog.Product
}

func (f *fakeProductRepo) FindByID(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "product %s not found", id)
	}
	return &p, nil
}

func (f *fakeProductRepo) FindByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) ListApproved(ctx context.Context, limit, offset int) ([]catalog.Product, error) {
	return nil, nil
}
func (f *fakeProductRepo) Save(ctx context.Context, product *catalog.Product) error { return nil }
func (f *fakeProductRepo) UpdateStatus(ctx context.Context, id string, status catalog.ProductStatus, isActive bool) error {
	return nil
}

type fakeCouponRepo struct {
	coupons map[string]promotion.Coupon
}

func (f *fakeCouponRepo) FindByCode(ctx context.Context, code string) (*promotion.Coupon, error) {
	c, ok := f.coupons[code]
	if !ok {
		return nil, apperr.New(apperr.CodeNotFound, "coupon %s not found", code)
	}
	return &c, nil
}
func (f *fakeCouponRepo) Save(ctx context.Context, coupon *promotion.Coupon) error { return nil }
func (f *fakeCouponRepo) Delete(ctx context.Context, id string) error              { return nil }

// passRuleEngine 放行没有规则的券；带规则时按预设结果返回。
type passRuleEngine struct {
	results map[string]bool
}

func (e *passRuleEngine) Evaluate(rule string, fact promotion.Fact) (bool, error) {
	if rule == "" {
		return true, nil
	}
	return e.results[rule], nil
}

// passthroughResolver 不挂任何活动：最终价 = 基础价 = 标价减商家折扣。
type passthroughResolver struct{}

func (passthroughResolver) Resolve(ctx context.Context, products []catalog.Product) ([]pricing.PricedProduct, error) {
	out := make([]pricing.PricedProduct, 0, len(products))
	for _, p := range products {
		price := p.Price
		if p.DiscountType == catalog.DiscountPercent {
			price = p.Price * (100 - p.Discount) / 100
		} else if p.DiscountType == catalog.DiscountFlat {
			price = p.Price - p.Discount
		}
		out = append(out, pricing.PricedProduct{Product: p, BasePrice: price, FinalPrice: price})
	}
	return out, nil
}

type cartFixture struct {
	service   *Service
	carts     *fakeCartRepo
	wishlists *fakeWishlistRepo
	products  *fakeProductRepo
	coupons   *fakeCouponRepo
	rules     *passRuleEngine
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		carts:     newFakeCartRepo(),
		wishlists: &fakeWishlistRepo{},
		products:  &fakeProductRepo{products: map[string]catalog.Product{}},
		coupons:   &fakeCouponRepo{coupons: map[string]promotion.Coupon{}},
		rules:     &passRuleEngine{results: map[string]bool{}},
	}
	f.service = NewService(
		f.carts, f.wishlists, f.products, f.coupons, f.rules,
		passthroughResolver{}, noop.NewTracerProvider().Tracer("test"),
		100, 14*24*time.Hour,
	)
	f.service.now = func() time.Time { return testNow }
	return f
}

func (f *cartFixture) addProduct(p catalog.Product) {
	f.products.products[p.ID] = p
}

func approved(id, vendorID string, price float64, stock int) catalog.Product {
	return catalog.Product{
		ID: id, VendorID: vendorID, Title: "Product " + id,
		Price: price, Stock: stock,
		IsActive: true, Status: catalog.StatusApproved,
	}
}

var customer = auth.Identity{CustomerID: "c1"}
var guest = auth.Identity{GuestID: "g1"}

func TestAddToCartHappyPath(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 19.99, 10))

	view, err := f.service.AddToCart(context.Background(), customer, "p1", 2, "")
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
	assert.Equal(t, 39.98, view.Items[0].Subtotal)
	assert.Equal(t, 39.98, view.Subtotal)
	assert.Equal(t, 39.98, view.Total)
	assert.Equal(t, 2, view.TotalItems)
}

func TestAddToCartMergesExistingLine(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 10, 10))

	_, err := f.service.AddToCart(context.Background(), customer, "p1", 2, "")
	require.NoError(t, err)
	view, err := f.service.AddToCart(context.Background(), customer, "p1", 3, "")
	require.NoError(t, err)

	require.Len(t, view.Items, 1, "same (product, sku) must merge, not duplicate")
	assert.Equal(t, 5, view.Items[0].Quantity)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	f := newCartFixture()

	_, err := f.service.AddToCart(context.Background(), customer, "ghost", 1, "")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestAddToCartUnpurchasableProduct(t *testing.T) {
	f := newCartFixture()
	pending := approved("p1", "v1", 10, 10)
	pending.Status = catalog.StatusPending
	f.addProduct(pending)

	_, err := f.service.AddToCart(context.Background(), customer, "p1", 1, "")
	assert.True(t, apperr.Is(err, apperr.CodeUnavailable))

	inactive := approved("p2", "v1", 10, 10)
	inactive.IsActive = false
	f.addProduct(inactive)

	_, err = f.service.AddToCart(context.Background(), customer, "p2", 1, "")
	assert.True(t, apperr.Is(err, apperr.CodeUnavailable))
}

func TestAddToCartStockValidatesMergedQuantity(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 10, 5))

	_, err := f.service.AddToCart(context.Background(), customer, "p1", 3, "")
	require.NoError(t, err)

	// 已有 3 件，再加 3 件会超过库存 5
	_, err = f.service.AddToCart(context.Background(), customer, "p1", 3, "")
	assert.True(t, apperr.Is(err, apperr.CodeInsufficientStock))

	// 正好加满到库存边界则放行
	view, err := f.service.AddToCart(context.Background(), customer, "p1", 2, "")
	require.NoError(t, err)
	assert.Equal(t, 5, view.Items[0].Quantity)
}

func TestAddToCartQuantityCap(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 10, 500))

	_, err := f.service.AddToCart(context.Background(), customer, "p1", 101, "")
	assert.True(t, apperr.Is(err, apperr.CodeQuantityLimitExceeded))

	view, err := f.service.AddToCart(context.Background(), customer, "p1", 100, "")
	require.NoError(t, err)
	assert.Equal(t, 100, view.Items[0].Quantity)

	_, err = f.service.AddToCart(context.Background(), customer, "p1", 1, "")
	assert.True(t, apperr.Is(err, apperr.CodeQuantityLimitExceeded), "the cap applies to the merged quantity")
}

func TestAddToCartVariationStockPool(t *testing.T) {
	f := newCartFixture()
	p := approved("p1", "v1", 100, 50)
	p.Variations = []catalog.Variation{{SKU: "red-s", Price: 110, Stock: 2}}
	f.addProduct(p)

	_, err := f.service.AddToCart(context.Background(), customer, "p1", 1, "missing-sku")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	_, err = f.service.AddToCart(context.Background(), customer, "p1", 3, "red-s")
	assert.True(t, apperr.Is(err, apperr.CodeInsufficientStock), "variation stock pool is independent of the main pool")

	view, err := f.service.AddToCart(context.Background(), customer, "p1", 2, "red-s")
	require.NoError(t, err)
	assert.Equal(t, "red-s", view.Items[0].VariationSKU)
	assert.Equal(t, 110.0, view.Items[0].UnitPrice)
}

func TestAddToCartDistinctSKUsAreDistinctLines(t *testing.T) {
	f := newCartFixture()
	p := approved("p1", "v1", 100, 50)
	p.Variations = []catalog.Variation{
		{SKU: "red-s", Price: 100, Stock: 5},
		{SKU: "blue-m", Price: 105, Stock: 5},
	}
	f.addProduct(p)

	_, err := f.service.AddToCart(context.Background(), customer, "p1", 1, "red-s")
	require.NoError(t, err)
	view, err := f.service.AddToCart(context.Background(), customer, "p1", 1, "blue-m")
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
}

func TestGetCartAbsentIsZeroValue(t *testing.T) {
	f := newCartFixture()

	view, err := f.service.GetCart(context.Background(), customer)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Zero(t, view.Total)
}

func TestGetCartFiltersUnpurchasableFromViewOnly(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 10, 10))
	f.addProduct(approved("p2", "v1", 20, 10))

	_, err := f.service.AddToCart(context.Background(), customer, "p1", 1, "")
	require.NoError(t, err)
	_, err = f.service.AddToCart(context.Background(), customer, "p2", 1, "")
	require.NoError(t, err)

	// p2 下架
	suspended := f.products.products["p2"]
	suspended.Status = catalog.StatusSuspended
	f.products.products["p2"] = suspended

	view, err := f.service.GetCart(context.Background(), customer)
	require.NoError(t, err)
	require.Len(t, view.Items, 1, "suspended product disappears from the view")
	assert.Equal(t, "p1", view.Items[0].ProductID)
	assert.Equal(t, 10.0, view.Total)

	// 存储中的行必须原样保留，重新上架后自动回来
	restored := f.products.products["p2"]
	restored.Status = catalog.StatusApproved
	f.products.products["p2"] = restored

	view, err = f.service.GetCart(context.Background(), customer)
	require.NoError(t, err)
	assert.Len(t, view.Items, 2)
}

func TestUpdateItemQuantity(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 10, 10))

	_, err := f.service.AddToCart(context.Background(), customer, "p1", 1, "")
	require.NoError(t, err)

	view, err := f.service.UpdateItemQuantity(context.Background(), customer, "p1", 7, "")
	require.NoError(t, err)
	assert.Equal(t, 7, view.Items[0].Quantity)

	_, err = f.service.UpdateItemQuantity(context.Background(), customer, "p1", 11, "")
	assert.True(t, apperr.Is(err, apperr.CodeInsufficientStock))

	_, err = f.service.UpdateItemQuantity(context.Background(), customer, "ghost", 1, "")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestRemoveItemAndClearCart(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 10, 10))
	f.addProduct(approved("p2", "v1", 20, 10))

	_, err := f.service.AddToCart(context.Background(), customer, "p1", 1, "")
	require.NoError(t, err)
	_, err = f.service.AddToCart(context.Background(), customer, "p2", 1, "")
	require.NoError(t, err)

	view, err := f.service.RemoveItem(context.Background(), customer, "p1", "")
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	_, err = f.service.RemoveItem(context.Background(), customer, "p1", "")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	view, err = f.service.ClearCart(context.Background(), customer)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestMergeGuestCartIntoExistingCustomerCart(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 10, 50))
	f.addProduct(approved("p2", "v1", 20, 50))
	f.addProduct(approved("p3", "v1", 30, 50))

	_, err := f.service.AddToCart(context.Background(), guest, "p1", 2, "")
	require.NoError(t, err)
	_, err = f.service.AddToCart(context.Background(), guest, "p3", 1, "")
	require.NoError(t, err)

	_, err = f.service.AddToCart(context.Background(), customer, "p1", 3, "")
	require.NoError(t, err)
	_, err = f.service.AddToCart(context.Background(), customer, "p2", 1, "")
	require.NoError(t, err)

	require.NoError(t, f.service.MergeGuestCart(context.Background(), "g1", "c1"))

	view, err := f.service.GetCart(context.Background(), customer)
	require.NoError(t, err)
	require.Len(t, view.Items, 3)

	byProduct := map[string]int{}
	for _, line := range view.Items {
		byProduct[line.ProductID] = line.Quantity
	}
	assert.Equal(t, 5, byProduct["p1"], "matching lines sum their quantities")
	assert.Equal(t, 1, byProduct["p2"])
	assert.Equal(t, 1, byProduct["p3"], "unmatched guest lines are appended")

	guestView, err := f.service.GetCart(context.Background(), guest)
	require.NoError(t, err)
	assert.Empty(t, guestView.Items, "the guest cart is deleted after the merge")
}

func TestMergeGuestCartReownsWhenCustomerHasNone(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 10, 50))

	_, err := f.service.AddToCart(context.Background(), guest, "p1", 2, "")
	require.NoError(t, err)

	require.NoError(t, f.service.MergeGuestCart(context.Background(), "g1", "c1"))

	view, err := f.service.GetCart(context.Background(), customer)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 2, view.Items[0].Quantity)
}

func TestMergeGuestCartIsIdempotent(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 10, 50))

	_, err := f.service.AddToCart(context.Background(), guest, "p1", 2, "")
	require.NoError(t, err)

	require.NoError(t, f.service.MergeGuestCart(context.Background(), "g1", "c1"))
	require.NoError(t, f.service.MergeGuestCart(context.Background(), "g1", "c1"), "a re-run with no guest cart is a no-op")

	view, err := f.service.GetCart(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Items[0].Quantity)
}

func TestMergeGuestCartNoGuestCartIsNoop(t *testing.T) {
	f := newCartFixture()
	require.NoError(t, f.service.MergeGuestCart(context.Background(), "nobody", "c1"))
}
