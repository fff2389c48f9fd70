// internal/service/cart/application/wishlist_test.go
package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/pkg/apperr"
	catalog "bazaar/internal/service/catalog/domain"
)

func TestToggleWishlist(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 10, 5))

	inList, err := f.service.ToggleWishlist(context.Background(), customer, "p1")
	require.NoError(t, err)
	assert.True(t, inList)

	// 再次收藏同一商品即取消
	inList, err = f.service.ToggleWishlist(context.Background(), customer, "p1")
	require.NoError(t, err)
	assert.False(t, inList)

	views, err := f.service.ListWishlist(context.Background(), customer)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestToggleWishlistRequiresCustomer(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 10, 5))

	_, err := f.service.ToggleWishlist(context.Background(), guest, "p1")
	assert.True(t, apperr.Is(err, apperr.CodeValidationFailed))
}

func TestToggleWishlistUnknownProduct(t *testing.T) {
	f := newCartFixture()

	_, err := f.service.ToggleWishlist(context.Background(), customer, "ghost")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}

func TestListWishlistPricesAndFilters(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 100, 5))
	p2 := approved("p2", "v1", 50, 5)
	p2.Discount = 10
	p2.DiscountType = catalog.DiscountPercent
	f.addProduct(p2)

	for _, id := range []string{"p1", "p2"} {
		_, err := f.service.ToggleWishlist(context.Background(), customer, id)
		require.NoError(t, err)
	}

	// p1 失效后从列表中静默剔除
	dead := f.products.products["p1"]
	dead.IsActive = false
	f.products.products["p1"] = dead

	views, err := f.service.ListWishlist(context.Background(), customer)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "p2", views[0].ProductID)
	assert.Equal(t, 45.0, views[0].FinalPrice)
}

func TestRemoveFromWishlist(t *testing.T) {
	f := newCartFixture()
	f.addProduct(approved("p1", "v1", 10, 5))

	_, err := f.service.ToggleWishlist(context.Background(), customer, "p1")
	require.NoError(t, err)

	require.NoError(t, f.service.RemoveFromWishlist(context.Background(), customer, "p1"))
	err = f.service.RemoveFromWishlist(context.Background(), customer, "p1")
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))
}
