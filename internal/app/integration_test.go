package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relovehq/storefront/internal/app/account"
	"github.com/relovehq/storefront/internal/app/admin"
	"github.com/relovehq/storefront/internal/app/catalog"
	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/app/orders"
	"github.com/relovehq/storefront/internal/app/session"
	"github.com/relovehq/storefront/internal/app/store"
	"github.com/relovehq/storefront/internal/gateway/local"
	"github.com/relovehq/storefront/internal/notify"
)

type testApp struct {
	Gateway  *local.Gateway
	Sessions *session.Holder
	Cart     *store.Cart
	Wishlist *store.Wishlist
	Flows    *store.Flows
	Catalog  *catalog.Service
	Account  *account.Service
	Orders   *orders.Service
	Admin    *admin.Service
	Notify   *notify.Recorder
}

func setupIntegrationTest(t *testing.T) *testApp {
	g, err := local.Open(local.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	sessions := session.NewHolder(g, g)
	sessions.Start(context.Background())
	t.Cleanup(sessions.Close)
	require.Eventually(t, func() bool {
		return sessions.Phase() == session.PhaseReady
	}, time.Second, 5*time.Millisecond)

	rec := notify.NewRecorder()
	cart := store.NewCart(sessions, g, rec)
	t.Cleanup(cart.Close)
	wishlist := store.NewWishlist(sessions, g, rec)
	t.Cleanup(wishlist.Close)

	shipping := orders.ShippingPolicy{FreeThreshold: 999, FlatFee: 99}

	return &testApp{
		Gateway:  g,
		Sessions: sessions,
		Cart:     cart,
		Wishlist: wishlist,
		Flows:    store.NewFlows(cart, wishlist),
		Catalog:  catalog.NewService(g),
		Account:  account.NewService(sessions, g, rec),
		Orders:   orders.NewService(sessions, cart, g, rec, shipping),
		Admin:    admin.NewService(sessions, g, rec),
		Notify:   rec,
	}
}

// The full shopper journey: admin publishes a product, a shopper finds it,
// wishes it, moves it to the cart and checks out.
func TestIntegration_ShopperJourney(t *testing.T) {
	app := setupIntegrationTest(t)
	ctx := context.Background()

	// Admin publishes the product.
	adminSess, err := app.Gateway.SignUp(ctx, "admin@example.com", "password123", "Store Admin")
	require.NoError(t, err)
	require.NoError(t, app.Gateway.DB().Model(&model.Profile{}).
		Where("id = ?", adminSess.User.ID).
		Update("is_admin", true).Error)

	discount := 400.0
	require.NoError(t, app.Admin.CreateProduct(ctx, model.Product{
		Title:         "Summer Dress",
		Price:         500,
		DiscountPrice: &discount,
		StockCount:    3,
		Images:        []string{"https://images.relove.in/summer-dress.jpg"},
		IsFeatured:    true,
		IsActive:      true,
	}))
	require.NoError(t, app.Gateway.SignOut(ctx))

	// Shopper signs up and browses.
	_, err = app.Gateway.SignUp(ctx, "shopper@example.com", "password123", "Happy Shopper")
	require.NoError(t, err)

	featured, err := app.Catalog.Featured(ctx, 8)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	product := featured[0]

	// Wishlist it, then move it to the cart.
	require.NoError(t, app.Wishlist.AddToWishlist(ctx, product.ID))
	require.True(t, app.Wishlist.IsInWishlist(product.ID))

	require.NoError(t, app.Flows.MoveToCart(ctx, product.ID))
	assert.False(t, app.Wishlist.IsInWishlist(product.ID))
	require.Len(t, app.Cart.Lines(), 1)

	require.NoError(t, app.Cart.UpdateQuantity(ctx, app.Cart.Lines()[0].ID, 2))
	assert.Equal(t, 800.0, app.Cart.TotalPrice())

	// Checkout.
	order, err := app.Orders.PlaceOrder(ctx, model.Address{
		Name:    "Happy Shopper",
		Phone:   "9876543210",
		Street:  "12 Lane",
		City:    "Mumbai",
		State:   "MH",
		Pincode: "400001",
		Type:    model.AddressTypeHome,
	})
	require.NoError(t, err)
	assert.Equal(t, 899.0, order.TotalAmount)
	assert.Empty(t, app.Cart.Lines())

	history, err := app.Orders.MyOrders(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.PaymentStatusPending, history[0].PaymentStatus)

	// Signing out empties both collections.
	require.NoError(t, app.Sessions.SignOut(ctx))
	assert.Nil(t, app.Sessions.Session())
	assert.Empty(t, app.Cart.Lines())
	assert.Empty(t, app.Wishlist.Lines())
}

// Shared-device flow: a second account signing in right after the first
// signs out must only ever see its own rows.
func TestIntegration_AccountIsolation(t *testing.T) {
	app := setupIntegrationTest(t)
	ctx := context.Background()

	require.NoError(t, app.Gateway.DB().Create(&model.Product{
		ID:       "p-1",
		Title:    "Linen Shirt",
		Price:    500,
		IsActive: true,
	}).Error)

	_, err := app.Gateway.SignUp(ctx, "first@example.com", "password123", "First User")
	require.NoError(t, err)
	require.NoError(t, app.Cart.AddToCart(ctx, "p-1", "M"))
	require.NoError(t, app.Wishlist.AddToWishlist(ctx, "p-1"))
	require.NoError(t, app.Gateway.SignOut(ctx))

	_, err = app.Gateway.SignUp(ctx, "second@example.com", "password123", "Second User")
	require.NoError(t, err)
	assert.Empty(t, app.Cart.Lines())
	assert.False(t, app.Wishlist.IsInWishlist("p-1"))

	// The first user's rows are still on the backend, scoped to them.
	require.NoError(t, app.Gateway.SignOut(ctx))
	signed, err := app.Gateway.SignIn(ctx, "first@example.com", "password123")
	require.NoError(t, err)
	require.Len(t, app.Cart.Lines(), 1)
	assert.Equal(t, signed.User.ID, app.Cart.Lines()[0].UserID)
	assert.True(t, app.Wishlist.IsInWishlist("p-1"))
}
