package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/app/session"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/internal/gateway/local"
	"github.com/relovehq/storefront/internal/notify"
)

func setupCartTest(t *testing.T) (*Cart, *local.Gateway, *session.Holder, *notify.Recorder, *model.Product) {
	g, err := local.Open(local.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	h := session.NewHolder(g, g)
	h.Start(context.Background())
	t.Cleanup(h.Close)
	waitReady(t, h)

	rec := notify.NewRecorder()
	cart := NewCart(h, g, rec)
	t.Cleanup(cart.Close)

	product := seedProduct(t, g, "Linen Shirt", 500, nil)
	return cart, g, h, rec, product
}

func waitReady(t *testing.T, h *session.Holder) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.Phase() == session.PhaseReady
	}, time.Second, 5*time.Millisecond)
}

func seedProduct(t *testing.T, g *local.Gateway, title string, price float64, discount *float64) *model.Product {
	t.Helper()
	p := &model.Product{
		ID:            uuid.NewString(),
		Title:         title,
		Price:         price,
		DiscountPrice: discount,
		StockCount:    10,
		IsActive:      true,
	}
	require.NoError(t, g.DB().Create(p).Error)
	return p
}

func signIn(t *testing.T, g *local.Gateway) *gateway.Session {
	t.Helper()
	s, err := g.SignUp(context.Background(), "shopper@example.com", "password123", "Test Shopper")
	require.NoError(t, err)
	return s
}

func TestCart_AddToCart_Success(t *testing.T) {
	cart, g, _, rec, product := setupCartTest(t)
	signIn(t, g)
	rec.Reset()

	err := cart.AddToCart(context.Background(), product.ID, "M")
	assert.NoError(t, err)

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, product.ID, lines[0].ProductID)
	assert.Equal(t, "M", lines[0].Size)
	assert.Equal(t, 1, lines[0].Quantity)
	require.NotNil(t, lines[0].Product)
	assert.Equal(t, "Linen Shirt", lines[0].Product.Title)

	assert.Equal(t, []string{"Added to cart"}, rec.Successes())
}

func TestCart_AddToCart_RequiresSession(t *testing.T) {
	cart, g, _, rec, product := setupCartTest(t)

	err := cart.AddToCart(context.Background(), product.ID, "M")
	assert.ErrorIs(t, err, gateway.ErrAuthRequired)
	assert.Equal(t, []string{"Please sign in to add items to cart"}, rec.Errors())

	// No remote write happened.
	n, err := g.Count(context.Background(), "cart_items", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCart_AddToCart_RepeatResetsQuantity(t *testing.T) {
	cart, g, _, _, product := setupCartTest(t)
	signIn(t, g)

	require.NoError(t, cart.AddToCart(context.Background(), product.ID, "M"))
	lineID := cart.Lines()[0].ID
	require.NoError(t, cart.UpdateQuantity(context.Background(), lineID, 3))
	require.Equal(t, 3, cart.Lines()[0].Quantity)

	// Re-adding the same (product, size) resets the quantity to 1.
	require.NoError(t, cart.AddToCart(context.Background(), product.ID, "M"))

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestCart_AddToCart_SizesAreDistinctLines(t *testing.T) {
	cart, g, _, _, product := setupCartTest(t)
	signIn(t, g)

	require.NoError(t, cart.AddToCart(context.Background(), product.ID, "M"))
	require.NoError(t, cart.AddToCart(context.Background(), product.ID, "L"))
	require.NoError(t, cart.AddToCart(context.Background(), product.ID, ""))

	assert.Len(t, cart.Lines(), 3)
	assert.Equal(t, 3, cart.TotalItems())
}

func TestCart_UpdateQuantity(t *testing.T) {
	cart, g, _, rec, product := setupCartTest(t)
	signIn(t, g)

	require.NoError(t, cart.AddToCart(context.Background(), product.ID, ""))
	lineID := cart.Lines()[0].ID
	rec.Reset()

	err := cart.UpdateQuantity(context.Background(), lineID, 5)
	assert.NoError(t, err)
	assert.Equal(t, 5, cart.Lines()[0].Quantity)
	assert.Equal(t, 5, cart.TotalItems())

	// Quantity changes are silent.
	assert.Empty(t, rec.Successes())
}

func TestCart_UpdateQuantity_NonPositiveRemoves(t *testing.T) {
	cart, g, _, rec, product := setupCartTest(t)
	signIn(t, g)

	require.NoError(t, cart.AddToCart(context.Background(), product.ID, ""))
	lineID := cart.Lines()[0].ID
	rec.Reset()

	err := cart.UpdateQuantity(context.Background(), lineID, 0)
	assert.NoError(t, err)
	assert.Empty(t, cart.Lines())
	assert.Equal(t, []string{"Removed from cart"}, rec.Successes())
}

func TestCart_RemoveFromCart(t *testing.T) {
	cart, g, _, rec, product := setupCartTest(t)
	signIn(t, g)
	other := seedProduct(t, g, "Wool Scarf", 300, nil)

	require.NoError(t, cart.AddToCart(context.Background(), product.ID, ""))
	require.NoError(t, cart.AddToCart(context.Background(), other.ID, ""))
	lineID := cart.Lines()[0].ID
	rec.Reset()

	err := cart.RemoveFromCart(context.Background(), lineID)
	assert.NoError(t, err)
	assert.Len(t, cart.Lines(), 1)
	assert.Equal(t, []string{"Removed from cart"}, rec.Successes())
}

func TestCart_ClearCart(t *testing.T) {
	cart, g, _, rec, product := setupCartTest(t)
	signIn(t, g)
	other := seedProduct(t, g, "Wool Scarf", 300, nil)

	require.NoError(t, cart.AddToCart(context.Background(), product.ID, ""))
	require.NoError(t, cart.AddToCart(context.Background(), other.ID, ""))
	rec.Reset()

	err := cart.ClearCart(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, cart.Lines())
	assert.Empty(t, rec.Successes())

	n, err := g.Count(context.Background(), "cart_items", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCart_ClearCart_RequiresSession(t *testing.T) {
	cart, _, _, rec, _ := setupCartTest(t)

	err := cart.ClearCart(context.Background())
	assert.ErrorIs(t, err, gateway.ErrAuthRequired)
	assert.Empty(t, rec.Errors())
}

func TestCart_Totals(t *testing.T) {
	cart, g, _, _, _ := setupCartTest(t)
	signIn(t, g)

	discount := 400.0
	discounted := seedProduct(t, g, "Summer Dress", 500, &discount)

	require.NoError(t, cart.AddToCart(context.Background(), discounted.ID, "S"))
	lineID := cart.Lines()[0].ID
	require.NoError(t, cart.UpdateQuantity(context.Background(), lineID, 2))

	// Discount price wins over list price.
	assert.Equal(t, 2, cart.TotalItems())
	assert.Equal(t, 800.0, cart.TotalPrice())
}

func TestCart_SignOutEmptiesCart(t *testing.T) {
	cart, g, _, _, product := setupCartTest(t)
	signIn(t, g)

	require.NoError(t, cart.AddToCart(context.Background(), product.ID, ""))
	require.Len(t, cart.Lines(), 1)

	require.NoError(t, g.SignOut(context.Background()))
	assert.Empty(t, cart.Lines())
	assert.False(t, cart.Loading())
}

// gatedTables delays the first Select response until released, simulating a
// reload that loses the race against a later one.
type gatedTables struct {
	gateway.Tables

	mu    sync.Mutex
	calls int
	gate  chan struct{}
}

func (t *gatedTables) Select(ctx context.Context, table string, q gateway.Query, dest interface{}) error {
	t.mu.Lock()
	t.calls++
	n := t.calls
	t.mu.Unlock()

	err := t.Tables.Select(ctx, table, q, dest)
	if n == 1 {
		<-t.gate
	}
	return err
}

func (t *gatedTables) callCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

func TestCart_ReloadDiscardsStaleResponse(t *testing.T) {
	g, err := local.Open(local.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	h := session.NewHolder(g, g)
	h.Start(context.Background())
	t.Cleanup(h.Close)
	waitReady(t, h)

	sess := signIn(t, g)
	product := seedProduct(t, g, "Linen Shirt", 500, nil)
	other := seedProduct(t, g, "Wool Scarf", 300, nil)

	require.NoError(t, g.DB().Create(&model.CartLine{
		ID:        uuid.NewString(),
		UserID:    sess.User.ID,
		ProductID: product.ID,
		Quantity:  1,
	}).Error)

	gated := &gatedTables{Tables: g, gate: make(chan struct{})}
	cart := NewCart(h, gated, notify.NewRecorder())
	t.Cleanup(cart.Close)

	// First reload reads the one-line state, then stalls before delivery.
	done := make(chan error, 1)
	go func() { done <- cart.Reload(context.Background()) }()
	require.Eventually(t, func() bool {
		return gated.callCount() == 1
	}, time.Second, 5*time.Millisecond)

	// A second line lands and a newer reload observes it.
	require.NoError(t, g.DB().Create(&model.CartLine{
		ID:        uuid.NewString(),
		UserID:    sess.User.ID,
		ProductID: other.ID,
		Quantity:  1,
	}).Error)
	require.NoError(t, cart.Reload(context.Background()))
	require.Len(t, cart.Lines(), 2)

	// The stale one-line response arrives late and is discarded.
	close(gated.gate)
	require.NoError(t, <-done)
	assert.Len(t, cart.Lines(), 2)
	assert.False(t, cart.Loading())
}
