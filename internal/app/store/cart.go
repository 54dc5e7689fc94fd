// Package store holds the client-side synchronized collections: cart and
// wishlist. Both follow the same consistency policy, read-after-write
// re-synchronization: every successful remote mutation is followed by a full
// reload of the collection, and no speculative local change is ever applied.
package store

import (
	"context"
	"sync"

	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/app/session"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/internal/notify"
	"github.com/relovehq/storefront/pkg/logger"
)

// productEmbed attaches the denormalized product snapshot to cart and
// wishlist rows at read time.
var productEmbed = gateway.Embed{
	Field:      "product",
	Table:      "products",
	Columns:    []string{"title", "price", "discount_price", "images"},
	ForeignKey: "product_id",
}

// Cart owns the authoritative-local copy of the current user's cart lines.
// A monotonically increasing reload sequence detects and discards stale
// reload responses, so overlapping writes cannot resurrect older state.
type Cart struct {
	sessions *session.Holder
	tables   gateway.Tables
	notifier notify.Notifier

	mu      sync.Mutex
	lines   []model.CartLine
	loading bool
	seq     uint64
	applied uint64

	removeListener func()
}

// NewCart builds a cart store bound to the session holder: it reloads on
// sign-in and empties on sign-out.
func NewCart(sessions *session.Holder, tables gateway.Tables, notifier notify.Notifier) *Cart {
	c := &Cart{
		sessions: sessions,
		tables:   tables,
		notifier: notifier,
	}
	c.removeListener = sessions.OnChange(func(s *gateway.Session) {
		if s != nil {
			_ = c.Reload(context.Background())
			return
		}
		c.mu.Lock()
		c.lines = nil
		c.loading = false
		c.mu.Unlock()
	})
	return c
}

// Close detaches the store from the session holder.
func (c *Cart) Close() {
	if c.removeListener != nil {
		c.removeListener()
	}
}

// Reload re-derives the collection from the gateway. A response that lost
// the race against a newer reload is discarded; the collection only ever
// moves forward.
func (c *Cart) Reload(ctx context.Context) error {
	s := c.sessions.Session()
	if s == nil {
		c.mu.Lock()
		c.lines = nil
		c.loading = false
		c.mu.Unlock()
		return nil
	}

	c.mu.Lock()
	c.seq++
	mine := c.seq
	c.loading = true
	c.mu.Unlock()

	var lines []model.CartLine
	err := c.tables.Select(ctx, "cart_items", gateway.Query{
		Filter: gateway.Eq("user_id", s.User.ID),
		Embeds: []gateway.Embed{productEmbed},
	}, &lines)

	c.mu.Lock()
	defer c.mu.Unlock()
	if mine <= c.applied {
		// A newer reload already settled; this response is stale.
		logger.Debug("Discarding stale cart reload", map[string]interface{}{
			"seq":     mine,
			"applied": c.applied,
		})
		return nil
	}
	c.applied = mine
	c.loading = c.seq != mine

	if err != nil {
		logger.Error("Failed to load cart", err, map[string]interface{}{
			"user_id": s.User.ID,
		})
		c.notifier.Error("Failed to load cart")
		return err
	}
	c.lines = lines
	return nil
}

// AddToCart upserts a line for (user, product, size) with quantity 1. A
// repeated add for an existing triple resets the quantity to 1 rather than
// incrementing it; that is the documented behavior of the upsert payload.
func (c *Cart) AddToCart(ctx context.Context, productID, size string) error {
	s := c.sessions.Session()
	if s == nil {
		c.notifier.Error("Please sign in to add items to cart")
		return gateway.ErrAuthRequired
	}

	payload := map[string]interface{}{
		"user_id":    s.User.ID,
		"product_id": productID,
		"size":       size,
		"quantity":   1,
	}
	err := c.tables.Upsert(ctx, "cart_items", payload, "user_id", "product_id", "size")
	if err != nil {
		logger.Error("Failed to add to cart", err, map[string]interface{}{
			"user_id":    s.User.ID,
			"product_id": productID,
		})
		c.notifier.Error("Failed to add to cart")
		return err
	}

	_ = c.Reload(ctx)
	c.notifier.Success("Added to cart")
	return nil
}

// UpdateQuantity sets a line's quantity; a requested quantity of zero or
// less removes the line instead.
func (c *Cart) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if quantity <= 0 {
		return c.RemoveFromCart(ctx, lineID)
	}

	patch := map[string]interface{}{"quantity": quantity}
	err := c.tables.Update(ctx, "cart_items", patch, gateway.Eq("id", lineID))
	if err != nil {
		logger.Error("Failed to update quantity", err, map[string]interface{}{
			"cart_line_id": lineID,
		})
		c.notifier.Error("Failed to update quantity")
		return err
	}

	return c.Reload(ctx)
}

// RemoveFromCart deletes a line by id, then reloads.
func (c *Cart) RemoveFromCart(ctx context.Context, lineID string) error {
	err := c.tables.Delete(ctx, "cart_items", gateway.Eq("id", lineID))
	if err != nil {
		logger.Error("Failed to remove from cart", err, map[string]interface{}{
			"cart_line_id": lineID,
		})
		c.notifier.Error("Failed to remove from cart")
		return err
	}

	_ = c.Reload(ctx)
	c.notifier.Success("Removed from cart")
	return nil
}

// ClearCart deletes all of the user's lines and empties the local
// collection directly, without a reload round-trip.
func (c *Cart) ClearCart(ctx context.Context) error {
	s := c.sessions.Session()
	if s == nil {
		return gateway.ErrAuthRequired
	}

	err := c.tables.Delete(ctx, "cart_items", gateway.Eq("user_id", s.User.ID))
	if err != nil {
		logger.Error("Failed to clear cart", err, map[string]interface{}{
			"user_id": s.User.ID,
		})
		c.notifier.Error("Failed to clear cart")
		return err
	}

	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
	return nil
}

// Lines returns a copy of the current collection.
func (c *Cart) Lines() []model.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.CartLine(nil), c.lines...)
}

// Loading reports whether a reload is in flight.
func (c *Cart) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// TotalItems is the sum of line quantities, recomputed on demand.
func (c *Cart) TotalItems() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, l := range c.lines {
		total += l.Quantity
	}
	return total
}

// TotalPrice is the sum of unit price times quantity over all lines, where
// the discount price wins when present.
func (c *Cart) TotalPrice() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0.0
	for _, l := range c.lines {
		total += l.UnitPrice() * float64(l.Quantity)
	}
	return total
}
