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

// Wishlist mirrors the cart's synchronization pattern for a single-key
// collection: no quantity, no size.
type Wishlist struct {
	sessions *session.Holder
	tables   gateway.Tables
	notifier notify.Notifier

	mu      sync.Mutex
	lines   []model.WishlistLine
	loading bool
	seq     uint64
	applied uint64

	removeListener func()
}

func NewWishlist(sessions *session.Holder, tables gateway.Tables, notifier notify.Notifier) *Wishlist {
	w := &Wishlist{
		sessions: sessions,
		tables:   tables,
		notifier: notifier,
	}
	w.removeListener = sessions.OnChange(func(s *gateway.Session) {
		if s != nil {
			_ = w.Reload(context.Background())
			return
		}
		w.mu.Lock()
		w.lines = nil
		w.loading = false
		w.mu.Unlock()
	})
	return w
}

// Close detaches the store from the session holder.
func (w *Wishlist) Close() {
	if w.removeListener != nil {
		w.removeListener()
	}
}

// Reload re-derives the collection from the gateway, discarding responses
// that lost the race against a newer reload.
func (w *Wishlist) Reload(ctx context.Context) error {
	s := w.sessions.Session()
	if s == nil {
		w.mu.Lock()
		w.lines = nil
		w.loading = false
		w.mu.Unlock()
		return nil
	}

	w.mu.Lock()
	w.seq++
	mine := w.seq
	w.loading = true
	w.mu.Unlock()

	var lines []model.WishlistLine
	err := w.tables.Select(ctx, "wishlist", gateway.Query{
		Filter: gateway.Eq("user_id", s.User.ID),
		Embeds: []gateway.Embed{productEmbed},
	}, &lines)

	w.mu.Lock()
	defer w.mu.Unlock()
	if mine <= w.applied {
		logger.Debug("Discarding stale wishlist reload", map[string]interface{}{
			"seq":     mine,
			"applied": w.applied,
		})
		return nil
	}
	w.applied = mine
	w.loading = w.seq != mine

	if err != nil {
		logger.Error("Failed to load wishlist", err, map[string]interface{}{
			"user_id": s.User.ID,
		})
		w.notifier.Error("Failed to load wishlist")
		return err
	}
	w.lines = lines
	return nil
}

// AddToWishlist inserts a row for the product. Whether a repeated add is
// rejected or duplicated is decided by the gateway's schema, not here.
func (w *Wishlist) AddToWishlist(ctx context.Context, productID string) error {
	s := w.sessions.Session()
	if s == nil {
		w.notifier.Error("Please sign in to add items to wishlist")
		return gateway.ErrAuthRequired
	}

	row := map[string]interface{}{
		"user_id":    s.User.ID,
		"product_id": productID,
	}
	if err := w.tables.Insert(ctx, "wishlist", row); err != nil {
		logger.Error("Failed to add to wishlist", err, map[string]interface{}{
			"user_id":    s.User.ID,
			"product_id": productID,
		})
		w.notifier.Error("Failed to add to wishlist")
		return err
	}

	_ = w.Reload(ctx)
	w.notifier.Success("Added to wishlist")
	return nil
}

// RemoveFromWishlist deletes by (user, product) match; callers typically
// only know the product id. Matching zero rows is not an error.
func (w *Wishlist) RemoveFromWishlist(ctx context.Context, productID string) error {
	s := w.sessions.Session()
	if s == nil {
		return gateway.ErrAuthRequired
	}

	f := gateway.Eq("user_id", s.User.ID).Eq("product_id", productID)
	if err := w.tables.Delete(ctx, "wishlist", f); err != nil {
		logger.Error("Failed to remove from wishlist", err, map[string]interface{}{
			"user_id":    s.User.ID,
			"product_id": productID,
		})
		w.notifier.Error("Failed to remove from wishlist")
		return err
	}

	_ = w.Reload(ctx)
	w.notifier.Success("Removed from wishlist")
	return nil
}

// IsInWishlist is a pure membership test over the current collection.
func (w *Wishlist) IsInWishlist(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, l := range w.lines {
		if l.ProductID == productID {
			return true
		}
	}
	return false
}

// Lines returns a copy of the current collection.
func (w *Wishlist) Lines() []model.WishlistLine {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.WishlistLine(nil), w.lines...)
}

// Loading reports whether a reload is in flight.
func (w *Wishlist) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}
