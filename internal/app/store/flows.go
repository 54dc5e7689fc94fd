package store

import "context"

// Flows composes the two stores for the move operations invoked from the
// cart and wishlist pages. Each move is two independent writes with no
// atomicity; if the first succeeds and the second fails the item is
// transiently present in both collections. The gateway offers no cross-store
// transaction, so the first failed step decides the outcome.
type Flows struct {
	cart     *Cart
	wishlist *Wishlist
}

func NewFlows(cart *Cart, wishlist *Wishlist) *Flows {
	return &Flows{cart: cart, wishlist: wishlist}
}

// MoveToCart adds the product to the cart, then removes it from the
// wishlist.
func (f *Flows) MoveToCart(ctx context.Context, productID string) error {
	if err := f.cart.AddToCart(ctx, productID, ""); err != nil {
		return err
	}
	return f.wishlist.RemoveFromWishlist(ctx, productID)
}

// MoveToWishlist adds the cart line's product to the wishlist, then removes
// the line from the cart.
func (f *Flows) MoveToWishlist(ctx context.Context, cartLineID, productID string) error {
	if err := f.wishlist.AddToWishlist(ctx, productID); err != nil {
		return err
	}
	return f.cart.RemoveFromCart(ctx, cartLineID)
}
