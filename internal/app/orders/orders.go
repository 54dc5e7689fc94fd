// Package orders turns the synchronized cart into order records and lists
// the user's order history.
package orders

import (
	"context"
	"errors"

	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/app/session"
	"github.com/relovehq/storefront/internal/app/store"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/internal/notify"
	"github.com/relovehq/storefront/pkg/logger"
)

var ErrEmptyCart = errors.New("orders: cart is empty")

// ShippingPolicy prices delivery: free above the threshold, a flat fee
// otherwise.
type ShippingPolicy struct {
	FreeThreshold float64
	FlatFee       float64
}

func (p ShippingPolicy) Cost(subtotal float64) float64 {
	if subtotal > p.FreeThreshold {
		return 0
	}
	return p.FlatFee
}

type Service struct {
	sessions *session.Holder
	cart     *store.Cart
	tables   gateway.Tables
	notifier notify.Notifier
	shipping ShippingPolicy
}

func NewService(sessions *session.Holder, cart *store.Cart, tables gateway.Tables, notifier notify.Notifier, shipping ShippingPolicy) *Service {
	return &Service{
		sessions: sessions,
		cart:     cart,
		tables:   tables,
		notifier: notifier,
		shipping: shipping,
	}
}

// PlaceOrder freezes the current cart into an order document and inserts
// it, then clears the cart. The two steps are independent remote writes;
// a cart that fails to clear leaves the order in place.
func (s *Service) PlaceOrder(ctx context.Context, shippingAddress model.Address) (*model.Order, error) {
	sess := s.sessions.Session()
	if sess == nil {
		s.notifier.Error("Please sign in to place an order")
		return nil, gateway.ErrAuthRequired
	}

	lines := s.cart.Lines()
	if len(lines) == 0 {
		s.notifier.Error("Your cart is empty")
		return nil, ErrEmptyCart
	}

	items := make([]model.OrderItem, 0, len(lines))
	for _, l := range lines {
		item := model.OrderItem{
			ProductID: l.ProductID,
			Price:     l.UnitPrice(),
			Quantity:  l.Quantity,
			Size:      l.Size,
		}
		if l.Product != nil {
			item.Title = l.Product.Title
			if len(l.Product.Images) > 0 {
				item.Image = l.Product.Images[0]
			}
		}
		items = append(items, item)
	}

	subtotal := s.cart.TotalPrice()
	order := model.Order{
		UserID:          sess.User.ID,
		TotalAmount:     subtotal + s.shipping.Cost(subtotal),
		PaymentStatus:   model.PaymentStatusPending,
		ShippingStatus:  model.ShippingStatusProcessing,
		ShippingAddress: shippingAddress,
		Items:           items,
	}

	if err := s.tables.Insert(ctx, "orders", order); err != nil {
		logger.Error("Failed to place order", err, map[string]interface{}{
			"user_id": sess.User.ID,
		})
		s.notifier.Error("Failed to place order")
		return nil, err
	}

	if err := s.cart.ClearCart(ctx); err != nil {
		logger.Error("Failed to clear cart after order", err, map[string]interface{}{
			"user_id": sess.User.ID,
		})
	}

	logger.Info("Order placed", map[string]interface{}{
		"user_id": sess.User.ID,
		"total":   order.TotalAmount,
		"items":   len(items),
	})
	s.notifier.Success("Order placed successfully")
	return &order, nil
}

// MyOrders lists the user's orders, newest first.
func (s *Service) MyOrders(ctx context.Context) ([]model.Order, error) {
	sess := s.sessions.Session()
	if sess == nil {
		return nil, gateway.ErrAuthRequired
	}

	var list []model.Order
	err := s.tables.Select(ctx, "orders", gateway.Query{
		Filter: gateway.Eq("user_id", sess.User.ID),
		Orders: []gateway.Order{{Column: "created_at", Descending: true}},
	}, &list)
	if err != nil {
		logger.Error("Failed to fetch orders", err, map[string]interface{}{
			"user_id": sess.User.ID,
		})
		return nil, err
	}
	return list, nil
}
