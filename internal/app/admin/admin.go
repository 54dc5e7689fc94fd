// Package admin is the back-office surface: dashboard stats, product
// management, order management. Every operation checks the caller's profile
// admin flag before touching the gateway.
package admin

import (
	"context"
	"errors"

	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/app/session"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/internal/notify"
	"github.com/relovehq/storefront/pkg/logger"
)

var ErrAdminOnly = errors.New("admin: admin access required")

// lowStockThreshold flags products for the dashboard restock list.
const lowStockThreshold = 5

type Service struct {
	sessions *session.Holder
	tables   gateway.Tables
	notifier notify.Notifier
}

func NewService(sessions *session.Holder, tables gateway.Tables, notifier notify.Notifier) *Service {
	return &Service{sessions: sessions, tables: tables, notifier: notifier}
}

func (s *Service) requireAdmin(ctx context.Context) error {
	sess := s.sessions.Session()
	if sess == nil {
		return gateway.ErrAuthRequired
	}

	var profile model.Profile
	err := s.tables.SelectSingle(ctx, "profiles", gateway.Query{
		Filter: gateway.Eq("id", sess.User.ID),
	}, &profile)
	if err != nil {
		if errors.Is(err, gateway.ErrNoRows) {
			return ErrAdminOnly
		}
		return err
	}
	if !profile.IsAdmin {
		return ErrAdminOnly
	}
	return nil
}

// DashboardStats is the admin landing page summary.
type DashboardStats struct {
	ActiveProducts int64
	TotalOrders    int64
	Customers      int64
	Revenue        float64
	RecentOrders   []model.Order
	LowStock       []model.Product
}

// Dashboard aggregates store-wide counts, completed-payment revenue, the
// latest orders and the low-stock restock list.
func (s *Service) Dashboard(ctx context.Context) (*DashboardStats, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	stats := &DashboardStats{}
	var err error

	stats.ActiveProducts, err = s.tables.Count(ctx, "products", gateway.Eq("is_active", true))
	if err != nil {
		return nil, err
	}
	stats.TotalOrders, err = s.tables.Count(ctx, "orders", nil)
	if err != nil {
		return nil, err
	}
	stats.Customers, err = s.tables.Count(ctx, "profiles", gateway.Eq("is_admin", false))
	if err != nil {
		return nil, err
	}

	var completed []model.Order
	err = s.tables.Select(ctx, "orders", gateway.Query{
		Filter: gateway.Eq("payment_status", model.PaymentStatusCompleted),
	}, &completed)
	if err != nil {
		return nil, err
	}
	for _, o := range completed {
		stats.Revenue += o.TotalAmount
	}

	err = s.tables.Select(ctx, "orders", gateway.Query{
		Orders: []gateway.Order{{Column: "created_at", Descending: true}},
		Limit:  5,
	}, &stats.RecentOrders)
	if err != nil {
		return nil, err
	}

	err = s.tables.Select(ctx, "products", gateway.Query{
		Filter: gateway.Eq("is_active", true).Lte("stock_count", lowStockThreshold),
		Orders: []gateway.Order{{Column: "stock_count"}},
		Limit:  5,
	}, &stats.LowStock)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Products lists all products for management, newest first.
func (s *Service) Products(ctx context.Context) ([]model.Product, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	var products []model.Product
	err := s.tables.Select(ctx, "products", gateway.Query{
		Orders: []gateway.Order{{Column: "created_at", Descending: true}},
		Embeds: []gateway.Embed{{
			Field:      "category",
			Table:      "categories",
			Columns:    []string{"name"},
			ForeignKey: "category_id",
		}},
	}, &products)
	if err != nil {
		logger.Error("Failed to fetch products for admin", err)
		return nil, err
	}
	return products, nil
}

func (s *Service) CreateProduct(ctx context.Context, product model.Product) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}

	if err := s.tables.Insert(ctx, "products", product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"title": product.Title,
		})
		s.notifier.Error("Failed to save product")
		return err
	}
	s.notifier.Success("Product created successfully")
	return nil
}

func (s *Service) UpdateProduct(ctx context.Context, productID string, patch map[string]interface{}) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}

	if err := s.tables.Update(ctx, "products", patch, gateway.Eq("id", productID)); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": productID,
		})
		s.notifier.Error("Failed to save product")
		return err
	}
	s.notifier.Success("Product updated successfully")
	return nil
}

func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}

	if err := s.tables.Delete(ctx, "products", gateway.Eq("id", productID)); err != nil {
		logger.Error("Failed to delete product", err, map[string]interface{}{
			"product_id": productID,
		})
		s.notifier.Error("Failed to delete product")
		return err
	}
	s.notifier.Success("Product deleted successfully")
	return nil
}

// ToggleActive flips a product's visibility.
func (s *Service) ToggleActive(ctx context.Context, productID string, currentlyActive bool) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}

	patch := map[string]interface{}{"is_active": !currentlyActive}
	if err := s.tables.Update(ctx, "products", patch, gateway.Eq("id", productID)); err != nil {
		logger.Error("Failed to toggle product active flag", err, map[string]interface{}{
			"product_id": productID,
		})
		s.notifier.Error("Failed to update product")
		return err
	}
	if currentlyActive {
		s.notifier.Success("Product deactivated")
	} else {
		s.notifier.Success("Product activated")
	}
	return nil
}

// ToggleFeatured flips a product's home-rail placement.
func (s *Service) ToggleFeatured(ctx context.Context, productID string, currentlyFeatured bool) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}

	patch := map[string]interface{}{"is_featured": !currentlyFeatured}
	if err := s.tables.Update(ctx, "products", patch, gateway.Eq("id", productID)); err != nil {
		logger.Error("Failed to toggle product featured flag", err, map[string]interface{}{
			"product_id": productID,
		})
		s.notifier.Error("Failed to update product")
		return err
	}
	if currentlyFeatured {
		s.notifier.Success("Product removed from featured")
	} else {
		s.notifier.Success("Product marked as featured")
	}
	return nil
}

// Orders lists all orders, optionally narrowed to one shipping status.
func (s *Service) Orders(ctx context.Context, shippingStatus string) ([]model.Order, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}

	var f gateway.Filter
	if shippingStatus != "" {
		f = gateway.Eq("shipping_status", shippingStatus)
	}
	var list []model.Order
	err := s.tables.Select(ctx, "orders", gateway.Query{
		Filter: f,
		Orders: []gateway.Order{{Column: "created_at", Descending: true}},
	}, &list)
	if err != nil {
		logger.Error("Failed to fetch orders for admin", err)
		return nil, err
	}
	return list, nil
}

// UpdateShippingStatus moves an order along the fulfillment pipeline.
func (s *Service) UpdateShippingStatus(ctx context.Context, orderID, status string) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}

	patch := map[string]interface{}{"shipping_status": status}
	if err := s.tables.Update(ctx, "orders", patch, gateway.Eq("id", orderID)); err != nil {
		logger.Error("Failed to update shipping status", err, map[string]interface{}{
			"order_id": orderID,
		})
		s.notifier.Error("Failed to update order status")
		return err
	}
	s.notifier.Success("Order status updated")
	return nil
}
