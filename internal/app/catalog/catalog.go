// Package catalog is the read-only product browsing surface: featured and
// new-arrival rails, category list, filtered search, single product fetch.
package catalog

import (
	"context"

	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/pkg/logger"
)

// Sort orders search results.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceLow  Sort = "price_low"
	SortPriceHigh Sort = "price_high"
)

// SearchFilter narrows a product search. Zero values leave a dimension
// unconstrained; MaxPrice of zero means no upper bound.
type SearchFilter struct {
	CategoryIDs []string
	Search      string
	Conditions  []string
	MinPrice    float64
	MaxPrice    float64
	Sort        Sort
}

var categoryEmbed = gateway.Embed{
	Field:      "category",
	Table:      "categories",
	Columns:    []string{"name"},
	ForeignKey: "category_id",
}

type Service struct {
	tables gateway.Tables
}

func NewService(tables gateway.Tables) *Service {
	return &Service{tables: tables}
}

// Categories lists all categories ordered by name.
func (s *Service) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	err := s.tables.Select(ctx, "categories", gateway.Query{
		Orders: []gateway.Order{{Column: "name"}},
	}, &categories)
	if err != nil {
		logger.Error("Failed to fetch categories", err)
		return nil, err
	}
	return categories, nil
}

// Featured lists active featured products for the home rail.
func (s *Service) Featured(ctx context.Context, limit int) ([]model.Product, error) {
	var products []model.Product
	err := s.tables.Select(ctx, "products", gateway.Query{
		Filter: gateway.Eq("is_featured", true).Eq("is_active", true),
		Limit:  limit,
	}, &products)
	if err != nil {
		logger.Error("Failed to fetch featured products", err)
		return nil, err
	}
	return products, nil
}

// NewArrivals lists the newest active products.
func (s *Service) NewArrivals(ctx context.Context, limit int) ([]model.Product, error) {
	var products []model.Product
	err := s.tables.Select(ctx, "products", gateway.Query{
		Filter: gateway.Eq("is_active", true),
		Orders: []gateway.Order{{Column: "created_at", Descending: true}},
		Limit:  limit,
	}, &products)
	if err != nil {
		logger.Error("Failed to fetch new arrivals", err)
		return nil, err
	}
	return products, nil
}

// Search lists active products matching the filter, with the category name
// embedded for display.
func (s *Service) Search(ctx context.Context, f SearchFilter) ([]model.Product, error) {
	filter := gateway.Eq("is_active", true)
	if len(f.CategoryIDs) > 0 {
		values := make([]interface{}, 0, len(f.CategoryIDs))
		for _, id := range f.CategoryIDs {
			values = append(values, id)
		}
		filter = filter.In("category_id", values...)
	}
	if f.Search != "" {
		filter = filter.ILike("title", "%"+f.Search+"%")
	}
	if len(f.Conditions) > 0 {
		values := make([]interface{}, 0, len(f.Conditions))
		for _, c := range f.Conditions {
			values = append(values, c)
		}
		filter = filter.In("condition", values...)
	}
	if f.MinPrice > 0 {
		filter = filter.Gte("price", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		filter = filter.Lte("price", f.MaxPrice)
	}

	var orders []gateway.Order
	switch f.Sort {
	case SortPriceLow:
		orders = []gateway.Order{{Column: "price"}}
	case SortPriceHigh:
		orders = []gateway.Order{{Column: "price", Descending: true}}
	default:
		orders = []gateway.Order{{Column: "created_at", Descending: true}}
	}

	var products []model.Product
	err := s.tables.Select(ctx, "products", gateway.Query{
		Filter: filter,
		Orders: orders,
		Embeds: []gateway.Embed{categoryEmbed},
	}, &products)
	if err != nil {
		logger.Error("Failed to search products", err)
		return nil, err
	}
	return products, nil
}

// Product fetches a single product by id; gateway.ErrNoRows when missing.
func (s *Service) Product(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	err := s.tables.SelectSingle(ctx, "products", gateway.Query{
		Filter: gateway.Eq("id", id),
		Embeds: []gateway.Embed{categoryEmbed},
	}, &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}
