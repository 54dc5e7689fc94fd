package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/internal/gateway/local"
)

func setupCatalogTest(t *testing.T) (*Service, *local.Gateway) {
	g, err := local.Open(local.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })
	return NewService(g), g
}

func seedCategory(t *testing.T, g *local.Gateway, name string) *model.Category {
	t.Helper()
	c := &model.Category{ID: uuid.NewString(), Name: name}
	require.NoError(t, g.DB().Create(c).Error)
	return c
}

type productSeed struct {
	title     string
	price     float64
	condition string
	category  *model.Category
	featured  bool
	active    bool
	age       time.Duration
}

func seedCatalogProduct(t *testing.T, g *local.Gateway, s productSeed) *model.Product {
	t.Helper()
	p := &model.Product{
		ID:         uuid.NewString(),
		Title:      s.title,
		Price:      s.price,
		Condition:  s.condition,
		IsFeatured: s.featured,
		IsActive:   s.active,
		StockCount: 5,
		CreatedAt:  time.Now().Add(-s.age),
	}
	if s.category != nil {
		p.CategoryID = &s.category.ID
	}
	require.NoError(t, g.DB().Create(p).Error)
	return p
}

func TestCatalog_Categories(t *testing.T) {
	svc, g := setupCatalogTest(t)
	seedCategory(t, g, "Tops")
	seedCategory(t, g, "Dresses")
	seedCategory(t, g, "Jeans")

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "Dresses", categories[0].Name)
	assert.Equal(t, "Jeans", categories[1].Name)
	assert.Equal(t, "Tops", categories[2].Name)
}

func TestCatalog_Featured(t *testing.T) {
	svc, g := setupCatalogTest(t)
	seedCatalogProduct(t, g, productSeed{title: "Featured Active", featured: true, active: true})
	seedCatalogProduct(t, g, productSeed{title: "Featured Hidden", featured: true, active: false})
	seedCatalogProduct(t, g, productSeed{title: "Plain Active", featured: false, active: true})

	products, err := svc.Featured(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Featured Active", products[0].Title)
}

func TestCatalog_NewArrivals(t *testing.T) {
	svc, g := setupCatalogTest(t)
	seedCatalogProduct(t, g, productSeed{title: "Oldest", active: true, age: 3 * time.Hour})
	seedCatalogProduct(t, g, productSeed{title: "Newest", active: true, age: time.Hour})
	seedCatalogProduct(t, g, productSeed{title: "Middle", active: true, age: 2 * time.Hour})

	products, err := svc.NewArrivals(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Newest", products[0].Title)
	assert.Equal(t, "Middle", products[1].Title)
}

func TestCatalog_Search(t *testing.T) {
	svc, g := setupCatalogTest(t)
	dresses := seedCategory(t, g, "Dresses")
	tops := seedCategory(t, g, "Tops")

	seedCatalogProduct(t, g, productSeed{title: "Silk Midi Dress", price: 1500, condition: "Like New", category: dresses, active: true})
	seedCatalogProduct(t, g, productSeed{title: "Cotton Dress", price: 700, condition: "Good", category: dresses, active: true})
	seedCatalogProduct(t, g, productSeed{title: "Silk Blouse", price: 900, condition: "Like New", category: tops, active: true})
	seedCatalogProduct(t, g, productSeed{title: "Hidden Dress", price: 500, condition: "Good", category: dresses, active: false})

	t.Run("by text", func(t *testing.T) {
		products, err := svc.Search(context.Background(), SearchFilter{Search: "silk"})
		require.NoError(t, err)
		assert.Len(t, products, 2)
	})

	t.Run("by category", func(t *testing.T) {
		products, err := svc.Search(context.Background(), SearchFilter{CategoryIDs: []string{dresses.ID}})
		require.NoError(t, err)
		require.Len(t, products, 2)
		for _, p := range products {
			require.NotNil(t, p.Category)
			assert.Equal(t, "Dresses", p.Category.Name)
		}
	})

	t.Run("by condition", func(t *testing.T) {
		products, err := svc.Search(context.Background(), SearchFilter{Conditions: []string{"Like New"}})
		require.NoError(t, err)
		assert.Len(t, products, 2)
	})

	t.Run("by price range", func(t *testing.T) {
		products, err := svc.Search(context.Background(), SearchFilter{MinPrice: 800, MaxPrice: 1000})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Silk Blouse", products[0].Title)
	})

	t.Run("sorted by price ascending", func(t *testing.T) {
		products, err := svc.Search(context.Background(), SearchFilter{Sort: SortPriceLow})
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, "Cotton Dress", products[0].Title)
		assert.Equal(t, "Silk Midi Dress", products[2].Title)
	})

	t.Run("sorted by price descending", func(t *testing.T) {
		products, err := svc.Search(context.Background(), SearchFilter{Sort: SortPriceHigh})
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, "Silk Midi Dress", products[0].Title)
	})
}

func TestCatalog_Product(t *testing.T) {
	svc, g := setupCatalogTest(t)
	dresses := seedCategory(t, g, "Dresses")
	seeded := seedCatalogProduct(t, g, productSeed{title: "Silk Midi Dress", price: 1500, category: dresses, active: true})

	product, err := svc.Product(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Silk Midi Dress", product.Title)
	require.NotNil(t, product.Category)
	assert.Equal(t, "Dresses", product.Category.Name)
}

func TestCatalog_Product_NotFound(t *testing.T) {
	svc, _ := setupCatalogTest(t)

	_, err := svc.Product(context.Background(), "missing")
	assert.ErrorIs(t, err, gateway.ErrNoRows)
}
