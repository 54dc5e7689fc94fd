package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/relovehq/storefront/config"
	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/internal/gateway/local"
	"github.com/relovehq/storefront/pkg/logger"
)

const (
	adminEmail    = "admin@relove.in"
	adminPassword = "admin1234"
)

// Seeds the local gateway with an admin account, categories and a starter
// catalog. Intended for development and demos, not for the hosted gateway.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		EnableColor: cfg.Logging.EnableColor,
	})

	if cfg.Gateway.Mode != "local" {
		logger.Fatal("Seeding requires GATEWAY_MODE=local", fmt.Errorf("gateway mode is %q", cfg.Gateway.Mode))
	}

	g, err := local.Open(local.Config{
		DSN:       cfg.Local.DSN,
		JWTSecret: cfg.Local.JWTSecret,
		TokenTTL:  cfg.Local.TokenTTL,
	})
	if err != nil {
		logger.Fatal("Failed to open local gateway", err)
	}
	defer g.Close()

	ctx := context.Background()

	if err := seedAdmin(ctx, g); err != nil {
		logger.Fatal("Failed to seed admin account", err)
	}

	categories, err := seedCategories(ctx, g)
	if err != nil {
		logger.Fatal("Failed to seed categories", err)
	}

	count, err := seedProducts(ctx, g, categories)
	if err != nil {
		logger.Fatal("Failed to seed products", err)
	}

	logger.Info("Seed complete", map[string]interface{}{
		"admin_email": adminEmail,
		"categories":  len(categories),
		"products":    count,
	})
}

func seedAdmin(ctx context.Context, g gateway.Gateway) error {
	sess, err := g.SignUp(ctx, adminEmail, adminPassword, "Store Admin")
	if err == gateway.ErrConflict {
		logger.Info("Admin account already exists, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	profile := model.Profile{
		ID:       sess.User.ID,
		Email:    adminEmail,
		FullName: "Store Admin",
		IsAdmin:  true,
	}
	if err := g.Insert(ctx, "profiles", profile); err != nil {
		return err
	}
	return g.SignOut(ctx)
}

func seedCategories(ctx context.Context, g gateway.Gateway) (map[string]string, error) {
	names := []string{"Dresses", "Tops", "Jeans", "Jackets", "Shoes", "Accessories"}

	ids := make(map[string]string, len(names))
	for _, name := range names {
		var existing model.Category
		err := g.SelectSingle(ctx, "categories", gateway.Query{
			Filter: gateway.Eq("name", name),
		}, &existing)
		if err == nil {
			ids[name] = existing.ID
			continue
		}
		if err != gateway.ErrNoRows {
			return nil, err
		}

		c := model.Category{ID: uuid.NewString(), Name: name}
		if err := g.Insert(ctx, "categories", c); err != nil {
			return nil, err
		}
		ids[name] = c.ID
	}
	return ids, nil
}

func seedProducts(ctx context.Context, g gateway.Gateway, categories map[string]string) (int, error) {
	products := []model.Product{
		{
			Title:         "Floral Midi Dress",
			Description:   strPtr("Lightweight floral print midi, worn twice."),
			CategoryID:    catPtr(categories, "Dresses"),
			Sizes:         []string{"S", "M"},
			Condition:     "Like New",
			Price:         1499,
			DiscountPrice: floatPtr(999),
			StockCount:    2,
			Images:        []string{"https://images.relove.in/products/floral-midi-dress.jpg"},
			IsFeatured:    true,
			IsActive:      true,
		},
		{
			Title:       "Classic White Shirt",
			Description: strPtr("Crisp cotton shirt, barely used."),
			CategoryID:  catPtr(categories, "Tops"),
			Sizes:       []string{"S", "M", "L"},
			Condition:   "Gently Used",
			Price:       699,
			StockCount:  4,
			Images:      []string{"https://images.relove.in/products/classic-white-shirt.jpg"},
			IsFeatured:  true,
			IsActive:    true,
		},
		{
			Title:         "High-Waist Straight Jeans",
			Description:   strPtr("Vintage wash, hemmed to 28 inch inseam."),
			CategoryID:    catPtr(categories, "Jeans"),
			Sizes:         []string{"28", "30", "32"},
			Condition:     "Good",
			Price:         1299,
			DiscountPrice: floatPtr(899),
			StockCount:    3,
			Images:        []string{"https://images.relove.in/products/straight-jeans.jpg"},
			IsActive:      true,
		},
		{
			Title:       "Denim Trucker Jacket",
			Description: strPtr("Broken-in denim jacket with brass buttons."),
			CategoryID:  catPtr(categories, "Jackets"),
			Sizes:       []string{"M", "L"},
			Condition:   "Gently Used",
			Price:       1899,
			StockCount:  1,
			Images:      []string{"https://images.relove.in/products/denim-trucker.jpg"},
			IsFeatured:  true,
			IsActive:    true,
		},
		{
			Title:       "Leather Ankle Boots",
			Description: strPtr("Resoled last winter, plenty of life left."),
			CategoryID:  catPtr(categories, "Shoes"),
			Sizes:       []string{"37", "38", "39"},
			Condition:   "Good",
			Price:       2499,
			StockCount:  1,
			Images:      []string{"https://images.relove.in/products/ankle-boots.jpg"},
			IsActive:    true,
		},
		{
			Title:       "Woven Tote Bag",
			Description: strPtr("Handwoven tote, fits a 13 inch laptop."),
			CategoryID:  catPtr(categories, "Accessories"),
			Condition:   "Like New",
			Price:       899,
			StockCount:  5,
			Images:      []string{"https://images.relove.in/products/woven-tote.jpg"},
			IsActive:    true,
		},
	}

	seeded := 0
	for _, p := range products {
		var existing model.Product
		err := g.SelectSingle(ctx, "products", gateway.Query{
			Filter: gateway.Eq("title", p.Title),
		}, &existing)
		if err == nil {
			continue
		}
		if err != gateway.ErrNoRows {
			return seeded, err
		}

		p.ID = uuid.NewString()
		if err := g.Insert(ctx, "products", p); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func catPtr(categories map[string]string, name string) *string {
	id, ok := categories[name]
	if !ok {
		return nil
	}
	return &id
}
