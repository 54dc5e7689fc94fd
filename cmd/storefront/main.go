package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/relovehq/storefront/config"
	"github.com/relovehq/storefront/internal/app/account"
	"github.com/relovehq/storefront/internal/app/admin"
	"github.com/relovehq/storefront/internal/app/catalog"
	"github.com/relovehq/storefront/internal/app/orders"
	"github.com/relovehq/storefront/internal/app/session"
	"github.com/relovehq/storefront/internal/app/store"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/internal/gateway/local"
	"github.com/relovehq/storefront/internal/gateway/rest"
	"github.com/relovehq/storefront/internal/notify"
	"github.com/relovehq/storefront/pkg/logger"
)

// app is the composition root handed to an embedding UI frontend.
type app struct {
	sessions *session.Holder
	cart     *store.Cart
	wishlist *store.Wishlist
	flows    *store.Flows
	catalog  *catalog.Service
	account  *account.Service
	orders   *orders.Service
	admin    *admin.Service
}

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

	logger.Info("Starting storefront core", map[string]interface{}{
		"gateway_mode": cfg.Gateway.Mode,
		"log_level":    cfg.Logging.Level,
	})

	gw, closeGateway, err := buildGateway(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize gateway", err)
	}
	defer func() {
		if err := closeGateway(); err != nil {
			logger.Error("Failed to close gateway", err)
		}
	}()

	notifier := notify.NewLogNotifier()

	sessions := session.NewHolder(gw, gw)
	sessions.Start(context.Background())
	defer sessions.Close()

	cart := store.NewCart(sessions, gw, notifier)
	defer cart.Close()
	wishlist := store.NewWishlist(sessions, gw, notifier)
	defer wishlist.Close()

	a := &app{
		sessions: sessions,
		cart:     cart,
		wishlist: wishlist,
		flows:    store.NewFlows(cart, wishlist),
		catalog:  catalog.NewService(gw),
		account:  account.NewService(sessions, gw, notifier),
		orders: orders.NewService(sessions, cart, gw, notifier, orders.ShippingPolicy{
			FreeThreshold: cfg.Shipping.FreeThreshold,
			FlatFee:       cfg.Shipping.FlatFee,
		}),
		admin: admin.NewService(sessions, gw, notifier),
	}

	// Warm the home rails so the first render has data.
	if featured, err := a.catalog.Featured(context.Background(), 8); err == nil {
		logger.Info("Catalog reachable", map[string]interface{}{
			"featured_products": len(featured),
		})
	}

	logger.Info("Storefront core ready")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down storefront core")
}

func buildGateway(cfg *config.Config) (gateway.Gateway, func() error, error) {
	switch cfg.Gateway.Mode {
	case "local":
		g, err := local.Open(local.Config{
			DSN:       cfg.Local.DSN,
			JWTSecret: cfg.Local.JWTSecret,
			TokenTTL:  cfg.Local.TokenTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	case "rest":
		c, err := rest.NewClient(rest.Config{
			BaseURL:     cfg.Gateway.URL,
			AnonKey:     cfg.Gateway.AnonKey,
			HTTPTimeout: cfg.Gateway.HTTPTimeout,
			AutoRefresh: cfg.Gateway.AutoRefresh,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, func() error { c.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown gateway mode %q", cfg.Gateway.Mode)
	}
}
