package account

import (
	"context"

	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/pkg/logger"
)

// Addresses lists the user's saved addresses, default first, then newest.
func (s *Service) Addresses(ctx context.Context) ([]model.Address, error) {
	sess := s.sessions.Session()
	if sess == nil {
		return nil, gateway.ErrAuthRequired
	}

	var addresses []model.Address
	err := s.tables.Select(ctx, "addresses", gateway.Query{
		Filter: gateway.Eq("user_id", sess.User.ID),
		Orders: []gateway.Order{
			{Column: "is_default", Descending: true},
			{Column: "created_at", Descending: true},
		},
	}, &addresses)
	if err != nil {
		logger.Error("Failed to fetch addresses", err, map[string]interface{}{
			"user_id": sess.User.ID,
		})
		return nil, err
	}
	return addresses, nil
}

// SaveAddress inserts a new address or updates an existing one (by id).
// Saving an address as default first clears the user's other default flags;
// the two writes are independent, same as every other multi-step flow here.
func (s *Service) SaveAddress(ctx context.Context, address model.Address) error {
	sess := s.sessions.Session()
	if sess == nil {
		return gateway.ErrAuthRequired
	}

	if address.IsDefault {
		err := s.tables.Update(ctx, "addresses",
			map[string]interface{}{"is_default": false},
			gateway.Eq("user_id", sess.User.ID))
		if err != nil {
			logger.Error("Failed to clear default addresses", err, map[string]interface{}{
				"user_id": sess.User.ID,
			})
			s.notifier.Error("Failed to save address")
			return err
		}
	}

	if address.ID == "" {
		row := map[string]interface{}{
			"user_id":    sess.User.ID,
			"name":       address.Name,
			"phone":      address.Phone,
			"street":     address.Street,
			"city":       address.City,
			"state":      address.State,
			"pincode":    address.Pincode,
			"type":       address.Type,
			"is_default": address.IsDefault,
		}
		if err := s.tables.Insert(ctx, "addresses", row); err != nil {
			logger.Error("Failed to add address", err, map[string]interface{}{
				"user_id": sess.User.ID,
			})
			s.notifier.Error("Failed to save address")
			return err
		}
		s.notifier.Success("Address added successfully")
		return nil
	}

	patch := map[string]interface{}{
		"name":       address.Name,
		"phone":      address.Phone,
		"street":     address.Street,
		"city":       address.City,
		"state":      address.State,
		"pincode":    address.Pincode,
		"type":       address.Type,
		"is_default": address.IsDefault,
	}
	if err := s.tables.Update(ctx, "addresses", patch, gateway.Eq("id", address.ID)); err != nil {
		logger.Error("Failed to update address", err, map[string]interface{}{
			"address_id": address.ID,
		})
		s.notifier.Error("Failed to save address")
		return err
	}
	s.notifier.Success("Address updated successfully")
	return nil
}

// DeleteAddress removes an address by id.
func (s *Service) DeleteAddress(ctx context.Context, addressID string) error {
	if err := s.tables.Delete(ctx, "addresses", gateway.Eq("id", addressID)); err != nil {
		logger.Error("Failed to delete address", err, map[string]interface{}{
			"address_id": addressID,
		})
		s.notifier.Error("Failed to delete address")
		return err
	}
	s.notifier.Success("Address deleted successfully")
	return nil
}

// SetDefaultAddress makes the given address the user's default: clear all
// defaults, then set one.
func (s *Service) SetDefaultAddress(ctx context.Context, addressID string) error {
	sess := s.sessions.Session()
	if sess == nil {
		return gateway.ErrAuthRequired
	}

	err := s.tables.Update(ctx, "addresses",
		map[string]interface{}{"is_default": false},
		gateway.Eq("user_id", sess.User.ID))
	if err == nil {
		err = s.tables.Update(ctx, "addresses",
			map[string]interface{}{"is_default": true},
			gateway.Eq("id", addressID))
	}
	if err != nil {
		logger.Error("Failed to set default address", err, map[string]interface{}{
			"address_id": addressID,
		})
		s.notifier.Error("Failed to update default address")
		return err
	}
	s.notifier.Success("Default address updated")
	return nil
}
