// Package account covers the signed-in user's own records: profile,
// shipping addresses, and contact messages.
package account

import (
	"context"
	"errors"

	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/app/session"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/internal/notify"
	"github.com/relovehq/storefront/pkg/logger"
)

type Service struct {
	sessions *session.Holder
	tables   gateway.Tables
	notifier notify.Notifier
}

func NewService(sessions *session.Holder, tables gateway.Tables, notifier notify.Notifier) *Service {
	return &Service{sessions: sessions, tables: tables, notifier: notifier}
}

// Profile fetches the current user's profile, creating a default row when
// none exists yet.
func (s *Service) Profile(ctx context.Context) (*model.Profile, error) {
	sess := s.sessions.Session()
	if sess == nil {
		return nil, gateway.ErrAuthRequired
	}

	var profile model.Profile
	err := s.tables.SelectSingle(ctx, "profiles", gateway.Query{
		Filter: gateway.Eq("id", sess.User.ID),
	}, &profile)
	if err == nil {
		return &profile, nil
	}
	if !errors.Is(err, gateway.ErrNoRows) {
		logger.Error("Failed to fetch profile", err, map[string]interface{}{
			"user_id": sess.User.ID,
		})
		return nil, err
	}

	profile = model.Profile{
		ID:       sess.User.ID,
		FullName: sess.User.FullName,
		Email:    sess.User.Email,
	}
	if err := s.tables.Insert(ctx, "profiles", profile); err != nil {
		logger.Error("Failed to create profile", err, map[string]interface{}{
			"user_id": sess.User.ID,
		})
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile writes the given profile fields.
func (s *Service) UpdateProfile(ctx context.Context, patch map[string]interface{}) error {
	sess := s.sessions.Session()
	if sess == nil {
		return gateway.ErrAuthRequired
	}

	err := s.tables.Update(ctx, "profiles", patch, gateway.Eq("id", sess.User.ID))
	if err != nil {
		logger.Error("Failed to update profile", err, map[string]interface{}{
			"user_id": sess.User.ID,
		})
		s.notifier.Error("Failed to update profile")
		return err
	}
	s.notifier.Success("Profile updated successfully")
	return nil
}

// SendMessage submits a contact-form message; it is the one write that
// works without a session.
func (s *Service) SendMessage(ctx context.Context, name, email, message string) error {
	row := map[string]interface{}{
		"name":    name,
		"email":   email,
		"message": message,
	}
	if err := s.tables.Insert(ctx, "messages", row); err != nil {
		logger.Error("Failed to send message", err)
		s.notifier.Error("Failed to send message")
		return err
	}
	s.notifier.Success("Message sent")
	return nil
}
