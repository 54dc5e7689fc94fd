package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/pkg/logger"
)

// refreshLeeway is how long before token expiry the auto-refresh fires.
const refreshLeeway = 30 * time.Second

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	User         tokenUserInfo `json:"user"`
}

type tokenUserInfo struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

func (c *Client) CurrentSession(ctx context.Context) (*gateway.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, nil
	}
	s := *c.session
	return &s, nil
}

func (c *Client) OnSessionChange(fn func(gateway.Event, *gateway.Session)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*gateway.Session, error) {
	u := fmt.Sprintf("%s/auth/v1/token?grant_type=password", c.config.BaseURL)
	payload := map[string]string{"email": email, "password": password}

	var tr tokenResponse
	if err := c.authRequest(ctx, u, payload, &tr); err != nil {
		return nil, err
	}
	return c.adoptSession(tr, gateway.EventSignedIn)
}

func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*gateway.Session, error) {
	u := fmt.Sprintf("%s/auth/v1/signup", c.config.BaseURL)
	payload := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]string{"full_name": fullName},
	}

	var tr tokenResponse
	if err := c.authRequest(ctx, u, payload, &tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		// Email confirmation pending; no session yet.
		return nil, nil
	}
	return c.adoptSession(tr, gateway.EventSignedIn)
}

func (c *Client) SignOut(ctx context.Context) error {
	u := fmt.Sprintf("%s/auth/v1/logout", c.config.BaseURL)
	if _, err := c.doJSON(ctx, http.MethodPost, u, nil, nil); err != nil {
		return err
	}

	c.mu.Lock()
	c.session = nil
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	c.mu.Unlock()

	c.publish(gateway.EventSignedOut, nil)
	return nil
}

func (c *Client) RefreshSession(ctx context.Context) (*gateway.Session, error) {
	c.mu.Lock()
	current := c.session
	c.mu.Unlock()
	if current == nil {
		return nil, gateway.ErrAuthRequired
	}

	u := fmt.Sprintf("%s/auth/v1/token?grant_type=refresh_token", c.config.BaseURL)
	payload := map[string]string{"refresh_token": current.RefreshToken}

	var tr tokenResponse
	if err := c.authRequest(ctx, u, payload, &tr); err != nil {
		return nil, err
	}
	return c.adoptSession(tr, gateway.EventTokenRefreshed)
}

func (c *Client) authRequest(ctx context.Context, url string, payload, dest interface{}) error {
	body, err := c.doJSON(ctx, http.MethodPost, url, payload, nil)
	if err != nil {
		return err
	}
	return decodeJSON(body, dest)
}

// adoptSession installs a session from a token response, publishes the event
// and arms the auto-refresh timer.
func (c *Client) adoptSession(tr tokenResponse, event gateway.Event) (*gateway.Session, error) {
	expiresAt := time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	if tr.ExpiresIn == 0 {
		exp, err := tokenExpiry(tr.AccessToken)
		if err != nil {
			return nil, err
		}
		expiresAt = exp
	}

	session := &gateway.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    expiresAt,
		User: gateway.User{
			ID:       tr.User.ID,
			Email:    tr.User.Email,
			FullName: tr.User.UserMetadata.FullName,
		},
	}

	c.mu.Lock()
	c.session = session
	if c.refreshTimer != nil {
		c.refreshTimer.Stop()
		c.refreshTimer = nil
	}
	if c.config.AutoRefresh {
		delay := time.Until(expiresAt) - refreshLeeway
		if delay < time.Second {
			delay = time.Second
		}
		c.refreshTimer = time.AfterFunc(delay, c.autoRefresh)
	}
	c.mu.Unlock()

	c.publish(event, session)

	s := *session
	return &s, nil
}

func (c *Client) autoRefresh() {
	if _, err := c.RefreshSession(context.Background()); err != nil {
		logger.Error("Failed to auto-refresh session", err)
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client only needs the timestamp, verification is the server's concern.
func tokenExpiry(accessToken string) (time.Time, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("access token has no expiry")
	}
	return exp.Time, nil
}

func (c *Client) publish(event gateway.Event, session *gateway.Session) {
	c.mu.Lock()
	fns := make([]func(gateway.Event, *gateway.Session), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		var snapshot *gateway.Session
		if session != nil {
			s := *session
			snapshot = &s
		}
		fn(event, snapshot)
	}
}
