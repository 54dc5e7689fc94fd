package local

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/pkg/logger"
)

const bcryptCost = 12

// authUser is the local stand-in for the hosted auth service's user table.
type authUser struct {
	ID           string `gorm:"type:text;primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FullName     string
	CreatedAt    time.Time
}

func (authUser) TableName() string {
	return "auth_users"
}

func (g *Gateway) CurrentSession(ctx context.Context) (*gateway.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return nil, nil
	}
	s := *g.session
	return &s, nil
}

func (g *Gateway) OnSessionChange(fn func(gateway.Event, *gateway.Session)) func() {
	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

func (g *Gateway) SignUp(ctx context.Context, email, password, fullName string) (*gateway.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &authUser{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
	}
	if err := g.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, gateway.ErrConflict
		}
		return nil, err
	}

	logger.Info("Local auth user registered", map[string]interface{}{
		"user_id": user.ID,
	})
	return g.startSession(user, gateway.EventSignedIn)
}

func (g *Gateway) SignIn(ctx context.Context, email, password string) (*gateway.Session, error) {
	var user authUser
	err := g.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gateway.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, gateway.ErrInvalidCredentials
	}
	return g.startSession(&user, gateway.EventSignedIn)
}

func (g *Gateway) SignOut(ctx context.Context) error {
	g.mu.Lock()
	g.session = nil
	g.mu.Unlock()
	g.publish(gateway.EventSignedOut, nil)
	return nil
}

func (g *Gateway) RefreshSession(ctx context.Context) (*gateway.Session, error) {
	g.mu.Lock()
	current := g.session
	g.mu.Unlock()
	if current == nil {
		return nil, gateway.ErrAuthRequired
	}

	var user authUser
	err := g.db.WithContext(ctx).First(&user, "id = ?", current.User.ID).Error
	if err != nil {
		return nil, err
	}
	return g.startSession(&user, gateway.EventTokenRefreshed)
}

func (g *Gateway) startSession(user *authUser, event gateway.Event) (*gateway.Session, error) {
	expiresAt := time.Now().Add(g.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
		"exp":       expiresAt.Unix(),
	})
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return nil, err
	}

	session := &gateway.Session{
		AccessToken:  signed,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    expiresAt,
		User: gateway.User{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
		},
	}

	g.mu.Lock()
	g.session = session
	g.mu.Unlock()
	g.publish(event, session)

	s := *session
	return &s, nil
}

// publish fans an event out to subscribers outside the session lock, so
// callbacks may call back into the gateway.
func (g *Gateway) publish(event gateway.Event, session *gateway.Session) {
	g.mu.Lock()
	fns := make([]func(gateway.Event, *gateway.Session), 0, len(g.subs))
	for _, fn := range g.subs {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	for _, fn := range fns {
		var snapshot *gateway.Session
		if session != nil {
			s := *session
			snapshot = &s
		}
		fn(event, snapshot)
	}
}
