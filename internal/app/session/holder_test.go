package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/internal/gateway/local"
)

func setupHolderTest(t *testing.T) (*Holder, *local.Gateway) {
	g, err := local.Open(local.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	h := NewHolder(g, g)
	t.Cleanup(h.Close)
	return h, g
}

func waitReady(t *testing.T, h *Holder) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.Phase() == PhaseReady
	}, time.Second, 5*time.Millisecond)
}

func TestHolder_PhaseLifecycle(t *testing.T) {
	h, _ := setupHolderTest(t)

	assert.Equal(t, PhaseUninitialized, h.Phase())
	assert.True(t, h.Resolving())
	assert.Nil(t, h.Session())

	h.Start(context.Background())
	waitReady(t, h)

	assert.False(t, h.Resolving())
	assert.Nil(t, h.Session())
}

func TestHolder_StartIsIdempotent(t *testing.T) {
	h, _ := setupHolderTest(t)

	h.Start(context.Background())
	h.Start(context.Background())
	waitReady(t, h)

	assert.Equal(t, PhaseReady, h.Phase())
}

func TestHolder_SignInAndSignOut(t *testing.T) {
	h, g := setupHolderTest(t)
	h.Start(context.Background())
	waitReady(t, h)

	var mu sync.Mutex
	var observed []*gateway.Session
	remove := h.OnChange(func(s *gateway.Session) {
		mu.Lock()
		observed = append(observed, s)
		mu.Unlock()
	})
	defer remove()

	sess, err := g.SignUp(context.Background(), "user@example.com", "password123", "Some User")
	require.NoError(t, err)

	current := h.Session()
	require.NotNil(t, current)
	assert.Equal(t, sess.User.ID, current.User.ID)
	assert.Equal(t, "user@example.com", current.User.Email)

	require.NoError(t, h.SignOut(context.Background()))
	assert.Nil(t, h.Session())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, observed, 2)
	assert.NotNil(t, observed[0])
	assert.Nil(t, observed[1])
}

func TestHolder_CreatesProfileOnFirstSignIn(t *testing.T) {
	h, g := setupHolderTest(t)
	h.Start(context.Background())
	waitReady(t, h)

	sess, err := g.SignUp(context.Background(), "new@example.com", "password123", "New User")
	require.NoError(t, err)

	var profile model.Profile
	err = g.SelectSingle(context.Background(), "profiles", gateway.Query{
		Filter: gateway.Eq("id", sess.User.ID),
	}, &profile)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", profile.Email)
	assert.Equal(t, "New User", profile.FullName)
	assert.False(t, profile.IsAdmin)
}

func TestHolder_KeepsExistingProfile(t *testing.T) {
	h, g := setupHolderTest(t)
	h.Start(context.Background())
	waitReady(t, h)

	_, err := g.SignUp(context.Background(), "admin@example.com", "password123", "Admin User")
	require.NoError(t, err)
	sess := h.Session()
	require.NotNil(t, sess)
	require.NoError(t, g.DB().Model(&model.Profile{}).
		Where("id = ?", sess.User.ID).
		Update("is_admin", true).Error)
	require.NoError(t, g.SignOut(context.Background()))

	// A fresh holder has not seen this user yet, so the ensure path runs
	// again and must leave the existing row alone.
	h2 := NewHolder(g, g)
	t.Cleanup(h2.Close)
	h2.Start(context.Background())
	waitReady(t, h2)

	signed, err := g.SignIn(context.Background(), "admin@example.com", "password123")
	require.NoError(t, err)

	var profile model.Profile
	err = g.SelectSingle(context.Background(), "profiles", gateway.Query{
		Filter: gateway.Eq("id", signed.User.ID),
	}, &profile)
	require.NoError(t, err)
	assert.True(t, profile.IsAdmin)

	n, err := g.Count(context.Background(), "profiles", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestHolder_OnChangeUnsubscribe(t *testing.T) {
	h, g := setupHolderTest(t)
	h.Start(context.Background())
	waitReady(t, h)

	var mu sync.Mutex
	calls := 0
	remove := h.OnChange(func(*gateway.Session) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	remove()

	_, err := g.SignUp(context.Background(), "user@example.com", "password123", "Some User")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestHolder_CloseDropsLateUpdates(t *testing.T) {
	h, g := setupHolderTest(t)
	h.Start(context.Background())
	waitReady(t, h)
	h.Close()

	_, err := g.SignUp(context.Background(), "user@example.com", "password123", "Some User")
	require.NoError(t, err)

	assert.Nil(t, h.Session())
}

func TestHolder_CloseIsIdempotent(t *testing.T) {
	h, _ := setupHolderTest(t)
	h.Start(context.Background())
	h.Close()
	h.Close()
}
