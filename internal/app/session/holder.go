// Package session tracks the authenticated identity for the running
// storefront. The holder is the sole upstream trigger for cart and wishlist
// refreshes.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/relovehq/storefront/internal/app/model"
	"github.com/relovehq/storefront/internal/gateway"
	"github.com/relovehq/storefront/pkg/logger"
)

// Phase is the holder's initialization state. Transitions only move
// forward: Uninitialized to Resolving on Start, Resolving to Ready when the
// first of the two session sources settles.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseResolving
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseResolving:
		return "resolving"
	case PhaseReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Holder owns the current session. Initialization races two sources of
// truth, the change subscription and a one-shot fetch of the persisted
// session; whichever settles first flips the phase to Ready and later
// arrivals keep updating the value as fresher truth.
type Holder struct {
	auth   gateway.Auth
	tables gateway.Tables

	mu           sync.Mutex
	phase        Phase
	session      *gateway.Session
	closed       bool
	unsubscribe  func()
	listeners    map[int]func(*gateway.Session)
	nextListener int
	ensuredUser  string
}

func NewHolder(auth gateway.Auth, tables gateway.Tables) *Holder {
	return &Holder{
		auth:      auth,
		tables:    tables,
		listeners: make(map[int]func(*gateway.Session)),
	}
}

// Start subscribes to session changes and kicks off the one-shot fetch.
// Calling Start more than once is a no-op.
func (h *Holder) Start(ctx context.Context) {
	h.mu.Lock()
	if h.phase != PhaseUninitialized || h.closed {
		h.mu.Unlock()
		return
	}
	h.phase = PhaseResolving
	h.mu.Unlock()

	unsubscribe := h.auth.OnSessionChange(func(event gateway.Event, s *gateway.Session) {
		h.apply(event, s)
	})

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		unsubscribe()
		return
	}
	h.unsubscribe = unsubscribe
	h.mu.Unlock()

	go func() {
		s, err := h.auth.CurrentSession(ctx)
		if err != nil {
			logger.Error("Failed to fetch persisted session", err)
			h.apply(gateway.EventInitialSession, nil)
			return
		}
		h.apply(gateway.EventInitialSession, s)
	}()
}

// apply installs a session value from either source. The phase transition
// is idempotent; writes after Close are dropped.
func (h *Holder) apply(event gateway.Event, s *gateway.Session) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.session = s
	h.phase = PhaseReady

	newSignIn := event == gateway.EventSignedIn && s != nil && h.ensuredUser != s.User.ID
	if newSignIn {
		h.ensuredUser = s.User.ID
	}
	fns := make([]func(*gateway.Session), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	logger.Debug("Session state changed", map[string]interface{}{
		"event":       string(event),
		"has_session": s != nil,
	})

	if newSignIn {
		h.ensureProfile(s)
	}
	for _, fn := range fns {
		fn(copySession(s))
	}
}

// ensureProfile makes sure a profile row exists for a freshly signed-in
// user. ErrNoRows is the expected create-path signal; every other failure
// is logged and swallowed, sign-in must not depend on profile bookkeeping.
func (h *Holder) ensureProfile(s *gateway.Session) {
	ctx := context.Background()

	var existing model.Profile
	err := h.tables.SelectSingle(ctx, "profiles", gateway.Query{
		Filter: gateway.Eq("id", s.User.ID),
	}, &existing)
	if err == nil {
		return
	}
	if !errors.Is(err, gateway.ErrNoRows) {
		logger.Error("Failed to check existing profile", err, map[string]interface{}{
			"user_id": s.User.ID,
		})
		return
	}

	profile := model.Profile{
		ID:       s.User.ID,
		FullName: s.User.FullName,
		Email:    s.User.Email,
		IsAdmin:  false,
	}
	if err := h.tables.Insert(ctx, "profiles", profile); err != nil {
		logger.Error("Failed to create profile", err, map[string]interface{}{
			"user_id": s.User.ID,
		})
		return
	}
	logger.Info("Profile created", map[string]interface{}{
		"user_id": s.User.ID,
	})
}

// Session returns the current session, or nil when signed out.
func (h *Holder) Session() *gateway.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return copySession(h.session)
}

// Resolving reports whether the initial session is still being determined.
func (h *Holder) Resolving() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase != PhaseReady
}

func (h *Holder) Phase() Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase
}

// OnChange registers fn for session updates. The holder does not clear its
// own state on SignOut; listeners observe the cleared session through this
// path. The returned function removes the listener.
func (h *Holder) OnChange(fn func(*gateway.Session)) func() {
	h.mu.Lock()
	id := h.nextListener
	h.nextListener++
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// SignOut delegates to the gateway; failure propagates to the caller. State
// is cleared only when the resulting session-cleared event arrives.
func (h *Holder) SignOut(ctx context.Context) error {
	return h.auth.SignOut(ctx)
}

// Close tears the holder down. In-flight resolutions observed after Close
// are dropped.
func (h *Holder) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	unsubscribe := h.unsubscribe
	h.unsubscribe = nil
	h.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func copySession(s *gateway.Session) *gateway.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
