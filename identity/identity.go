// Package identity holds the signed-in user of a client and notifies
// listeners when it changes.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MinPasswordLength matches the server's registration rule.
const MinPasswordLength = 6

var (
	// ErrMissingFields is returned when a sign-in or registration field is empty.
	ErrMissingFields = errors.New("please fill in all fields")
	// ErrPasswordMismatch is returned when the confirmation differs.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrWeakPassword is returned when the password is too short.
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	// ErrNotSignedIn is returned by operations that need a session.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrRejected is returned by an Authenticator when the server refused
	// the credentials or token.
	ErrRejected = errors.New("credentials rejected")
)

// User is the signed-in user.
type User struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Session is a user with the tokens that authenticate them.
type Session struct {
	User         User      `yaml:"user"`
	AccessToken  string    `yaml:"access_token"`
	RefreshToken string    `yaml:"refresh_token"`
	ExpiresAt    time.Time `yaml:"expires_at"`
}

// Authenticator talks to the auth endpoints of the server.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Register(ctx context.Context, name, email, password, confirm string) error
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	Profile(ctx context.Context, accessToken string) (*User, error)
	Logout(ctx context.Context, session *Session) error
}

// SessionStore persists the session between runs.
type SessionStore interface {
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// Provider is the identity of a client. Current is nil while signed out.
type Provider struct {
	auth  Authenticator
	store SessionStore

	mu        sync.RWMutex
	session   *Session
	listeners map[int]func(*User)
	nextID    int
}

// NewProvider creates a signed-out provider. Call Restore to pick up a
// stored session.
func NewProvider(auth Authenticator, store SessionStore) *Provider {
	return &Provider{
		auth:      auth,
		store:     store,
		listeners: make(map[int]func(*User)),
	}
}

// Current returns a copy of the signed-in user, or nil.
func (p *Provider) Current() *User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.session == nil {
		return nil
	}
	u := p.session.User
	return &u
}

// AccessToken returns the token of the current session, or "".
func (p *Provider) AccessToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.session == nil {
		return ""
	}
	return p.session.AccessToken
}

// OnChange registers fn for sign-in and sign-out. fn receives nil on
// sign-out.
func (p *Provider) OnChange(fn func(*User)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// Restore loads the stored session once and checks it with the server,
// refreshing the access token when it was rejected. A session the server
// no longer accepts is discarded. When the server cannot be reached the
// stored session is kept on disk and the provider stays signed out.
func (p *Provider) Restore(ctx context.Context) (*User, error) {
	stored, err := p.store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if stored == nil {
		p.set(nil)
		return nil, nil
	}

	user, err := p.auth.Profile(ctx, stored.AccessToken)
	if errors.Is(err, ErrRejected) && stored.RefreshToken != "" {
		var refreshed *Session
		refreshed, err = p.auth.Refresh(ctx, stored.RefreshToken)
		if err == nil {
			refreshed.User = stored.User
			stored = refreshed
			user, err = p.auth.Profile(ctx, stored.AccessToken)
		}
	}
	switch {
	case errors.Is(err, ErrRejected):
		p.set(nil)
		if cerr := p.store.Clear(); cerr != nil {
			return nil, fmt.Errorf("failed to clear session: %w", cerr)
		}
		return nil, nil
	case err != nil:
		p.set(nil)
		return nil, fmt.Errorf("failed to check session: %w", err)
	}

	stored.User = *user
	if err := p.store.Save(stored); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	p.set(stored)
	return p.Current(), nil
}

// SignIn authenticates with email and password.
func (p *Provider) SignIn(ctx context.Context, email, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	session, err := p.auth.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := p.store.Save(session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	p.set(session)
	return p.Current(), nil
}

// Register creates an account and signs it in.
func (p *Provider) Register(ctx context.Context, name, email, password, confirm string) (*User, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" || confirm == "" {
		return nil, ErrMissingFields
	}
	if password != confirm {
		return nil, ErrPasswordMismatch
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	if err := p.auth.Register(ctx, name, email, password, confirm); err != nil {
		return nil, err
	}
	return p.SignIn(ctx, email, password)
}

// SignOut ends the session. Local state is cleared even when the server
// could not be reached; that error is returned afterwards.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.RLock()
	session := p.session
	p.mu.RUnlock()

	var remoteErr error
	if session != nil {
		remoteErr = p.auth.Logout(ctx, session)
	}

	storeErr := p.store.Clear()
	p.set(nil)

	if remoteErr != nil {
		return fmt.Errorf("server sign-out failed: %w", remoteErr)
	}
	if storeErr != nil {
		return fmt.Errorf("failed to clear session: %w", storeErr)
	}
	return nil
}

// set replaces the session and notifies listeners when the signed-in user
// changed.
func (p *Provider) set(session *Session) {
	p.mu.Lock()
	before := p.session
	p.session = session
	changed := userID(before) != userID(session)
	var listeners []func(*User)
	if changed {
		for id := 0; id < p.nextID; id++ {
			if fn, ok := p.listeners[id]; ok {
				listeners = append(listeners, fn)
			}
		}
	}
	p.mu.Unlock()

	if !changed {
		return
	}
	current := p.Current()
	for _, fn := range listeners {
		fn(current)
	}
}

func userID(s *Session) string {
	if s == nil {
		return ""
	}
	return s.User.ID
}
