package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuth is an in-memory Authenticator.
type fakeAuth struct {
	users      map[string]string // email -> password
	valid      map[string]User   // access token -> user
	refresh    map[string]string // refresh token -> new access token
	logoutErr  error
	profileErr error
	loggedOut  []string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		users:   map[string]string{"ann@example.com": "secret1"},
		valid:   map[string]User{},
		refresh: map[string]string{},
	}
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*Session, error) {
	if f.users[email] != password {
		return nil, ErrRejected
	}
	u := User{ID: "id-" + email, Name: "Ann", Email: email}
	f.valid["access-"+email] = u
	return &Session{User: u, AccessToken: "access-" + email, RefreshToken: "refresh-" + email}, nil
}

func (f *fakeAuth) Register(_ context.Context, _, email, password, _ string) error {
	if _, ok := f.users[email]; ok {
		return errors.New("user with this email already exists")
	}
	f.users[email] = password
	return nil
}

func (f *fakeAuth) Refresh(_ context.Context, refreshToken string) (*Session, error) {
	access, ok := f.refresh[refreshToken]
	if !ok {
		return nil, ErrRejected
	}
	return &Session{AccessToken: access, RefreshToken: refreshToken + "-next"}, nil
}

func (f *fakeAuth) Profile(_ context.Context, accessToken string) (*User, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	u, ok := f.valid[accessToken]
	if !ok {
		return nil, ErrRejected
	}
	return &u, nil
}

func (f *fakeAuth) Logout(_ context.Context, s *Session) error {
	f.loggedOut = append(f.loggedOut, s.AccessToken)
	return f.logoutErr
}

func newTestProvider(t *testing.T) (*Provider, *fakeAuth, *FileSessionStore) {
	t.Helper()
	auth := newFakeAuth()
	store := NewFileSessionStore(filepath.Join(t.TempDir(), "session.yaml"))
	return NewProvider(auth, store), auth, store
}

func TestProvider_SignInNotifiesAndPersists(t *testing.T) {
	p, _, store := newTestProvider(t)
	assert.Nil(t, p.Current())

	var changes []*User
	p.OnChange(func(u *User) { changes = append(changes, u) })

	u, err := p.SignIn(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Equal(t, "access-ann@example.com", p.AccessToken())

	require.Len(t, changes, 1)
	assert.Equal(t, "id-ann@example.com", changes[0].ID)

	saved, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "refresh-ann@example.com", saved.RefreshToken)
}

func TestProvider_SignInFailures(t *testing.T) {
	p, _, _ := newTestProvider(t)

	_, err := p.SignIn(context.Background(), " ", "x")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = p.SignIn(context.Background(), "ann@example.com", "wrong")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Nil(t, p.Current())
}

func TestProvider_Register(t *testing.T) {
	tests := []struct {
		name    string
		fields  [4]string
		wantErr error
	}{
		{name: "missing field", fields: [4]string{"Bob", "bob@example.com", "secret1", ""}, wantErr: ErrMissingFields},
		{name: "mismatch", fields: [4]string{"Bob", "bob@example.com", "secret1", "secret2"}, wantErr: ErrPasswordMismatch},
		{name: "too short", fields: [4]string{"Bob", "bob@example.com", "abc", "abc"}, wantErr: ErrWeakPassword},
		{name: "signs in", fields: [4]string{"Bob", "bob@example.com", "secret1", "secret1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, _ := newTestProvider(t)
			u, err := p.Register(context.Background(), tt.fields[0], tt.fields[1], tt.fields[2], tt.fields[3])
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p.Current())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "bob@example.com", u.Email)
			assert.NotNil(t, p.Current())
		})
	}
}

func TestProvider_SignOutClearsEvenWhenServerFails(t *testing.T) {
	p, auth, store := newTestProvider(t)
	_, err := p.SignIn(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)

	var last *User
	notified := false
	p.OnChange(func(u *User) {
		notified = true
		last = u
	})

	auth.logoutErr = errors.New("connection refused")
	err = p.SignOut(context.Background())

	assert.Error(t, err)
	assert.Nil(t, p.Current())
	assert.Empty(t, p.AccessToken())
	assert.True(t, notified)
	assert.Nil(t, last)
	assert.Equal(t, []string{"access-ann@example.com"}, auth.loggedOut)

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestProvider_SignOutWhenSignedOut(t *testing.T) {
	p, auth, _ := newTestProvider(t)
	assert.NoError(t, p.SignOut(context.Background()))
	assert.Empty(t, auth.loggedOut)
}

func TestProvider_Restore(t *testing.T) {
	ctx := context.Background()

	t.Run("no stored session", func(t *testing.T) {
		p, _, _ := newTestProvider(t)
		u, err := p.Restore(ctx)
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("valid session", func(t *testing.T) {
		p, auth, store := newTestProvider(t)
		auth.valid["tok"] = User{ID: "u1", Name: "Ann", Email: "ann@example.com"}
		require.NoError(t, store.Save(&Session{AccessToken: "tok", RefreshToken: "r"}))

		u, err := p.Restore(ctx)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "u1", u.ID)
	})

	t.Run("expired access token is refreshed", func(t *testing.T) {
		p, auth, store := newTestProvider(t)
		auth.refresh["r"] = "fresh"
		auth.valid["fresh"] = User{ID: "u1"}
		require.NoError(t, store.Save(&Session{AccessToken: "stale", RefreshToken: "r"}))

		u, err := p.Restore(ctx)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, "fresh", p.AccessToken())

		saved, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, "r-next", saved.RefreshToken)
	})

	t.Run("rejected session is discarded", func(t *testing.T) {
		p, _, store := newTestProvider(t)
		require.NoError(t, store.Save(&Session{AccessToken: "stale", RefreshToken: "gone"}))

		u, err := p.Restore(ctx)
		require.NoError(t, err)
		assert.Nil(t, u)

		saved, err := store.Load()
		require.NoError(t, err)
		assert.Nil(t, saved)
	})

	t.Run("unreachable server keeps the file", func(t *testing.T) {
		p, auth, store := newTestProvider(t)
		auth.profileErr = errors.New("connection refused")
		require.NoError(t, store.Save(&Session{AccessToken: "tok"}))

		u, err := p.Restore(ctx)
		assert.Error(t, err)
		assert.Nil(t, u)

		saved, err := store.Load()
		require.NoError(t, err)
		assert.NotNil(t, saved)
	})
}

func TestProvider_Unsubscribe(t *testing.T) {
	p, _, _ := newTestProvider(t)
	calls := 0
	unsubscribe := p.OnChange(func(*User) { calls++ })
	unsubscribe()

	_, err := p.SignIn(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
}
