package navigation

import (
	"testing"

	"github.com/example/task-tracker/identity"
	"github.com/stretchr/testify/assert"
)

// fakeIdentity is a settable Identity.
type fakeIdentity struct {
	user      *identity.User
	listeners []func(*identity.User)
}

func (f *fakeIdentity) Current() *identity.User { return f.user }

func (f *fakeIdentity) OnChange(fn func(*identity.User)) func() {
	f.listeners = append(f.listeners, fn)
	i := len(f.listeners) - 1
	return func() { f.listeners[i] = nil }
}

func (f *fakeIdentity) set(u *identity.User) {
	f.user = u
	for _, fn := range f.listeners {
		if fn != nil {
			fn(u)
		}
	}
}

func TestGuard_MountRedirectsSignedOutUser(t *testing.T) {
	loc := NewMemoryLocation("/stats")
	guard := NewGuard(DefaultRouter(), loc, &fakeIdentity{})

	d := guard.Mount()
	defer guard.Unmount()

	assert.False(t, d.Allowed)
	assert.Equal(t, "/stats", d.Path)
	assert.Equal(t, LoginPath, d.RedirectTo)
	assert.Equal(t, LoginPath, loc.Current())
}

func TestGuard_SignedInUserStays(t *testing.T) {
	loc := NewMemoryLocation("/tasks/t1")
	guard := NewGuard(DefaultRouter(), loc, &fakeIdentity{user: &identity.User{ID: "u1"}})

	d := guard.Mount()
	defer guard.Unmount()

	assert.True(t, d.Allowed)
	assert.Equal(t, "task-detail", d.Match.Route.Name)
	assert.Equal(t, "t1", d.Match.Params["id"])
	assert.Equal(t, "/tasks/t1", loc.Current())
}

func TestGuard_SignOutWhileOnGatedRoute(t *testing.T) {
	id := &fakeIdentity{user: &identity.User{ID: "u1"}}
	loc := NewMemoryLocation("/")
	guard := NewGuard(DefaultRouter(), loc, id)
	guard.Mount()
	defer guard.Unmount()

	id.set(nil)

	assert.Equal(t, LoginPath, loc.Current())
}

func TestGuard_NavigationToGatedRouteIsRedirected(t *testing.T) {
	loc := NewMemoryLocation(LoginPath)
	guard := NewGuard(DefaultRouter(), loc, &fakeIdentity{})
	guard.Mount()
	defer guard.Unmount()

	loc.Navigate("/settings")

	assert.Equal(t, LoginPath, loc.Current())
}

func TestGuard_GuestOnlyRoutesSendSignedInUsersHome(t *testing.T) {
	id := &fakeIdentity{}
	loc := NewMemoryLocation(RegisterPath)
	guard := NewGuard(DefaultRouter(), loc, id)

	d := guard.Mount()
	defer guard.Unmount()
	assert.True(t, d.Allowed)

	id.set(&identity.User{ID: "u1"})

	assert.Equal(t, HomePath, loc.Current())
}

func TestGuard_Visit(t *testing.T) {
	id := &fakeIdentity{}
	loc := NewMemoryLocation(HomePath)
	guard := NewGuard(DefaultRouter(), loc, id)
	guard.Mount()
	defer guard.Unmount()

	d := guard.Visit("/tasks/new")
	assert.False(t, d.Allowed)
	assert.Equal(t, "task-new", d.Match.Route.Name)
	assert.Equal(t, LoginPath, loc.Current())

	id.user = &identity.User{ID: "u1"}
	d = guard.Visit("/tasks/new")
	assert.True(t, d.Allowed)
	assert.Equal(t, "/tasks/new", loc.Current())
}

func TestGuard_UnknownRouteIsLeftAlone(t *testing.T) {
	loc := NewMemoryLocation("/nowhere")
	guard := NewGuard(DefaultRouter(), loc, &fakeIdentity{})

	d := guard.Check()

	assert.False(t, d.Found)
	assert.True(t, d.Allowed)
	assert.Equal(t, "/nowhere", loc.Current())
}

func TestGuard_UnmountStopsWatching(t *testing.T) {
	id := &fakeIdentity{user: &identity.User{ID: "u1"}}
	loc := NewMemoryLocation(HomePath)
	guard := NewGuard(DefaultRouter(), loc, id)
	guard.Mount()
	guard.Unmount()

	id.set(nil)

	assert.Equal(t, HomePath, loc.Current())
}
