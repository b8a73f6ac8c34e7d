package client

import (
	"context"
	"time"

	"github.com/example/task-tracker/identity"
	"github.com/gofiber/fiber/v2"
)

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	TokenType    string        `json:"token_type"`
	User         *userResponse `json:"user,omitempty"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (t tokenResponse) session() *identity.Session {
	s := &identity.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(t.ExpiresIn) * time.Second),
	}
	if t.User != nil {
		s.User = identity.User{ID: t.User.ID, Name: t.User.Name, Email: t.User.Email}
	}
	return s
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, email, password string) (*identity.Session, error) {
	a := fiber.Post(c.url("/api/v1/auth/login", nil)).JSON(fiber.Map{
		"email":    email,
		"password": password,
	})

	var resp tokenResponse
	if err := c.do(ctx, a, "", &resp); err != nil {
		return nil, err
	}
	return resp.session(), nil
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, name, email, password, confirm string) error {
	a := fiber.Post(c.url("/api/v1/auth/register", nil)).JSON(fiber.Map{
		"name":            name,
		"email":           email,
		"password":        password,
		"confirmPassword": confirm,
	})
	return c.do(ctx, a, "", nil)
}

// Refresh trades a refresh token for a new token pair. The returned
// session carries no user.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*identity.Session, error) {
	a := fiber.Post(c.url("/api/v1/auth/refresh", nil)).JSON(fiber.Map{
		"refresh_token": refreshToken,
	})

	var resp tokenResponse
	if err := c.do(ctx, a, "", &resp); err != nil {
		return nil, err
	}
	return resp.session(), nil
}

// Profile returns the user accessToken belongs to.
func (c *Client) Profile(ctx context.Context, accessToken string) (*identity.User, error) {
	var resp userResponse
	if err := c.do(ctx, fiber.Get(c.url("/api/v1/profile", nil)), accessToken, &resp); err != nil {
		return nil, err
	}
	return &identity.User{ID: resp.ID, Name: resp.Name, Email: resp.Email}, nil
}

// Logout revokes both tokens of session.
func (c *Client) Logout(ctx context.Context, session *identity.Session) error {
	a := fiber.Post(c.url("/api/v1/auth/logout", nil)).JSON(fiber.Map{
		"refresh_token": session.RefreshToken,
	})
	return c.do(ctx, a, session.AccessToken, nil)
}
