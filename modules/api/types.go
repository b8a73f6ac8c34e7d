package api

import (
	"time"

	domainprefs "github.com/example/task-tracker/domain/preferences"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest optionally names the refresh token to revoke with the
// access token.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	TokenType    string        `json:"token_type"`
	User         *UserResponse `json:"user,omitempty"`
}

// UserResponse represents a user response.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ProfileResponse is the signed-in user with their preferences.
type ProfileResponse struct {
	UserResponse
	Preferences domainprefs.Preferences `json:"preferences"`
}

// TaskInput is the body of task create and edit requests.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PreferencesInput is a partial preferences update.
type PreferencesInput struct {
	Theme          *string `json:"theme"`
	DisplayName    *string `json:"display_name"`
	ProfilePicture *string `json:"profile_picture"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
